package artifacts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

func TestStore_CreatesRunDirectory(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(base, "run-123", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "run-123"), store.Dir())
	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_WriteJSON(t *testing.T) {
	store, err := NewStore(t.TempDir(), "run", zap.NewNop())
	require.NoError(t, err)

	records := []schemas.NetworkRecord{
		{URL: "wss://stream.example/quotes", Method: "WEBSOCKET"},
	}
	require.NoError(t, store.WriteJSON(FileNetworkRecords, records))

	data, err := os.ReadFile(filepath.Join(store.Dir(), FileNetworkRecords))
	require.NoError(t, err)

	var got []schemas.NetworkRecord
	require.NoError(t, jsoniter.Unmarshal(data, &got))
	assert.Equal(t, records, got)
	assert.Contains(t, string(data), "\n  ", "artifacts are indented for humans")
}

func TestStore_WritePNG(t *testing.T) {
	store, err := NewStore(t.TempDir(), "run", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.WritePNG(FileFullPage, []byte{0x89, 'P', 'N', 'G'}))
	data, err := os.ReadFile(filepath.Join(store.Dir(), FileFullPage))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestStore_WriteDiagnostic(t *testing.T) {
	store, err := NewStore(t.TempDir(), "run", zap.NewNop())
	require.NoError(t, err)

	diag := schemas.Diagnostic{
		Stage:     "navigate",
		Message:   "net::ERR_CONNECTION_REFUSED",
		Trace:     "goroutine 1 [running]:",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.WriteDiagnostic(diag))

	data, err := os.ReadFile(filepath.Join(store.Dir(), FileError))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "stage: navigate")
	assert.Contains(t, text, "net::ERR_CONNECTION_REFUSED")
	assert.Contains(t, text, "goroutine 1")
}

func TestNewStore_BadBaseDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewStore(file, "run", zap.NewNop())
	assert.Error(t, err)
}
