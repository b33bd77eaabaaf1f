// Package artifacts writes capture outputs to a per-run directory.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

// Fixed artifact filenames inside a run directory.
const (
	FileFullPage       = "full_page.png"
	FileChartRegion    = "chart_region.png"
	FileChartAnalysis  = "chart_analysis.json"
	FileInterface      = "trading_interface.json"
	FileNetworkRecords = "network_records.json"
	FileSocketGlobals  = "websocket_globals.json"
	FileReport         = "capture_report.json"
	FileError          = "error.txt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store writes one run's artifacts. All paths are relative to the run
// directory created by NewStore.
type Store struct {
	dir string
	log *zap.Logger
}

// NewStore creates <baseDir>/<runID> and returns a store rooted there.
func NewStore(baseDir, runID string, log *zap.Logger) (*Store, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log.Named("artifacts")}, nil
}

// Dir is the run directory all artifacts are written into.
func (s *Store) Dir() string {
	return s.dir
}

// WriteJSON marshals v with indentation and writes it under name.
func (s *Store) WriteJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	return s.writeFile(name, data)
}

// WritePNG writes screenshot bytes under name.
func (s *Store) WritePNG(name string, data []byte) error {
	return s.writeFile(name, data)
}

// WriteDiagnostic records a failure as error.txt so a partial run still
// leaves an explanation behind.
func (s *Store) WriteDiagnostic(d schemas.Diagnostic) error {
	text := fmt.Sprintf("stage: %s\ntime: %s\n\n%s\n\n%s\n",
		d.Stage, d.Timestamp.Format("2006-01-02T15:04:05Z07:00"), d.Message, d.Trace)
	return s.writeFile(FileError, []byte(text))
}

func (s *Store) writeFile(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.Debug("artifact written", zap.String("file", name), zap.Int("bytes", len(data)))
	return nil
}
