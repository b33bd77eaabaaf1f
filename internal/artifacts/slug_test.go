package artifacts

import (
	"regexp"
	"testing"

	gofuzzheaders "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
)

var safeSlug = regexp.MustCompile(`^[a-z0-9_]+$`)

func TestSlug(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Buy Call", "buy_call"},
		{"SELL", "sell"},
		{"  Buy -- Now!  ", "buy_now"},
		{"1 Minute", "1_minute"},
		{"Höher / Tiefer", "h_her_tiefer"},
		{"", "element_7"},
		{"!!!", "element_7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.text, 7), "%q", tt.text)
	}
}

func TestSlug_BoundsLength(t *testing.T) {
	long := "this is an extremely long button label that keeps going and going and going"
	got := Slug(long, 0)
	assert.LessOrEqual(t, len(got), maxSlugLen)
	assert.True(t, safeSlug.MatchString(got))
}

func TestActionScreenshotName(t *testing.T) {
	assert.Equal(t, "action_buy_call.png", ActionScreenshotName("Buy Call", 0))
	assert.Equal(t, "action_element_3.png", ActionScreenshotName("⇧⇩", 3))
}

func FuzzSlug(f *testing.F) {
	f.Add([]byte("Buy Call"))
	f.Add([]byte{0xff, 0xfe, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		c := gofuzzheaders.NewConsumer(data)
		text, err := c.GetString()
		if err != nil {
			return
		}
		index, err := c.GetInt()
		if err != nil {
			return
		}

		got := Slug(text, index)
		if got == "" {
			t.Fatalf("Slug(%q, %d) produced an empty name", text, index)
		}
		if len(got) > maxSlugLen+len("element_")+20 {
			t.Fatalf("Slug(%q, %d) = %q exceeds bound", text, index, got)
		}
		for _, r := range got {
			if r == '/' || r == '\\' || r == 0 || r == '.' {
				t.Fatalf("Slug(%q, %d) = %q contains unsafe characters", text, index, got)
			}
		}
	})
}
