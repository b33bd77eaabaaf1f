package artifacts

import (
	"fmt"
	"strings"
	"unicode"
)

const maxSlugLen = 40

// Slug turns free-form element text into a safe filename fragment:
// lowercase, runs of non-alphanumerics collapsed to single underscores,
// bounded length. Text that yields nothing usable falls back to the
// element's index.
func Slug(text string, index int) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128 {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			if b.Len() >= maxSlugLen {
				break
			}
			continue
		}
		pendingSep = true
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "_")
	}
	if slug == "" {
		return fmt.Sprintf("element_%d", index)
	}
	return slug
}

// ActionScreenshotName names the screenshot file for one action button.
func ActionScreenshotName(text string, index int) string {
	return fmt.Sprintf("action_%s.png", Slug(text, index))
}
