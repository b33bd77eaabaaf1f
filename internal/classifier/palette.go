package classifier

import (
	"sort"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

// ExtractPalette tallies computed background colors across the snapshot and
// returns the topK most frequent ones, most frequent first. Colors are
// compared as exact strings; the fully transparent sentinel is skipped.
// Ties keep first-encountered order, so the result is stable for a given
// snapshot.
func ExtractPalette(snap *DocumentSnapshot, topK int) []schemas.ColorCount {
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0

	for _, v := range snap.Elements {
		c := v.Background
		if c == "" || c == TransparentColor {
			continue
		}
		if _, seen := counts[c]; !seen {
			order[c] = next
			next++
		}
		counts[c]++
	}

	summary := make([]schemas.ColorCount, 0, len(counts))
	for c, n := range counts {
		summary = append(summary, schemas.ColorCount{Color: c, Count: n})
	}
	sort.SliceStable(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return order[summary[i].Color] < order[summary[j].Color]
	})

	if topK > 0 && len(summary) > topK {
		summary = summary[:topK]
	}
	return summary
}
