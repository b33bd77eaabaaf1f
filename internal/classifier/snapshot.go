package classifier

import (
	"github.com/xkilldash9x/tradelens/api/schemas"
)

// TransparentColor is the fully-transparent sentinel reported by the
// browser for elements with no resolved background. It is excluded from
// the palette tally.
const TransparentColor = "rgba(0, 0, 0, 0)"

// ElementView is the uniform, read-only view of one document element that
// every classification predicate operates on. It is plain immutable data
// captured at the instant of measurement; it holds no reference to the
// live document and is recomputed fresh on every snapshot.
type ElementView struct {
	Tag          string               `json:"tag"`
	ID           string               `json:"id"`
	Classes      []string             `json:"classes"`
	Text         string               `json:"text"`
	Placeholder  string               `json:"placeholder"`
	Background   string               `json:"background"`
	Foreground   string               `json:"foreground"`
	Rect         schemas.GeometryRect `json:"rect"`
	CanvasWidth  int                  `json:"canvasWidth,omitempty"`
	CanvasHeight int                  `json:"canvasHeight,omitempty"`
}

// DocumentSnapshot is the frozen state of the page at one moment. The
// geometry inside is valid only at capture time; the document may reflow
// immediately afterwards.
type DocumentSnapshot struct {
	RootBackground string        `json:"rootBackground"`
	Elements       []ElementView `json:"elements"`
}
