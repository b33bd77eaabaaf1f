// Package schemas defines the shared data contracts passed between the
// capture pipeline's components and handed to the artifact store.
package schemas

import "time"

// NetworkRecord is one captured outgoing request. It is immutable once
// created; ownership transfers to the CaptureReport for the session.
// WebSocket handshakes are recorded with Method set to "WEBSOCKET".
type NetworkRecord struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ElementDescriptor is a read-only snapshot of one document element at the
// moment of measurement. It is never mutated after creation; a fresh set of
// descriptors is produced on every classification pass, so no identity
// persists across passes.
type ElementDescriptor struct {
	Tag        string            `json:"tag"`
	ID         string            `json:"id,omitempty"`
	Classes    []string          `json:"classes,omitempty"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attribute keys carried in ElementDescriptor.Attributes.
const (
	AttrPlaceholder  = "placeholder"
	AttrBackground   = "backgroundColor"
	AttrForeground   = "color"
	AttrCanvasWidth  = "canvasWidth"
	AttrCanvasHeight = "canvasHeight"
)

// GeometryRect is an element's bounding box in page coordinates at the
// instant of measurement. The document may reflow immediately afterwards,
// so any later use (e.g. a region screenshot) must tolerate staleness.
type GeometryRect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CanvasSurface pairs a canvas element with its on-screen geometry.
type CanvasSurface struct {
	Element ElementDescriptor `json:"element"`
	Rect    GeometryRect      `json:"rect"`
}

// ColorCount is one entry of the ranked background color summary.
type ColorCount struct {
	Color string `json:"color"`
	Count int    `json:"count"`
}

// ClassificationResult is the typed inventory produced by one classifier
// pass. Categories are not mutually exclusive; an element appears in every
// category whose predicate it satisfies. The result is heuristic and makes
// no claim of exhaustiveness or precision.
type ClassificationResult struct {
	ChartCanvases  []CanvasSurface     `json:"chartCanvases"`
	Timeframe      []ElementDescriptor `json:"timeframeElements"`
	Indicator      []ElementDescriptor `json:"indicatorElements"`
	AssetSelector  []ElementDescriptor `json:"assetSelectorElements"`
	AmountInput    []ElementDescriptor `json:"amountInputElements"`
	ActionButton   []ElementDescriptor `json:"actionButtonElements"`
	Expiration     []ElementDescriptor `json:"expirationElements"`
	ColorSummary   []ColorCount        `json:"colorSummary"`
	RootBackground string              `json:"rootBackground,omitempty"`
}

// ChartAnalysis is the chart-focused slice of a classification, written as
// its own artifact.
type ChartAnalysis struct {
	Canvases       []CanvasSurface `json:"canvases"`
	ColorSummary   []ColorCount    `json:"colorSummary"`
	RootBackground string          `json:"rootBackground,omitempty"`
}

// ScreenshotRef points at one screenshot file written during the session.
type ScreenshotRef struct {
	Kind     string `json:"kind"` // "full_page", "chart_region" or "action_button"
	Label    string `json:"label,omitempty"`
	Filename string `json:"filename"`
}

// CaptureReport is the full assembly handed to the artifact store at
// finalization.
type CaptureReport struct {
	RunID            string               `json:"runId"`
	TargetURL        string               `json:"targetUrl"`
	StartedAt        time.Time            `json:"startedAt"`
	FinishedAt       time.Time            `json:"finishedAt"`
	Classification   ClassificationResult `json:"classification"`
	NetworkRecords   []NetworkRecord      `json:"networkRecords"`
	WebSocketGlobals []string             `json:"webSocketGlobals,omitempty"`
	Screenshots      []ScreenshotRef      `json:"screenshots,omitempty"`
}

// Diagnostic is the failure record persisted when a run aborts before
// finalization.
type Diagnostic struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Trace     string    `json:"trace,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
