package classifier

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

func view(tag, text string) ElementView {
	return ElementView{Tag: tag, Text: text}
}

func TestPredicates_Soundness(t *testing.T) {
	tests := []struct {
		name  string
		pred  func(ElementView) bool
		view  ElementView
		match bool
	}{
		{"timeframe select", isTimeframe, view("select", "1 Minute"), true},
		{"timeframe button 5m", isTimeframe, view("button", "5m"), true},
		{"timeframe wrong tag", isTimeframe, view("div", "1 Minute"), false},
		{"timeframe wrong text", isTimeframe, view("select", "volume"), false},

		{"indicator button", isIndicator, view("button", "Bollinger Bands"), true},
		{"indicator list item", isIndicator, view("li", "RSI"), true},
		{"indicator select excluded", isIndicator, view("select", "MACD"), false},

		{"asset select", isAssetSelector, view("select", "EUR/USD"), true},
		{"asset container", isAssetSelector, view("div", "Choose Asset"), true},
		{"asset input excluded", isAssetSelector, view("input", "BTC"), false},

		{"amount by text", isAmountInput, view("label", "Investment Amount"), true},
		{"amount wrong tag", isAmountInput, view("select", "Amount"), false},

		{"action buy", isActionButton, view("button", "Buy"), true},
		{"action put container", isActionButton, view("span", "Put"), true},
		{"action option excluded", isActionButton, view("option", "Sell"), false},

		{"expiration select", isExpiration, view("select", "Expiry Time"), true},
		{"expiration container", isExpiration, view("div", "Duration"), true},
		{"expiration input excluded", isExpiration, view("input", "expiration"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.pred(tt.view))
		})
	}
}

func TestPredicates_EmptyTextNeverMatches(t *testing.T) {
	for _, tag := range []string{"select", "button", "a", "div", "span", "li", "input", "label"} {
		v := view(tag, "")
		assert.False(t, isTimeframe(v), tag)
		assert.False(t, isIndicator(v), tag)
		assert.False(t, isAssetSelector(v), tag)
		assert.False(t, isAmountInput(v), tag)
		assert.False(t, isActionButton(v), tag)
		assert.False(t, isExpiration(v), tag)
	}
}

func TestAmountInput_MatchesPlaceholder(t *testing.T) {
	v := ElementView{Tag: "input", Placeholder: "Enter amount"}
	assert.True(t, isAmountInput(v))
}

func TestMatching_IsCaseInsensitiveSubstring(t *testing.T) {
	assert.True(t, isActionButton(view("button", "BUY NOW")))
	assert.True(t, isActionButton(view("button", "Quick Sell Order")))
	assert.True(t, isTimeframe(view("button", "Last 30 Minutes")))
}

func TestClassify_OverlappingCategories(t *testing.T) {
	// One element may satisfy several categories at once.
	snap := &DocumentSnapshot{Elements: []ElementView{
		{Tag: "select", Text: "Expiry in 1 Minute"},
	}}
	result := Classify(snap, 10)
	assert.Len(t, result.Timeframe, 1)
	assert.Len(t, result.Expiration, 1)
}

func TestClassify_ActionButtonsCarryColors(t *testing.T) {
	snap := &DocumentSnapshot{Elements: []ElementView{
		{Tag: "button", Text: "Sell", Background: "rgb(200, 0, 0)", Foreground: "rgb(255, 255, 255)"},
	}}
	result := Classify(snap, 10)
	require.Len(t, result.ActionButton, 1)
	attrs := result.ActionButton[0].Attributes
	assert.Equal(t, "rgb(200, 0, 0)", attrs[schemas.AttrBackground])
	assert.Equal(t, "rgb(255, 255, 255)", attrs[schemas.AttrForeground])
}

func TestClassify_Idempotent(t *testing.T) {
	snap := &DocumentSnapshot{
		RootBackground: "rgb(20, 20, 30)",
		Elements: []ElementView{
			{Tag: "canvas", ID: "chart", CanvasWidth: 400, CanvasHeight: 300,
				Rect: schemas.GeometryRect{Top: 20, Left: 10, Width: 400, Height: 300}},
			{Tag: "button", Text: "Buy Call", Background: "rgb(0, 200, 0)", Foreground: "rgb(255, 255, 255)"},
			{Tag: "select", Text: "1 Minute"},
			{Tag: "input", Placeholder: "Investment amount"},
		},
	}
	first := Classify(snap, 10)
	second := Classify(snap, 10)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("classification is not deterministic:\n%s", diff)
	}
}

// TestClassify_SyntheticTradingPage exercises the whole pipeline on static
// markup resembling a minimal trading interface.
func TestClassify_SyntheticTradingPage(t *testing.T) {
	doc := `<html><body style="background-color: rgb(20, 20, 30)">
		<canvas id="chart" width="400" height="300" style="left: 10px; top: 20px"></canvas>
		<button id="go" style="background-color: rgb(0, 200, 0); color: rgb(255, 255, 255)">Buy Call</button>
		<select id="tf"><option>1 Minute</option></select>
	</body></html>`

	snap, err := SnapshotFromHTML(strings.NewReader(doc))
	require.NoError(t, err)

	result := Classify(snap, 10)

	require.Len(t, result.ChartCanvases, 1)
	canvas := result.ChartCanvases[0]
	assert.Equal(t, "chart", canvas.Element.ID)
	assert.Equal(t, 10.0, canvas.Rect.Left)
	assert.Equal(t, 20.0, canvas.Rect.Top)
	assert.Equal(t, 400.0, canvas.Rect.Width)
	assert.Equal(t, 300.0, canvas.Rect.Height)
	assert.Equal(t, "400", canvas.Element.Attributes[schemas.AttrCanvasWidth])
	assert.Equal(t, "300", canvas.Element.Attributes[schemas.AttrCanvasHeight])

	require.Len(t, result.ActionButton, 1)
	btn := result.ActionButton[0]
	assert.Equal(t, "Buy Call", btn.Text)
	assert.Equal(t, "rgb(0, 200, 0)", btn.Attributes[schemas.AttrBackground])

	// The option carries the text; the select inherits nothing, so the
	// timeframe hit is the option element.
	require.NotEmpty(t, result.Timeframe)
	assert.Equal(t, "option", result.Timeframe[0].Tag)
	assert.Equal(t, "1 Minute", result.Timeframe[0].Text)

	assert.Equal(t, "rgb(20, 20, 30)", result.RootBackground)
}

func TestSelector(t *testing.T) {
	sel, ok := Selector(schemas.ElementDescriptor{ID: "buy-btn"})
	require.True(t, ok)
	assert.Equal(t, `[id="buy-btn"]`, sel)

	sel, ok = Selector(schemas.ElementDescriptor{Classes: []string{"btn-sell", "big"}})
	require.True(t, ok)
	assert.Equal(t, `[class~="btn-sell"]`, sel)

	_, ok = Selector(schemas.ElementDescriptor{Tag: "div", Text: "Sell"})
	assert.False(t, ok)

	sel, ok = Selector(schemas.ElementDescriptor{ID: `we"ird`})
	require.True(t, ok)
	assert.Equal(t, `[id="we\"ird"]`, sel)
}
