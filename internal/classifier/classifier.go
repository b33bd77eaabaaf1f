// Package classifier assigns trading-interface roles to document elements
// using fixed keyword lexicons and tag role sets. Every predicate is a pure
// function over an ElementView; the same snapshot always classifies the
// same way.
package classifier

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

// Keyword lexicons. Matching is case-insensitive substring containment
// against the element's visible text (or placeholder, where noted).
var (
	timeframeLexicon  = []string{"minute", "hour", "day", "1m", "5m", "15m", "30m", "1h"}
	indicatorLexicon  = []string{"indicator", "bollinger", "macd", "rsi", "sma", "ema"}
	assetLexicon      = []string{"asset", "symbol", "eur/usd", "btc", "currency"}
	amountLexicon     = []string{"amount", "investment"}
	actionLexicon     = []string{"buy", "sell", "up", "down", "call", "put"}
	expirationLexicon = []string{"expiration", "expiry", "duration", "time"}
)

// Tag role sets. An element participates in a category only when its tag
// belongs to one of the category's roles.
var (
	selectionTags = map[string]bool{"select": true, "option": true}
	clickableTags = map[string]bool{"button": true, "a": true}
	containerTags = map[string]bool{"div": true, "span": true, "li": true, "label": true}
	inputTags     = map[string]bool{"input": true, "textarea": true}
)

func containsAny(text string, lexicon []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range lexicon {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func tagged(v ElementView, roles ...map[string]bool) bool {
	for _, role := range roles {
		if role[v.Tag] {
			return true
		}
	}
	return false
}

func isTimeframe(v ElementView) bool {
	return tagged(v, selectionTags, clickableTags) && containsAny(v.Text, timeframeLexicon)
}

func isIndicator(v ElementView) bool {
	return tagged(v, clickableTags, containerTags) && containsAny(v.Text, indicatorLexicon)
}

func isAssetSelector(v ElementView) bool {
	return tagged(v, selectionTags, clickableTags, containerTags) && containsAny(v.Text, assetLexicon)
}

// isAmountInput also consults the placeholder, since amount fields are
// frequently empty inputs labelled only through placeholder text.
func isAmountInput(v ElementView) bool {
	if !tagged(v, inputTags, clickableTags, containerTags) {
		return false
	}
	return containsAny(v.Text, amountLexicon) || containsAny(v.Placeholder, amountLexicon)
}

func isActionButton(v ElementView) bool {
	return tagged(v, clickableTags, containerTags) && containsAny(v.Text, actionLexicon)
}

func isExpiration(v ElementView) bool {
	return tagged(v, selectionTags, clickableTags, containerTags) && containsAny(v.Text, expirationLexicon)
}

// category binds a predicate to its result bucket. Categories are evaluated
// in this fixed order and are not mutually exclusive; one element may land
// in several buckets.
type category struct {
	name       string
	match      func(ElementView) bool
	withColors bool
}

var categories = []category{
	{"timeframe", isTimeframe, false},
	{"indicator", isIndicator, false},
	{"asset_selector", isAssetSelector, false},
	{"amount_input", isAmountInput, false},
	{"action_button", isActionButton, true},
	{"expiration", isExpiration, false},
}

// Classify walks a snapshot once and produces the full classification.
// It never touches a live document, so it is safe to call concurrently
// and repeatedly on the same snapshot.
func Classify(snap *DocumentSnapshot, topColors int) schemas.ClassificationResult {
	result := schemas.ClassificationResult{
		RootBackground: snap.RootBackground,
	}

	for _, v := range snap.Elements {
		if v.Tag == "canvas" {
			result.ChartCanvases = append(result.ChartCanvases, schemas.CanvasSurface{
				Element: describe(v, false),
				Rect:    v.Rect,
			})
		}
		for _, cat := range categories {
			if !cat.match(v) {
				continue
			}
			desc := describe(v, cat.withColors)
			switch cat.name {
			case "timeframe":
				result.Timeframe = append(result.Timeframe, desc)
			case "indicator":
				result.Indicator = append(result.Indicator, desc)
			case "asset_selector":
				result.AssetSelector = append(result.AssetSelector, desc)
			case "amount_input":
				result.AmountInput = append(result.AmountInput, desc)
			case "action_button":
				result.ActionButton = append(result.ActionButton, desc)
			case "expiration":
				result.Expiration = append(result.Expiration, desc)
			}
		}
	}

	result.ColorSummary = ExtractPalette(snap, topColors)
	return result
}

// describe converts a view into the serialized descriptor form. Action
// buttons always carry their computed colors so a later pass can screenshot
// and compare them.
func describe(v ElementView, withColors bool) schemas.ElementDescriptor {
	desc := schemas.ElementDescriptor{
		Tag:     v.Tag,
		ID:      v.ID,
		Classes: append([]string(nil), v.Classes...),
		Text:    v.Text,
	}
	attrs := map[string]string{}
	if v.Placeholder != "" {
		attrs[schemas.AttrPlaceholder] = v.Placeholder
	}
	if withColors {
		attrs[schemas.AttrBackground] = v.Background
		attrs[schemas.AttrForeground] = v.Foreground
	}
	if v.Tag == "canvas" {
		attrs[schemas.AttrCanvasWidth] = fmt.Sprintf("%d", v.CanvasWidth)
		attrs[schemas.AttrCanvasHeight] = fmt.Sprintf("%d", v.CanvasHeight)
	}
	if len(attrs) > 0 {
		desc.Attributes = attrs
	}
	return desc
}

// Selector derives a CSS selector that re-addresses the element in the live
// document. Elements with neither an id nor a class cannot be re-addressed
// and are reported with ok=false.
func Selector(d schemas.ElementDescriptor) (string, bool) {
	if d.ID != "" {
		return fmt.Sprintf(`[id=%s]`, cssQuote(d.ID)), true
	}
	if len(d.Classes) > 0 && d.Classes[0] != "" {
		return fmt.Sprintf(`[class~=%s]`, cssQuote(d.Classes[0])), true
	}
	return "", false
}

func cssQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
