package classifier

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

// SnapshotFromHTML builds a DocumentSnapshot from static markup, without a
// browser. No style resolution happens here: colors and geometry come only
// from inline style declarations, everything else stays at its zero value.
// It backs the offline classify command and the classifier tests.
func SnapshotFromHTML(r io.Reader) (*DocumentSnapshot, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	snap := &DocumentSnapshot{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			v := viewFromNode(n)
			if n.Data == "body" {
				snap.RootBackground = v.Background
			}
			snap.Elements = append(snap.Elements, v)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return snap, nil
}

func viewFromNode(n *html.Node) ElementView {
	v := ElementView{Tag: n.Data, Text: collapseText(n)}

	var style string
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			v.ID = a.Val
		case "class":
			v.Classes = strings.Fields(a.Val)
		case "placeholder":
			v.Placeholder = a.Val
		case "style":
			style = a.Val
		case "width":
			if n.Data == "canvas" {
				v.CanvasWidth, _ = strconv.Atoi(a.Val)
			}
		case "height":
			if n.Data == "canvas" {
				v.CanvasHeight, _ = strconv.Atoi(a.Val)
			}
		}
	}

	if style != "" {
		decls := parseStyle(style)
		v.Background = decls["background-color"]
		v.Foreground = decls["color"]
		v.Rect = schemas.GeometryRect{
			Top:    pixels(decls["top"]),
			Left:   pixels(decls["left"]),
			Width:  pixels(decls["width"]),
			Height: pixels(decls["height"]),
		}
	}
	if n.Data == "canvas" && v.Rect.Width == 0 {
		v.Rect.Width = float64(v.CanvasWidth)
		v.Rect.Height = float64(v.CanvasHeight)
	}
	return v
}

// collapseText joins the element's own text nodes with single spaces.
// Descendant text stays with the descendant, so wrappers do not inherit
// the words of every control inside them.
func collapseText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(c.Data); t != "" {
			parts = append(parts, strings.Join(strings.Fields(t), " "))
		}
	}
	return strings.Join(parts, " ")
}

func parseStyle(style string) map[string]string {
	decls := make(map[string]string)
	for _, part := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decls[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}
	return decls
}

func pixels(val string) float64 {
	val = strings.TrimSuffix(strings.TrimSpace(val), "px")
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return f
}
