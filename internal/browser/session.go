package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tradelens/api/schemas"
	"github.com/xkilldash9x/tradelens/internal/classifier"
)

// snapshotScript walks the document once and returns plain data for every
// element: descriptor fields, computed colors, and page-relative geometry.
// Text is the element's own text nodes only, so containers do not inherit
// the words of their descendants.
const snapshotScript = `(() => {
	const skip = new Set(["script", "style", "meta", "link", "head", "noscript", "title"]);
	const elements = [];
	for (const el of document.querySelectorAll("*")) {
		const tag = el.tagName.toLowerCase();
		if (skip.has(tag)) continue;

		let text = "";
		for (const node of el.childNodes) {
			if (node.nodeType === Node.TEXT_NODE) text += node.textContent + " ";
		}
		text = text.replace(/\s+/g, " ").trim();

		const style = window.getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		const view = {
			tag: tag,
			id: el.id || "",
			classes: Array.from(el.classList),
			text: text,
			placeholder: el.getAttribute("placeholder") || "",
			background: style.backgroundColor,
			foreground: style.color,
			rect: {
				top: rect.top + window.scrollY,
				left: rect.left + window.scrollX,
				width: rect.width,
				height: rect.height,
			},
		};
		if (tag === "canvas") {
			view.canvasWidth = el.width;
			view.canvasHeight = el.height;
		}
		elements.push(view);
	}
	const rootStyle = window.getComputedStyle(document.body || document.documentElement);
	return { rootBackground: rootStyle.backgroundColor, elements: elements };
})()`

// globalsScript lists window properties that look like live socket handles,
// either by value type or by name.
const globalsScript = `(() => {
	const names = [];
	for (const name of Object.getOwnPropertyNames(window)) {
		try {
			if (/socket|ws/i.test(name)) { names.push(name); continue; }
			const v = window[name];
			if (v === null || v === undefined) continue;
			if (typeof v !== "object" && typeof v !== "function") continue;
			if (v instanceof WebSocket) { names.push(name); continue; }
			if (v.constructor && /socket/i.test(v.constructor.name)) names.push(name);
		} catch (e) {}
	}
	return names;
})()`

// Session is one browser target. It is not safe for concurrent use; the
// capture pipeline drives it from a single goroutine.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	release func()
	log     *zap.Logger

	closeOnce sync.Once
}

// Context exposes the target's chromedp context so a traffic recorder can
// attach its event listeners before navigation.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate loads the target URL and waits for the body to be ready, bounded
// by timeout.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	start := time.Now()
	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	s.log.Debug("navigation complete",
		zap.String("url", url),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Settle gives the page's own scripts time to render late UI before the
// document is measured.
func (s *Session) Settle(delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	return chromedp.Run(s.ctx, chromedp.Sleep(delay))
}

// Snapshot measures the document and returns it as immutable plain data.
// The geometry is only valid at the instant of capture.
func (s *Session) Snapshot() (*classifier.DocumentSnapshot, error) {
	var snap classifier.DocumentSnapshot
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(snapshotScript, &snap)); err != nil {
		return nil, fmt.Errorf("capturing document snapshot: %w", err)
	}
	s.log.Debug("document snapshot captured", zap.Int("elements", len(snap.Elements)))
	return &snap, nil
}

// GlobalIdentifiers reports window-scope names that reference socket-like
// objects.
func (s *Session) GlobalIdentifiers() ([]string, error) {
	var names []string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(globalsScript, &names)); err != nil {
		return nil, fmt.Errorf("inspecting window globals: %w", err)
	}
	return names, nil
}

// FullScreenshot captures the entire page.
func (s *Session) FullScreenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("capturing full page screenshot: %w", err)
	}
	return buf, nil
}

// ElementScreenshot captures the first element matching the selector. A
// short timeout keeps a stale selector from stalling the whole capture.
func (s *Session) ElementScreenshot(selector string, timeout time.Duration) ([]byte, error) {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(tctx, chromedp.Screenshot(selector, &buf, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("capturing screenshot of %q: %w", selector, err)
	}
	return buf, nil
}

// ClipScreenshot captures a page-coordinate rectangle, used for canvases and
// other elements that cannot be re-addressed by selector.
func (s *Session) ClipScreenshot(rect schemas.GeometryRect) ([]byte, error) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return nil, fmt.Errorf("clip region %gx%g is empty", rect.Width, rect.Height)
	}

	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithClip(&page.Viewport{
				X:      rect.Left,
				Y:      rect.Top,
				Width:  rect.Width,
				Height: rect.Height,
				Scale:  1,
			}).Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	})
	if err := chromedp.Run(s.ctx, capture); err != nil {
		return nil, fmt.Errorf("capturing clipped screenshot: %w", err)
	}
	return buf, nil
}

// Close tears down the target and returns the session slot. Safe to call
// more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.release()
		s.log.Debug("browser session closed")
	})
}
