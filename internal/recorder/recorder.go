// Package recorder captures the network traffic of a browser session over
// CDP events. It must be attached before navigation begins, otherwise the
// requests fired during page load are lost.
package recorder

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tradelens/api/schemas"
)

// MethodWebSocket marks records produced from WebSocket handshakes rather
// than HTTP requests.
const MethodWebSocket = "WEBSOCKET"

// Predicate decides whether a request URL is interesting enough to keep.
type Predicate func(url string) bool

// DefaultPredicate keeps traffic that looks like API or socket endpoints.
func DefaultPredicate(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range []string{"/api", "api.", "/ws", "/socket", "ws://", "wss://"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Recorder listens to network events on one browser target and keeps the
// matching requests in arrival order. A failure to convert a single event
// drops that record only, never the capture.
type Recorder struct {
	logger        *zap.Logger
	keep          Predicate
	captureBodies bool

	listenerCtx    context.Context
	cancelListener context.CancelFunc

	mu       sync.RWMutex
	records  []schemas.NetworkRecord
	inflight map[network.RequestID]bool
	started  bool
}

// New builds a recorder. A nil predicate keeps everything. Request bodies
// are only carried into records when captureBodies is set.
func New(logger *zap.Logger, keep Predicate, captureBodies bool) *Recorder {
	if keep == nil {
		keep = func(string) bool { return true }
	}
	return &Recorder{
		logger:        logger.Named("recorder"),
		keep:          keep,
		captureBodies: captureBodies,
		inflight:      make(map[network.RequestID]bool),
	}
}

// Attach subscribes to the session's CDP events and enables the network
// domain. Call it on the session context before the first navigation.
func (r *Recorder) Attach(sessionCtx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	r.listenerCtx, r.cancelListener = context.WithCancel(sessionCtx)
	chromedp.ListenTarget(r.listenerCtx, r.dispatch)

	if err := chromedp.Run(sessionCtx, network.Enable()); err != nil {
		r.cancelListener()
		r.cancelListener = nil
		return err
	}

	r.started = true
	r.logger.Debug("recorder attached")
	return nil
}

func (r *Recorder) dispatch(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		r.handleRequest(e)
	case *network.EventWebSocketCreated:
		r.handleWebSocket(e)
	case *network.EventLoadingFinished:
		r.settle(e.RequestID)
	case *network.EventLoadingFailed:
		r.settle(e.RequestID)
	}
}

func (r *Recorder) handleRequest(e *network.EventRequestWillBeSent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inflight[e.RequestID] = true

	if e.Request == nil || !r.keep(e.Request.URL) {
		return
	}

	record := schemas.NetworkRecord{
		URL:     e.Request.URL,
		Method:  e.Request.Method,
		Headers: flattenHeaders(e.Request.Headers),
	}
	if r.captureBodies {
		record.Body = postData(e.Request)
	}
	r.records = append(r.records, record)
}

func (r *Recorder) handleWebSocket(e *network.EventWebSocketCreated) {
	if !r.keep(e.URL) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, schemas.NetworkRecord{
		URL:    e.URL,
		Method: MethodWebSocket,
	})
}

func (r *Recorder) settle(id network.RequestID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}

// WaitNetworkIdle polls until no request has been in flight for the whole
// quiet period, or the context expires.
func (r *Recorder) WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error {
	ticker := time.NewTicker(quietPeriod / 2)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("network idle wait aborted", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			r.mu.RLock()
			inflight := len(r.inflight)
			r.mu.RUnlock()

			if inflight > 0 {
				lastActivity = time.Now()
				r.logger.Debug("waiting for network idle", zap.Int("inflight_requests", inflight))
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}

// Stop detaches the listener and returns the records in arrival order.
// Safe to call on a recorder that never attached.
func (r *Recorder) Stop() []schemas.NetworkRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelListener != nil {
		r.cancelListener()
		r.cancelListener = nil
	}
	r.started = false

	out := make([]schemas.NetworkRecord, len(r.records))
	copy(out, r.records)
	r.logger.Debug("recorder stopped", zap.Int("records", len(out)))
	return out
}

// flattenHeaders converts CDP's loosely typed header map into plain strings.
// Non-string values are skipped rather than failing the record.
func flattenHeaders(headers network.Headers) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if s, ok := value.(string); ok {
			out[name] = s
		}
	}
	return out
}

func postData(req *network.Request) string {
	if !req.HasPostData || len(req.PostDataEntries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, entry := range req.PostDataEntries {
		b.WriteString(entry.Bytes)
	}
	return b.String()
}
