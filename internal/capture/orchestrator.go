// Package capture drives one reconnaissance run end to end: open a browser
// session, attach the traffic recorder, navigate, let the page settle,
// classify the document, take screenshots, and persist the artifacts.
package capture

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/tradelens/api/schemas"
	"github.com/xkilldash9x/tradelens/internal/artifacts"
	"github.com/xkilldash9x/tradelens/internal/classifier"
	"github.com/xkilldash9x/tradelens/internal/config"
)

// State names one position in the run's linear progression. A run only
// moves forward; any error sends it to StateFailed.
type State string

const (
	StateInit             State = "init"
	StateSessionOpened    State = "session_opened"
	StateRecorderAttached State = "recorder_attached"
	StateNavigated        State = "navigated"
	StateSettled          State = "settled"
	StateClassified       State = "classified"
	StateScreenshotsTaken State = "screenshots_taken"
	StateFinalized        State = "finalized"
	StateFailed           State = "failed"
)

// Screenshot kinds recorded in the capture report.
const (
	KindFullPage     = "full_page"
	KindChartRegion  = "chart_region"
	KindActionButton = "action_button"
)

const elementShotTimeout = 10 * time.Second

// pageSession is the slice of the browser session the orchestrator drives.
type pageSession interface {
	Context() context.Context
	Navigate(url string, timeout time.Duration) error
	Settle(delay time.Duration) error
	Snapshot() (*classifier.DocumentSnapshot, error)
	GlobalIdentifiers() ([]string, error)
	FullScreenshot() ([]byte, error)
	ElementScreenshot(selector string, timeout time.Duration) ([]byte, error)
	ClipScreenshot(rect schemas.GeometryRect) ([]byte, error)
	Close()
}

// trafficRecorder is the recorder contract the orchestrator relies on.
type trafficRecorder interface {
	Attach(sessionCtx context.Context) error
	WaitNetworkIdle(ctx context.Context, quietPeriod time.Duration) error
	Stop() []schemas.NetworkRecord
}

// Orchestrator runs captures. The session and recorder constructors are
// injected so the pipeline can be exercised without a browser.
type Orchestrator struct {
	cfg         *config.Config
	log         *zap.Logger
	newSession  func(ctx context.Context) (pageSession, error)
	newRecorder func() trafficRecorder
	limiter     *rate.Limiter

	state State
}

// New wires an orchestrator from concrete constructors.
func New(
	cfg *config.Config,
	log *zap.Logger,
	newSession func(ctx context.Context) (pageSession, error),
	newRecorder func() trafficRecorder,
) *Orchestrator {
	pacing := cfg.Capture.ScreenshotPacing
	var limiter *rate.Limiter
	if pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(pacing), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Orchestrator{
		cfg:         cfg,
		log:         log.Named("capture"),
		newSession:  newSession,
		newRecorder: newRecorder,
		limiter:     limiter,
		state:       StateInit,
	}
}

// State reports the orchestrator's current position. Mainly for tests and
// diagnostics; Run drives the transitions.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(next State) {
	o.log.Info("state transition",
		zap.String("from", string(o.state)),
		zap.String("to", string(next)))
	o.state = next
}

// NewRunID mints the identifier a run and its artifact directory share.
func NewRunID() string {
	return uuid.NewString()
}

// Run executes one capture against targetURL and writes every artifact into
// the store. Screenshot and globals failures degrade the run; session,
// navigation, and snapshot failures abort it with a persisted diagnostic.
func (o *Orchestrator) Run(ctx context.Context, runID, targetURL string, store *artifacts.Store) (*schemas.CaptureReport, error) {
	report := &schemas.CaptureReport{
		RunID:     runID,
		TargetURL: targetURL,
		StartedAt: time.Now().UTC(),
	}
	log := o.log.With(zap.String("run_id", report.RunID), zap.String("url", targetURL))
	log.Info("capture run starting")

	session, err := o.newSession(ctx)
	if err != nil {
		return report, o.fail(store, "open_session", fmt.Errorf("opening browser session: %w", err))
	}
	defer session.Close()
	o.transition(StateSessionOpened)

	// The recorder must be listening before navigation, or the page-load
	// traffic is lost.
	rec := o.newRecorder()
	if err := rec.Attach(session.Context()); err != nil {
		return report, o.fail(store, "attach_recorder", fmt.Errorf("attaching traffic recorder: %w", err))
	}
	o.transition(StateRecorderAttached)

	// Navigation is only complete once the network has gone quiet; both
	// share the navigation timeout and failing either is fatal.
	navStart := time.Now()
	if err := session.Navigate(targetURL, o.cfg.Network.NavigationTimeout); err != nil {
		return report, o.fail(store, "navigate", err)
	}
	idleCtx, cancelIdle := context.WithDeadline(ctx, navStart.Add(o.cfg.Network.NavigationTimeout))
	err = rec.WaitNetworkIdle(idleCtx, o.cfg.Network.QuietPeriod)
	cancelIdle()
	if err != nil {
		return report, o.fail(store, "navigate", fmt.Errorf("waiting for network quiescence: %w", err))
	}
	o.transition(StateNavigated)

	if err := session.Settle(o.cfg.Network.SettleDelay); err != nil {
		log.Warn("settle delay interrupted", zap.Error(err))
	}
	o.transition(StateSettled)

	snapshot, err := session.Snapshot()
	if err != nil {
		return report, o.fail(store, "snapshot", err)
	}
	report.Classification = classifier.Classify(snapshot, o.cfg.Capture.TopColors)
	o.transition(StateClassified)
	log.Info("document classified",
		zap.Int("canvases", len(report.Classification.ChartCanvases)),
		zap.Int("action_buttons", len(report.Classification.ActionButton)))

	if globals, gerr := session.GlobalIdentifiers(); gerr != nil {
		log.Warn("websocket global inspection failed", zap.Error(gerr))
	} else {
		report.WebSocketGlobals = globals
	}

	report.Screenshots = o.takeScreenshots(ctx, session, store, &report.Classification, log)
	o.transition(StateScreenshotsTaken)

	report.NetworkRecords = rec.Stop()
	report.FinishedAt = time.Now().UTC()

	if err := o.finalize(store, report); err != nil {
		return report, o.fail(store, "finalize", err)
	}
	o.transition(StateFinalized)
	log.Info("capture run finished",
		zap.Int("network_records", len(report.NetworkRecords)),
		zap.Int("screenshots", len(report.Screenshots)),
		zap.String("dir", store.Dir()))
	return report, nil
}

// takeScreenshots captures the full page, the dominant chart canvas, and
// each action button. Every capture is independent; one failure is logged
// and the rest proceed.
func (o *Orchestrator) takeScreenshots(
	ctx context.Context,
	session pageSession,
	store *artifacts.Store,
	result *schemas.ClassificationResult,
	log *zap.Logger,
) []schemas.ScreenshotRef {
	var refs []schemas.ScreenshotRef

	shoot := func(kind, label, filename string, capture func() ([]byte, error)) {
		if err := o.limiter.Wait(ctx); err != nil {
			log.Warn("screenshot pacing aborted", zap.Error(err))
			return
		}
		data, err := capture()
		if err != nil {
			log.Warn("screenshot failed",
				zap.String("kind", kind), zap.String("label", label), zap.Error(err))
			return
		}
		if err := store.WritePNG(filename, data); err != nil {
			log.Warn("screenshot write failed", zap.String("file", filename), zap.Error(err))
			return
		}
		refs = append(refs, schemas.ScreenshotRef{Kind: kind, Label: label, Filename: filename})
	}

	shoot(KindFullPage, "", artifacts.FileFullPage, session.FullScreenshot)

	if chart, ok := firstCanvas(result.ChartCanvases); ok {
		shoot(KindChartRegion, chart.Element.ID, artifacts.FileChartRegion, func() ([]byte, error) {
			return session.ClipScreenshot(chart.Rect)
		})
	}

	for i, btn := range result.ActionButton {
		name := artifacts.ActionScreenshotName(btn.Text, i)
		if selector, ok := classifier.Selector(btn); ok {
			shoot(KindActionButton, btn.Text, name, func() ([]byte, error) {
				return session.ElementScreenshot(selector, elementShotTimeout)
			})
			continue
		}
		log.Debug("action button has no stable selector, skipping screenshot",
			zap.String("text", btn.Text))
	}

	return refs
}

// firstCanvas picks the first canvas with a visible area. Document order is
// the heuristic: trading pages render the main chart before overlays.
func firstCanvas(canvases []schemas.CanvasSurface) (schemas.CanvasSurface, bool) {
	for _, c := range canvases {
		if c.Rect.Width*c.Rect.Height > 0 {
			return c, true
		}
	}
	return schemas.CanvasSurface{}, false
}

// finalize writes the JSON artifacts. The report itself goes last so its
// presence marks a completed run.
func (o *Orchestrator) finalize(store *artifacts.Store, report *schemas.CaptureReport) error {
	analysis := schemas.ChartAnalysis{
		Canvases:       report.Classification.ChartCanvases,
		ColorSummary:   report.Classification.ColorSummary,
		RootBackground: report.Classification.RootBackground,
	}
	writes := []struct {
		name string
		v    interface{}
	}{
		{artifacts.FileChartAnalysis, analysis},
		{artifacts.FileInterface, report.Classification},
		{artifacts.FileNetworkRecords, report.NetworkRecords},
		{artifacts.FileSocketGlobals, report.WebSocketGlobals},
		{artifacts.FileReport, report},
	}
	for _, w := range writes {
		if err := store.WriteJSON(w.name, w.v); err != nil {
			return err
		}
	}
	return nil
}

// fail records the diagnostic, transitions to the terminal state, and
// returns the wrapped error. The deferred session close still runs in Run.
func (o *Orchestrator) fail(store *artifacts.Store, stage string, err error) error {
	o.transition(StateFailed)
	diag := schemas.Diagnostic{
		Stage:     stage,
		Message:   err.Error(),
		Trace:     string(debug.Stack()),
		Timestamp: time.Now().UTC(),
	}
	if werr := store.WriteDiagnostic(diag); werr != nil {
		o.log.Error("failed to persist diagnostic", zap.Error(werr))
	}
	o.log.Error("capture run failed", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("capture failed at %s: %w", stage, err)
}
