package capture

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tradelens/internal/browser"
	"github.com/xkilldash9x/tradelens/internal/config"
	"github.com/xkilldash9x/tradelens/internal/recorder"
)

// NewWithBrowser builds an orchestrator backed by real browser sessions and
// the CDP traffic recorder.
func NewWithBrowser(cfg *config.Config, log *zap.Logger, mgr *browser.Manager) *Orchestrator {
	return New(cfg, log,
		func(ctx context.Context) (pageSession, error) {
			return mgr.NewSession(ctx)
		},
		func() trafficRecorder {
			return recorder.New(log, recorder.DefaultPredicate, cfg.Network.CaptureRequestBodies)
		},
	)
}
