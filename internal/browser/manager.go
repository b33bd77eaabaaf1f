// Package browser owns the headless Chrome lifecycle: one Manager per
// process holding the exec allocator, and short-lived Sessions carved out
// of it for individual captures.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/tradelens/internal/config"
)

// Manager wraps a shared Chrome exec allocator. Sessions are bounded by a
// weighted semaphore so a burst of capture requests cannot fork an unbounded
// number of browser targets.
type Manager struct {
	log         *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	sessions    *semaphore.Weighted
}

// NewManager builds the allocator from configuration. The returned Manager
// must be shut down to reap the browser process.
func NewManager(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) *Manager {
	opts := execOptions(cfg)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1
	}

	return &Manager{
		log:         log.Named("browser"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessions:    semaphore.NewWeighted(maxSessions),
	}
}

func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	if cfg.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// NewSession acquires a session slot and spawns a fresh browser target.
// The slot is returned when the session is closed.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.sessions.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring session slot: %w", err)
	}

	taskCtx, taskCancel := chromedp.NewContext(m.allocCtx)

	// Force target creation now so a broken Chrome install fails here
	// instead of on first navigation.
	if err := chromedp.Run(taskCtx); err != nil {
		taskCancel()
		m.sessions.Release(1)
		return nil, fmt.Errorf("starting browser target: %w", err)
	}

	m.log.Debug("browser session opened")
	return &Session{
		ctx:    taskCtx,
		cancel: taskCancel,
		release: func() {
			m.sessions.Release(1)
		},
		log: m.log,
	}, nil
}

// Shutdown tears down the allocator and every target derived from it.
func (m *Manager) Shutdown() {
	m.allocCancel()
	m.log.Debug("browser allocator shut down")
}
