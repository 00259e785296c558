package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/polytrader/polystream/backend"
	"github.com/polytrader/polystream/config"
	"github.com/polytrader/polystream/core"
	"github.com/polytrader/polystream/fallback"
	"github.com/polytrader/polystream/logging"
	"github.com/polytrader/polystream/stream"
)

// Backend is the slice of the backend client the runner needs. Satisfied by
// *backend.Client; tests substitute fakes.
type Backend interface {
	CreateThread(ctx context.Context) (string, error)
	StreamRun(ctx context.Context, threadID string, input backend.RunInput) (string, core.RawStream, error)
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Backend overrides the HTTP client built from the config endpoint.
	Backend Backend
	// Generator overrides the default scripted stream generator.
	Generator *fallback.Generator
	// EventBufferSize sets channel buffering for delivered events.
	EventBufferSize int
	// Logger receives orchestration diagnostics.
	Logger logging.Logger
}

// Request describes one analysis run.
type Request struct {
	// MarketID identifies the market to analyze. Required.
	MarketID string
	// Tokens are the tradable outcome tokens of the market.
	Tokens []core.OutcomeToken
	// CustomInstructions optionally steer the research stage.
	CustomInstructions string
	// Positions optionally inform sizing against existing exposure.
	Positions []core.Position
	// AvailableFunds optionally caps proposal size.
	AvailableFunds float64
}

// Analysis is the uniform handle returned for every run regardless of the
// live/fallback decision: an ordered event stream, a terminal error channel
// (size 1, closed after at most one send) and the run identity.
type Analysis struct {
	Info   core.RunInfo
	Events <-chan core.AgentEvent
	Errors <-chan error

	cancelOnce sync.Once
	cancel     context.CancelFunc
	session    *stream.Session
}

// Cancel tears the run down cooperatively. Safe to invoke multiple times
// and after completion; pending timers become no-ops.
func (a *Analysis) Cancel() {
	a.cancelOnce.Do(func() {
		if a.session != nil {
			a.session.Close()
		}
		if a.cancel != nil {
			a.cancel()
		}
	})
}

// Runner coordinates analysis runs. Public methods are safe for concurrent
// use; concurrent runs are independent and share no mutable state beyond the
// cancellation registry.
type Runner struct {
	cfg       config.Config
	backend   Backend
	generator *fallback.Generator
	bufSize   int
	logger    logging.Logger

	activeRuns map[string]*Analysis
	mu         sync.RWMutex
}

// New constructs a Runner from a config snapshot with optional overrides.
// The snapshot is read once; runs never observe mid-stream config changes.
func New(cfg config.Config, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Backend == nil && cfg.Endpoint != "" {
		opts.Backend = backend.NewClient(cfg.Endpoint, func(o *backend.Options) {
			o.APIKey = cfg.APIKey
			o.ConnectTimeout = cfg.ConnectTimeout
			o.Logger = opts.Logger
		})
	}

	if opts.Generator == nil {
		opts.Generator = fallback.NewGenerator(func(o *fallback.Options) {
			o.Delay = cfg.MockDelay
		})
	}

	return &Runner{
		cfg:        cfg,
		backend:    opts.Backend,
		generator:  opts.Generator,
		bufSize:    opts.EventBufferSize,
		logger:     opts.Logger,
		activeRuns: make(map[string]*Analysis),
	}
}

// StreamAnalysis starts one analysis run for the requested market.
//
// Decision order:
//  1. No backend endpoint configured: scripted stream, "mock-" identity.
//  2. Mock mode forced: same.
//  3. Otherwise establish a live run (thread creation within the connect
//     timeout, then the SSE stream wrapped in a stream.Session) tagged with
//     the backend-issued identity.
//  4. Any live establishment failure falls back to the scripted stream with
//     an "error-fallback-" identity; the original cause is logged.
//
// Once streaming has begun the chosen branch is final: a live failure
// mid-stream surfaces as a timeout/connection error, it does not silently
// restart as a fallback sequence.
func (r *Runner) StreamAnalysis(ctx context.Context, req Request) (*Analysis, error) {
	if req.MarketID == "" {
		return nil, fmt.Errorf("market id is required")
	}

	if r.backend == nil {
		r.logger.Info("no backend endpoint configured, using scripted stream", "market_id", req.MarketID)
		return r.startScripted(ctx, req, core.NewMockRunInfo()), nil
	}

	if r.cfg.MockMode {
		r.logger.Info("mock mode enabled, using scripted stream", "market_id", req.MarketID)
		return r.startScripted(ctx, req, core.NewMockRunInfo()), nil
	}

	analysis, err := r.startLive(ctx, req)
	if err != nil {
		r.logger.Error("live run establishment failed, falling back to scripted stream",
			"market_id", req.MarketID, "error", err)
		return r.startScripted(ctx, req, core.NewFallbackRunInfo(true)), nil
	}

	return analysis, nil
}

// Cancel requests cooperative termination of an in-flight run. Cancelling an
// unknown or already finished run returns an error describing the condition.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	analysis, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	analysis.Cancel()

	return nil
}

func (r *Runner) startLive(ctx context.Context, req Request) (*Analysis, error) {
	threadID, err := r.backend.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("thread creation failed: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	input := backend.RunInput{
		MarketID:           req.MarketID,
		CustomInstructions: req.CustomInstructions,
		Positions:          req.Positions,
		AvailableFunds:     req.AvailableFunds,
		Tokens:             req.Tokens,
	}

	runID, raw, err := r.backend.StreamRun(runCtx, threadID, input)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("run stream failed to open: %w", err)
	}

	session := stream.NewSession(raw, func(o *stream.Options) {
		o.InactivityTimeout = r.cfg.InactivityTimeout
		o.EventBufferSize = r.bufSize
		o.Logger = r.logger
	})

	sessionEvents, sessionErrs := session.Run(runCtx)

	events := make(chan core.AgentEvent, r.bufSize)
	errorsCh := make(chan error, 1)

	analysis := &Analysis{
		Info:    core.NewLiveRunInfo(threadID, runID),
		Events:  events,
		Errors:  errorsCh,
		cancel:  cancel,
		session: session,
	}

	r.register(analysis)

	logging.RunStarted(r.logger, string(core.RunModeLive), threadID, runID, req.MarketID)

	go func() {
		delivered := 0
		var terminal error
		defer func() {
			close(events)
			close(errorsCh)
			r.deregister(analysis.Info.RunID)
			analysis.Cancel()
			logging.RunCompleted(r.logger, runID, delivered, terminal)
		}()

		for ev := range sessionEvents {
			select {
			case <-runCtx.Done():
				return
			case events <- ev:
				delivered++
			}
		}

		if err, ok := <-sessionErrs; ok && err != nil {
			terminal = err
			errorsCh <- err
		}
	}()

	return analysis, nil
}

func (r *Runner) startScripted(ctx context.Context, req Request, info core.RunInfo) *Analysis {
	runCtx, cancel := context.WithCancel(ctx)

	events := make(chan core.AgentEvent, r.bufSize)
	errorsCh := make(chan error, 1)

	analysis := &Analysis{
		Info:   info,
		Events: events,
		Errors: errorsCh,
		cancel: cancel,
	}

	r.register(analysis)

	logging.RunStarted(r.logger, string(info.Mode), info.ThreadID, info.RunID, req.MarketID)

	go func() {
		delivered := 0
		defer func() {
			close(events)
			close(errorsCh)
			r.deregister(info.RunID)
			analysis.Cancel()
			logging.RunCompleted(r.logger, info.RunID, delivered, nil)
		}()

		for ev := range r.generator.Stream(runCtx, req.MarketID, req.Tokens) {
			select {
			case <-runCtx.Done():
				return
			case events <- ev:
				delivered++
			}
		}
	}()

	return analysis
}

func (r *Runner) register(a *Analysis) {
	r.mu.Lock()
	r.activeRuns[a.Info.RunID] = a
	r.mu.Unlock()
}

func (r *Runner) deregister(runID string) {
	r.mu.Lock()
	delete(r.activeRuns, runID)
	r.mu.Unlock()
}
