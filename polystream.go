// Package polystream provides a high-level façade over the runner and its
// collaborators (backend transport, stream session, scripted fallback and
// logging) for streaming prediction-market agent analyses. Most applications
// interact with this package by:
//  1. Creating a Polystream via New() (typically from a config.FromEnv() snapshot)
//  2. Starting runs with StreamAnalysis (streaming) or StreamAnalysisSync (drained)
//  3. Ranging over events and dispatching on their stage names
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development: with
// no backend endpoint configured every run uses the scripted fallback stream.
package polystream

import (
	"context"

	"github.com/polytrader/polystream/config"
	"github.com/polytrader/polystream/core"
	"github.com/polytrader/polystream/logging"
	"github.com/polytrader/polystream/runner"
)

// Options configures the Polystream instance.
type Options struct {
	// Config is the immutable configuration snapshot used for every run
	// started through this instance.
	Config config.Config

	// EventBufferSize sets the channel buffer size for event delivery.
	// Larger buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Polystream is the high-level façade aggregating the runner and services.
type Polystream struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new Polystream instance with optional overrides.
func New(optFns ...func(o *Options)) *Polystream {
	opts := Options{
		Config:          config.Default(),
		EventBufferSize: 100,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(opts.Config, func(o *runner.Options) {
		o.EventBufferSize = opts.EventBufferSize
		o.Logger = opts.Logger
	})

	return &Polystream{opts: opts, runner: r}
}

// StreamAnalysis starts an asynchronous analysis run returning the uniform
// stream handle (run identity, events, terminal errors, Cancel).
func (p *Polystream) StreamAnalysis(ctx context.Context, req runner.Request) (*runner.Analysis, error) {
	return p.runner.StreamAnalysis(ctx, req)
}

// Cancel requests cooperative termination of an in-flight run by id.
func (p *Polystream) Cancel(runID string) error { return p.runner.Cancel(runID) }

// StreamAnalysisSync is a synchronous helper that drains the async channels,
// accumulates events and returns the run identity.
func (p *Polystream) StreamAnalysisSync(ctx context.Context, req runner.Request) (core.RunInfo, []core.AgentEvent, error) {
	analysis, err := p.runner.StreamAnalysis(ctx, req)
	if err != nil {
		return core.RunInfo{}, nil, err
	}
	defer analysis.Cancel()

	var events []core.AgentEvent
	for {
		select {
		case <-ctx.Done():
			// Context cancelled - return events collected so far
			return analysis.Info, events, ctx.Err()

		case ev, ok := <-analysis.Events:
			if !ok {
				// Events channel closed; only now consult the terminal error
				// so events emitted ahead of a failure are never dropped.
				select {
				case err := <-analysis.Errors:
					return analysis.Info, events, err
				default:
					return analysis.Info, events, nil
				}
			}
			events = append(events, ev)
		}
	}
}
