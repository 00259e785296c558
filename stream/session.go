// Package stream consumes a raw, ordered, potentially unbounded sequence of
// transport chunks and re-exposes it as a validated, timeout-bounded sequence
// of agent events.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/polytrader/polystream/core"
	"github.com/polytrader/polystream/logging"
	"github.com/polytrader/polystream/validate"
)

// Options holds configuration overrides passed to NewSession.
type Options struct {
	// InactivityTimeout is the maximum silence between forwarded chunks.
	// It measures gaps, not total stream duration: a long-running stage may
	// legitimately take minutes as long as something arrives per window.
	InactivityTimeout time.Duration
	// EventBufferSize sets channel buffering for delivered events.
	EventBufferSize int
	// Logger receives validation warnings and lifecycle diagnostics.
	Logger logging.Logger
}

// Stats counts per-session diagnostics. Shape rejections and dropped
// sub-payloads never surface to the consumer; they are visible only here.
type Stats struct {
	Forwarded       int
	ShapeRejected   int
	DroppedPayloads int
}

// Session wraps a core.RawStream and owns the inactivity timer, per-chunk
// validation and error classification for one logical consumer.
//
// Guarantees:
//   - Chunks are processed strictly in arrival order; no reordering and no
//     concurrent validation of multiple chunks. Valid chunks received ahead
//     of an upstream failure are delivered before the error surfaces.
//   - The events channel is closed on completion (success, error or
//     cancellation); the error channel carries at most one terminal error,
//     always one of the named kinds from the core package.
//   - After a terminal error the upstream is no longer read.
//   - Close is idempotent and safe to call at any point; a timer firing
//     after Close is a no-op.
type Session struct {
	raw        core.RawStream
	inactivity time.Duration
	bufSize    int
	logger     logging.Logger

	closeOnce sync.Once

	mu     sync.Mutex // guards cancel and stats
	cancel context.CancelFunc
	stats  Stats
}

// NewSession creates a Session over the given raw stream with optional
// overrides.
func NewSession(raw core.RawStream, optFns ...func(o *Options)) *Session {
	opts := Options{
		InactivityTimeout: 2 * time.Minute,
		EventBufferSize:   100,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Session{
		raw:        raw,
		inactivity: opts.InactivityTimeout,
		bufSize:    opts.EventBufferSize,
		logger:     opts.Logger,
	}
}

// Run starts consuming the raw stream. It returns an ordered event channel
// (closed on completion) and a terminal error channel (size 1, closed after
// at most one send). Run must be called once per session.
func (s *Session) Run(ctx context.Context) (<-chan core.AgentEvent, <-chan error) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	eventsCh := make(chan core.AgentEvent, s.bufSize)
	errorsCh := make(chan error, 1)

	chunkCh := make(chan core.RawChunk, s.bufSize)
	recvErrCh := make(chan error, 1)

	go s.recvLoop(ctx, chunkCh, recvErrCh)

	go func() {
		defer func() {
			s.Close()
			close(eventsCh)
			close(errorsCh)
		}()

		s.processChunks(ctx, chunkCh, recvErrCh, eventsCh, errorsCh)
	}()

	return eventsCh, errorsCh
}

// Close tears the session down: it stops upstream consumption and releases
// the underlying stream. Safe to invoke multiple times and after completion.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if err := s.raw.Close(); err != nil {
			s.logger.Debug("raw stream close failed", "error", err)
		}
	})
}

// Stats returns a snapshot of the session diagnostics counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// recvLoop pulls chunks from the transport until completion, failure or
// cancellation. It never reads again after an error.
func (s *Session) recvLoop(ctx context.Context, chunkCh chan<- core.RawChunk, recvErrCh chan<- error) {
	defer close(chunkCh)

	for {
		chunk, err := s.raw.Recv(ctx)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				recvErrCh <- err
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case chunkCh <- chunk:
		}
	}
}

func (s *Session) processChunks(
	ctx context.Context,
	chunkCh <-chan core.RawChunk,
	recvErrCh <-chan error,
	eventsCh chan<- core.AgentEvent,
	errorsCh chan<- error,
) {
	timer := time.NewTimer(s.inactivity)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C:
			errorsCh <- &core.StreamTimeoutError{Phase: "inactivity", Wait: s.inactivity}
			return

		case chunk, ok := <-chunkCh:
			if !ok {
				// The error channel is consulted only here, after every chunk
				// buffered ahead of the failure has been delivered. recvLoop
				// records the error before closing chunkCh, so a pending one
				// is always visible by now.
				select {
				case err := <-recvErrCh:
					errorsCh <- core.ClassifyStreamError(err, s.inactivity)
				default:
				}
				return
			}

			ev, ok := s.convertChunk(chunk)
			if !ok {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case eventsCh <- ev:
			}

			s.mu.Lock()
			s.stats.Forwarded++
			s.mu.Unlock()

			if ev.IsTradeDecision() {
				trade := ev.Data.TradeInfo
				logging.TradeDecision(s.logger, trade.MarketID,
					string(trade.Side), string(trade.Outcome), trade.Size.String(), trade.Confidence)
			}

			// The timeout measures silence between valid chunks, so only a
			// forwarded chunk re-arms it.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.inactivity)
		}
	}
}

// convertChunk applies the shape pre-filter and full validation. Chunks
// failing the pre-filter are discarded silently; event-shaped chunks whose
// body cannot be decoded are discarded with a warning. Non-event envelopes
// (updates, values, metadata) are forwarded opaquely.
func (s *Session) convertChunk(chunk core.RawChunk) (core.AgentEvent, bool) {
	if !validate.StreamChunk(chunk) {
		s.mu.Lock()
		s.stats.ShapeRejected++
		s.mu.Unlock()
		s.logger.Debug("chunk rejected by shape filter", "size", len(chunk))
		return core.AgentEvent{}, false
	}

	var envelope map[string]any
	if err := json.Unmarshal(chunk, &envelope); err != nil {
		s.mu.Lock()
		s.stats.ShapeRejected++
		s.mu.Unlock()
		s.logger.Debug("chunk failed to decode", "error", err)
		return core.AgentEvent{}, false
	}

	if name, ok := envelope["event"]; ok {
		return s.convertEventChunk(name, envelope["data"])
	}

	// One of updates / values / metadata: forwarded verbatim for the
	// consumer to handle or ignore.
	for _, key := range []string{"updates", "values", "metadata"} {
		if _, ok := envelope[key]; ok {
			ev := core.NewAgentEvent(key)
			ev.Raw = envelope
			return ev, true
		}
	}

	return core.AgentEvent{}, false
}

func (s *Session) convertEventChunk(rawName, rawData any) (core.AgentEvent, bool) {
	name, ok := rawName.(string)
	if !ok || name == "" {
		s.logger.Warn("event chunk carries a non-string name", "name", rawName)
		return core.AgentEvent{}, false
	}

	data, ok := rawData.(map[string]any)
	if !ok {
		// Shape-accepted but payload-less ({event:"x", data:null}); forward
		// with a normalized empty message sequence.
		return core.NewAgentEvent(name), true
	}

	ev, dropped, err := validate.AgentEvent(map[string]any{"name": name, "data": data})
	if err != nil {
		s.logger.Warn("event chunk failed validation", "event", name, "error", err)
		return core.AgentEvent{}, false
	}

	for _, d := range dropped {
		logging.ValidationFailure(s.logger, name, d.Field, string(d.Kind), d.Detail)
	}
	if len(dropped) > 0 {
		s.mu.Lock()
		s.stats.DroppedPayloads += len(dropped)
		s.mu.Unlock()
	}

	return ev, true
}
