package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/polytrader/polystream/core"
)

// ScriptedStream is a core.RawStream double delivering a fixed chunk list.
// After the chunks are exhausted it returns FinalErr (io.EOF by default),
// optionally after blocking for HangAfter so timeout paths can be exercised.
type ScriptedStream struct {
	// Chunks are delivered in order, one per Recv call.
	Chunks []core.RawChunk
	// Delay is applied before each delivery.
	Delay time.Duration
	// HangAfter, when non-zero, blocks the Recv following the last chunk
	// for that duration (or until ctx/Close) before returning FinalErr.
	HangAfter time.Duration
	// FinalErr is returned once the chunks are exhausted. Defaults to io.EOF.
	FinalErr error

	mu        sync.Mutex
	pos       int
	recvCalls int
	closed    bool
	done      chan struct{}
	once      sync.Once
}

// Recv implements core.RawStream.
func (s *ScriptedStream) Recv(ctx context.Context) (core.RawChunk, error) {
	s.init()

	s.mu.Lock()
	s.recvCalls++
	closed := s.closed
	var chunk core.RawChunk
	have := s.pos < len(s.Chunks)
	if have {
		chunk = s.Chunks[s.pos]
		s.pos++
	}
	s.mu.Unlock()

	if closed {
		return nil, io.ErrClosedPipe
	}

	if have {
		if s.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-s.done:
				return nil, io.ErrClosedPipe
			case <-time.After(s.Delay):
			}
		}
		return chunk, nil
	}

	if s.HangAfter > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, io.ErrClosedPipe
		case <-time.After(s.HangAfter):
		}
	}

	if s.FinalErr != nil {
		return nil, s.FinalErr
	}
	return nil, io.EOF
}

// Close implements core.RawStream. Idempotent.
func (s *ScriptedStream) Close() error {
	s.init()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
	return nil
}

// RecvCalls reports how many times Recv was invoked.
func (s *ScriptedStream) RecvCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvCalls
}

// Closed reports whether Close was called.
func (s *ScriptedStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *ScriptedStream) init() {
	s.mu.Lock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	s.mu.Unlock()
}
