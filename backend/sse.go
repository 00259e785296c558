package backend

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/polytrader/polystream/core"
)

// maxChunkSize bounds a single SSE data line. Analysis payloads with full
// orderbook snapshots run large, so this is generous.
const maxChunkSize = 4 * 1024 * 1024

// sseStream adapts an SSE response body to the core.RawStream contract.
// Each "data:" line is one raw chunk (a JSON envelope); "event:" framing
// lines are consumed for end-of-stream detection and otherwise ignored.
type sseStream struct {
	body      io.ReadCloser
	scanner   *bufio.Scanner
	closeOnce sync.Once
	closeErr  error
}

func newSSEStream(body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxChunkSize)
	return &sseStream{body: body, scanner: scanner}
}

// Recv returns the next data chunk, io.EOF at natural completion, or the
// transport error. A Recv blocked on the network unblocks promptly when
// Close is called (the body read fails), satisfying the RawStream contract.
func (s *sseStream) Recv(ctx context.Context) (core.RawChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		switch {
		case line == "" || strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "event:"):
			if strings.TrimSpace(strings.TrimPrefix(line, "event:")) == "end" {
				return nil, io.EOF
			}
		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return nil, io.EOF
			}
			return core.RawChunk(payload), nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

// Close releases the underlying response body. Idempotent.
func (s *sseStream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.body.Close() })
	return s.closeErr
}
