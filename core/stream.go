package core

import "context"

// RawChunk is one raw unit of data as received from the transport, prior to
// any validation. Chunks are JSON documents using one of the envelope shapes
// recognized by validate.StreamChunk.
type RawChunk []byte

// RawStream is an ordered source of raw chunks from a live backend
// connection. Implementations are consumed by a single stream.Session.
//
// Semantics:
//   - Recv blocks until the next chunk, natural completion (io.EOF) or a
//     transport failure. Chunks are delivered strictly in arrival order.
//   - Close releases the underlying connection and MUST be idempotent;
//     a Recv blocked at the time of Close returns an error promptly.
type RawStream interface {
	Recv(ctx context.Context) (RawChunk, error)
	Close() error
}
