// Package core provides the foundational domain types used by polystream. It
// defines the core abstractions for:
//
//   - AgentEvents (validated units of progress from the agent workflow)
//   - Trade / analysis / research payloads attached to events
//   - RunInfo (thread + run identity for one analysis request)
//   - RawStream (the transport-level chunk source wrapped by stream.Session)
//   - The error taxonomy surfaced to consumers (validation, timeout, connection)
//
// The package intentionally keeps implementation concerns (transport, timers,
// orchestration) out of scope, exposing small types and interfaces so the
// stream, fallback and runner packages can share one vocabulary. All exported
// identifiers include concise documentation to aid discoverability.
package core
