package core

// RunMode records which branch the orchestrator chose for a run. The mode is
// informational; consumers receive the same stream contract either way.
type RunMode string

const (
	// RunModeLive indicates events come from the configured backend.
	RunModeLive RunMode = "live"
	// RunModeMock indicates the scripted stream was chosen up front (no
	// endpoint configured, or mock mode forced).
	RunModeMock RunMode = "mock"
	// RunModeFallback indicates a live connection was attempted and failed,
	// and the scripted stream substituted.
	RunModeFallback RunMode = "fallback"
)

// RunInfo identifies one end-to-end analysis run. For live runs ThreadID and
// RunID are backend-issued; for mock/fallback runs both carry a prefixed
// locally generated id so callers can tell (informationally) how the run was
// sourced.
type RunInfo struct {
	ThreadID string  `json:"thread_id"`
	RunID    string  `json:"run_id"`
	Mode     RunMode `json:"mode"`
}

// NewLiveRunInfo builds the identity for a backend-issued run.
func NewLiveRunInfo(threadID, runID string) RunInfo {
	return RunInfo{ThreadID: threadID, RunID: runID, Mode: RunModeLive}
}

// NewMockRunInfo builds a "mock-" prefixed identity for runs that never
// attempted a live connection.
func NewMockRunInfo() RunInfo {
	id := "mock-" + NewID()
	return RunInfo{ThreadID: id, RunID: id, Mode: RunModeMock}
}

// NewFallbackRunInfo builds the identity for a run that fell back to the
// scripted stream. afterError selects the "error-fallback-" prefix used when
// a live connection was attempted and failed, versus plain "fallback-".
func NewFallbackRunInfo(afterError bool) RunInfo {
	prefix := "fallback-"
	if afterError {
		prefix = "error-fallback-"
	}
	id := prefix + NewID()
	return RunInfo{ThreadID: id, RunID: id, Mode: RunModeFallback}
}

// IsLive reports whether events for this run come from the backend.
func (r RunInfo) IsLive() bool { return r.Mode == RunModeLive }
