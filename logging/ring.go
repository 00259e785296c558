package logging

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one captured log record in a RingLogger.
type Entry struct {
	Time    time.Time
	Level   LogLevel
	Message string
	Args    []any
}

// String renders the entry in a compact human readable form.
func (e Entry) String() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("%s [%s] %s", e.Time.Format(time.RFC3339), e.Level, e.Message)
	}
	return fmt.Sprintf("%s [%s] %s %v", e.Time.Format(time.RFC3339), e.Level, e.Message, e.Args)
}

// RingLogger is a Logger backed by a bounded circular buffer. Once capacity
// is reached the oldest entries are overwritten. It is safe for concurrent
// use and useful as a diagnostics buffer or a test double.
type RingLogger struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	min     LogLevel
}

// NewRingLogger creates a RingLogger retaining up to capacity entries at or
// above the given level. Capacity values below 1 are clamped to 1.
func NewRingLogger(capacity int, level LogLevel) *RingLogger {
	if capacity < 1 {
		capacity = 1
	}
	return &RingLogger{entries: make([]Entry, capacity), min: level}
}

func (r *RingLogger) record(level LogLevel, msg string, args ...any) {
	if level < r.min {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = Entry{Time: time.Now(), Level: level, Message: msg, Args: args}
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Debug records a debug entry.
func (r *RingLogger) Debug(msg string, args ...any) { r.record(LogLevelDebug, msg, args...) }

// Info records an informational entry.
func (r *RingLogger) Info(msg string, args ...any) { r.record(LogLevelInfo, msg, args...) }

// Warn records a warning entry.
func (r *RingLogger) Warn(msg string, args ...any) { r.record(LogLevelWarn, msg, args...) }

// Error records an error entry.
func (r *RingLogger) Error(msg string, args ...any) { r.record(LogLevelError, msg, args...) }

// Entries returns the retained entries in chronological order.
func (r *RingLogger) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}

	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

// Len reports how many entries are currently retained.
func (r *RingLogger) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Reset discards all retained entries.
func (r *RingLogger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.full = false
}
