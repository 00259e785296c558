package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingLogger_RetainsChronologicalOrder(t *testing.T) {
	r := NewRingLogger(10, LogLevelDebug)
	r.Info("first")
	r.Warn("second", "key", "value")
	r.Error("third")

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, []any{"key", "value"}, entries[1].Args)
	assert.Equal(t, LogLevelError, entries[2].Level)
	assert.Equal(t, 3, r.Len())
}

func TestRingLogger_WrapsAroundCapacity(t *testing.T) {
	r := NewRingLogger(3, LogLevelDebug)
	for i := 0; i < 5; i++ {
		r.Info(fmt.Sprintf("msg-%d", i))
	}

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "msg-2", entries[0].Message)
	assert.Equal(t, "msg-3", entries[1].Message)
	assert.Equal(t, "msg-4", entries[2].Message)
}

func TestRingLogger_LevelFilter(t *testing.T) {
	r := NewRingLogger(10, LogLevelWarn)
	r.Debug("dropped")
	r.Info("dropped")
	r.Warn("kept")
	r.Error("kept")

	assert.Equal(t, 2, r.Len())
	for _, e := range r.Entries() {
		assert.Equal(t, "kept", e.Message)
	}
}

func TestRingLogger_Reset(t *testing.T) {
	r := NewRingLogger(2, LogLevelDebug)
	r.Info("a")
	r.Info("b")
	r.Info("c")
	r.Reset()

	assert.Zero(t, r.Len())
	assert.Empty(t, r.Entries())

	r.Info("after")
	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0].Message)
}

func TestRingLogger_ClampsCapacity(t *testing.T) {
	r := NewRingLogger(0, LogLevelDebug)
	r.Info("a")
	r.Info("b")

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Message)
}
