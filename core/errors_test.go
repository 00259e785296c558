package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Message(t *testing.T) {
	err := NewMissingFieldError("side")
	assert.Contains(t, err.Error(), "missing_field")
	assert.Contains(t, err.Error(), `"side"`)

	assert.Equal(t, InvalidEnum, NewInvalidEnumError("outcome", "MAYBE").Kind)
	assert.Equal(t, InvalidRange, NewInvalidRangeError("confidence", "must be within [0,1]").Kind)
	assert.Equal(t, InvalidFormat, NewInvalidFormatError("market_id", "expected string or number").Kind)
}

func TestClassifyStreamError(t *testing.T) {
	inactivity := 30 * time.Second

	tests := []struct {
		name        string
		in          error
		wantTimeout bool
	}{
		{name: "message mentions timeout", in: errors.New("request timeout while reading"), wantTimeout: true},
		{name: "message mentions timed out", in: errors.New("upstream timed out"), wantTimeout: true},
		{name: "deadline exceeded sentinel", in: context.DeadlineExceeded, wantTimeout: true},
		{name: "wrapped deadline", in: fmt.Errorf("recv: %w", context.DeadlineExceeded), wantTimeout: true},
		{name: "connection refused", in: errors.New("connection refused"), wantTimeout: false},
		{name: "network unreachable", in: errors.New("network is unreachable"), wantTimeout: false},
		{name: "anything else wraps as connection", in: errors.New("unexpected payload state"), wantTimeout: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyStreamError(tt.in, inactivity)
			if tt.wantTimeout {
				var te *StreamTimeoutError
				require.ErrorAs(t, got, &te)
				assert.Equal(t, inactivity, te.Wait)
			} else {
				var ce *StreamConnectionError
				require.ErrorAs(t, got, &ce)
				assert.ErrorIs(t, got, tt.in)
			}
		})
	}
}

func TestClassifyStreamError_PassThrough(t *testing.T) {
	assert.Nil(t, ClassifyStreamError(nil, time.Second))

	te := &StreamTimeoutError{Phase: "inactivity", Wait: time.Second}
	assert.Same(t, te, ClassifyStreamError(te, time.Minute))

	ce := &StreamConnectionError{Cause: errors.New("boom")}
	assert.Same(t, ce, ClassifyStreamError(ce, time.Minute))

	// Wrapped classified errors stay classified, not re-wrapped.
	wrapped := fmt.Errorf("session: %w", te)
	var gotTimeout *StreamTimeoutError
	require.ErrorAs(t, ClassifyStreamError(wrapped, time.Minute), &gotTimeout)
	assert.Equal(t, te.Wait, gotTimeout.Wait)
}

func TestStreamConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := &StreamConnectionError{Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "broken pipe")
}
