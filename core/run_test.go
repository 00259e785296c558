package core

import (
	"strings"
	"testing"
)

func TestRunInfo_Prefixes(t *testing.T) {
	mock := NewMockRunInfo()
	if !strings.HasPrefix(mock.RunID, "mock-") || !strings.HasPrefix(mock.ThreadID, "mock-") {
		t.Fatalf("mock run identity must be mock- prefixed: %+v", mock)
	}
	if mock.Mode != RunModeMock || mock.IsLive() {
		t.Fatalf("unexpected mode: %+v", mock)
	}

	fb := NewFallbackRunInfo(false)
	if !strings.HasPrefix(fb.RunID, "fallback-") || strings.HasPrefix(fb.RunID, "error-fallback-") {
		t.Fatalf("expected plain fallback- prefix: %+v", fb)
	}

	errFb := NewFallbackRunInfo(true)
	if !strings.HasPrefix(errFb.RunID, "error-fallback-") {
		t.Fatalf("expected error-fallback- prefix: %+v", errFb)
	}
	if errFb.Mode != RunModeFallback {
		t.Fatalf("unexpected mode: %+v", errFb)
	}

	live := NewLiveRunInfo("thread-1", "run-1")
	if live.ThreadID != "thread-1" || live.RunID != "run-1" || !live.IsLive() {
		t.Fatalf("unexpected live identity: %+v", live)
	}
}

func TestRunInfo_IdentitiesAreUnique(t *testing.T) {
	a := NewMockRunInfo()
	b := NewMockRunInfo()
	if a.RunID == b.RunID {
		t.Error("mock run ids must be unique per run")
	}
}
