package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateThread(t *testing.T) {
	var gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/threads", r.URL.Path)
		gotAPIKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"thread_id": "thread-abc"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, func(o *Options) {
		o.APIKey = "secret"
	})

	threadID, err := client.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread-abc", threadID)
	assert.Equal(t, "secret", gotAPIKey)
}

func TestClient_CreateThreadBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, err := client.CreateThread(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_CreateThreadMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, err := client.CreateThread(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thread_id")
}

func TestClient_CreateThreadHonorsConnectTimeout(t *testing.T) {
	// The handler must block past the client timeout without responding.
	// It cannot wait on r.Context(): the unread request body keeps the
	// server from watching for the client disconnect, so that context
	// never fires and srv.Close would deadlock on the stuck handler.
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-unblock
	}))
	defer srv.Close()
	defer close(unblock)

	client := NewClient(srv.URL, func(o *Options) {
		o.ConnectTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	_, err := client.CreateThread(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_StreamRun(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/threads/thread-abc/runs/stream", r.URL.Path)
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("X-Run-Id", "run-77")
		_, _ = w.Write([]byte(": keepalive\n\n"))
		_, _ = w.Write([]byte("data: {\"event\":\"fetch_market_data\",\"data\":{\"messages\":[]}}\n\n"))
		_, _ = w.Write([]byte("data: {\"updates\":{\"research_agent\":{}}}\n\n"))
		_, _ = w.Write([]byte("event: end\n\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	runID, raw, err := client.StreamRun(context.Background(), "thread-abc", RunInput{MarketID: "517817"})
	require.NoError(t, err)
	defer raw.Close()
	assert.Equal(t, "run-77", runID)

	input, ok := gotBody["input"].(map[string]any)
	require.True(t, ok, "request body must carry the workflow input")
	assert.Equal(t, "517817", input["market_id"])
	assert.Equal(t, "events", gotBody["stream_mode"])

	ctx := context.Background()

	chunk, err := raw.Recv(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"fetch_market_data","data":{"messages":[]}}`, string(chunk))

	chunk, err = raw.Recv(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"updates":{"research_agent":{}}}`, string(chunk))

	_, err = raw.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_StreamRunGeneratesRunIDWhenHeaderMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	runID, raw, err := client.StreamRun(context.Background(), "t", RunInput{MarketID: "1"})
	require.NoError(t, err)
	defer raw.Close()
	assert.NotEmpty(t, runID)

	_, err = raw.Recv(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_StreamRunBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, _, err := client.StreamRun(context.Background(), "t", RunInput{MarketID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
