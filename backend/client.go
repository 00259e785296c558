// Package backend implements the live transport against a LangGraph-style
// agent backend: thread creation over plain HTTP and run streaming over SSE.
// The rest of the module only sees the core.RawStream contract; everything
// transport-specific stays here.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/polytrader/polystream/core"
	"github.com/polytrader/polystream/logging"
)

// Options holds configuration overrides passed to NewClient.
type Options struct {
	// APIKey is sent as the X-Api-Key header when non-empty.
	APIKey string
	// ConnectTimeout bounds thread creation and stream establishment.
	ConnectTimeout time.Duration
	// Logger receives transport diagnostics.
	Logger logging.Logger
}

// Client talks to the agent backend. Safe for concurrent use; each run
// stream returned by StreamRun is owned by a single consumer.
type Client struct {
	http           *resty.Client
	connectTimeout time.Duration
	logger         logging.Logger
}

// RunInput is the workflow input posted when starting a run.
type RunInput struct {
	MarketID           string              `json:"market_id"`
	CustomInstructions string              `json:"custom_instructions,omitempty"`
	Positions          []core.Position     `json:"positions,omitempty"`
	AvailableFunds     float64             `json:"available_funds,omitempty"`
	Tokens             []core.OutcomeToken `json:"tokens,omitempty"`
}

type threadResponse struct {
	ThreadID string `json:"thread_id"`
}

// NewClient creates a backend client for the given base endpoint.
func NewClient(endpoint string, optFns ...func(o *Options)) *Client {
	opts := Options{
		ConnectTimeout: 10 * time.Second,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := resty.New().
		SetBaseURL(endpoint).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		httpClient.SetHeader("X-Api-Key", opts.APIKey)
	}

	return &Client{
		http:           httpClient,
		connectTimeout: opts.ConnectTimeout,
		logger:         opts.Logger,
	}
}

// CreateThread asks the backend for a new thread identity. The call is
// bounded by the connect timeout; exceeding it is a connection failure the
// runner recovers from by falling back.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	var out threadResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{}).
		SetResult(&out).
		Post("/threads")
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("create thread: backend returned %s", resp.Status())
	}
	if out.ThreadID == "" {
		return "", fmt.Errorf("create thread: backend response missing thread_id")
	}

	c.logger.Debug("thread created", "thread_id", out.ThreadID)

	return out.ThreadID, nil
}

// StreamRun starts a run on the given thread and returns the backend-issued
// run id plus the raw SSE chunk stream. The request context must outlive the
// stream, so no timeout is applied here; bounding silence between chunks is
// the stream session's inactivity timer's job.
func (c *Client) StreamRun(ctx context.Context, threadID string, input RunInput) (string, core.RawStream, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetBody(map[string]any{"input": input, "stream_mode": "events"}).
		Post(fmt.Sprintf("/threads/%s/runs/stream", threadID))
	if err != nil {
		return "", nil, fmt.Errorf("open run stream: %w", err)
	}
	if resp.StatusCode() >= 400 {
		_ = resp.RawBody().Close()
		return "", nil, fmt.Errorf("open run stream: backend returned %s", resp.Status())
	}

	runID := resp.Header().Get("X-Run-Id")
	if runID == "" {
		runID = core.NewID()
	}

	c.logger.Debug("run stream opened", "thread_id", threadID, "run_id", runID)

	return runID, newSSEStream(resp.RawBody()), nil
}
