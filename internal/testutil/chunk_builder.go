package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/polytrader/polystream/core"
)

// Chunk marshals m into a raw chunk, panicking on marshal failure (test-only
// inputs are always marshalable).
func Chunk(m map[string]any) core.RawChunk {
	b, err := json.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal chunk: %v", err))
	}
	return core.RawChunk(b)
}

// EventChunk builds an event-style envelope chunk for the named stage.
func EventChunk(name string, data map[string]any) core.RawChunk {
	return Chunk(map[string]any{"event": name, "data": data})
}

// MessagesData builds an event data payload whose messages are simple ai
// text messages with the given contents.
func MessagesData(contents ...string) map[string]any {
	msgs := make([]any, 0, len(contents))
	for i, c := range contents {
		msgs = append(msgs, map[string]any{
			"id":      fmt.Sprintf("msg-%d", i),
			"type":    "ai",
			"content": c,
		})
	}
	return map[string]any{"messages": msgs}
}

// TradePayload returns a fully valid trade_info payload. Tests mutate or
// delete keys to produce specific failures.
func TradePayload() map[string]any {
	return map[string]any{
		"side":       "BUY",
		"outcome":    "YES",
		"market_id":  "517817",
		"token_id":   "981542",
		"size":       12.5,
		"reason":     "modeled probability exceeds implied probability",
		"confidence": 0.7,
	}
}

// AnalysisPayload returns a minimal valid analysis_info payload.
func AnalysisPayload() map[string]any {
	return map[string]any{
		"analysis_summary": "orderbook favors accumulation",
		"confidence":       0.6,
	}
}

// ResearchPayload returns a minimal valid external_research_info payload.
func ResearchPayload() map[string]any {
	return map[string]any{
		"research_summary": "coverage leans positive",
		"confidence":       0.65,
		"source_links":     []any{"https://example.com/a"},
	}
}
