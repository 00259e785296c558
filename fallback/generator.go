// Package fallback produces a deterministic, finite, pre-scripted sequence of
// agent events mimicking a full successful run. It is used when no live
// backend is configured, mock mode is forced, or the live connection fails.
// By construction it has no external dependency: it never fails and never
// times out.
package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polytrader/polystream/core"
)

// Options holds configuration overrides passed to NewGenerator.
type Options struct {
	// Delay is the artificial pacing between emitted events, so consumers
	// can exercise real-time rendering paths in development.
	Delay time.Duration
	// EventBufferSize sets channel buffering for emitted events.
	EventBufferSize int
}

// Generator emits the scripted six-stage run. It is stateless and replayable:
// two invocations with the same market id and token list produce the same
// event sequence, modulo generated message identifiers.
type Generator struct {
	delay   time.Duration
	bufSize int
}

// NewGenerator creates a Generator with optional overrides.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	opts := Options{
		Delay:           800 * time.Millisecond,
		EventBufferSize: 8,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Generator{delay: opts.Delay, bufSize: opts.EventBufferSize}
}

// Stream emits the scripted run for the given market, pacing events by the
// configured delay. The channel closes after the final event, or early if
// ctx is cancelled.
func (g *Generator) Stream(ctx context.Context, marketID string, tokens []core.OutcomeToken) <-chan core.AgentEvent {
	eventsCh := make(chan core.AgentEvent, g.bufSize)

	go func() {
		defer close(eventsCh)

		for i, ev := range Script(marketID, tokens) {
			if i > 0 && g.delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(g.delay):
				}
			}

			select {
			case <-ctx.Done():
				return
			case eventsCh <- ev:
			}
		}
	}()

	return eventsCh
}

// Script returns the fixed six-event sequence for one scripted run:
// market data fetch, research, research reflection, analysis, analysis
// reflection, trade decision.
func Script(marketID string, tokens []core.OutcomeToken) []core.AgentEvent {
	token := pickToken(tokens)

	return []core.AgentEvent{
		marketDataEvent(marketID),
		researchEvent(marketID),
		reflectionEvent(core.EventReflectOnResearch, "research"),
		analysisEvent(marketID),
		reflectionEvent(core.EventReflectOnAnalysis, "analysis"),
		tradeEvent(marketID, token),
	}
}

// pickToken prefers the YES token, then the first available, then a
// synthetic placeholder so the script works with an empty token list.
func pickToken(tokens []core.OutcomeToken) core.OutcomeToken {
	for _, t := range tokens {
		if t.Outcome == core.OutcomeYes {
			return t
		}
	}
	if len(tokens) > 0 {
		return tokens[0]
	}
	return core.OutcomeToken{TokenID: "0", Outcome: core.OutcomeYes}
}

func marketDataEvent(marketID string) core.AgentEvent {
	ev := core.NewAgentEvent(core.EventFetchMarketData)
	ev.Data.Messages = append(ev.Data.Messages,
		core.NewTextMessage("ai", fmt.Sprintf("Fetched market data for market %s.", marketID)))
	ev.Data.MarketData = map[string]any{
		"market_id":    marketID,
		"question":     "Will the scripted outcome resolve YES?",
		"best_bid":     0.41,
		"best_ask":     0.45,
		"volume_24h":   125000.0,
		"liquidity":    58000.0,
		"spread":       0.04,
		"active":       true,
		"close_time":   "2026-12-31T23:59:59Z",
		"outcome_tags": []any{"YES", "NO"},
	}
	return ev
}

func researchEvent(marketID string) core.AgentEvent {
	ev := core.NewAgentEvent(core.EventResearchAgent)
	ev.Data.Messages = append(ev.Data.Messages,
		core.NewTextMessage("ai", "Completed external research across news and prediction-market commentary."))
	ev.Data.ExternalResearchInfo = &core.ExternalResearchInfo{
		ResearchSummary: fmt.Sprintf(
			"Coverage for market %s leans positive: two independent sources report momentum toward the YES outcome, while polling aggregates remain within the margin of error.", marketID),
		Confidence: 0.72,
		SourceLinks: []string{
			"https://example.com/analysis/market-momentum",
			"https://example.com/news/outcome-forecast",
		},
	}
	return ev
}

func reflectionEvent(name, subject string) core.AgentEvent {
	ev := core.NewAgentEvent(name)
	msg := core.NewTextMessage("ai", fmt.Sprintf("Reviewed the %s output; quality is sufficient to proceed.", subject))
	msg.AdditionalKwargs = &core.MessageKwargs{
		Artifact: &core.ReflectionArtifact{
			IsSatisfactory: true,
			Reason: []string{
				fmt.Sprintf("The %s covers the key drivers of the market.", subject),
				"Confidence estimates are internally consistent.",
			},
			ImprovementInstructions: nil,
		},
	}
	ev.Data.Messages = append(ev.Data.Messages, msg)
	return ev
}

func analysisEvent(marketID string) core.AgentEvent {
	ev := core.NewAgentEvent(core.EventAnalysisAgent)
	ev.Data.Messages = append(ev.Data.Messages,
		core.NewTextMessage("ai", "Quantitative analysis complete; orderbook favors accumulation on YES."))
	ev.Data.AnalysisInfo = &core.AnalysisInfo{
		AnalysisSummary: fmt.Sprintf(
			"Market %s shows a mispriced YES outcome: implied probability 43%% versus a modeled 55%%, with adequate depth to fill a small position.", marketID),
		Confidence: 0.68,
		MarketMetrics: map[string]any{
			"implied_probability": 0.43,
			"modeled_probability": 0.55,
			"volume_trend":        "rising",
		},
		OrderbookAnalysis: map[string]any{
			"bid_depth_usd": 5200.0,
			"ask_depth_usd": 3100.0,
			"imbalance":     0.25,
		},
		TradingSignals: map[string]any{
			"momentum": "positive",
			"edge_bps": 120.0,
		},
		ExecutionRecommendation: map[string]any{
			"style":        "passive",
			"max_slippage": 0.02,
		},
	}
	return ev
}

func tradeEvent(marketID string, token core.OutcomeToken) core.AgentEvent {
	ev := core.NewAgentEvent(core.EventTradeAgent)
	ev.Data.Messages = append(ev.Data.Messages,
		core.NewTextMessage("ai", "Proposing a small BUY on the undervalued outcome, pending human confirmation."))
	ev.Data.TradeInfo = &core.TradeInfo{
		Side:       core.SideBuy,
		Outcome:    token.Outcome,
		MarketID:   marketID,
		TokenID:    token.TokenID,
		Size:       decimal.NewFromInt(10),
		Reason:     "Modeled probability exceeds the implied probability by a margin wider than fees and slippage.",
		Confidence: 0.66,
		TradeEvaluationOfMarketData: "Liquidity and spread are acceptable for a position of this size.",
	}
	return ev
}
