package fallback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polytrader/polystream/core"
)

var stageOrder = []string{
	core.EventFetchMarketData,
	core.EventResearchAgent,
	core.EventReflectOnResearch,
	core.EventAnalysisAgent,
	core.EventReflectOnAnalysis,
	core.EventTradeAgent,
}

func collect(t *testing.T, ch <-chan core.AgentEvent) []core.AgentEvent {
	t.Helper()

	var events []core.AgentEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("generator did not complete in time")
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		}
	}
}

func TestGenerator_SixStagesInFixedOrder(t *testing.T) {
	g := NewGenerator(func(o *Options) { o.Delay = 0 })

	tokens := []core.OutcomeToken{
		{TokenID: "111", Outcome: core.OutcomeNo},
		{TokenID: "222", Outcome: core.OutcomeYes},
	}

	events := collect(t, g.Stream(context.Background(), "517817", tokens))
	require.Len(t, events, 6)
	for i, ev := range events {
		assert.Equal(t, stageOrder[i], ev.Name, "stage %d", i)
		assert.NotNil(t, ev.Data.Messages, "messages must always be present")
	}

	// Stage payloads exercise every typed entity.
	assert.NotNil(t, events[0].Data.MarketData)
	assert.Equal(t, "517817", events[0].Data.MarketData["market_id"])

	require.NotNil(t, events[1].Data.ExternalResearchInfo)
	assert.NotEmpty(t, events[1].Data.ExternalResearchInfo.SourceLinks)

	artifact, ok := events[2].Reflection()
	require.True(t, ok)
	assert.True(t, artifact.IsSatisfactory)

	require.NotNil(t, events[3].Data.AnalysisInfo)
	assert.NotEmpty(t, events[3].Data.AnalysisInfo.MarketMetrics)

	trade := events[5].Data.TradeInfo
	require.NotNil(t, trade)
	assert.Equal(t, core.SideBuy, trade.Side)
	assert.Equal(t, "222", trade.TokenID, "the YES token should be preferred")
	assert.Equal(t, core.OutcomeYes, trade.Outcome)
	assert.Equal(t, "517817", trade.MarketID)
	assert.False(t, trade.Size.IsNegative())
	assert.GreaterOrEqual(t, trade.Confidence, 0.0)
	assert.LessOrEqual(t, trade.Confidence, 1.0)
}

func TestGenerator_Deterministic(t *testing.T) {
	tokens := []core.OutcomeToken{{TokenID: "42", Outcome: core.OutcomeYes}}

	first := Script("517817", tokens)
	second := Script("517817", tokens)
	require.Len(t, first, 6)
	require.Len(t, second, 6)

	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
	assert.Equal(t, first[5].Data.TradeInfo.Reason, second[5].Data.TradeInfo.Reason)
	assert.True(t, first[5].Data.TradeInfo.Size.Equal(second[5].Data.TradeInfo.Size))
	assert.Equal(t, first[1].Data.ExternalResearchInfo, second[1].Data.ExternalResearchInfo)
}

func TestGenerator_EmptyTokenListStillCompletes(t *testing.T) {
	g := NewGenerator(func(o *Options) { o.Delay = 0 })

	events := collect(t, g.Stream(context.Background(), "98765", nil))
	require.Len(t, events, 6)
	require.NotNil(t, events[5].Data.TradeInfo)
	assert.Equal(t, "98765", events[5].Data.TradeInfo.MarketID)
}

func TestGenerator_CancellationStopsEmission(t *testing.T) {
	g := NewGenerator(func(o *Options) {
		o.Delay = time.Hour // pacing long enough that only the first event fires
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := g.Stream(ctx, "517817", nil)

	select {
	case ev := <-ch:
		assert.Equal(t, core.EventFetchMarketData, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("expected the first event promptly")
	}

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must close after cancellation")
	case <-time.After(time.Second):
		t.Fatal("channel did not close after cancellation")
	}
}
