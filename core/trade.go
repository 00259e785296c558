package core

import "github.com/shopspring/decimal"

// Side is the direction of a proposed trade.
type Side string

// Enumerated trade sides. Anything else fails validation rather than being
// silently coerced.
const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideNoTrade Side = "NO_TRADE"
)

// Valid reports whether the side is one of the enumerated values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell || s == SideNoTrade
}

// Outcome is the market outcome a trade targets.
type Outcome string

// Enumerated outcomes for binary prediction markets.
const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Valid reports whether the outcome is one of the enumerated values.
func (o Outcome) Valid() bool { return o == OutcomeYes || o == OutcomeNo }

// TradeInfo is the trade proposal produced by the trade agent stage.
// MarketID and TokenID are canonical strings (numeric backend ids are coerced
// during validation). Size is decimal to avoid float drift on order sizes.
// Invariants enforced by validate.TradeInfo: Confidence in [0,1], Size >= 0,
// Side/Outcome restricted to their enumerated sets.
type TradeInfo struct {
	Side                        Side            `json:"side"`
	Outcome                     Outcome         `json:"outcome"`
	MarketID                    string          `json:"market_id"`
	TokenID                     string          `json:"token_id"`
	Size                        decimal.Decimal `json:"size"`
	Reason                      string          `json:"reason"`
	Confidence                  float64         `json:"confidence"`
	TradeEvaluationOfMarketData string          `json:"trade_evaluation_of_market_data,omitempty"`
}

// OutcomeToken pairs a tradable token with the market outcome it settles on.
type OutcomeToken struct {
	TokenID string  `json:"token_id"`
	Outcome Outcome `json:"outcome"`
}

// AnalysisInfo is the quantitative analysis payload. The four mapping fields
// are produced by an external analytic stage and passed through verbatim;
// their internal shape is opaque to this module.
type AnalysisInfo struct {
	AnalysisSummary         string         `json:"analysis_summary"`
	Confidence              float64        `json:"confidence"`
	MarketMetrics           map[string]any `json:"market_metrics"`
	OrderbookAnalysis       map[string]any `json:"orderbook_analysis"`
	TradingSignals          map[string]any `json:"trading_signals"`
	ExecutionRecommendation map[string]any `json:"execution_recommendation"`
}

// Position describes one currently-held position, passed through to the
// backend as workflow input so the trade agent can size proposals against
// existing exposure.
type Position struct {
	MarketID string          `json:"market_id"`
	TokenID  string          `json:"token_id"`
	Outcome  Outcome         `json:"outcome"`
	Size     decimal.Decimal `json:"size"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// ExternalResearchInfo is the payload of the external research stage.
// SourceLinks defaults to an empty slice when absent.
type ExternalResearchInfo struct {
	ResearchSummary string   `json:"research_summary"`
	Confidence      float64  `json:"confidence"`
	SourceLinks     []string `json:"source_links"`
}
