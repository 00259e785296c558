// Package validate converts arbitrary, possibly malformed units of streamed
// data into the typed entities of the core package, or rejects them, without
// aborting the overall stream. All functions are pure: they perform no I/O
// and report drop reasons to the caller instead of logging.
package validate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/polytrader/polystream/core"
)

// tradeFields is the fixed presence-check order for trade payloads. The
// first absent field names the MissingField error.
var tradeFields = []string{"side", "outcome", "market_id", "token_id", "size", "reason", "confidence"}

// MarketID canonicalizes a market identifier. Strings pass through
// unchanged; numbers are coerced to their decimal string form; anything
// else fails with InvalidFormat.
func MarketID(v any) (string, error) { return canonicalID("market_id", v) }

// TokenID canonicalizes a token identifier with the same contract as
// MarketID.
func TokenID(v any) (string, error) { return canonicalID("token_id", v) }

func canonicalID(field string, v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", core.NewInvalidFormatError(field, fmt.Sprintf("expected string or number, got %T", v))
	}
}

// TradeInfo validates a raw trade payload into a typed core.TradeInfo.
// All seven mandatory fields must be present and non-null; side and outcome
// are restricted to their enumerated sets; confidence must be numeric in
// [0,1]; size must be numeric and non-negative. Market and token ids are
// canonicalized via MarketID / TokenID.
func TradeInfo(obj any) (*core.TradeInfo, error) {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, core.NewInvalidFormatError("trade_info", fmt.Sprintf("expected object, got %T", obj))
	}

	for _, f := range tradeFields {
		if v, present := m[f]; !present || v == nil {
			return nil, core.NewMissingFieldError(f)
		}
	}

	side := core.Side(stringify(m["side"]))
	if !side.Valid() {
		return nil, core.NewInvalidEnumError("side", m["side"])
	}

	outcome := core.Outcome(stringify(m["outcome"]))
	if !outcome.Valid() {
		return nil, core.NewInvalidEnumError("outcome", m["outcome"])
	}

	marketID, err := MarketID(m["market_id"])
	if err != nil {
		return nil, err
	}

	tokenID, err := TokenID(m["token_id"])
	if err != nil {
		return nil, err
	}

	size, ok := toDecimal(m["size"])
	if !ok {
		return nil, core.NewInvalidRangeError("size", fmt.Sprintf("expected a number, got %v", m["size"]))
	}
	if size.IsNegative() {
		return nil, core.NewInvalidRangeError("size", fmt.Sprintf("must be >= 0, got %s", size))
	}

	confidence, err := unitInterval("confidence", m["confidence"])
	if err != nil {
		return nil, err
	}

	info := &core.TradeInfo{
		Side:       side,
		Outcome:    outcome,
		MarketID:   marketID,
		TokenID:    tokenID,
		Size:       size,
		Reason:     stringify(m["reason"]),
		Confidence: confidence,
	}
	if eval, ok := m["trade_evaluation_of_market_data"].(string); ok {
		info.TradeEvaluationOfMarketData = eval
	}

	return info, nil
}

// AnalysisInfo validates a raw analysis payload. The summary and confidence
// fields are mandatory; the four sub-mappings are opaque analytic payloads
// and default to empty maps when absent.
func AnalysisInfo(obj any) (*core.AnalysisInfo, error) {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, core.NewInvalidFormatError("analysis_info", fmt.Sprintf("expected object, got %T", obj))
	}

	if v, present := m["analysis_summary"]; !present || v == nil {
		return nil, core.NewMissingFieldError("analysis_summary")
	}
	if v, present := m["confidence"]; !present || v == nil {
		return nil, core.NewMissingFieldError("confidence")
	}

	confidence, err := unitInterval("confidence", m["confidence"])
	if err != nil {
		return nil, err
	}

	return &core.AnalysisInfo{
		AnalysisSummary:         stringify(m["analysis_summary"]),
		Confidence:              confidence,
		MarketMetrics:           mapping(m["market_metrics"]),
		OrderbookAnalysis:       mapping(m["orderbook_analysis"]),
		TradingSignals:          mapping(m["trading_signals"]),
		ExecutionRecommendation: mapping(m["execution_recommendation"]),
	}, nil
}

// ExternalResearchInfo validates a raw external research payload. Summary
// and confidence are mandatory; source links default to an empty slice.
func ExternalResearchInfo(obj any) (*core.ExternalResearchInfo, error) {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, core.NewInvalidFormatError("external_research_info", fmt.Sprintf("expected object, got %T", obj))
	}

	if v, present := m["research_summary"]; !present || v == nil {
		return nil, core.NewMissingFieldError("research_summary")
	}
	if v, present := m["confidence"]; !present || v == nil {
		return nil, core.NewMissingFieldError("confidence")
	}

	confidence, err := unitInterval("confidence", m["confidence"])
	if err != nil {
		return nil, err
	}

	links := []string{}
	if raw, ok := m["source_links"].([]any); ok {
		for _, l := range raw {
			if s, ok := l.(string); ok {
				links = append(links, s)
			}
		}
	}

	return &core.ExternalResearchInfo{
		ResearchSummary: stringify(m["research_summary"]),
		Confidence:      confidence,
		SourceLinks:     links,
	}, nil
}

// AgentEvent validates a raw decoded chunk payload into a typed event. The
// event must carry a string name and an object data payload; messages are
// normalized to an empty slice when absent or not an array.
//
// Each typed sub-payload (trade_info, analysis_info, external_research_info)
// is validated independently: a malformed sub-payload is dropped and its
// failure returned in the second result, while the rest of the event stays
// valid. A malformed sub-payload never invalidates the whole event.
func AgentEvent(raw any) (core.AgentEvent, []*core.ValidationError, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return core.AgentEvent{}, nil, core.NewInvalidFormatError("event", fmt.Sprintf("expected object, got %T", raw))
	}

	name, ok := m["name"].(string)
	if !ok || name == "" {
		return core.AgentEvent{}, nil, core.NewMissingFieldError("name")
	}

	data, ok := m["data"].(map[string]any)
	if !ok {
		return core.AgentEvent{}, nil, core.NewMissingFieldError("data")
	}

	ev := core.NewAgentEvent(name)

	if rawMsgs, ok := data["messages"].([]any); ok {
		for _, rm := range rawMsgs {
			if mm, ok := rm.(map[string]any); ok {
				ev.Data.Messages = append(ev.Data.Messages, decodeMessage(mm))
			}
		}
	}

	var dropped []*core.ValidationError

	if v, present := data["trade_info"]; present && v != nil {
		if info, err := TradeInfo(v); err == nil {
			ev.Data.TradeInfo = info
		} else {
			dropped = append(dropped, asValidationError(err))
		}
	}

	if v, present := data["analysis_info"]; present && v != nil {
		if info, err := AnalysisInfo(v); err == nil {
			ev.Data.AnalysisInfo = info
		} else {
			dropped = append(dropped, asValidationError(err))
		}
	}

	if v, present := data["external_research_info"]; present && v != nil {
		if info, err := ExternalResearchInfo(v); err == nil {
			ev.Data.ExternalResearchInfo = info
		} else {
			dropped = append(dropped, asValidationError(err))
		}
	}

	if md, ok := data["market_data"].(map[string]any); ok {
		ev.Data.MarketData = md
	}
	if or, ok := data["order_response"].(map[string]any); ok {
		ev.Data.OrderResponse = or
	}

	return ev, dropped, nil
}

// StreamChunk is a cheap boolean pre-filter run before full validation. A
// chunk qualifies when it is a JSON object using one of the recognized
// envelope shapes: an event key (deeply validated downstream), or an
// updates / values / metadata key (forwarded opaquely). Garbage is rejected.
func StreamChunk(chunk core.RawChunk) bool {
	if !gjson.ValidBytes(chunk) {
		return false
	}
	parsed := gjson.ParseBytes(chunk)
	if !parsed.IsObject() {
		return false
	}
	for _, key := range []string{"event", "updates", "values", "metadata"} {
		if parsed.Get(key).Exists() {
			return true
		}
	}
	return false
}

func decodeMessage(m map[string]any) core.AgentMessage {
	msg := core.AgentMessage{
		Content: stringify(m["content"]),
		Type:    stringify(m["type"]),
	}
	if id, ok := m["id"].(string); ok {
		msg.ID = id
	}
	if name, ok := m["name"].(string); ok {
		msg.Name = name
	}

	if rawCalls, ok := m["tool_calls"].([]any); ok {
		for _, rc := range rawCalls {
			cm, ok := rc.(map[string]any)
			if !ok {
				continue
			}
			call := core.ToolCall{Name: stringify(cm["name"])}
			if args, ok := cm["args"].(map[string]any); ok {
				call.Args = args
			}
			if id, ok := cm["id"].(string); ok {
				call.ID = id
			}
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
	}

	if kwargs, ok := m["additional_kwargs"].(map[string]any); ok {
		if artifact, ok := kwargs["artifact"].(map[string]any); ok {
			msg.AdditionalKwargs = &core.MessageKwargs{Artifact: decodeArtifact(artifact)}
		}
	}

	return msg
}

func decodeArtifact(m map[string]any) *core.ReflectionArtifact {
	art := &core.ReflectionArtifact{Reason: []string{}}
	if sat, ok := m["is_satisfactory"].(bool); ok {
		art.IsSatisfactory = sat
	}
	if reasons, ok := m["reason"].([]any); ok {
		for _, r := range reasons {
			if s, ok := r.(string); ok {
				art.Reason = append(art.Reason, s)
			}
		}
	}
	if instr, ok := m["improvement_instructions"].(string); ok {
		art.ImprovementInstructions = &instr
	}
	return art
}

// unitInterval coerces v to a float64 and checks it lies in [0,1] inclusive.
func unitInterval(field string, v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, core.NewInvalidRangeError(field, fmt.Sprintf("expected a number, got %v", v))
	}
	if f < 0 || f > 1 {
		return 0, core.NewInvalidRangeError(field, fmt.Sprintf("must be within [0,1], got %v", f))
	}
	return f, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func asValidationError(err error) *core.ValidationError {
	if ve, ok := err.(*core.ValidationError); ok {
		return ve
	}
	return &core.ValidationError{Kind: core.InvalidFormat, Field: "unknown", Detail: err.Error()}
}

// mapping returns v as a string-keyed map, or an empty map when v is absent
// or of another shape. Used for the opaque analytic sub-payloads.
func mapping(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
