package core

import (
	"github.com/google/uuid"
)

// Stage names emitted by the agent workflow. Consumers dispatch on these
// verbatim; the pipeline forwards unrecognized names untouched rather than
// failing, so new backend stages degrade gracefully on old clients.
const (
	EventFetchMarketData   = "fetch_market_data"
	EventResearchTools     = "research_tools"
	EventResearchAgent     = "research_agent"
	EventReflectOnResearch = "reflect_on_research"
	EventAnalysisAgent     = "analysis_agent"
	EventReflectOnAnalysis = "reflect_on_analysis"
	EventTradeAgent        = "trade_agent"
	EventReflectOnTrade    = "reflect_on_trade"
	EventProcessHumanInput = "process_human_input"
	EventAnalysisTools     = "analysis_tools"
	EventTradeTools        = "trade_tools"
	EventHumanConfirmation = "human_confirmation"

	// EventHumanConfirmationJS is the variant name some backend builds emit
	// for the browser-side confirmation stage.
	EventHumanConfirmationJS = "human_confirmation_js"
)

// AgentEvent is one validated unit of progress from the workflow. After
// validation it should be treated as immutable. Data.Messages is always
// non-nil; the optional typed payloads are populated only when the producing
// stage attached them and they survived validation.
type AgentEvent struct {
	Name string    `json:"name"`
	Data EventData `json:"data"`

	// Raw carries the payload of non-event envelope chunks (updates, values,
	// metadata) forwarded opaquely by the stream session. Nil for ordinary
	// event-shaped chunks.
	Raw map[string]any `json:"-"`
}

// EventData is the loosely-typed payload of an AgentEvent. Messages is always
// present (possibly empty) after validation; at most one of the typed info
// payloads is expected per stage, though the core does not enforce that.
type EventData struct {
	Messages             []AgentMessage        `json:"messages"`
	TradeInfo            *TradeInfo            `json:"trade_info,omitempty"`
	AnalysisInfo         *AnalysisInfo         `json:"analysis_info,omitempty"`
	ExternalResearchInfo *ExternalResearchInfo `json:"external_research_info,omitempty"`
	MarketData           map[string]any        `json:"market_data,omitempty"`
	OrderResponse        map[string]any        `json:"order_response,omitempty"`
}

// AgentMessage is a single conversational message attached to an event.
type AgentMessage struct {
	Content          string         `json:"content"`
	Type             string         `json:"type"`
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name,omitempty"`
	ToolCalls        []ToolCall     `json:"tool_calls,omitempty"`
	AdditionalKwargs *MessageKwargs `json:"additional_kwargs,omitempty"`
}

// ToolCall describes a tool invocation requested by an agent message.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
	ID   string         `json:"id,omitempty"`
}

// MessageKwargs carries provider-specific extras on a message. Only the
// reflection artifact is modeled; everything else is dropped at validation.
type MessageKwargs struct {
	Artifact *ReflectionArtifact `json:"artifact,omitempty"`
}

// ReflectionArtifact is produced by reflection stages to gate whether the
// workflow loops back or proceeds. ImprovementInstructions is nil when the
// reflection was satisfied.
type ReflectionArtifact struct {
	IsSatisfactory          bool     `json:"is_satisfactory"`
	Reason                  []string `json:"reason"`
	ImprovementInstructions *string  `json:"improvement_instructions"`
}

// NewAgentEvent creates an event for the named stage with an empty, non-nil
// message sequence.
func NewAgentEvent(name string) AgentEvent {
	return AgentEvent{Name: name, Data: EventData{Messages: []AgentMessage{}}}
}

// NewTextMessage creates a message with the given role tag and content.
func NewTextMessage(role, content string) AgentMessage {
	return AgentMessage{ID: NewID(), Type: role, Content: content}
}

// NewID generates a new unique identifier for runs, threads and messages.
func NewID() string { return uuid.NewString() }

// LastMessage returns the final message of the event, or false when the
// event carries no messages.
func (e AgentEvent) LastMessage() (AgentMessage, bool) {
	if len(e.Data.Messages) == 0 {
		return AgentMessage{}, false
	}
	return e.Data.Messages[len(e.Data.Messages)-1], true
}

// Reflection returns the reflection artifact attached to any of the event's
// messages, scanning in order. Reflection stages attach at most one.
func (e AgentEvent) Reflection() (*ReflectionArtifact, bool) {
	for _, m := range e.Data.Messages {
		if m.AdditionalKwargs != nil && m.AdditionalKwargs.Artifact != nil {
			return m.AdditionalKwargs.Artifact, true
		}
	}
	return nil, false
}

// IsTradeDecision reports whether the event carries a validated trade
// proposal ready for human confirmation.
func (e AgentEvent) IsTradeDecision() bool { return e.Data.TradeInfo != nil }
