package logging

// Domain record helpers keep the high-traffic log sites structured the same
// way across packages: one fixed message per record kind, fixed field names.

// RunStarted records the start of an analysis run.
func RunStarted(l Logger, mode, threadID, runID, marketID string) {
	l.Info("analysis run started",
		"mode", mode, "thread_id", threadID, "run_id", runID, "market_id", marketID)
}

// RunCompleted records the end of a run and how many events it delivered,
// with the terminal error when one surfaced.
func RunCompleted(l Logger, runID string, delivered int, err error) {
	if err != nil {
		l.Error("analysis run failed", "run_id", runID, "events", delivered, "error", err)
		return
	}
	l.Info("analysis run completed", "run_id", runID, "events", delivered)
}

// TradeDecision records a validated trade proposal reaching the consumer.
func TradeDecision(l Logger, marketID, side, outcome, size string, confidence float64) {
	l.Info("trade decision made",
		"market_id", marketID, "side", side, "outcome", outcome, "size", size, "confidence", confidence)
}

// ValidationFailure records a payload or field dropped during validation.
func ValidationFailure(l Logger, component, field, kind, detail string) {
	l.Warn("data validation failed",
		"component", component, "field", field, "kind", kind, "detail", detail)
}
