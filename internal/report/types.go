// Package report defines the terminal aggregate payload of a run and its
// read-side renderers: text summary, per-agent signal breakdown, JSON
// export, and PNG image export.
package report

import (
	"bytes"
	"encoding/json"
	"sort"
)

// RiskManagementAgent is the reserved signal entry used only for
// current-price lookup; it is excluded from per-agent signal display.
const RiskManagementAgent = "risk_management_agent"

// Decision is the recommended trade for one ticker.
type Decision struct {
	Action     string          `json:"action"`
	Quantity   float64         `json:"quantity"`
	Confidence float64         `json:"confidence"`
	Reasoning  json.RawMessage `json:"reasoning,omitempty"`
}

// Signal is one agent's per-ticker verdict. CurrentPrice is populated only
// on the risk-management entry.
type Signal struct {
	Signal       string          `json:"signal,omitempty"`
	Confidence   float64         `json:"confidence,omitempty"`
	Reasoning    json.RawMessage `json:"reasoning,omitempty"`
	CurrentPrice *float64        `json:"current_price,omitempty"`
}

// OutputNodeData is the aggregate report payload delivered by a run's
// complete event. It is replaced wholesale on each completed run and never
// partially mutated.
type OutputNodeData struct {
	Decisions      map[string]Decision          `json:"decisions"`
	AnalystSignals map[string]map[string]Signal `json:"analyst_signals"`
}

// Tickers returns the decision tickers in sorted order.
func (o *OutputNodeData) Tickers() []string {
	out := make([]string, 0, len(o.Decisions))
	for t := range o.Decisions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Agents returns the signal agent keys in sorted order, excluding the
// reserved risk-management entry.
func (o *OutputNodeData) Agents() []string {
	out := make([]string, 0, len(o.AnalystSignals))
	for a := range o.AnalystSignals {
		if a == RiskManagementAgent {
			continue
		}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// CurrentPrice returns the risk-management current price for a ticker, or
// false when none was reported.
func (o *OutputNodeData) CurrentPrice(ticker string) (float64, bool) {
	sig, ok := o.AnalystSignals[RiskManagementAgent][ticker]
	if !ok || sig.CurrentPrice == nil {
		return 0, false
	}
	return *sig.CurrentPrice, true
}

// ReasoningText renders a reasoning payload for display: plain strings are
// unquoted, structured payloads are pretty-printed JSON.
func ReasoningText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
