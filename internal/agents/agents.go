// Package agents holds the static registry of analyst agents: stable keys,
// display names, descriptions, and presentation order. It is the single
// source of truth used by the flow component registry, the report renderer,
// and the development server's agent listing.
package agents

import (
	"sort"
	"strings"
)

// Agent describes one analyst persona producing a per-ticker signal.
type Agent struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// KeyRiskManager is the risk-controls agent. It participates in runs and in
// the default flow, but is excluded from the analyst listing and from
// per-agent signal display (its signals carry only current-price data).
const KeyRiskManager = "risk_manager"

// agentSuffix is the naming convention used by the backend for agent
// identifiers in stream events: "<key>_agent".
const agentSuffix = "_agent"

var registry = map[string]Agent{
	"aswath_damodaran":      {Key: "aswath_damodaran", DisplayName: "Aswath Damodaran", Description: "The Dean of Valuation", Order: 0},
	"ben_graham":            {Key: "ben_graham", DisplayName: "Ben Graham", Description: "The Father of Value Investing", Order: 1},
	"bill_ackman":           {Key: "bill_ackman", DisplayName: "Bill Ackman", Description: "The Activist Investor", Order: 2},
	"cathie_wood":           {Key: "cathie_wood", DisplayName: "Cathie Wood", Description: "The Queen of Growth Investing", Order: 3},
	"charlie_munger":        {Key: "charlie_munger", DisplayName: "Charlie Munger", Description: "The Rational Thinker", Order: 4},
	"michael_burry":         {Key: "michael_burry", DisplayName: "Michael Burry", Description: "The Big Short Contrarian", Order: 5},
	"peter_lynch":           {Key: "peter_lynch", DisplayName: "Peter Lynch", Description: "The 10-Bagger Investor", Order: 6},
	"phil_fisher":           {Key: "phil_fisher", DisplayName: "Phil Fisher", Description: "The Scuttlebutt Investor", Order: 7},
	"rakesh_jhunjhunwala":   {Key: "rakesh_jhunjhunwala", DisplayName: "Rakesh Jhunjhunwala", Description: "The Big Bull Of India", Order: 8},
	"stanley_druckenmiller": {Key: "stanley_druckenmiller", DisplayName: "Stanley Druckenmiller", Description: "The Macro Investor", Order: 9},
	"warren_buffett":        {Key: "warren_buffett", DisplayName: "Warren Buffett", Description: "The Oracle of Omaha", Order: 10},
	"technical_analyst":     {Key: "technical_analyst", DisplayName: "Technical Analyst", Description: "Chart Pattern Specialist", Order: 11},
	"fundamentals_analyst":  {Key: "fundamentals_analyst", DisplayName: "Fundamentals Analyst", Description: "Financial Statement Specialist", Order: 12},
	"sentiment_analyst":     {Key: "sentiment_analyst", DisplayName: "Sentiment Analyst", Description: "Market Sentiment Specialist", Order: 13},
	"valuation_analyst":     {Key: "valuation_analyst", DisplayName: "Valuation Analyst", Description: "Company Valuation Specialist", Order: 14},
}

// aliases maps event-agent names that do not follow the plain "<key>_agent"
// convention back to registry keys.
var aliases = map[string]string{
	"sentiment":       "sentiment_analyst",
	"risk_management": KeyRiskManager,
}

// All returns every registered analyst in presentation order. The risk
// manager is not part of the listing.
func All() []Agent {
	out := make([]Agent, 0, len(registry))
	for _, a := range registry {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Lookup returns the agent registered under key.
func Lookup(key string) (Agent, bool) {
	a, ok := registry[key]
	return a, ok
}

// IsAgentKey reports whether key names a registered analyst or the risk manager.
func IsAgentKey(key string) bool {
	if key == KeyRiskManager {
		return true
	}
	_, ok := registry[key]
	return ok
}

// NodeID derives the flow node id from an event agent identifier by
// stripping the "_agent" suffix, e.g. "warren_buffett_agent" →
// "warren_buffett". Event names that do not match their node id after
// stripping, such as "risk_management_agent", resolve through the alias
// table.
func NodeID(eventAgent string) string {
	key := strings.TrimSuffix(eventAgent, agentSuffix)
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// EventName is the inverse of NodeID: the identifier the backend uses for a
// given agent key in stream events and signal maps.
func EventName(key string) string {
	return key + agentSuffix
}

// DisplayName resolves a signal-map agent key (usually "<key>_agent") to a
// human-readable name. Unknown keys fall back to the key with underscores
// replaced by spaces.
func DisplayName(agentKey string) string {
	key := NodeID(agentKey)
	if key == KeyRiskManager {
		return "Risk Manager"
	}
	if a, ok := registry[key]; ok {
		return a.DisplayName
	}
	return strings.ReplaceAll(agentKey, "_", " ")
}
