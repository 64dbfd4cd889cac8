package flow

import (
	"fmt"
	"sort"

	"github.com/quantflow/quantflow/internal/agents"
)

// Component is an insertable flow building block. Components are looked up
// by a stable key, never by display name, so insertion cannot drift when
// labels change.
type Component struct {
	Key         string
	Kind        Kind
	Name        string
	Description string
}

// Well-known singleton component keys. Agent components use the analyst
// registry keys directly.
const (
	KeyPortfolioManager = "portfolio-manager"
	KeyInvestmentReport = "investment-report"
	KeyJSONOutput       = "json-output"
)

// Canonical node ids for the singleton components of the default flow.
const (
	StartNodeID  = "portfolio-manager-node"
	ReportNodeID = "investment-report-node"
	JSONNodeID   = "json-output-node"
)

var components = buildComponents()

func buildComponents() map[string]Component {
	m := map[string]Component{
		KeyPortfolioManager: {Key: KeyPortfolioManager, Kind: KindStart, Name: "Portfolio Manager", Description: "Run trigger and agent selection"},
		KeyInvestmentReport: {Key: KeyInvestmentReport, Kind: KindReport, Name: "Investment Report", Description: "Aggregated output report"},
		KeyJSONOutput:       {Key: KeyJSONOutput, Kind: KindJSONOutput, Name: "JSON Output", Description: "Raw output payload"},
	}
	for _, a := range agents.All() {
		m[a.Key] = Component{Key: a.Key, Kind: KindAgent, Name: a.DisplayName, Description: a.Description}
	}
	m[agents.KeyRiskManager] = Component{Key: agents.KeyRiskManager, Kind: KindAgent, Name: "Risk Manager", Description: "Portfolio risk controls"}
	return m
}

// LookupComponent returns the component registered under key.
func LookupComponent(key string) (Component, error) {
	c, ok := components[key]
	if !ok {
		return Component{}, fmt.Errorf("flow: unknown component %q", key)
	}
	return c, nil
}

// ComponentKeys returns every registered component key, sorted.
func ComponentKeys() []string {
	keys := make([]string, 0, len(components))
	for k := range components {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalNodeID is the preferred node id for a component. Agent nodes use
// the agent key itself so that stream events (keyed by agent identifier)
// address the node directly.
func canonicalNodeID(c Component) string {
	switch c.Key {
	case KeyPortfolioManager:
		return StartNodeID
	case KeyInvestmentReport:
		return ReportNodeID
	case KeyJSONOutput:
		return JSONNodeID
	default:
		return c.Key
	}
}
