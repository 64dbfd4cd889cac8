package flow

import "github.com/quantflow/quantflow/internal/agents"

// Default builds the initial flow: the portfolio manager fanned out to
// every analyst plus the risk manager, all feeding the investment report.
func Default() *Flow {
	f := New()

	f.nodes = append(f.nodes, &Node{
		ID:           StartNodeID,
		Kind:         KindStart,
		Position:     Position{X: -150, Y: 0},
		Name:         "Portfolio Manager",
		Description:  "Run trigger and agent selection",
		ComponentKey: KeyPortfolioManager,
	})

	y := -400.0
	agentIDs := make([]string, 0, len(agents.All())+1)
	for _, a := range agents.All() {
		f.nodes = append(f.nodes, &Node{
			ID:           a.Key,
			Kind:         KindAgent,
			Position:     Position{X: 300, Y: y},
			Name:         a.DisplayName,
			Description:  a.Description,
			ComponentKey: a.Key,
		})
		agentIDs = append(agentIDs, a.Key)
		y += 80
	}
	f.nodes = append(f.nodes, &Node{
		ID:           agents.KeyRiskManager,
		Kind:         KindAgent,
		Position:     Position{X: 300, Y: y},
		Name:         "Risk Manager",
		Description:  "Portfolio risk controls",
		ComponentKey: agents.KeyRiskManager,
	})
	agentIDs = append(agentIDs, agents.KeyRiskManager)

	f.nodes = append(f.nodes, &Node{
		ID:           ReportNodeID,
		Kind:         KindReport,
		Position:     Position{X: 750, Y: 200},
		Name:         "Investment Report",
		Description:  "Aggregated output report",
		ComponentKey: KeyInvestmentReport,
	})

	for _, id := range agentIDs {
		f.edges = append(f.edges, Edge{ID: newEdgeID(), Source: StartNodeID, Target: id, ArrowClosed: true})
		f.edges = append(f.edges, Edge{ID: newEdgeID(), Source: id, Target: ReportNodeID, ArrowClosed: true})
	}

	return f
}
