package flow

import "fmt"

// TemplateMember places one component of a multi-node template relative to
// the insertion point.
type TemplateMember struct {
	ComponentKey string
	OffsetX      float64
	OffsetY      float64
}

// TemplateEdge wires two template members by index into the member list.
// Index-based adjacency removes the name-resolution step that display-name
// keyed templates would need at insertion time.
type TemplateEdge struct {
	From int
	To   int
}

// Template is a named, predefined cluster of nodes and internal edges
// insertable as a unit.
type Template struct {
	Key     string
	Name    string
	Members []TemplateMember
	Edges   []TemplateEdge
}

// Template keys.
const (
	KeyValueInvestingTeam = "value_investing_team"
	KeyDataAnalyticsTeam  = "data_analytics_team"
)

var templates = map[string]Template{
	KeyValueInvestingTeam: {
		Key:  KeyValueInvestingTeam,
		Name: "Value Investing Team",
		Members: []TemplateMember{
			{ComponentKey: KeyPortfolioManager, OffsetX: 0, OffsetY: 0},
			{ComponentKey: "ben_graham", OffsetX: 400, OffsetY: -300},
			{ComponentKey: "charlie_munger", OffsetX: 400, OffsetY: 0},
			{ComponentKey: "warren_buffett", OffsetX: 400, OffsetY: 300},
			{ComponentKey: KeyInvestmentReport, OffsetX: 800, OffsetY: 0},
		},
		Edges: []TemplateEdge{
			{From: 0, To: 1},
			{From: 0, To: 2},
			{From: 0, To: 3},
			{From: 1, To: 4},
			{From: 2, To: 4},
			{From: 3, To: 4},
		},
	},
	KeyDataAnalyticsTeam: {
		Key:  KeyDataAnalyticsTeam,
		Name: "Data Analytics Team",
		Members: []TemplateMember{
			{ComponentKey: KeyPortfolioManager, OffsetX: 0, OffsetY: 0},
			{ComponentKey: "technical_analyst", OffsetX: 400, OffsetY: -550},
			{ComponentKey: "fundamentals_analyst", OffsetX: 400, OffsetY: -200},
			{ComponentKey: "sentiment_analyst", OffsetX: 400, OffsetY: 150},
			{ComponentKey: "valuation_analyst", OffsetX: 400, OffsetY: 500},
			{ComponentKey: KeyInvestmentReport, OffsetX: 800, OffsetY: 0},
		},
		Edges: []TemplateEdge{
			{From: 0, To: 1},
			{From: 0, To: 2},
			{From: 0, To: 3},
			{From: 0, To: 4},
			{From: 1, To: 5},
			{From: 2, To: 5},
			{From: 3, To: 5},
			{From: 4, To: 5},
		},
	},
}

// LookupTemplate returns the multi-node template registered under key.
func LookupTemplate(key string) (Template, bool) {
	t, ok := templates[key]
	return t, ok
}

// IsTemplate reports whether key names a multi-node template.
func IsTemplate(key string) bool {
	_, ok := templates[key]
	return ok
}

// validate is run from tests to keep template definitions well-formed.
func (t Template) validate() error {
	for _, m := range t.Members {
		if _, err := LookupComponent(m.ComponentKey); err != nil {
			return err
		}
	}
	for _, e := range t.Edges {
		if e.From < 0 || e.From >= len(t.Members) || e.To < 0 || e.To >= len(t.Members) {
			return fmt.Errorf("flow: template %s: edge %d->%d out of range", t.Key, e.From, e.To)
		}
	}
	return nil
}
