package flow

// Kind classifies a node in the pipeline flow.
type Kind string

const (
	// KindStart is the manager node a run is triggered from.
	KindStart Kind = "start"
	// KindAgent is an analyst node producing per-ticker signals.
	KindAgent Kind = "agent"
	// KindReport is the terminal investment-report sink.
	KindReport Kind = "report"
	// KindJSONOutput is the raw JSON export sink.
	KindJSONOutput Kind = "json-output"
)

// Position is the node's canvas placement. It is cosmetic only and carried
// so that flows round-trip through persistence without losing layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ModelConfig is an LLM selection attached to an agent node.
type ModelConfig struct {
	ModelName string `json:"model_name"`
	Provider  string `json:"model_provider,omitempty"`
}

// Node is a vertex in the pipeline flow.
type Node struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	Position    Position     `json:"position"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Model       *ModelConfig `json:"model,omitempty"`

	// ComponentKey is the registry key the node was instantiated from.
	// For agent nodes it equals the agent key of the analyst registry.
	ComponentKey string `json:"component_key"`
}

// Edge is a directed connection between two node ids. Edges referencing
// missing nodes are inert; no validation is performed against cycles or
// duplicates.
type Edge struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	ArrowClosed bool   `json:"arrow_closed,omitempty"`
}
