// Package flow holds the authoritative node/edge collections describing the
// analysis pipeline, the typed component registry, and multi-node template
// expansion. It owns node identity; per-node runtime state lives in
// nodestate and is keyed by the ids managed here.
package flow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Flow is the mutable node/edge graph of one pipeline. All operations are
// concurrency-safe.
type Flow struct {
	mu    sync.RWMutex
	nodes []*Node
	edges []Edge
}

// New returns an empty flow.
func New() *Flow {
	return &Flow{}
}

// FromParts rebuilds a flow from persisted node and edge collections.
func FromParts(nodes []Node, edges []Edge) *Flow {
	f := &Flow{
		nodes: make([]*Node, len(nodes)),
		edges: make([]Edge, len(edges)),
	}
	for i := range nodes {
		n := nodes[i]
		f.nodes[i] = &n
	}
	copy(f.edges, edges)
	return f
}

// Nodes returns a snapshot copy of the node collection.
func (f *Flow) Nodes() []Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Node, len(f.nodes))
	for i, n := range f.nodes {
		out[i] = *n
	}
	return out
}

// Edges returns a snapshot copy of the edge collection.
func (f *Flow) Edges() []Edge {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Edge, len(f.edges))
	copy(out, f.edges)
	return out
}

// Node returns the node with the given id.
func (f *Flow) Node(id string) (Node, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n := f.find(id); n != nil {
		return *n, true
	}
	return Node{}, false
}

func (f *Flow) find(id string) *Node {
	for _, n := range f.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// AddComponent inserts the component or multi-node template registered
// under key at the given base position. It returns the ids of all created
// nodes. Template members get fresh ids, and template-internal edges are
// resolved against those fresh ids, never against component keys.
func (f *Flow) AddComponent(key string, base Position) ([]string, error) {
	if t, ok := LookupTemplate(key); ok {
		return f.addTemplate(t, base)
	}

	c, err := LookupComponent(key)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.freshID(c)
	f.nodes = append(f.nodes, &Node{
		ID:           id,
		Kind:         c.Kind,
		Position:     base,
		Name:         c.Name,
		Description:  c.Description,
		ComponentKey: c.Key,
	})
	return []string{id}, nil
}

func (f *Flow) addTemplate(t Template, base Position) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		c, err := LookupComponent(m.ComponentKey)
		if err != nil {
			return nil, fmt.Errorf("flow: template %s: %w", t.Key, err)
		}
		id := f.freshID(c)
		ids[i] = id
		f.nodes = append(f.nodes, &Node{
			ID:           id,
			Kind:         c.Kind,
			Position:     Position{X: base.X + m.OffsetX, Y: base.Y + m.OffsetY},
			Name:         c.Name,
			Description:  c.Description,
			ComponentKey: c.Key,
		})
	}
	for _, e := range t.Edges {
		f.edges = append(f.edges, Edge{
			ID:          newEdgeID(),
			Source:      ids[e.From],
			Target:      ids[e.To],
			ArrowClosed: true,
		})
	}
	return ids, nil
}

// freshID prefers the component's canonical id so that stream events keyed
// by agent identifier address the node directly; a repeated insertion of
// the same component falls back to a uuid-suffixed id.
func (f *Flow) freshID(c Component) string {
	id := canonicalNodeID(c)
	if f.find(id) == nil {
		return id
	}
	return id + "-" + uuid.NewString()[:8]
}

// Connect appends an edge between two node ids with an arrow-closed marker.
// Any endpoint pair is accepted; dangling edges are inert.
func (f *Flow) Connect(source, target string) Edge {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := Edge{ID: newEdgeID(), Source: source, Target: target, ArrowClosed: true}
	f.edges = append(f.edges, e)
	return e
}

// RemoveNode deletes a node by id. Edges referencing it stay in place and
// become inert.
func (f *Flow) RemoveNode(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.nodes {
		if n.ID == id {
			f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// SetAgentModel attaches a model selection to an agent node.
func (f *Flow) SetAgentModel(id string, m *ModelConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(id)
	if n == nil {
		return fmt.Errorf("flow: node not found: %s", id)
	}
	if n.Kind != KindAgent {
		return fmt.Errorf("flow: node %s is not an agent", id)
	}
	n.Model = m
	return nil
}

// ConnectedAgents returns the ids of agent nodes one hop downstream of the
// given start node, in edge insertion order without duplicates. Deeper
// chains are intentionally not followed; the pipeline topology is flat
// (start → agents → sink).
func (f *Flow) ConnectedAgents(startID string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, e := range f.edges {
		if e.Source != startID || seen[e.Target] {
			continue
		}
		if n := f.find(e.Target); n != nil && n.Kind == KindAgent {
			seen[e.Target] = true
			out = append(out, e.Target)
		}
	}
	return out
}

// StartNode returns the id of the first start-kind node, if any.
func (f *Flow) StartNode() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, n := range f.nodes {
		if n.Kind == KindStart {
			return n.ID, true
		}
	}
	return "", false
}

// Reset restores the initial default topology, discarding all user edits.
// Callers owning runtime state reset it separately.
func (f *Flow) Reset() {
	def := Default()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes = def.nodes
	f.edges = def.edges
}

func newEdgeID() string {
	return "edge-" + uuid.NewString()
}
