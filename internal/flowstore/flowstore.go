// Package flowstore defines the persistence contract for saved pipeline
// definitions. Implementations live in subpackages.
package flowstore

import (
	"context"
	"errors"

	"github.com/quantflow/quantflow/internal/flow"
)

var (
	ErrFlowNotFound = errors.New("flowstore: flow not found")
	ErrNodeNotFound = errors.New("flowstore: node not found")
	ErrEdgeNotFound = errors.New("flowstore: edge not found")
)

// Node is one persisted node. Ref is a client-chosen handle used only
// during bulk saves to let edges reference nodes that have no id yet; it
// is never persisted.
type Node struct {
	ID   string    `json:"id,omitempty"`
	Ref  string    `json:"ref,omitempty"`
	Data flow.Node `json:"data"`
}

// Edge is one persisted edge. Either the id pair or the ref pair names
// its endpoints; refs are resolved during bulk saves.
type Edge struct {
	ID        string `json:"id,omitempty"`
	SourceID  string `json:"source_id,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
	SourceRef string `json:"source_ref,omitempty"`
	TargetRef string `json:"target_ref,omitempty"`
}

// Record is a complete saved flow.
type Record struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Summary is a flow listing entry.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
}

// Store persists flow definitions.
type Store interface {
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// SaveFlow stores a complete flow with replace semantics: nodes and
	// edges without ids get generated ones, and edge refs are resolved
	// against node refs. The stored record is returned with all ids set.
	SaveFlow(ctx context.Context, rec *Record) (*Record, error)
	GetFlow(ctx context.Context, flowID string) (*Record, error)
	ListFlows(ctx context.Context) ([]Summary, error)
	DeleteFlow(ctx context.Context, flowID string) error

	AddNode(ctx context.Context, flowID string, node *Node) (string, error)
	UpdateNode(ctx context.Context, node *Node) error
	DeleteNode(ctx context.Context, nodeID string) error
	ListNodes(ctx context.Context, flowID string) ([]Node, error)

	AddEdge(ctx context.Context, flowID string, edge *Edge) (string, error)
	DeleteEdge(ctx context.Context, edgeID string) error
	ListEdges(ctx context.Context, flowID string) ([]Edge, error)
}

// FromFlow snapshots a live flow into a storable record.
func FromFlow(id, name string, f *flow.Flow) *Record {
	rec := &Record{ID: id, Name: name}
	for _, n := range f.Nodes() {
		rec.Nodes = append(rec.Nodes, Node{ID: n.ID, Data: n})
	}
	for _, e := range f.Edges() {
		rec.Edges = append(rec.Edges, Edge{ID: e.ID, SourceID: e.Source, TargetID: e.Target})
	}
	return rec
}

// Materialize rebuilds a live flow from a stored record.
func (r *Record) Materialize() *flow.Flow {
	nodes := make([]flow.Node, len(r.Nodes))
	for i, n := range r.Nodes {
		nodes[i] = n.Data
		if nodes[i].ID == "" {
			nodes[i].ID = n.ID
		}
	}
	edges := make([]flow.Edge, len(r.Edges))
	for i, e := range r.Edges {
		edges[i] = flow.Edge{ID: e.ID, Source: e.SourceID, Target: e.TargetID, ArrowClosed: true}
	}
	return flow.FromParts(nodes, edges)
}
