package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quantflow/quantflow/internal/flowstore"
)

// AddEdge inserts a single edge between existing nodes.
func (s *Store) AddEdge(ctx context.Context, flowID string, edge *flowstore.Edge) (string, error) {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO flow_edges (id, flow_id, source_node_id, target_node_id) VALUES ($1, $2, $3, $4)`,
		edge.ID, flowID, edge.SourceID, edge.TargetID,
	)
	if err != nil {
		return "", fmt.Errorf("flowstore: insert edge: %w", err)
	}
	return edge.ID, nil
}

// DeleteEdge removes an edge by id.
func (s *Store) DeleteEdge(ctx context.Context, edgeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_edges WHERE id = $1`, edgeID)
	if err != nil {
		return fmt.Errorf("flowstore: delete edge: %w", err)
	}
	return nil
}

// ListEdges returns every edge of a flow in insertion order.
func (s *Store) ListEdges(ctx context.Context, flowID string) ([]flowstore.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_node_id, target_node_id FROM flow_edges WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, fmt.Errorf("flowstore: list edges: %w", err)
	}
	defer rows.Close()

	edges := []flowstore.Edge{}
	for rows.Next() {
		var e flowstore.Edge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID); err != nil {
			return nil, fmt.Errorf("flowstore: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowstore: rows edges: %w", err)
	}
	return edges, nil
}
