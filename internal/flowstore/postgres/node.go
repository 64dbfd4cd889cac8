package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quantflow/quantflow/internal/flowstore"
)

// AddNode inserts a single node into a flow, generating an id if needed.
func (s *Store) AddNode(ctx context.Context, flowID string, node *flowstore.Node) (string, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Data.ID == "" {
		node.Data.ID = node.ID
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO flow_nodes (id, flow_id, data) VALUES ($1, $2, $3)`,
		node.ID, flowID, node.Data,
	)
	if err != nil {
		return "", fmt.Errorf("flowstore: insert node: %w", err)
	}
	return node.ID, nil
}

// UpdateNode replaces the stored data of an existing node.
func (s *Store) UpdateNode(ctx context.Context, node *flowstore.Node) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE flow_nodes SET data = $1 WHERE id = $2`,
		node.Data, node.ID,
	)
	if err != nil {
		return fmt.Errorf("flowstore: update node: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return flowstore.ErrNodeNotFound
	}
	return nil
}

// DeleteNode removes a node; attached edges cascade.
func (s *Store) DeleteNode(ctx context.Context, nodeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_nodes WHERE id = $1`, nodeID)
	if err != nil {
		return fmt.Errorf("flowstore: delete node: %w", err)
	}
	return nil
}

// ListNodes returns every node of a flow in insertion order.
func (s *Store) ListNodes(ctx context.Context, flowID string) ([]flowstore.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, data FROM flow_nodes WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, fmt.Errorf("flowstore: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []flowstore.Node{}
	for rows.Next() {
		var n flowstore.Node
		if err := rows.Scan(&n.ID, &n.Data); err != nil {
			return nil, fmt.Errorf("flowstore: scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowstore: rows nodes: %w", err)
	}
	return nodes, nil
}
