package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quantflow/quantflow/internal/flowstore"
)

// SaveFlow stores a complete flow in one transaction with replace
// semantics. Nodes and edges without ids get generated UUIDs, and edge
// refs are resolved to the ids assigned in this call.
func (s *Store) SaveFlow(ctx context.Context, rec *flowstore.Record) (*flowstore.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	refMap := make(map[string]string)
	for i := range rec.Nodes {
		n := &rec.Nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.Data.ID == "" {
			n.Data.ID = n.ID
		}
		if n.Ref != "" {
			refMap[n.Ref] = n.ID
		}
	}
	for i := range rec.Edges {
		e := &rec.Edges[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.SourceRef != "" {
			id, ok := refMap[e.SourceRef]
			if !ok {
				return nil, fmt.Errorf("flowstore: unknown source_ref %q", e.SourceRef)
			}
			e.SourceID = id
		}
		if e.TargetRef != "" {
			id, ok := refMap[e.TargetRef]
			if !ok {
				return nil, fmt.Errorf("flowstore: unknown target_ref %q", e.TargetRef)
			}
			e.TargetID = id
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("flowstore: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO flows (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
		rec.ID, rec.Name,
	); err != nil {
		return nil, fmt.Errorf("flowstore: upsert flow: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE flow_id = $1`, rec.ID); err != nil {
		return nil, fmt.Errorf("flowstore: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1`, rec.ID); err != nil {
		return nil, fmt.Errorf("flowstore: delete nodes: %w", err)
	}

	for _, n := range rec.Nodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_nodes (id, flow_id, data) VALUES ($1, $2, $3)`,
			n.ID, rec.ID, n.Data,
		); err != nil {
			return nil, fmt.Errorf("flowstore: insert node %s: %w", n.ID, err)
		}
	}
	for _, e := range rec.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_edges (id, flow_id, source_node_id, target_node_id) VALUES ($1, $2, $3, $4)`,
			e.ID, rec.ID, e.SourceID, e.TargetID,
		); err != nil {
			return nil, fmt.Errorf("flowstore: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("flowstore: commit: %w", err)
	}

	// Refs are a save-time convenience, not persisted state.
	for i := range rec.Nodes {
		rec.Nodes[i].Ref = ""
	}
	for i := range rec.Edges {
		rec.Edges[i].SourceRef = ""
		rec.Edges[i].TargetRef = ""
	}
	return rec, nil
}

// GetFlow retrieves a complete flow by id.
func (s *Store) GetFlow(ctx context.Context, flowID string) (*flowstore.Record, error) {
	rec := &flowstore.Record{ID: flowID}
	err := s.db.QueryRow(ctx, `SELECT name FROM flows WHERE id = $1`, flowID).Scan(&rec.Name)
	if err != nil {
		if isNoRows(err) {
			return nil, flowstore.ErrFlowNotFound
		}
		return nil, fmt.Errorf("flowstore: get flow: %w", err)
	}

	rec.Nodes, err = s.ListNodes(ctx, flowID)
	if err != nil {
		return nil, err
	}
	rec.Edges, err = s.ListEdges(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListFlows returns a summary of every saved flow, newest first.
func (s *Store) ListFlows(ctx context.Context) ([]flowstore.Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.name, COUNT(n.id)
		FROM flows f LEFT JOIN flow_nodes n ON n.flow_id = f.id
		GROUP BY f.id, f.name, f.updated_at
		ORDER BY f.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("flowstore: list flows: %w", err)
	}
	defer rows.Close()

	out := []flowstore.Summary{}
	for rows.Next() {
		var sm flowstore.Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Nodes); err != nil {
			return nil, fmt.Errorf("flowstore: scan flow summary: %w", err)
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowstore: rows flows: %w", err)
	}
	return out, nil
}

// DeleteFlow removes a flow and, by cascade, its nodes and edges.
func (s *Store) DeleteFlow(ctx context.Context, flowID string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM flows WHERE id = $1`, flowID)
	if err != nil {
		return fmt.Errorf("flowstore: delete flow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return flowstore.ErrFlowNotFound
	}
	return nil
}
