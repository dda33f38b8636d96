package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

// CreateNode inserts a node with its fields in one transaction. The label
// is docType, suffixed with graph.VisibleSuffix when visible is set.
func (s *Store) CreateNode(ctx context.Context, fields graph.Fields, docType string, visible bool) (graph.ID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create node: begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `INSERT INTO nodes (label) VALUES (?)`, graph.MarkVisible(docType, visible))
	if err != nil {
		return 0, fmt.Errorf("create node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create node: last insert id: %w", err)
	}

	for _, name := range fields.Names() {
		v := fields[name]
		if v == nil {
			v = graph.Null{}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO node_fields (node_id, name, kind, value)
			VALUES (?, ?, ?, ?)
		`, id, name, string(v.Kind()), v.Text()); err != nil {
			return 0, fmt.Errorf("create node: field %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create node: commit: %w", err)
	}
	return graph.ID(id), nil
}

// CreateEdge inserts an edge source -> dest. Both endpoints must exist.
func (s *Store) CreateEdge(ctx context.Context, source, dest graph.ID, edgeType string, visible bool) (graph.ID, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (source, dest, type)
		VALUES (?, ?, ?)
	`, int64(source), int64(dest), graph.MarkVisible(edgeType, visible))
	if err != nil {
		return 0, fmt.Errorf("create edge %d -> %d: %w", source, dest, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create edge: last insert id: %w", err)
	}
	return graph.ID(id), nil
}

// DeleteNodes removes the given nodes with their fields and edges and
// returns how many existed.
func (s *Store) DeleteNodes(ctx context.Context, ids []graph.ID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete nodes: begin transaction: %w", err)
	}
	defer tx.Rollback()

	wanted := slices.Clone(ids)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	deleted := 0
	for chunk := range slices.Chunk(wanted, maxBatch) {
		in, args := inClause(chunk)
		res, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id IN `+in, args...)
		if err != nil {
			return 0, fmt.Errorf("delete nodes: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete nodes: rows affected: %w", err)
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete nodes: commit: %w", err)
	}
	return deleted, nil
}

// DeleteField removes one field from a node. Removing a field that is not
// set is not an error; a missing node is ErrNodeNotFound.
func (s *Store) DeleteField(ctx context.Context, id graph.ID, field string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM node_fields WHERE node_id = ? AND name = ?`, int64(id), field)
	if err != nil {
		return fmt.Errorf("delete field %s of node %d: %w", field, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	return s.requireNode(ctx, id)
}

var _ graph.Store = (*Store)(nil)
