package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

// ReadAllIdentifiers returns every node id in ascending order.
// Returns an empty slice (not nil) for an empty graph.
func (s *Store) ReadAllIdentifiers(ctx context.Context) ([]graph.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM nodes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query node ids: %w", err)
	}
	defer rows.Close()

	ids := []graph.ID{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan node id: %w", err)
		}
		ids = append(ids, graph.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node ids: %w", err)
	}
	return ids, nil
}

// ReadMembers returns every node id with its label, ordered by id.
func (s *Store) ReadMembers(ctx context.Context) ([]graph.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label FROM nodes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []graph.Member{}
	for rows.Next() {
		var m graph.Member
		var id int64
		if err := rows.Scan(&id, &m.Label); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.ID = graph.ID(id)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ReadIdentifierCount returns the number of nodes.
func (s *Store) ReadIdentifierCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// ReadFieldValues returns the distinct values of field among nodes labelled
// docType, ordered by kind then text.
func (s *Store) ReadFieldValues(ctx context.Context, docType, field string) ([]graph.Value, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT f.kind, f.value
		FROM node_fields f
		JOIN nodes n ON n.id = f.node_id
		WHERE n.label = ? AND f.name = ?
		ORDER BY f.kind ASC, f.value ASC
	`, docType, field)
	if err != nil {
		return nil, fmt.Errorf("query field values %s.%s: %w", docType, field, err)
	}
	defer rows.Close()

	values := []graph.Value{}
	for rows.Next() {
		var kind, text string
		if err := rows.Scan(&kind, &text); err != nil {
			return nil, fmt.Errorf("scan field value: %w", err)
		}
		v, err := graph.ParseValue(graph.Kind(kind), text)
		if err != nil {
			return nil, fmt.Errorf("decode field value %s.%s: %w", docType, field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field values: %w", err)
	}
	return values, nil
}

// ReadDocuments returns the nodes that still exist among ids, ordered by id.
// Missing and duplicate ids are skipped.
func (s *Store) ReadDocuments(ctx context.Context, ids []graph.ID) ([]graph.Document, error) {
	wanted := slices.Clone(ids)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	docs := []graph.Document{}
	for chunk := range slices.Chunk(wanted, maxBatch) {
		batch, err := s.readDocumentBatch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		docs = append(docs, batch...)
	}
	return docs, nil
}

func (s *Store) readDocumentBatch(ctx context.Context, ids []graph.ID) ([]graph.Document, error) {
	in, args := inClause(ids)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label FROM nodes WHERE id IN `+in+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	docs := []graph.Document{}
	index := make(map[graph.ID]int, len(ids))
	for rows.Next() {
		var id int64
		var label string
		if err := rows.Scan(&id, &label); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		index[graph.ID(id)] = len(docs)
		docs = append(docs, graph.Document{ID: graph.ID(id), Label: label, Fields: graph.Fields{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT node_id, name, kind, value FROM node_fields WHERE node_id IN `+in+` ORDER BY node_id ASC, name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query document fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name, kind, text string
		if err := rows.Scan(&id, &name, &kind, &text); err != nil {
			return nil, fmt.Errorf("scan document field: %w", err)
		}
		v, err := graph.ParseValue(graph.Kind(kind), text)
		if err != nil {
			return nil, fmt.Errorf("decode field %s of node %d: %w", name, id, err)
		}
		if i, ok := index[graph.ID(id)]; ok {
			docs[i].Fields[name] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document fields: %w", err)
	}
	return docs, nil
}

// ReadFields returns the field names set on a node in sorted order.
// Returns ErrNodeNotFound if the node does not exist.
func (s *Store) ReadFields(ctx context.Context, id graph.ID) ([]string, error) {
	if err := s.requireNode(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM node_fields WHERE node_id = ? ORDER BY name ASC`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("query fields of node %d: %w", id, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan field name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field names: %w", err)
	}
	return names, nil
}

// requireNode returns ErrNodeNotFound unless id exists.
func (s *Store) requireNode(ctx context.Context, id graph.ID) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, int64(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup node %d: %w", id, err)
	}
	return nil
}

// inClause returns "(?, ?, ...)" and the matching arguments.
func inClause(ids []graph.ID) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")", args
}
