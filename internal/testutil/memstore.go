package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

// Operation names used for fault injection.
const (
	OpReadAllIdentifiers  = "read_all_identifiers"
	OpReadMembers         = "read_members"
	OpReadIdentifierCount = "read_identifier_count"
	OpReadFieldValues     = "read_field_values"
	OpReadDocuments       = "read_documents"
	OpReadFields          = "read_fields"
	OpCreateNode          = "create_node"
	OpCreateEdge          = "create_edge"
	OpDeleteNodes         = "delete_nodes"
	OpDeleteField         = "delete_field"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("injected store failure")

// ErrNodeNotFound is returned for operations on a missing node.
var ErrNodeNotFound = errors.New("node not found")

// Edge is an edge held by MemStore.
type Edge struct {
	ID     graph.ID
	Source graph.ID
	Dest   graph.ID
	Type   string
}

type memNode struct {
	label  string
	fields graph.Fields
}

type failure struct {
	after int // successful calls allowed before failing
	err   error
}

// MemStore is an in-memory graph.Store for tests.
//
// Ids are assigned sequentially from 1 and all reads are ordered by id, so a
// seeded test produces identical results on every run. Failures can be
// injected per operation or per node id.
type MemStore struct {
	mu       sync.Mutex
	next     graph.ID
	nodes    map[graph.ID]*memNode
	edges    map[graph.ID]Edge
	failures map[string]failure
	idFails  map[string]map[graph.ID]error
	calls    map[string]int
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:    make(map[graph.ID]*memNode),
		edges:    make(map[graph.ID]Edge),
		failures: make(map[string]failure),
		idFails:  make(map[string]map[graph.ID]error),
		calls:    make(map[string]int),
	}
}

// FailOn makes every call to op fail with err (ErrInjected if nil).
func (s *MemStore) FailOn(op string, err error) {
	s.FailAfter(op, 0, err)
}

// FailAfter lets op succeed n times, then fail with err on every later call.
func (s *MemStore) FailAfter(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	s.failures[op] = failure{after: n, err: err}
}

// FailFor makes op fail for one node id only.
func (s *MemStore) FailFor(op string, id graph.ID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	if s.idFails[op] == nil {
		s.idFails[op] = make(map[graph.ID]error)
	}
	s.idFails[op][id] = err
}

// ClearFailures removes all injected failures.
func (s *MemStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
	s.idFails = make(map[string]map[graph.ID]error)
}

// Calls returns how many times op was invoked.
func (s *MemStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records a call and returns the injected failure, if any.
// Callers must hold s.mu.
func (s *MemStore) enter(op string) error {
	s.calls[op]++
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if s.calls[op] > f.after {
		return fmt.Errorf("%s: %w", op, f.err)
	}
	return nil
}

func (s *MemStore) failFor(op string, id graph.ID) error {
	if err, ok := s.idFails[op][id]; ok {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	return nil
}

// AddNode inserts a node directly, bypassing fault injection.
func (s *MemStore) AddNode(label string, fields graph.Fields) graph.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNode(label, fields)
}

func (s *MemStore) addNode(label string, fields graph.Fields) graph.ID {
	s.next++
	s.nodes[s.next] = &memNode{label: label, fields: fields.Clone()}
	return s.next
}

// AddEdge inserts an edge directly, bypassing fault injection.
func (s *MemStore) AddEdge(source, dest graph.ID, edgeType string) graph.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.edges[s.next] = Edge{ID: s.next, Source: source, Dest: dest, Type: edgeType}
	return s.next
}

// Node returns a copy of the node with id.
func (s *MemStore) Node(id graph.ID) (graph.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return graph.Document{}, false
	}
	return graph.Document{ID: id, Label: n.label, Fields: n.fields.Clone()}, true
}

// Edges returns all edges ordered by id.
func (s *MemStore) Edges() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edge) int { return int(a.ID - b.ID) })
	return out
}

// NodeCount returns the number of live nodes.
func (s *MemStore) NodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

func (s *MemStore) sortedIDs() []graph.ID {
	ids := make([]graph.ID, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ReadAllIdentifiers implements graph.Store.
func (s *MemStore) ReadAllIdentifiers(ctx context.Context) ([]graph.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpReadAllIdentifiers); err != nil {
		return nil, err
	}
	return s.sortedIDs(), nil
}

// ReadMembers implements graph.Store.
func (s *MemStore) ReadMembers(ctx context.Context) ([]graph.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpReadMembers); err != nil {
		return nil, err
	}
	ids := s.sortedIDs()
	out := make([]graph.Member, len(ids))
	for i, id := range ids {
		out[i] = graph.Member{ID: id, Label: s.nodes[id].label}
	}
	return out, nil
}

// ReadIdentifierCount implements graph.Store.
func (s *MemStore) ReadIdentifierCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpReadIdentifierCount); err != nil {
		return 0, err
	}
	return len(s.nodes), nil
}

// ReadFieldValues implements graph.Store. Values are ordered by kind, then text.
func (s *MemStore) ReadFieldValues(ctx context.Context, docType, field string) ([]graph.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpReadFieldValues); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := []graph.Value{}
	for _, id := range s.sortedIDs() {
		n := s.nodes[id]
		if n.label != docType {
			continue
		}
		v, ok := n.fields[field]
		if !ok {
			continue
		}
		key := string(v.Kind()) + "\x00" + v.Text()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b graph.Value) int {
		if a.Kind() != b.Kind() {
			if a.Kind() < b.Kind() {
				return -1
			}
			return 1
		}
		switch {
		case a.Text() < b.Text():
			return -1
		case a.Text() > b.Text():
			return 1
		}
		return 0
	})
	return out, nil
}

// ReadDocuments implements graph.Store.
func (s *MemStore) ReadDocuments(ctx context.Context, ids []graph.ID) ([]graph.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpReadDocuments); err != nil {
		return nil, err
	}
	wanted := slices.Clone(ids)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	out := []graph.Document{}
	for _, id := range wanted {
		n, ok := s.nodes[id]
		if !ok {
			continue
		}
		out = append(out, graph.Document{ID: id, Label: n.label, Fields: n.fields.Clone()})
	}
	return out, nil
}

// ReadFields implements graph.Store.
func (s *MemStore) ReadFields(ctx context.Context, id graph.ID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpReadFields); err != nil {
		return nil, err
	}
	if err := s.failFor(OpReadFields, id); err != nil {
		return nil, err
	}
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("read fields %d: %w", id, ErrNodeNotFound)
	}
	return n.fields.Names(), nil
}

// CreateNode implements graph.Store.
func (s *MemStore) CreateNode(ctx context.Context, fields graph.Fields, docType string, visible bool) (graph.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateNode); err != nil {
		return 0, err
	}
	return s.addNode(graph.MarkVisible(docType, visible), fields), nil
}

// CreateEdge implements graph.Store.
func (s *MemStore) CreateEdge(ctx context.Context, source, dest graph.ID, edgeType string, visible bool) (graph.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreateEdge); err != nil {
		return 0, err
	}
	if _, ok := s.nodes[source]; !ok {
		return 0, fmt.Errorf("create edge: source %d: %w", source, ErrNodeNotFound)
	}
	if _, ok := s.nodes[dest]; !ok {
		return 0, fmt.Errorf("create edge: dest %d: %w", dest, ErrNodeNotFound)
	}
	s.next++
	s.edges[s.next] = Edge{ID: s.next, Source: source, Dest: dest, Type: graph.MarkVisible(edgeType, visible)}
	return s.next, nil
}

// DeleteNodes implements graph.Store.
func (s *MemStore) DeleteNodes(ctx context.Context, ids []graph.ID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteNodes); err != nil {
		return 0, err
	}
	deleted := 0
	for _, id := range ids {
		if _, ok := s.nodes[id]; !ok {
			continue
		}
		delete(s.nodes, id)
		deleted++
		for eid, e := range s.edges {
			if e.Source == id || e.Dest == id {
				delete(s.edges, eid)
			}
		}
	}
	return deleted, nil
}

// DeleteField implements graph.Store.
func (s *MemStore) DeleteField(ctx context.Context, id graph.ID, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteField); err != nil {
		return err
	}
	if err := s.failFor(OpDeleteField, id); err != nil {
		return err
	}
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("delete field %d: %w", id, ErrNodeNotFound)
	}
	delete(n.fields, field)
	return nil
}

var _ graph.Store = (*MemStore)(nil)
