package graph

import "context"

// Store is the graph capability consumed by the watermarking core.
// Implementations never retry internally; every call may fail with a
// store-unavailable error.
type Store interface {
	// ReadAllIdentifiers returns every live node id in ascending order.
	ReadAllIdentifiers(ctx context.Context) ([]ID, error)

	// ReadMembers returns every live node id with its label.
	ReadMembers(ctx context.Context) ([]Member, error)

	// ReadIdentifierCount returns the number of live nodes.
	ReadIdentifierCount(ctx context.Context) (int, error)

	// ReadFieldValues returns the distinct observed values of field among
	// nodes labelled docType.
	ReadFieldValues(ctx context.Context, docType, field string) ([]Value, error)

	// ReadDocuments returns the documents that still exist among ids.
	// Missing ids are silently skipped.
	ReadDocuments(ctx context.Context, ids []ID) ([]Document, error)

	// ReadFields returns the field names currently set on a node.
	ReadFields(ctx context.Context, id ID) ([]string, error)

	// CreateNode persists a node and returns its id.
	CreateNode(ctx context.Context, fields Fields, docType string, visible bool) (ID, error)

	// CreateEdge persists an edge source -> dest and returns its id.
	CreateEdge(ctx context.Context, source, dest ID, edgeType string, visible bool) (ID, error)

	// DeleteNodes removes nodes and their edges, returning how many nodes
	// were actually deleted.
	DeleteNodes(ctx context.Context, ids []ID) (int, error)

	// DeleteField removes one field from a node.
	DeleteField(ctx context.Context, id ID, field string) error
}
