// Package store provides a SQLite-backed graph store.
//
// Nodes carry a label and a set of typed scalar fields; edges are directed
// and typed. The store implements graph.Store and is the persistence layer
// used by the CLI and by experiments.
//
// # Schema
//
//   - nodes(id, label)
//   - node_fields(node_id, name, kind, value): one row per field, the value
//     stored in its stable text form next to its kind
//   - edges(id, source, dest, type)
//
// Deleting a node cascades to its fields and to every incident edge.
//
// # Deterministic Query Results
//
// Every multi-row read is ordered by id (fields by name, field values by
// kind then text), so seeded runs see the same sequences on every run.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
package store
