// Package testutil provides deterministic collaborators for tests:
// scripted random sources, a stepping clock, fixed run ids and an in-memory
// graph store with fault injection.
package testutil
