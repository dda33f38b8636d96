package graph

import "strconv"

// ID is an opaque store-assigned node or edge identifier.
type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Member is one (identifier, label) pair of a group.
type Member struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
}

// Document is a node as read back from the store.
type Document struct {
	ID     ID
	Label  string
	Fields Fields
}

// PseudoDocument is a synthetic carrier before it is persisted.
// It is created once, mutated once by the codec, then written.
type PseudoDocument struct {
	Type    string
	Visible bool
	Fields  Fields
}

// Direction is the orientation of an edge relative to the carrier.
type Direction string

const (
	// Out creates carrier -> member.
	Out Direction = "out"
	// In creates member -> carrier.
	In Direction = "in"
)

// Valid reports whether d is one of In or Out.
func (d Direction) Valid() bool {
	return d == In || d == Out
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == In {
		return Out
	}
	return In
}

// VisibleSuffix is appended to node and edge types of visible watermarks.
const VisibleSuffix = "W"

// MarkVisible appends VisibleSuffix to name when visible is set.
func MarkVisible(name string, visible bool) string {
	if visible {
		return name + VisibleSuffix
	}
	return name
}
