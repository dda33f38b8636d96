package watermark

import (
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

// DefaultEdgeType is used for members whose label has no relation.
const DefaultEdgeType = "Watermark"

// Relation is the edge created between a carrier and one group member.
type Relation struct {
	EdgeType  string          `json:"edge" yaml:"edge"`
	Direction graph.Direction `json:"direction" yaml:"direction"`
}

// RelationPolicy maps member labels to relations.
type RelationPolicy struct {
	Default Relation
	Labels  map[string]Relation
}

// DefaultPolicy links every member with an outgoing Watermark edge.
func DefaultPolicy() RelationPolicy {
	return RelationPolicy{Default: Relation{EdgeType: DefaultEdgeType, Direction: graph.Out}}
}

// Lookup returns the relation for label, or the default relation.
func (p RelationPolicy) Lookup(label string) Relation {
	if r, ok := p.Labels[label]; ok {
		return r
	}
	return p.Default
}

// Validate checks that every relation names an edge type and a direction.
func (p RelationPolicy) Validate() error {
	if err := p.Default.validate("default"); err != nil {
		return err
	}
	for label, r := range p.Labels {
		if err := r.validate(label); err != nil {
			return err
		}
	}
	return nil
}

func (r Relation) validate(label string) error {
	if r.EdgeType == "" {
		return fault.New(fault.InvalidArgument, "relation_policy", "relation %q has no edge type", label)
	}
	if !r.Direction.Valid() {
		return fault.New(fault.InvalidArgument, "relation_policy",
			"relation %q has invalid direction %q", label, r.Direction)
	}
	return nil
}

// endpoints orders carrier and member according to direction.
// Out creates carrier -> member, In creates member -> carrier.
func endpoints(carrier, member graph.ID, d graph.Direction) (source, dest graph.ID) {
	if d == graph.In {
		return member, carrier
	}
	return carrier, member
}
