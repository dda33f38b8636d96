// Package pseudo fabricates camouflage documents from the value
// distributions observed in the store.
//
// Every value of a synthesized document is drawn from the real marginal
// distribution of its (type, field) pair, so a carrier looks like any other
// record of its type.
package pseudo

import (
	"context"
	"log/slog"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
)

// Synthesizer builds pseudo documents. It only reads from the store.
type Synthesizer struct {
	store  graph.Store
	src    sample.Source
	logger *slog.Logger
}

// New creates a Synthesizer over store drawing from src.
func New(store graph.Store, src sample.Source, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{store: store, src: src, logger: logger}
}

// Synthesize returns a document of docType holding every required field and
// a uniformly sized random subset of the optional fields.
//
// An empty observed-value set for any chosen field is an EmptyValueDomain
// error; the field is never defaulted.
func (s *Synthesizer) Synthesize(ctx context.Context, docType string, required, optional []string) (*graph.PseudoDocument, error) {
	doc := &graph.PseudoDocument{Type: docType, Fields: make(graph.Fields, len(required))}

	for _, field := range required {
		if err := s.fill(ctx, doc, field); err != nil {
			return nil, err
		}
	}

	if len(optional) > 0 {
		k := s.src.IntN(len(optional) + 1)
		idx, err := sample.WithoutReplacement(s.src, len(optional), k)
		if err != nil {
			return nil, fault.Wrap(fault.InvariantViolation, "pseudo.synthesize", err)
		}
		for _, i := range idx {
			if err := s.fill(ctx, doc, optional[i]); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Debug("pseudo document synthesized", "type", docType, "fields", len(doc.Fields))
	return doc, nil
}

// fill picks one observed value for field.
func (s *Synthesizer) fill(ctx context.Context, doc *graph.PseudoDocument, field string) error {
	values, err := s.store.ReadFieldValues(ctx, doc.Type, field)
	if err != nil {
		return fault.Store("pseudo.read_field_values", err)
	}
	if len(values) == 0 {
		return fault.New(fault.EmptyValueDomain, "pseudo.synthesize",
			"no observed values for %s.%s", doc.Type, field)
	}
	doc.Fields[field] = values[s.src.IntN(len(values))]
	return nil
}
