package attack

import (
	"context"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
)

// fieldBudget tracks how many fields of a node may still be stripped.
type fieldBudget struct {
	id        graph.ID
	remaining int
}

// Modification strips one random field from each of batchSize random nodes
// per iteration until verify fails, every node is bare, the store fails or
// ctx is cancelled.
//
// The iteration counter advances once per deleted field. Errors on a single
// node are logged and that node is dropped from the budget; only failures of
// the initial reads abort the run.
func (s *Simulator) Modification(ctx context.Context, batchSize int, verify VerifyFunc) (*report.ModificationSummary, error) {
	if batchSize <= 0 {
		return nil, fault.New(fault.InvalidArgument, "attack.modification", "batch size must be positive, got %d", batchSize)
	}

	log := s.sess.Logger.With("action", report.ActionModification)
	rec := &report.ModificationSummary{
		Header:              s.sess.Header(report.ActionModification),
		BatchSize:           batchSize,
		NumWatermarkedNodes: len(s.carriers),
	}

	state, err := s.modificationLoop(ctx, rec, verify)
	if err != nil {
		log.Error("modification attack stopped", "state", state, "iterations", rec.Iterations, "error", err)
	}

	var cerr error
	if rec.NodesAfter, cerr = s.sess.Store.ReadIdentifierCount(ctx); cerr != nil && err == nil {
		state, err = StateStoreError, fault.Store("attack.read_identifier_count", cerr)
	}
	rec.State = string(state)
	s.sess.Metrics.Iterations.WithLabelValues(string(report.ActionModification)).Add(float64(rec.Iterations))

	log.Info("modification attack finished",
		"state", state,
		"iterations", rec.Iterations,
		"fields_deleted", rec.FieldsDeleted)
	return rec, s.finish(rec, state, err)
}

func (s *Simulator) modificationLoop(ctx context.Context, rec *report.ModificationSummary, verify VerifyFunc) (State, error) {
	ids, err := s.sess.Store.ReadAllIdentifiers(ctx)
	if err != nil {
		return StateStoreError, fault.Store("attack.read_all_identifiers", err)
	}
	rec.NodesBefore = len(ids)

	docs, err := s.sess.Store.ReadDocuments(ctx, ids)
	if err != nil {
		return StateStoreError, fault.Store("attack.read_documents", err)
	}
	budget := make([]fieldBudget, 0, len(docs))
	for _, d := range docs {
		if len(d.Fields) > 0 {
			budget = append(budget, fieldBudget{id: d.ID, remaining: len(d.Fields)})
		}
	}

	for {
		state, err := s.check(ctx, verify)
		if state.Terminal() {
			return state, err
		}

		live := make([]int, 0, len(budget))
		for i, b := range budget {
			if b.remaining > 0 {
				live = append(live, i)
			}
		}
		if len(live) == 0 {
			return StatePoolExhausted, nil
		}

		picks, err := sampleIndices(s.sess.Rand, len(live), min(rec.BatchSize, len(live)))
		if err != nil {
			return StateStoreError, err
		}
		for _, p := range picks {
			s.strip(ctx, rec, &budget[live[p]])
		}
	}
}

// strip deletes one random field from b's node.
func (s *Simulator) strip(ctx context.Context, rec *report.ModificationSummary, b *fieldBudget) {
	fields, err := s.sess.Store.ReadFields(ctx, b.id)
	if err != nil {
		s.sess.Logger.Warn("skipping node", "id", b.id, "op", "read_fields", "error", err)
		b.remaining = 0
		return
	}
	if len(fields) == 0 {
		b.remaining = 0
		return
	}

	field := fields[s.sess.Rand.IntN(len(fields))]
	if err := s.sess.Store.DeleteField(ctx, b.id, field); err != nil {
		s.sess.Logger.Warn("skipping node", "id", b.id, "op", "delete_field", "field", field, "error", err)
		b.remaining = 0
		return
	}

	b.remaining--
	rec.FieldsDeleted++
	rec.Iterations++
	s.sess.Metrics.FieldsDeleted.Inc()
	s.sess.Logger.Debug("field deleted", "id", b.id, "field", field, "remaining", b.remaining)
}
