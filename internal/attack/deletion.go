package attack

import (
	"context"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
)

// Deletion removes batchSize random nodes per iteration until verify fails,
// the pool of live ids runs out, the store fails or ctx is cancelled.
//
// The pool is read once at start and shrinks locally; ids are never drawn
// twice. A failed delete ends the run in StateStoreError and still counts as
// an iteration. The summary is returned in every case after the run started;
// the error is set for store failures and cancellation.
func (s *Simulator) Deletion(ctx context.Context, batchSize int, verify VerifyFunc) (*report.DeletionSummary, error) {
	if batchSize <= 0 {
		return nil, fault.New(fault.InvalidArgument, "attack.deletion", "batch size must be positive, got %d", batchSize)
	}

	log := s.sess.Logger.With("action", report.ActionDeletion)
	rec := &report.DeletionSummary{
		Header:              s.sess.Header(report.ActionDeletion),
		BatchSize:           batchSize,
		NumWatermarkedNodes: len(s.carriers),
	}

	state, err := s.deletionLoop(ctx, rec, verify)
	if err != nil {
		log.Error("deletion attack stopped", "state", state, "iterations", rec.Iterations, "error", err)
	}

	var cerr error
	if rec.NodesAfter, cerr = s.sess.Store.ReadIdentifierCount(ctx); cerr != nil && err == nil {
		state, err = StateStoreError, fault.Store("attack.read_identifier_count", cerr)
	}
	if rec.WatermarkedNodesLeft, cerr = s.survivors(ctx); cerr != nil && err == nil {
		state, err = StateStoreError, cerr
	}
	rec.State = string(state)
	s.sess.Metrics.Iterations.WithLabelValues(string(report.ActionDeletion)).Add(float64(rec.Iterations))

	log.Info("deletion attack finished",
		"state", state,
		"iterations", rec.Iterations,
		"nodes_deleted", rec.NodesDeleted,
		"carriers_left", rec.WatermarkedNodesLeft)
	return rec, s.finish(rec, state, err)
}

func (s *Simulator) deletionLoop(ctx context.Context, rec *report.DeletionSummary, verify VerifyFunc) (State, error) {
	pool, err := s.sess.Store.ReadAllIdentifiers(ctx)
	if err != nil {
		return StateStoreError, fault.Store("attack.read_all_identifiers", err)
	}
	rec.NodesBefore = len(pool)

	for {
		state, err := s.check(ctx, verify)
		if state.Terminal() {
			return state, err
		}
		if len(pool) == 0 {
			return StatePoolExhausted, nil
		}

		ids, rest, err := take(s.sess.Rand, pool, min(rec.BatchSize, len(pool)))
		if err != nil {
			return StateStoreError, err
		}
		pool = rest
		rec.Iterations++

		n, err := s.sess.Store.DeleteNodes(ctx, ids)
		if err != nil {
			return StateStoreError, fault.Store("attack.delete_nodes", err)
		}
		rec.NodesDeleted += n
		s.sess.Metrics.NodesDeleted.Add(float64(n))
		s.sess.Logger.Debug("batch deleted", "iteration", rec.Iterations, "deleted", n, "pool", len(pool))
	}
}
