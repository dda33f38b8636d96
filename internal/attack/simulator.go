package attack

import (
	"context"
	"fmt"
	"slices"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
)

// State is the state of an attack loop.
type State string

const (
	StateRunning            State = "running"
	StateVerificationFailed State = "verification_failed"
	StateStoreError         State = "store_error"
	StatePoolExhausted      State = "pool_exhausted"
	StateCancelled          State = "cancelled"

	// StateCompleted and StateFailed end runs that are not gated by
	// verification.
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	return s != StateRunning
}

// VerifyFunc reports whether the watermark is still detectable.
type VerifyFunc func(ctx context.Context) (bool, error)

// Simulator runs attacks against the session store. Carriers is the ground
// truth carrier set of the watermark under attack.
type Simulator struct {
	sess     *session.Session
	carriers []graph.ID
}

// New creates a Simulator for the given carriers.
func New(sess *session.Session, carriers []graph.ID) *Simulator {
	return &Simulator{sess: sess, carriers: slices.Clone(carriers)}
}

// check evaluates the transition out of Running for one iteration.
func (s *Simulator) check(ctx context.Context, verify VerifyFunc) (State, error) {
	if err := ctx.Err(); err != nil {
		return StateCancelled, err
	}
	ok, err := verify(ctx)
	if err != nil {
		return StateStoreError, fault.Store("attack.verify", err)
	}
	if !ok {
		return StateVerificationFailed, nil
	}
	return StateRunning, nil
}

// finish stamps the run outcome on rec and appends it. It returns err, or
// the append failure when the run itself succeeded.
func (s *Simulator) finish(rec report.Record, state State, err error) error {
	if err != nil && state != StateCancelled {
		rec.Head().Fail(err)
	}
	if ferr := s.sess.Finish(rec, string(state)); ferr != nil && err == nil {
		return fmt.Errorf("record %s run: %w", rec.Head().Action, ferr)
	}
	return err
}

// survivors counts the carriers that still exist.
func (s *Simulator) survivors(ctx context.Context) (int, error) {
	if len(s.carriers) == 0 {
		return 0, nil
	}
	docs, err := s.sess.Store.ReadDocuments(ctx, s.carriers)
	if err != nil {
		return 0, fault.Store("attack.read_documents", err)
	}
	return len(docs), nil
}

// take removes k distinct ids chosen uniformly from pool and returns them
// together with the remaining pool.
func take(src sample.Source, pool []graph.ID, k int) (batch, rest []graph.ID, err error) {
	idx, err := sampleIndices(src, len(pool), k)
	if err != nil {
		return nil, pool, err
	}
	picked := make(map[int]struct{}, len(idx))
	batch = make([]graph.ID, 0, len(idx))
	for _, i := range idx {
		picked[i] = struct{}{}
		batch = append(batch, pool[i])
	}
	rest = make([]graph.ID, 0, len(pool)-len(idx))
	for i, id := range pool {
		if _, ok := picked[i]; !ok {
			rest = append(rest, id)
		}
	}
	return batch, rest, nil
}

// sampleIndices draws k distinct indices below n.
func sampleIndices(src sample.Source, n, k int) ([]int, error) {
	idx, err := sample.WithoutReplacement(src, n, k)
	if err != nil {
		return nil, fault.Wrap(fault.InvariantViolation, "attack.sample", err)
	}
	return idx, nil
}

// carrierSet returns the carriers as a set.
func (s *Simulator) carrierSet() map[graph.ID]struct{} {
	set := make(map[graph.ID]struct{}, len(s.carriers))
	for _, id := range s.carriers {
		set[id] = struct{}{}
	}
	return set
}

