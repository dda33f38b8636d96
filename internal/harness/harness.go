package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/attack"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/codec"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/config"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/dataset"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/metrics"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/store"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/testutil"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

// epoch is the start of the deterministic clock used for experiment records.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Options carry the collaborators shared by every run of an experiment.
// Zero values discard logs and records and use fresh metrics.
type Options struct {
	Logger  *slog.Logger
	Results report.Sink
	Metrics *metrics.Metrics
}

// harness executes the stages of one experiment.
type harness struct {
	exp    *Experiment
	opts   Options
	schema *config.Schema
	params watermark.Params
	clock  *testutil.SteppingClock
	runIDs func() string
}

// prepared is a freshly generated and watermarked graph.
type prepared struct {
	store    *store.Store
	sess     *session.Session
	carriers []graph.ID
	key      codec.Key
}

// Run executes an experiment and evaluates its assertions.
//
// Each stage runs in a fresh in-memory database generated from the
// experiment seed, so every attack sees the same watermarked graph.
//
// Execution flow:
// 1. Generate the dataset and watermark it
// 2. Verify the watermark
// 3. For each attack, regenerate the graph, run the attack and verify again
// 4. Evaluate assertions
func Run(ctx context.Context, exp *Experiment, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Results == nil {
		opts.Results = report.Discard
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	schema, err := config.LoadSchema(exp.Schema)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	params, err := config.Settings{Watermark: exp.Watermark}.WatermarkParams(schema)
	if err != nil {
		return nil, fmt.Errorf("watermark parameters: %w", err)
	}

	seq := 0
	h := &harness{
		exp:    exp,
		opts:   opts,
		schema: schema,
		params: params,
		clock:  testutil.NewSteppingClock(epoch, time.Second),
		runIDs: func() string {
			seq++
			return fmt.Sprintf("%s-%03d", exp.Name, seq)
		},
	}

	result := NewResult(exp.Name)

	base, err := h.prepare(ctx)
	if err != nil {
		return nil, err
	}
	result.Carriers = len(base.carriers)
	result.Verified, err = watermark.NewOracle(base.sess).Verify(ctx, base.carriers, base.key)
	base.store.Close()
	if err != nil {
		return nil, fmt.Errorf("verify watermark: %w", err)
	}

	for i, step := range exp.Attacks {
		outcome, err := h.runAttack(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("attack %d (%s): %w", i, step.Type, err)
		}
		result.Attacks = append(result.Attacks, *outcome)
	}

	for _, msg := range EvaluateAssertions(result, exp.Assertions) {
		result.AddError(msg)
	}

	opts.Logger.Info("experiment finished",
		"name", exp.Name,
		"pass", result.Pass,
		"carriers", result.Carriers,
		"attacks", len(result.Attacks))
	return result, nil
}

// prepare generates the dataset in a new in-memory store and watermarks it.
func (h *harness) prepare(ctx context.Context) (*prepared, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	sess := session.New(st,
		session.WithLogger(h.opts.Logger),
		session.WithResults(h.opts.Results),
		session.WithRand(sample.New(h.exp.Seed)),
		session.WithMetrics(h.opts.Metrics),
		session.WithClock(h.clock.Now),
		session.WithRunIDs(h.runIDs),
	)

	if _, err := dataset.Populate(ctx, st, sess.Rand, sess.Logger, h.exp.Dataset.Records, h.exp.Dataset.MaxRelations); err != nil {
		st.Close()
		return nil, err
	}

	members, err := st.ReadMembers(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("read members: %w", err)
	}

	carriers, err := watermark.NewInjector(sess, h.schema.Relations).Watermark(ctx, members, h.params)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("watermark: %w", err)
	}

	return &prepared{store: st, sess: sess, carriers: carriers, key: h.params.CodecKey()}, nil
}

// runAttack runs one attack step against a fresh graph. Attack failures
// are part of the outcome; only setup failures are returned as errors.
func (h *harness) runAttack(ctx context.Context, step AttackStep) (*AttackOutcome, error) {
	p, err := h.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer p.store.Close()

	oracle := watermark.NewOracle(p.sess)
	sim := attack.New(p.sess, p.carriers)
	verify := oracle.VerifyFunc(p.carriers, p.key)

	out := &AttackOutcome{Type: step.Type}
	var attackErr error
	switch step.Type {
	case AttackDeletion:
		var rec *report.DeletionSummary
		rec, attackErr = sim.Deletion(ctx, step.BatchSize, verify)
		if rec != nil {
			out.State, out.Record = rec.State, rec
		}
	case AttackModification:
		var rec *report.ModificationSummary
		rec, attackErr = sim.Modification(ctx, step.BatchSize, verify)
		if rec != nil {
			out.State, out.Record = rec.State, rec
		}
	case AttackInsertion:
		params := attack.DefaultInsertionParams(step.Records)
		params.ConnectionsMin = step.ConnectionsMin
		if step.ConnectionsMax != nil {
			params.ConnectionsMax = *step.ConnectionsMax
		}
		if t, err := h.schema.Type(params.DocType); err == nil {
			params.RequiredFields, params.OptionalFields = t.Required, t.Optional
		}
		var rec *report.InsertionSummary
		rec, attackErr = sim.Insertion(ctx, params)
		out.State = string(attack.StateCompleted)
		if rec != nil {
			out.Record = rec
		}
	case AttackFastDeletion:
		var rec *report.FastDeletionSummary
		rec, attackErr = sim.FastDeletion(ctx, attack.FastParams{
			Percentages:        step.Percentages,
			Iterations:         step.Iterations,
			WithoutReplacement: step.WithoutReplacement,
		})
		out.State = string(attack.StateCompleted)
		if rec != nil {
			out.Record = rec
		}
	default:
		return nil, fmt.Errorf("unknown attack type %q", step.Type)
	}

	if attackErr != nil {
		out.Error = attackErr.Error()
		if out.State == string(attack.StateCompleted) {
			out.State = string(errorState(ctx, attackErr))
		}
	}

	out.Verified, err = oracle.Verify(ctx, p.carriers, p.key)
	if err != nil {
		return nil, fmt.Errorf("verify after attack: %w", err)
	}
	return out, nil
}

// errorState maps the error of an attack without its own state field.
func errorState(ctx context.Context, err error) attack.State {
	switch {
	case ctx.Err() != nil:
		return attack.StateCancelled
	case fault.IsStoreUnavailable(err):
		return attack.StateStoreError
	default:
		return attack.StateFailed
	}
}
