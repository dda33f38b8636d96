package attack

import (
	"context"
	"math"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
)

// FastParams configures a simulated deletion estimate.
type FastParams struct {
	// Percentages are the simulated deletion fractions, each in [0, 1].
	Percentages []float64
	Iterations  int

	// WithoutReplacement draws distinct ids. The default samples with
	// replacement, so a sample may hold fewer distinct ids than its size.
	WithoutReplacement bool
}

// FastDeletion estimates how many carriers a deletion of each percentage
// would hit, without mutating the store. For every iteration and percentage
// it samples round(p*|ids|) ids from the full pool and counts the distinct
// carriers among them.
func (s *Simulator) FastDeletion(ctx context.Context, p FastParams) (*report.FastDeletionSummary, error) {
	if p.Iterations <= 0 {
		return nil, fault.New(fault.InvalidArgument, "attack.fast_deletion", "iterations must be positive, got %d", p.Iterations)
	}
	for _, pct := range p.Percentages {
		if pct < 0 || pct > 1 || math.IsNaN(pct) {
			return nil, fault.New(fault.InvalidArgument, "attack.fast_deletion", "percentage %v is outside [0, 1]", pct)
		}
	}

	log := s.sess.Logger.With("action", report.ActionFastDeletion)
	rec := &report.FastDeletionSummary{
		Header:              s.sess.Header(report.ActionFastDeletion),
		Percentages:         append([]float64{}, p.Percentages...),
		Iterations:          p.Iterations,
		NumWatermarkedNodes: len(s.carriers),
		Overlaps:            make([][]int, len(p.Percentages)),
		AverageOverlaps:     make([]float64, len(p.Percentages)),
	}

	state, err := StateCompleted, s.estimate(ctx, rec, p)
	if err != nil {
		state = StateStoreError
		if ctx.Err() != nil {
			state = StateCancelled
		}
		log.Error("fast deletion stopped", "error", err)
	}

	log.Info("fast deletion finished", "percentages", len(p.Percentages), "iterations", p.Iterations)
	return rec, s.finish(rec, state, err)
}

func (s *Simulator) estimate(ctx context.Context, rec *report.FastDeletionSummary, p FastParams) error {
	all, err := s.sess.Store.ReadAllIdentifiers(ctx)
	if err != nil {
		return fault.Store("attack.read_all_identifiers", err)
	}
	rec.NodesTotal = len(all)
	carriers := s.carrierSet()

	for j := range rec.Overlaps {
		rec.Overlaps[j] = make([]int, 0, p.Iterations)
	}
	for range p.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j, pct := range p.Percentages {
			k := int(math.Round(pct * float64(len(all))))
			draw := sample.WithReplacement
			if p.WithoutReplacement {
				draw = sample.WithoutReplacement
			}
			idx, err := draw(s.sess.Rand, len(all), k)
			if err != nil {
				return fault.Wrap(fault.InvariantViolation, "attack.fast_deletion", err)
			}

			hit := make(map[int]struct{})
			for _, i := range idx {
				if _, ok := carriers[all[i]]; ok {
					hit[i] = struct{}{}
				}
			}
			rec.Overlaps[j] = append(rec.Overlaps[j], len(hit))
		}
	}

	for j, counts := range rec.Overlaps {
		total := 0
		for _, c := range counts {
			total += c
		}
		rec.AverageOverlaps[j] = float64(total) / float64(p.Iterations)
	}
	return nil
}
