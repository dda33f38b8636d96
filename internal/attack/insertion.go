package attack

import (
	"context"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/pseudo"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
)

// Insertion defaults.
const (
	DefaultNoiseType      = "Company"
	DefaultNoiseEdgeType  = "Connection"
	DefaultConnectionsMax = 20
)

// InsertionParams configures an insertion run.
type InsertionParams struct {
	RecordCount int

	// ConnectionsMin and ConnectionsMax bound the links drawn per noise
	// node. A draw larger than the current pool links to the whole pool, so
	// a small graph can yield fewer than ConnectionsMin links.
	ConnectionsMin int
	ConnectionsMax int

	// DocType labels the noise nodes; their fields are synthesized from the
	// observed values of this type.
	DocType        string
	RequiredFields []string
	OptionalFields []string

	EdgeType string
}

// DefaultInsertionParams returns the reference noise configuration:
// field-less Company nodes linked by 0 to 20 Connection edges.
func DefaultInsertionParams(count int) InsertionParams {
	return InsertionParams{
		RecordCount:    count,
		ConnectionsMax: DefaultConnectionsMax,
		DocType:        DefaultNoiseType,
		EdgeType:       DefaultNoiseEdgeType,
	}
}

func (p InsertionParams) validate() error {
	if p.RecordCount < 0 {
		return fault.New(fault.InvalidArgument, "attack.insertion", "record count must not be negative, got %d", p.RecordCount)
	}
	if p.ConnectionsMin < 0 || p.ConnectionsMax < p.ConnectionsMin {
		return fault.New(fault.InvalidArgument, "attack.insertion",
			"connection bounds [%d, %d] are invalid", p.ConnectionsMin, p.ConnectionsMax)
	}
	if p.DocType == "" || p.EdgeType == "" {
		return fault.New(fault.InvalidArgument, "attack.insertion", "document type and edge type are required")
	}
	return nil
}

// Insertion adds RecordCount noise nodes, each linked to a uniform number
// of distinct existing nodes in [ConnectionsMin, ConnectionsMax]. It is not
// gated by verification. Every inserted node joins the pool available to
// later links. A store failure aborts the run with the record error flag set.
func (s *Simulator) Insertion(ctx context.Context, p InsertionParams) (*report.InsertionSummary, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	log := s.sess.Logger.With("action", report.ActionInsertion)
	rec := &report.InsertionSummary{
		Header:              s.sess.Header(report.ActionInsertion),
		NumWatermarkedNodes: len(s.carriers),
	}

	state, err := StateCompleted, s.insert(ctx, rec, p)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			state = StateCancelled
		case fault.IsStoreUnavailable(err):
			state = StateStoreError
		default:
			state = StateFailed
		}
		log.Error("insertion attack stopped", "inserted", rec.RecordsInserted, "error", err)
	}

	if n, cerr := s.sess.Store.ReadIdentifierCount(ctx); cerr != nil {
		if err == nil {
			state, err = StateStoreError, fault.Store("attack.read_identifier_count", cerr)
		}
	} else {
		rec.NodesAfter = n
	}
	s.sess.Metrics.Iterations.WithLabelValues(string(report.ActionInsertion)).Add(float64(rec.RecordsInserted))

	log.Info("insertion attack finished", "inserted", rec.RecordsInserted, "edges", rec.EdgesCreated)
	return rec, s.finish(rec, state, err)
}

func (s *Simulator) insert(ctx context.Context, rec *report.InsertionSummary, p InsertionParams) error {
	pool, err := s.sess.Store.ReadAllIdentifiers(ctx)
	if err != nil {
		return fault.Store("attack.read_all_identifiers", err)
	}
	rec.NodesBefore = len(pool)
	synth := pseudo.New(s.sess.Store, s.sess.Rand, s.sess.Logger)

	for range p.RecordCount {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := synth.Synthesize(ctx, p.DocType, p.RequiredFields, p.OptionalFields)
		if err != nil {
			return err
		}
		id, err := s.sess.Store.CreateNode(ctx, doc.Fields, doc.Type, false)
		if err != nil {
			return fault.Store("attack.create_node", err)
		}
		rec.RecordsInserted++
		s.sess.Metrics.NodesInserted.Inc()

		k := min(sample.Between(s.sess.Rand, p.ConnectionsMin, p.ConnectionsMax), len(pool))
		idx, err := sampleIndices(s.sess.Rand, len(pool), k)
		if err != nil {
			return err
		}
		for _, i := range idx {
			if pool[i] == id {
				continue
			}
			if _, err := s.sess.Store.CreateEdge(ctx, id, pool[i], p.EdgeType, false); err != nil {
				return fault.Store("attack.create_edge", err)
			}
			rec.EdgesCreated++
		}
		pool = append(pool, id)
	}
	return nil
}
