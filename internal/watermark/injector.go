package watermark

import (
	"context"
	"fmt"
	"slices"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/codec"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/partition"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/pseudo"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
)

// Run states recorded in metrics for watermark runs.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Params configures one injection run.
type Params struct {
	MinGroupSize int
	MaxGroupSize int

	// DocType is the label given to carriers and the type whose value
	// distributions they imitate.
	DocType string

	// CoverField receives the codec value. It must not be a required or
	// optional field.
	CoverField     string
	RequiredFields []string
	OptionalFields []string

	Key      int64
	Identity string

	// MaxTries bounds the partition attempts.
	MaxTries int

	// DirectionRandomized replaces every relation direction by a coin flip.
	DirectionRandomized bool

	// Visible suffixes carrier labels and edge types with graph.VisibleSuffix.
	Visible bool

	Retry partition.RetryPolicy
}

// CodecKey returns the codec key of p. The required fields are the codec
// fields, since only they are guaranteed to exist on every carrier.
func (p Params) CodecKey() codec.Key {
	return codec.Key{
		Key:        p.Key,
		Identity:   p.Identity,
		CoverField: p.CoverField,
		Fields:     slices.Clone(p.RequiredFields),
	}
}

// Validate checks the parameters that do not depend on the store.
func (p Params) Validate() error {
	if p.DocType == "" {
		return fault.New(fault.InvalidArgument, "watermark", "document type is required")
	}
	if err := p.CodecKey().Validate(); err != nil {
		return err
	}
	if slices.Contains(p.OptionalFields, p.CoverField) {
		return fault.New(fault.InvalidArgument, "watermark",
			"cover field %q must not be an optional field", p.CoverField)
	}
	if p.MinGroupSize <= 0 || p.MaxGroupSize < p.MinGroupSize {
		return fault.New(fault.InvalidArgument, "watermark",
			"group size bounds [%d, %d] are invalid", p.MinGroupSize, p.MaxGroupSize)
	}
	if p.MaxTries <= 0 {
		return fault.New(fault.InvalidArgument, "watermark", "max tries must be positive, got %d", p.MaxTries)
	}
	if !p.Retry.Valid() {
		return fault.New(fault.InvalidArgument, "watermark", "unknown retry policy %q", p.Retry)
	}
	return nil
}

// Injector embeds watermarks into the session store.
type Injector struct {
	sess   *session.Session
	policy RelationPolicy
	synth  *pseudo.Synthesizer
}

// NewInjector creates an Injector that links members according to policy.
func NewInjector(sess *session.Session, policy RelationPolicy) *Injector {
	return &Injector{
		sess:   sess,
		policy: policy,
		synth:  pseudo.New(sess.Store, sess.Rand, sess.Logger),
	}
}

// Watermark partitions members into groups and creates one carrier per
// group, returning the carrier ids in creation order.
//
// Invalid parameters are rejected before the run starts and write no record.
// Any later failure aborts the run: the carriers created so far are returned
// together with the error, and the watermark record is still written with
// its error flag set. A failure to append that record is returned when the
// run itself succeeded.
func (in *Injector) Watermark(ctx context.Context, members []graph.Member, p Params) (carriers []graph.ID, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := in.policy.Validate(); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fault.New(fault.InvalidArgument, "watermark", "no members to watermark")
	}

	log := in.sess.Logger.With("action", report.ActionWatermark, "doc_type", p.DocType)
	rec := &report.WatermarkSummary{
		Header:       in.sess.Header(report.ActionWatermark),
		MinGroupSize: p.MinGroupSize,
		MaxGroupSize: p.MaxGroupSize,
		DocType:      p.DocType,
		Visible:      p.Visible,
	}

	defer func() {
		rec.DocumentsIntroduced = len(carriers)
		if n, cerr := in.sess.Store.ReadIdentifierCount(ctx); cerr != nil {
			log.Warn("failed to count nodes after watermarking", "error", cerr)
		} else {
			rec.NodesAfter = n
		}
		state := StateCompleted
		if err != nil {
			state = StateFailed
			rec.Fail(err)
			log.Error("watermarking failed", "carriers", len(carriers), "error", err)
		}
		if ferr := in.sess.Finish(rec, state); ferr != nil && err == nil {
			err = fmt.Errorf("record watermark run: %w", ferr)
		}
	}()

	rec.NodesBefore, err = in.sess.Store.ReadIdentifierCount(ctx)
	if err != nil {
		return nil, fault.Store("watermark.read_identifier_count", err)
	}

	sizes, err := partition.Partition(in.sess.Rand, len(members), p.MinGroupSize, p.MaxGroupSize, p.MaxTries, p.Retry)
	if err != nil {
		return nil, err
	}
	groups, err := partition.AssignGroups(in.sess.Rand, members, sizes)
	if err != nil {
		return nil, err
	}
	rec.Groups = len(groups)
	log.Debug("groups assigned", "members", len(members), "groups", len(groups))

	key := p.CodecKey()
	carriers = make([]graph.ID, 0, len(groups))
	for _, group := range groups {
		carrier, edges, err := in.inject(ctx, group, key, p)
		rec.EdgesCreated += edges
		if carrier != 0 {
			carriers = append(carriers, carrier)
		}
		if err != nil {
			return carriers, err
		}
	}

	log.Info("watermark embedded", "carriers", len(carriers), "edges", rec.EdgesCreated)
	return carriers, nil
}

// inject persists one carrier and its edges. A non-zero carrier id is
// returned whenever the node was created, even if linking failed.
func (in *Injector) inject(ctx context.Context, group []graph.Member, key codec.Key, p Params) (graph.ID, int, error) {
	doc, err := in.synth.Synthesize(ctx, p.DocType, p.RequiredFields, p.OptionalFields)
	if err != nil {
		return 0, 0, err
	}
	doc.Visible = p.Visible
	if _, err := codec.Embed(doc.Fields, key); err != nil {
		return 0, 0, err
	}

	carrier, err := in.sess.Store.CreateNode(ctx, doc.Fields, doc.Type, doc.Visible)
	if err != nil {
		return 0, 0, fault.Store("watermark.create_node", err)
	}
	in.sess.Metrics.CarriersCreated.Inc()

	edges := 0
	for _, m := range group {
		rel := in.policy.Lookup(m.Label)
		dir := rel.Direction
		if p.DirectionRandomized {
			dir = graph.In
			if sample.Coin(in.sess.Rand) {
				dir = graph.Out
			}
		}
		source, dest := endpoints(carrier, m.ID, dir)
		if _, err := in.sess.Store.CreateEdge(ctx, source, dest, rel.EdgeType, p.Visible); err != nil {
			return carrier, edges, fault.Store("watermark.create_edge", err)
		}
		edges++
	}
	return carrier, edges, nil
}
