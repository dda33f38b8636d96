package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/attack"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

// AttackOptions holds flags shared by the attack subcommands.
type AttackOptions struct {
	*RootOptions
	BatchSize int

	// Insertion
	Records        int
	ConnectionsMin int
	ConnectionsMax int
	NoiseType      string
	NoiseEdgeType  string

	// Fast deletion
	Percentages        []float64
	Iterations         int
	WithoutReplacement bool
}

// AttackResult wraps the record an attack appended.
type AttackResult struct {
	Record report.Record
}

// MarshalJSON encodes the record itself.
func (r AttackResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Record)
}

// Text implements Texter with one "field: value" line per record field.
func (r AttackResult) Text() string {
	data, err := json.Marshal(r.Record)
	if err != nil {
		return fmt.Sprint(r.Record)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return string(data)
	}

	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		v, _ := json.Marshal(fields[k])
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewAttackCommand creates the attack command and its subcommands.
func NewAttackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AttackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Run an attack against the watermarked graph",
		Long: `Run one attack against the carriers listed in the ground truth file and
append its summary to the results log.

Deletion and modification stop as soon as the watermark is no longer
detected. Insertion and fast deletion run to completion.`,
	}

	cmd.AddCommand(newDeletionCommand(opts))
	cmd.AddCommand(newModificationCommand(opts))
	cmd.AddCommand(newInsertionCommand(opts))
	cmd.AddCommand(newFastCommand(opts))

	return cmd
}

func newDeletionCommand(opts *AttackOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deletion",
		Short: "Delete random nodes in batches until the watermark is lost",
		Example: `  gwm attack deletion --batch 10
  gwm attack deletion --batch 1 --seed 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttack(opts, cmd, func(ctx context.Context, _ *env, sim *attack.Simulator, verify attack.VerifyFunc) (report.Record, error) {
				rec, err := sim.Deletion(ctx, opts.BatchSize, verify)
				if rec == nil {
					return nil, err
				}
				return rec, err
			})
		},
	}
	cmd.Flags().IntVarP(&opts.BatchSize, "batch", "b", 1, "nodes deleted per iteration")
	return cmd
}

func newModificationCommand(opts *AttackOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "modification",
		Short:         "Strip random fields in batches until the watermark is lost",
		Example:       `  gwm attack modification --batch 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttack(opts, cmd, func(ctx context.Context, _ *env, sim *attack.Simulator, verify attack.VerifyFunc) (report.Record, error) {
				rec, err := sim.Modification(ctx, opts.BatchSize, verify)
				if rec == nil {
					return nil, err
				}
				return rec, err
			})
		},
	}
	cmd.Flags().IntVarP(&opts.BatchSize, "batch", "b", 1, "nodes modified per iteration")
	return cmd
}

func newInsertionCommand(opts *AttackOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "insertion",
		Short:         "Insert noise records linked to random existing nodes",
		Example:       `  gwm attack insertion --records 100 --connections-max 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttack(opts, cmd, func(ctx context.Context, e *env, sim *attack.Simulator, _ attack.VerifyFunc) (report.Record, error) {
				p := attack.DefaultInsertionParams(opts.Records)
				p.ConnectionsMin = opts.ConnectionsMin
				p.ConnectionsMax = opts.ConnectionsMax
				p.DocType = opts.NoiseType
				p.EdgeType = opts.NoiseEdgeType
				// Noise of a schema type gets that type's fields.
				if t, err := e.schema.Type(p.DocType); err == nil {
					p.RequiredFields, p.OptionalFields = t.Required, t.Optional
				}
				rec, err := sim.Insertion(ctx, p)
				if rec == nil {
					return nil, err
				}
				return rec, err
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&opts.Records, "records", "n", 10, "noise records to insert")
	flags.IntVar(&opts.ConnectionsMin, "connections-min", 0, "minimum links per noise record")
	flags.IntVar(&opts.ConnectionsMax, "connections-max", attack.DefaultConnectionsMax, "maximum links per noise record")
	flags.StringVar(&opts.NoiseType, "noise-type", attack.DefaultNoiseType, "label of the noise records")
	flags.StringVar(&opts.NoiseEdgeType, "noise-edge-type", attack.DefaultNoiseEdgeType, "type of the noise links")
	return cmd
}

func newFastCommand(opts *AttackOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fast",
		Short:         "Estimate carrier overlap of simulated deletions without mutating the graph",
		Example:       `  gwm attack fast --percentages 0.1,0.25,0.5 --iterations 100`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttack(opts, cmd, func(ctx context.Context, _ *env, sim *attack.Simulator, _ attack.VerifyFunc) (report.Record, error) {
				rec, err := sim.FastDeletion(ctx, attack.FastParams{
					Percentages:        opts.Percentages,
					Iterations:         opts.Iterations,
					WithoutReplacement: opts.WithoutReplacement,
				})
				if rec == nil {
					return nil, err
				}
				return rec, err
			})
		},
	}
	flags := cmd.Flags()
	flags.Float64SliceVarP(&opts.Percentages, "percentages", "p", []float64{0.1, 0.25, 0.5}, "deletion fractions in [0, 1]")
	flags.IntVarP(&opts.Iterations, "iterations", "i", 10, "samples per percentage")
	flags.BoolVar(&opts.WithoutReplacement, "without-replacement", false, "draw distinct ids")
	return cmd
}

// attackFunc runs one attack and returns the record it appended, if any.
type attackFunc func(ctx context.Context, e *env, sim *attack.Simulator, verify attack.VerifyFunc) (report.Record, error)

func runAttack(opts *AttackOptions, cmd *cobra.Command, run attackFunc) (err error) {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	ctx, stop := signalContext(cmd)
	defer stop()

	gt, err := e.loadGroundTruth()
	if err != nil {
		return err
	}

	sim := attack.New(e.sess, gt.Carriers)
	verify := watermark.NewOracle(e.sess).VerifyFunc(gt.Carriers, gt.Key)

	rec, runErr := run(ctx, e, sim, verify)
	if rec != nil {
		if err := e.out.Success(AttackResult{Record: rec}); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runFailure(cmd.Name()+" attack failed", runErr)
	}
	return nil
}
