package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/config"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/session"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

// WatermarkOptions holds flags for the watermark command.
type WatermarkOptions struct {
	*RootOptions
	config.WatermarkSettings
}

// WatermarkResult reports an injection run.
type WatermarkResult struct {
	RunID       string `json:"run_id"`
	Carriers    int    `json:"carriers"`
	GroundTruth string `json:"ground_truth"`
}

// Text implements Texter.
func (r WatermarkResult) Text() string {
	return fmt.Sprintf("Watermarked with %d carriers (run %s)\nGround truth: %s", r.Carriers, r.RunID, r.GroundTruth)
}

// NewWatermarkCommand creates the watermark command.
func NewWatermarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatermarkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Inject pseudo-document carriers into the graph",
		Long: `Partition the graph into groups, synthesize one pseudo-document per
group, embed the watermark value in its cover field and link it to every
group member.

The carrier ids and the key are written to the ground truth file, which
verify and attack read.

Example:
  gwm watermark --db ./gwm.db --key 42 --identity acme --min-group 5 --max-group 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatermark(opts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&opts.Key, "key", 0, "watermark key")
	flags.StringVar(&opts.Identity, "identity", "", "owner identity")
	flags.StringVar(&opts.DocType, "doc-type", "", "label of the pseudo-documents")
	flags.StringVar(&opts.CoverField, "cover", "", "field that receives the watermark value")
	flags.IntVar(&opts.MinGroupSize, "min-group", 0, "minimum group size")
	flags.IntVar(&opts.MaxGroupSize, "max-group", 0, "maximum group size")
	flags.IntVar(&opts.MaxTries, "max-tries", 0, "partition attempts per bound pair")
	flags.BoolVar(&opts.RandomizeDirection, "randomize-direction", false, "pick each link direction at random")
	flags.BoolVar(&opts.Visible, "visible", false, "suffix carrier labels with W for debugging")

	return cmd
}

// applyWatermarkFlags overrides the settings with the flags that were set.
func applyWatermarkFlags(w *config.WatermarkSettings, opts *WatermarkOptions, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("key") {
		w.Key = opts.Key
	}
	if flags.Changed("identity") {
		w.Identity = opts.Identity
	}
	if flags.Changed("doc-type") {
		w.DocType = opts.DocType
	}
	if flags.Changed("cover") {
		w.CoverField = opts.CoverField
	}
	if flags.Changed("min-group") {
		w.MinGroupSize = opts.MinGroupSize
	}
	if flags.Changed("max-group") {
		w.MaxGroupSize = opts.MaxGroupSize
	}
	if flags.Changed("max-tries") {
		w.MaxTries = opts.MaxTries
	}
	if flags.Changed("randomize-direction") {
		w.RandomizeDirection = opts.RandomizeDirection
	}
	if flags.Changed("visible") {
		w.Visible = opts.Visible
	}
}

func runWatermark(opts *WatermarkOptions, cmd *cobra.Command) (err error) {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	ctx, stop := signalContext(cmd)
	defer stop()

	applyWatermarkFlags(&e.settings.Watermark, opts, cmd)
	params, err := e.settings.WatermarkParams(e.schema)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid watermark settings", err)
	}

	members, err := e.store.ReadMembers(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read members", err)
	}

	gt, err := injectWatermark(ctx, e.sess, e.runs, e.schema.Relations, members, params, e.settings.GroundTruth)
	if err != nil {
		return runFailure("watermark failed", err)
	}

	return e.out.Success(WatermarkResult{
		RunID:       gt.RunID,
		Carriers:    len(gt.Carriers),
		GroundTruth: e.settings.GroundTruth,
	})
}

// injectWatermark runs the injector and writes the ground truth file. A run
// that fails after creating carriers still writes them, flagged partial,
// since they remain in the graph. A run that created nothing leaves the
// file untouched.
func injectWatermark(ctx context.Context, sess *session.Session, runs *report.Memory, relations watermark.RelationPolicy,
	members []graph.Member, params watermark.Params, path string) (report.GroundTruth, error) {
	carriers, err := watermark.NewInjector(sess, relations).Watermark(ctx, members, params)
	if err != nil && len(carriers) == 0 {
		return report.GroundTruth{}, err
	}

	gt := report.GroundTruth{
		RunID:     latestRunID(runs),
		CreatedAt: sess.Now().UTC(),
		DocType:   params.DocType,
		Key:       params.CodecKey(),
		Carriers:  carriers,
		Partial:   err != nil,
	}
	if werr := report.WriteGroundTruth(path, gt); werr != nil {
		return gt, errors.Join(err, werr)
	}
	return gt, err
}
