package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

// VerifyResult reports a verification.
type VerifyResult struct {
	RunID    string `json:"run_id"`
	Carriers int    `json:"carriers"`
	Detected bool   `json:"detected"`
}

// Text implements Texter.
func (r VerifyResult) Text() string {
	status := "NOT detected"
	if r.Detected {
		status = "detected"
	}
	return fmt.Sprintf("Watermark %s (run %s, %d carriers)", status, r.RunID, r.Carriers)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check whether the watermark is still detectable",
		Long: `Read the surviving carriers listed in the ground truth file and check
whether any still carries the watermark value.

Exit codes:
  0 - Watermark detected
  1 - Watermark not detected, or the store failed
  2 - Command error (missing ground truth, invalid settings)

Example:
  gwm verify --db ./gwm.db --truth results/ground_truth.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}
}

func runVerify(opts *RootOptions, cmd *cobra.Command) (err error) {
	e, err := openEnv(opts, cmd)
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

	detected, err := watermark.NewOracle(e.sess).Verify(ctx, gt.Carriers, gt.Key)
	if err != nil {
		return runFailure("verification failed", err)
	}

	if err := e.out.Success(VerifyResult{
		RunID:    gt.RunID,
		Carriers: len(gt.Carriers),
		Detected: detected,
	}); err != nil {
		return err
	}
	if !detected {
		return NewExitError(ExitFailure, "watermark not detected")
	}
	return nil
}
