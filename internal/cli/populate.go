package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/dataset"
)

// PopulateOptions holds flags for the populate command.
type PopulateOptions struct {
	*RootOptions
	Records      int
	MaxRelations int
}

// PopulateResult reports what populate created.
type PopulateResult struct {
	Database string `json:"database"`
	dataset.Summary
}

// Text implements Texter.
func (r PopulateResult) Text() string {
	return fmt.Sprintf("Populated %s: %d nodes, %d edges", r.Database, r.Nodes, r.Edges)
}

// NewPopulateCommand creates the populate command.
func NewPopulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PopulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Fill the database with synthetic Person records",
		Long: `Create Person records with random names and ages, linked by random
Friends edges. Existing data is kept.

Example:
  gwm populate --db ./gwm.db --records 1000 --max-relations 10 --seed 7`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulate(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Records, "records", "n", 0, "number of records (default from settings)")
	cmd.Flags().IntVar(&opts.MaxRelations, "max-relations", 0, "maximum relations per record (default from settings)")

	return cmd
}

func runPopulate(opts *PopulateOptions, cmd *cobra.Command) (err error) {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeEnv(e, &err)

	ctx, stop := signalContext(cmd)
	defer stop()

	records, maxRelations := e.settings.Populate.Records, e.settings.Populate.MaxRelations
	if cmd.Flags().Changed("records") {
		records = opts.Records
	}
	if cmd.Flags().Changed("max-relations") {
		maxRelations = opts.MaxRelations
	}
	if records < 0 || maxRelations < 0 {
		return NewExitError(ExitCommandError, "records and max-relations must not be negative")
	}

	summary, err := dataset.Populate(ctx, e.store, e.sess.Rand, e.sess.Logger, records, maxRelations)
	if err != nil {
		return WrapExitError(ExitFailure, "populate failed", err)
	}
	return e.out.Success(PopulateResult{Database: e.settings.Database, Summary: summary})
}
