package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/engine"
	"github.com/roach88/strata/internal/ir"
	"github.com/roach88/strata/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Rules         string
	Facts         string
	Database      string
	Output        string
	MaxIterations int
}

// ExportReport holds the export output.
type ExportReport struct {
	RunID       string `json:"run_id"`
	RuleSetHash string `json:"ruleset_hash"`
	Derived     int    `json:"derived"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Evaluate rules and archive the run",
		Long: `Evaluate a rule set to fixpoint and archive the complete result - every
tuple plus the full provenance trail - as a run in a SQLite database.
Each export gets a fresh run ID; archived runs are inspectable with
'strata runs' or plain SQL.

Examples:
  strata export --rules ./rules --facts facts.yaml --out runs.db
  strata export --rules ./rules --db facts.db --out runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "directory of CUE rule files (required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().StringVar(&opts.Facts, "facts", "", "YAML file of base facts")
	cmd.Flags().StringVar(&opts.Database, "db", "", "fact database to load base facts from")
	cmd.Flags().StringVar(&opts.Output, "out", "", "database to archive the run into (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", engine.DefaultMaxIterations, "per-component pass cap")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	rules, res, err := evaluate(opts.RootOptions, cmd, opts.Rules, opts.Facts, opts.Database, opts.MaxIterations)
	if err != nil {
		return err
	}

	hash, err := ir.RuleSetHash(rules)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing rule set", err)
	}

	st, err := store.Open(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening run database", err)
	}
	defer st.Close()

	runID, err := st.WriteRun(context.Background(), store.RunMeta{
		RuleSetHash:   hash,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, res)
	if err != nil {
		return WrapExitError(ExitCommandError, "archiving run", err)
	}

	report := ExportReport{
		RunID:       runID,
		RuleSetHash: hash,
		Derived:     res.DerivedCount(),
	}
	return newPrinter(opts.RootOptions, cmd).report(report, func(w io.Writer) {
		fmt.Fprintf(w, "run %s archived (%d derived)\n", report.RunID, report.Derived)
	})
}
