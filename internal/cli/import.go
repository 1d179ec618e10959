package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Facts    string
	Database string
}

// ImportReport holds the import output.
type ImportReport struct {
	Relations int `json:"relations"`
	Facts     int `json:"facts"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import base facts into a fact database",
		Long: `Load base facts from a YAML file into a SQLite fact database.
Duplicate tuples are ignored, so imports are idempotent and incremental.

Examples:
  strata import --facts facts.yaml --db facts.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Facts, "facts", "", "YAML file of base facts (required)")
	_ = cmd.MarkFlagRequired("facts")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite fact database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command) error {
	p := newPrinter(opts.RootOptions, cmd)
	ctx := context.Background()

	facts, err := LoadFacts(opts.Facts)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading facts", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer st.Close()

	names := make([]string, 0, len(facts))
	for name := range facts {
		names = append(names, name)
	}
	sort.Strings(names)

	report := ImportReport{Relations: len(names)}
	for _, name := range names {
		for _, t := range facts[name] {
			if err := st.AddBaseFact(ctx, name, t); err != nil {
				return WrapExitError(ExitCommandError, "importing facts", err)
			}
			report.Facts++
		}
		p.tracef("imported %d facts into %s", len(facts[name]), name)
	}

	return p.report(report, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d facts across %d relations\n", report.Facts, report.Relations)
	})
}
