package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/engine"
	"github.com/roach88/strata/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Rules         string
	Facts         string
	Database      string
	MaxIterations int
}

// TraceSource is one consumed tuple in a provenance step.
type TraceSource struct {
	Relation string `json:"relation"`
	Tuple    []any  `json:"tuple"`
	Key      string `json:"key"`

	text string
}

// TraceDeduction is one ground rule instantiation in a trace.
type TraceDeduction struct {
	RuleID  string        `json:"rule_id"`
	Seq     int64         `json:"seq"`
	Hash    string        `json:"hash"`
	Sources []TraceSource `json:"sources,omitempty"`
}

// TraceFact is one tuple with its full provenance.
type TraceFact struct {
	Tuple      []any            `json:"tuple"`
	Key        string           `json:"key"`
	Base       bool             `json:"base,omitempty"`
	Deductions []TraceDeduction `json:"deductions,omitempty"`

	text string
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Relation string      `json:"relation"`
	Facts    []TraceFact `json:"facts"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace RELATION",
		Short: "Show why a relation's tuples hold",
		Long: `Evaluate rules over base facts, then print every tuple of one relation
together with its provenance: each ground rule instantiation that derived
it, with the exact source tuples consumed.

A tuple derivable several ways lists every deduction, in discovery order.

Examples:
  strata trace --rules ./rules --facts facts.yaml grandparent
  strata trace --rules ./rules --db facts.db reachable --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "directory of CUE rule files (required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().StringVar(&opts.Facts, "facts", "", "YAML file of base facts")
	cmd.Flags().StringVar(&opts.Database, "db", "", "fact database to load base facts from")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", engine.DefaultMaxIterations, "per-component pass cap")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command, relation string) error {
	_, res, err := evaluate(opts.RootOptions, cmd, opts.Rules, opts.Facts, opts.Database, opts.MaxIterations)
	if err != nil {
		return err
	}

	rel := res.Relation(relation)
	if rel == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown relation %q", relation))
	}

	result := TraceResult{Relation: relation}
	for _, f := range rel.Facts() {
		result.Facts = append(result.Facts, newTraceFact(f))
	}

	return newPrinter(opts.RootOptions, cmd).report(result, func(w io.Writer) {
		writeTraceText(w, result)
	})
}

func newTraceFact(f *engine.Derived) TraceFact {
	fact := TraceFact{
		Tuple: goValues(f.Tuple),
		Key:   f.Key,
		Base:  f.Base,
		text:  f.Tuple.String(),
	}
	for _, ded := range f.Deductions {
		td := TraceDeduction{RuleID: ded.RuleID, Seq: ded.Seq, Hash: ded.Hash}
		for _, src := range ded.Sources {
			td.Sources = append(td.Sources, TraceSource{
				Relation: src.Relation,
				Tuple:    goValues(src.Tuple),
				Key:      src.Key,
				text:     src.Tuple.String(),
			})
		}
		fact.Deductions = append(fact.Deductions, td)
	}
	return fact
}

func goValues(t ir.Tuple) []any {
	vals := make([]any, len(t))
	for i, v := range t {
		vals[i] = ir.GoValue(v)
	}
	return vals
}

func writeTraceText(w io.Writer, result TraceResult) {
	if len(result.Facts) == 0 {
		fmt.Fprintf(w, "no tuples in %s\n", result.Relation)
		return
	}
	for _, fact := range result.Facts {
		fmt.Fprintf(w, "%s%s\n", result.Relation, fact.text)
		if fact.Base {
			fmt.Fprintln(w, "  base fact")
		}
		for _, ded := range fact.Deductions {
			fmt.Fprintf(w, "  rule %s (seq %d)\n", ded.RuleID, ded.Seq)
			for _, src := range ded.Sources {
				fmt.Fprintf(w, "    %s%s\n", src.Relation, src.text)
			}
		}
	}
}
