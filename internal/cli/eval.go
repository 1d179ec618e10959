package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/engine"
	"github.com/roach88/strata/internal/ir"
	"github.com/roach88/strata/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Rules         string
	Facts         string
	Database      string
	Relation      string // optional - restrict output to one relation
	MaxIterations int
	ShowBase      bool
}

// TupleReport is one output row of an evaluated relation.
type TupleReport struct {
	Tuple      []any  `json:"tuple"`
	Key        string `json:"key"`
	Base       bool   `json:"base,omitempty"`
	Deductions int    `json:"deductions,omitempty"`

	text string // rendered tuple for text output
}

// RelationReport holds one relation's evaluated tuples.
type RelationReport struct {
	Relation string        `json:"relation"`
	Tuples   []TupleReport `json:"tuples"`
}

// EvalReport holds the complete eval output.
type EvalReport struct {
	RuleSetHash string           `json:"ruleset_hash"`
	Derived     int              `json:"derived"`
	Relations   []RelationReport `json:"relations"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate rules over base facts",
		Long: `Evaluate a rule set to fixpoint over base facts and print the derived
tuples. Facts come from a YAML file, a fact database, or both.

Examples:
  strata eval --rules ./rules --facts facts.yaml
  strata eval --rules ./rules --db facts.db --relation reachable
  strata eval --rules ./rules --facts facts.yaml --show-base --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "directory of CUE rule files (required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().StringVar(&opts.Facts, "facts", "", "YAML file of base facts")
	cmd.Flags().StringVar(&opts.Database, "db", "", "fact database to load base facts from")
	cmd.Flags().StringVar(&opts.Relation, "relation", "", "restrict output to one relation")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", engine.DefaultMaxIterations, "per-component pass cap")
	cmd.Flags().BoolVar(&opts.ShowBase, "show-base", false, "include base facts in output")

	return cmd
}

func runEval(opts *EvalOptions, cmd *cobra.Command) error {
	rules, res, err := evaluate(opts.RootOptions, cmd, opts.Rules, opts.Facts, opts.Database, opts.MaxIterations)
	if err != nil {
		return err
	}

	report, err := buildEvalReport(rules, res, opts.Relation, opts.ShowBase)
	if err != nil {
		return WrapExitError(ExitCommandError, "building report", err)
	}

	return newPrinter(opts.RootOptions, cmd).report(report, func(w io.Writer) {
		writeEvalText(w, report)
	})
}

// evaluate is the shared load-and-run path for eval, trace, and export.
func evaluate(rootOpts *RootOptions, cmd *cobra.Command, rulesDir, factsPath, dbPath string, maxIterations int) ([]ir.Rule, *engine.Result, error) {
	p := newPrinter(rootOpts, cmd)

	loaded, errs := LoadRules(rulesDir, LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, nil, reportLoadErrors(p, errs)
	}
	if verrs := compiler.ValidateRules(loaded.Rules); len(verrs) > 0 {
		for _, v := range verrs {
			p.problem(v.Code, v.Error(), v.Field)
		}
		return nil, nil, NewExitError(ExitFailure, fmt.Sprintf("%d validation errors", len(verrs)))
	}

	var sets []map[string][]ir.Tuple
	if factsPath != "" {
		facts, err := LoadFacts(factsPath)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "loading facts", err)
		}
		sets = append(sets, facts)
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "opening fact database", err)
		}
		facts, err := st.LoadBaseFacts(context.Background())
		st.Close()
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "loading facts from database", err)
		}
		sets = append(sets, facts)
	}

	graph := compiler.AnalyzeRuleGraph(loaded.Rules)
	eng := engine.New(graph,
		engine.WithMaxIterations(maxIterations),
		engine.WithLogger(newLogger(rootOpts, cmd.ErrOrStderr())))

	res, err := eng.ComputeDeductions(MergeFacts(sets...))
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "evaluation failed", err)
	}
	return loaded.Rules, res, nil
}

func buildEvalReport(rules []ir.Rule, res *engine.Result, relation string, showBase bool) (EvalReport, error) {
	hash, err := ir.RuleSetHash(rules)
	if err != nil {
		return EvalReport{}, err
	}

	report := EvalReport{RuleSetHash: hash, Derived: res.DerivedCount()}
	for _, name := range res.Relations() {
		if relation != "" && name != relation {
			continue
		}
		rel := RelationReport{Relation: name}
		for _, f := range res.Relation(name).Facts() {
			if f.Base && !showBase {
				continue
			}
			rel.Tuples = append(rel.Tuples, newTupleReport(f))
		}
		if len(rel.Tuples) > 0 {
			report.Relations = append(report.Relations, rel)
		}
	}
	return report, nil
}

func newTupleReport(f *engine.Derived) TupleReport {
	vals := make([]any, len(f.Tuple))
	for i, v := range f.Tuple {
		vals[i] = ir.GoValue(v)
	}
	return TupleReport{
		Tuple:      vals,
		Key:        f.Key,
		Base:       f.Base,
		Deductions: len(f.Deductions),
		text:       f.Tuple.String(),
	}
}

func writeEvalText(w io.Writer, report EvalReport) {
	for _, rel := range report.Relations {
		for _, row := range rel.Tuples {
			fmt.Fprintf(w, "%s%s\n", rel.Relation, row.text)
		}
	}
	fmt.Fprintf(w, "%d derived\n", report.Derived)
}
