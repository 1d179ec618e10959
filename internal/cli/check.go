package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/ir"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Rules  string
	Strict bool
}

// UnsafeRule describes one rule skipped by evaluation, with the variables
// that made it unsafe.
type UnsafeRule struct {
	RuleID  string   `json:"rule_id"`
	Rule    string   `json:"rule"`
	Unbound []string `json:"unbound"`
}

// CheckReport holds the complete check output.
type CheckReport struct {
	Rules       int                        `json:"rules"`
	Relations   int                        `json:"relations"`
	Components  int                        `json:"components"`
	RuleSetHash string                     `json:"ruleset_hash"`
	Validation  []compiler.ValidationError `json:"validation,omitempty"`
	Unsafe      []UnsafeRule               `json:"unsafe,omitempty"`
	Warnings    []compiler.StratumWarning  `json:"warnings,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate and analyze a rule set",
		Long: `Load rules from CUE files, validate their shape, run safety analysis,
and stratify the dependency graph.

Reports:
- Structural validation errors (bad names, arity conflicts, duplicate ids)
- Unsafe rules (variables not bound by any positive literal), which
  evaluation will silently skip
- Stratification findings: recursive components (info) and negation inside
  a recursive component (warning)

With --strict, unsafe rules and negation warnings fail the command.

Examples:
  strata check --rules ./rules
  strata check --rules ./rules --strict --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "directory of CUE rule files (required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on unsafe rules and stratification warnings")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	p := newPrinter(opts.RootOptions, cmd)

	result, errs := LoadRules(opts.Rules, LoadModeCollectAll)
	if len(errs) > 0 {
		return reportLoadErrors(p, errs)
	}
	p.tracef("loaded %d rules from %d files", len(result.Rules), result.FileCount)

	report, err := buildCheckReport(result.Rules)
	if err != nil {
		return WrapExitError(ExitCommandError, "analyzing rules", err)
	}

	if err := p.report(report, func(w io.Writer) {
		writeCheckText(w, report)
	}); err != nil {
		return err
	}

	if len(report.Validation) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation errors", len(report.Validation)))
	}
	if opts.Strict && (len(report.Unsafe) > 0 || countWarnings(report.Warnings) > 0) {
		return NewExitError(ExitFailure, "strict check failed")
	}
	return nil
}

func buildCheckReport(rules []ir.Rule) (CheckReport, error) {
	hash, err := ir.RuleSetHash(rules)
	if err != nil {
		return CheckReport{}, err
	}

	graph := compiler.AnalyzeRuleGraph(rules)
	report := CheckReport{
		Rules:       len(rules),
		Relations:   len(graph.Relations),
		Components:  len(graph.Components),
		RuleSetHash: hash,
		Validation:  compiler.ValidateRules(rules),
		Warnings:    graph.StratumWarnings(),
	}

	for _, rule := range rules {
		if !rule.Safe() {
			report.Unsafe = append(report.Unsafe, UnsafeRule{
				RuleID:  rule.ID,
				Rule:    rule.String(),
				Unbound: rule.Unbound,
			})
		}
	}
	return report, nil
}

func countWarnings(warnings []compiler.StratumWarning) int {
	n := 0
	for _, w := range warnings {
		if w.Level == "warning" {
			n++
		}
	}
	return n
}

func writeCheckText(w io.Writer, report CheckReport) {
	fmt.Fprintf(w, "rules: %d  relations: %d  components: %d\n", report.Rules, report.Relations, report.Components)
	fmt.Fprintf(w, "ruleset: %s\n", report.RuleSetHash)

	for _, v := range report.Validation {
		fmt.Fprintf(w, "invalid: %s\n", v.Error())
	}
	for _, u := range report.Unsafe {
		fmt.Fprintf(w, "unsafe: %s (unbound: %s) - rule will be skipped\n", u.Rule, strings.Join(u.Unbound, ", "))
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}
	if len(report.Validation) == 0 && len(report.Unsafe) == 0 && countWarnings(report.Warnings) == 0 {
		fmt.Fprintln(w, "ok")
	}
}

// reportLoadErrors prints load errors and picks the exit code: command
// errors for missing inputs, failure for malformed rules.
func reportLoadErrors(p *printer, errs []error) error {
	code := ExitFailure
	for _, err := range errs {
		var le *LoadError
		if errors.As(err, &le) {
			p.problem(le.Code, le.Message, le.Path)
			if le.Code == ErrCodeNotFound || le.Code == ErrCodeScanError {
				code = ExitCommandError
			}
			continue
		}
		p.problem(ErrCodeGeneric, err.Error(), nil)
	}
	return NewExitError(code, fmt.Sprintf("%d load errors", len(errs)))
}
