package harness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/engine"
	"github.com/roach88/strata/internal/ir"
)

// Scenario defines a conformance test scenario: a rule set evaluated over
// base facts, with assertions on the derived tuples.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules holds the rule definitions. Argument strings with a leading
	// "?" are variables, everything else is a constant.
	Rules []RuleSpec `yaml:"rules"`

	// Facts maps relation names to base tuple rows.
	Facts map[string][][]any `yaml:"facts,omitempty"`

	// Assertions validate the evaluated result.
	// Supported types: contains, absent, count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RuleSpec is the YAML shape of one rule.
type RuleSpec struct {
	ID   string        `yaml:"id"`
	Head AtomSpec      `yaml:"head"`
	Body []LiteralSpec `yaml:"body,omitempty"`
}

// AtomSpec is the YAML shape of an atom.
type AtomSpec struct {
	Rel  string `yaml:"rel"`
	Args []any  `yaml:"args,omitempty"`
}

// LiteralSpec is a body atom with an optional negation flag.
type LiteralSpec struct {
	AtomSpec `yaml:",inline"`
	Not      bool `yaml:"not,omitempty"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	return &s, nil
}

// Run compiles the scenario's rules and evaluates them over its facts.
func Run(s *Scenario) (*engine.Result, error) {
	rules, err := s.compileRules()
	if err != nil {
		return nil, err
	}
	if verrs := compiler.ValidateRules(rules); len(verrs) > 0 {
		return nil, fmt.Errorf("scenario %s: %s", s.Name, verrs[0].Error())
	}

	base, err := s.baseFacts()
	if err != nil {
		return nil, err
	}

	return engine.New(compiler.AnalyzeRuleGraph(rules)).ComputeDeductions(base)
}

func (s *Scenario) compileRules() ([]ir.Rule, error) {
	rules := make([]ir.Rule, 0, len(s.Rules))
	for i, spec := range s.Rules {
		head, err := spec.Head.atom(fmt.Sprintf("rules[%d].head", i))
		if err != nil {
			return nil, err
		}
		var body []ir.Literal
		for j, lit := range spec.Body {
			atom, err := lit.atom(fmt.Sprintf("rules[%d].body[%d]", i, j))
			if err != nil {
				return nil, err
			}
			body = append(body, ir.Literal{Atom: atom, Negated: lit.Not})
		}
		rules = append(rules, compiler.CompileRule(spec.ID, head, body))
	}
	return rules, nil
}

func (a AtomSpec) atom(field string) (ir.Atom, error) {
	atom := ir.Atom{Relation: a.Rel, Args: make([]ir.Term, len(a.Args))}
	for i, arg := range a.Args {
		if s, ok := arg.(string); ok && strings.HasPrefix(s, "?") {
			atom.Args[i] = ir.Variable{Name: strings.TrimPrefix(s, "?")}
			continue
		}
		v, err := ir.ValueOf(arg)
		if err != nil {
			return ir.Atom{}, fmt.Errorf("%s.args[%d]: %w", field, i, err)
		}
		atom.Args[i] = ir.Constant{Value: v}
	}
	return atom, nil
}

func (s *Scenario) baseFacts() (map[string][]ir.Tuple, error) {
	base := make(map[string][]ir.Tuple, len(s.Facts))
	for relation, rows := range s.Facts {
		for i, row := range rows {
			t, err := ir.TupleOf(row...)
			if err != nil {
				return nil, fmt.Errorf("facts.%s[%d]: %w", relation, i, err)
			}
			base[relation] = append(base[relation], t)
		}
	}
	return base, nil
}
