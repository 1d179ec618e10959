package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/ir"
)

// LoadMode controls how errors are handled during rule loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading rules from a directory.
type LoadResult struct {
	Rules     []ir.Rule
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during rule loading.
type LoadError struct {
	Code    string
	Message string
	Path    string // CUE path of the offending value, if known
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeDBFailed    = "E007" // Database error

	// Rule extraction errors
	ErrCodeNoRules     = "E011" // rules list missing or empty
	ErrCodeBadRule     = "E012" // rule is not a struct of the expected shape
	ErrCodeBadTerm     = "E013" // argument is not a string/int/bool
	ErrCodeFloatTerm   = "E014" // argument is a float
	ErrCodeBadFacts    = "E015" // facts file malformed
)

// LoadRules loads rule definitions from every CUE file in a directory.
//
// The expected shape is a top-level `rules` list:
//
//	rules: [{
//		id:   "gp"
//		head: {rel: "grandparent", args: ["?x", "?z"]}
//		body: [
//			{rel: "parent", args: ["?x", "?y"]},
//			{rel: "parent", args: ["?y", "?z"]},
//			{not: true, rel: "hidden", args: ["?x"]},
//		]
//	}]
//
// String arguments with a leading "?" are variables; strings, integers,
// and booleans are constants. Floats are rejected.
func LoadRules(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	rulesVal := value.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoRules, Message: "no top-level rules list found"}}
	}

	iter, err := rulesVal.List()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeNoRules, Message: fmt.Sprintf("rules is not a list: %v", err)}}
	}

	for i := 0; iter.Next(); i++ {
		rule, ruleErr := decodeRule(iter.Value(), fmt.Sprintf("rules[%d]", i))
		if ruleErr != nil {
			errs = append(errs, ruleErr)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Rules = append(result.Rules, rule)
	}

	if len(result.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRules, Message: "rules list is empty"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// decodeRule converts one CUE rule struct into a compiled ir.Rule.
func decodeRule(v cue.Value, path string) (ir.Rule, error) {
	var id string
	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		s, err := idVal.String()
		if err != nil {
			return ir.Rule{}, &LoadError{Code: ErrCodeBadRule, Path: path + ".id", Message: fmt.Sprintf("id must be a string: %v", err)}
		}
		id = s
	}

	head, err := decodeAtom(v.LookupPath(cue.ParsePath("head")), path+".head")
	if err != nil {
		return ir.Rule{}, err
	}

	var body []ir.Literal
	if bodyVal := v.LookupPath(cue.ParsePath("body")); bodyVal.Exists() {
		iter, listErr := bodyVal.List()
		if listErr != nil {
			return ir.Rule{}, &LoadError{Code: ErrCodeBadRule, Path: path + ".body", Message: fmt.Sprintf("body is not a list: %v", listErr)}
		}
		for i := 0; iter.Next(); i++ {
			lit, litErr := decodeLiteral(iter.Value(), fmt.Sprintf("%s.body[%d]", path, i))
			if litErr != nil {
				return ir.Rule{}, litErr
			}
			body = append(body, lit)
		}
	}

	return compiler.CompileRule(id, head, body), nil
}

// decodeLiteral decodes a body entry: an atom plus an optional `not` flag.
func decodeLiteral(v cue.Value, path string) (ir.Literal, error) {
	negated := false
	if notVal := v.LookupPath(cue.ParsePath("not")); notVal.Exists() {
		b, err := notVal.Bool()
		if err != nil {
			return ir.Literal{}, &LoadError{Code: ErrCodeBadRule, Path: path + ".not", Message: fmt.Sprintf("not must be a bool: %v", err)}
		}
		negated = b
	}

	atom, err := decodeAtom(v, path)
	if err != nil {
		return ir.Literal{}, err
	}
	return ir.Literal{Atom: atom, Negated: negated}, nil
}

// decodeAtom decodes {rel: string, args: [...]}.
func decodeAtom(v cue.Value, path string) (ir.Atom, error) {
	if !v.Exists() {
		return ir.Atom{}, &LoadError{Code: ErrCodeBadRule, Path: path, Message: "missing atom"}
	}

	relVal := v.LookupPath(cue.ParsePath("rel"))
	rel, err := relVal.String()
	if err != nil {
		return ir.Atom{}, &LoadError{Code: ErrCodeBadRule, Path: path + ".rel", Message: fmt.Sprintf("rel must be a string: %v", err)}
	}

	atom := ir.Atom{Relation: rel}
	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return atom, nil
	}

	iter, err := argsVal.List()
	if err != nil {
		return ir.Atom{}, &LoadError{Code: ErrCodeBadRule, Path: path + ".args", Message: fmt.Sprintf("args is not a list: %v", err)}
	}
	for i := 0; iter.Next(); i++ {
		term, termErr := decodeTerm(iter.Value(), fmt.Sprintf("%s.args[%d]", path, i))
		if termErr != nil {
			return ir.Atom{}, termErr
		}
		atom.Args = append(atom.Args, term)
	}
	return atom, nil
}

// decodeTerm decodes one argument. "?name" strings are variables, other
// strings, ints, and bools are constants. Floats are rejected up front -
// they would break value identity downstream.
func decodeTerm(v cue.Value, path string) (ir.Term, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadTerm, Path: path, Message: err.Error()}
		}
		if strings.HasPrefix(s, "?") {
			return ir.Variable{Name: strings.TrimPrefix(s, "?")}, nil
		}
		return ir.Constant{Value: ir.String(s)}, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadTerm, Path: path, Message: err.Error()}
		}
		return ir.Constant{Value: ir.Int(n)}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadTerm, Path: path, Message: err.Error()}
		}
		return ir.Constant{Value: ir.Bool(b)}, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &LoadError{Code: ErrCodeFloatTerm, Path: path, Message: "floats are forbidden in rule arguments"}
	default:
		return nil, &LoadError{Code: ErrCodeBadTerm, Path: path, Message: fmt.Sprintf("unsupported argument kind %v", v.Kind())}
	}
}
