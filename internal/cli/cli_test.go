package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execCommand runs the CLI with args and captures stdout/stderr.
func execCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeRulesDir writes one CUE rule file into a fresh directory.
func writeRulesDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.cue"), []byte(content), 0o644))
	return dir
}

// writeFactsFile writes a YAML facts file into a fresh directory.
func writeFactsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const ancestryRules = `package rules

rules: [
	{
		id:   "gp"
		head: {rel: "grandparent", args: ["?x", "?z"]}
		body: [
			{rel: "parent", args: ["?x", "?y"]},
			{rel: "parent", args: ["?y", "?z"]},
		]
	},
]
`

const ancestryFacts = `parent:
  - [ann, bob]
  - [bob, cal]
`
