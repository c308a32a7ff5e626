package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: pass
description: small holds the records below three
collections: [library]
records:
  - ref: a
    attrs: {id: a, number: 1}
  - ref: b
    attrs: {id: b, number: 5}
subsets:
  - name: small
    parent: library
    filter: r.number < 3
steps:
  - op: add
    target: library
    records: [a, b]
assertions:
  - type: order
    target: small
    records: [a]
`

const failingScenario = `
name: fail
description: expects too much
collections: [library]
records:
  - ref: a
    attrs: {id: a, number: 9}
subsets:
  - name: small
    parent: library
    filter: r.number < 3
steps:
  - op: add
    target: library
    records: [a]
assertions:
  - type: contains
    target: small
    records: [a]
`

const invalidScenario = `
name: invalid
description: unknown parent
collections: [library]
subsets:
  - name: small
    parent: shelf
assertions:
  - type: length
    target: library
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeBoth(t, cmd, args...)
	return out, err
}

// executeBoth runs cmd with args and returns stdout and stderr.
func executeBoth(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
