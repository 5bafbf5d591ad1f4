package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func runTestCommand(t *testing.T, args ...string) (int, string) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Run(context.Background(), append([]string{"test"}, args...), stdout, stderr)
	return code, stdout.String() + stderr.String()
}

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

const passingScenario = `name: tiny
description: "One insert"
flow:
  - op: insert
    triple: { subject: "<ex:a>", predicate: ex:p, object: { integer: 1 } }
assertions:
  - type: final_count
    count: 1
`

func TestTestCommandMissingArgs(t *testing.T) {
	code, out := runTestCommand(t)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	code, out := runTestCommand(t, "/nonexistent/scenarios")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommandUnknownBackend(t *testing.T) {
	code, out := runTestCommand(t, harnessScenarios, "--backends", "postgres")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, `backend "postgres" not available`)
}

func TestTestCommandEmptyDir(t *testing.T) {
	code, out := runTestCommand(t, t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	code, out := runTestCommand(t, harnessScenarios, "--backends", "memory,sqlite,badger")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "✓ people [memory]")
	assert.Contains(t, out, "✓ traversal [sqlite]")
	assert.Contains(t, out, "✓ values [badger]")
	assert.Contains(t, out, "Test Summary: 9 passed, 0 failed, 9 total")
}

func TestTestCommandFilter(t *testing.T) {
	code, out := runTestCommand(t, harnessScenarios, "--backends", "memory", "--filter", "trav*")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "✓ traversal [memory]")
	assert.NotContains(t, out, "people")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	writeScenario(t, scenarios, "tiny.yaml", passingScenario)

	code, out := runTestCommand(t, scenarios, "--backends", "memory,sqlite", "--update")
	require.Equal(t, ExitSuccess, code, out)

	golden, err := os.ReadFile(filepath.Join(root, "golden", "tiny.golden"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"tiny","trace":[{"input":"<ex:a> <ex:p> 1 .","op":"insert","outcome":"ok","step":1}]}`,
		string(golden))

	code, out = runTestCommand(t, scenarios, "--backends", "memory,sqlite")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "2 passed")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	writeScenario(t, scenarios, "tiny.yaml", passingScenario)
	writeScenario(t, filepath.Join(root, "golden"), "tiny.golden", `{"scenario_name":"tiny","trace":[]}`)

	code, out := runTestCommand(t, scenarios, "--backends", "memory")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "✗ tiny [memory]")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong.yaml", `name: wrong
description: "Wrong final count"
flow:
  - op: count
assertions:
  - type: final_count
    count: 5
`)
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Run(context.Background(), []string{"test", dir, "--backends", "memory", "--format", "json"}, stdout, stderr)
	assert.Equal(t, ExitFailure, code)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp), "exactly one JSON document: %s", stdout.String())
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Failed)

	// Files run in name order.
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
	assert.Equal(t, "wrong", resp.Data.Scenarios[1].Name)
	assert.Equal(t, "memory", resp.Data.Scenarios[1].Backend)
}

func TestSelectBackends(t *testing.T) {
	kinds, err := selectBackends(nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(kinds), 3)

	kinds, err = selectBackends([]string{" SQLite ", "memory"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(kinds[0]))
	assert.Equal(t, "memory", string(kinds[1]))
}
