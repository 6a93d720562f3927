package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureScenarios = "../harness/testdata/scenarios"
	fixtureGolden    = "../harness/testdata/golden"
)

const failingScenario = `
name: failing
description: The second create must fail
document: https://example.com/doc
steps:
  - {op: create, id: SPDXRef-1, type: Package}
  - {op: create, id: SPDXRef-1, type: Package}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommand_Fixtures(t *testing.T) {
	for _, backend := range ValidBackends {
		t.Run(backend, func(t *testing.T) {
			out, _, err := execute(t, "run", fixtureScenarios, "--backend", backend, "--golden", fixtureGolden)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ package_licenses")
			assert.Contains(t, out, "✓ kind_conflicts")
			assert.Contains(t, out, "✓ id_generation")
			assert.Contains(t, out, "3 passed, 0 failed, 3 total")
		})
	}
}

func TestRunCommand_SingleFileWithDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "run.db")
	out, _, err := execute(t, "run", filepath.Join(fixtureScenarios, "package_licenses.yaml"),
		"--backend", "sqlite", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed")

	// The database keeps the scenario's final state.
	dump, _, err := execute(t, "dump", "--db", db)
	require.NoError(t, err)
	assert.NotEmpty(t, dump)
}

func TestRunCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "run", fixtureScenarios, "--filter", "kind_*")
	require.NoError(t, err)

	var result RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "kind_conflicts", result.Scenarios[0].Name)
}

func TestRunCommand_Failure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingScenario)

	out, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "step 1 (create): unexpected error already_exists")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestRunCommand_UpdateThenCompare(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")
	scenario := filepath.Join(fixtureScenarios, "id_generation.yaml")

	out, _, err := execute(t, "run", scenario, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	written, err := os.ReadFile(filepath.Join(golden, "id_generation.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(fixtureGolden, "id_generation.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	_, _, err = execute(t, "run", scenario, "--golden", golden)
	require.NoError(t, err)
}

func TestRunCommand_GoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	writeFile(t, golden, "id_generation.golden", `{"trace":[]}`)

	out, _, err := execute(t, "run", filepath.Join(fixtureScenarios, "id_generation.yaml"), "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestRunCommand_MissingGoldenIsNotAFailure(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join(fixtureScenarios, "id_generation.yaml"), "--golden", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "no golden file")
}

func TestRunCommand_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeFile(t, dir, "invalid.yaml", "name: x\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing path", []string{"run", filepath.Join(dir, "absent")}, "scenario path not found"},
		{"unknown backend", []string{"run", fixtureScenarios, "--backend", "postgres"}, "unknown backend"},
		{"update without golden", []string{"run", fixtureScenarios, "--update"}, "--update requires --golden"},
		{"db with many scenarios", []string{"run", fixtureScenarios, "--backend", "sqlite", "--db", filepath.Join(dir, "x.db")}, "single scenario"},
		{"invalid scenario", []string{"run", invalid}, "invalid scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunCommand_MemoryBackendRejectsDatabase(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(fixtureScenarios, "id_generation.yaml"),
		"--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--db is only valid with --backend sqlite")
}

func TestRunCommand_EmptyDirectory(t *testing.T) {
	out, _, err := execute(t, "run", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunCommand_VerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, "-v", "run", filepath.Join(fixtureScenarios, "id_generation.yaml"))
	require.NoError(t, err)
	assert.Contains(t, errOut, "step executed")
	assert.Contains(t, errOut, "id_generation")
	assert.NotContains(t, out, "step executed")
}

func TestValidateCommand(t *testing.T) {
	out, _, err := execute(t, "validate", fixtureScenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 3 scenario(s) valid")
}

func TestValidateCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.yaml", failingScenario)
	bad := writeFile(t, dir, "bad.yaml", "name: x\ndescription: d\ndocument: https://example.com/doc\nsteps: [{op: delete, id: SPDXRef-1}]\n")

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, bad)
	assert.Contains(t, out, "does not match schema")
}

func TestValidateCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: [unclosed")

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Files)
	require.Len(t, resp.Data.Errors, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
}

func TestValidateCommand_NoFiles(t *testing.T) {
	_, _, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
