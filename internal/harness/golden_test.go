package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spdxstore/internal/store/sqlstore"
)

func TestRunWithGolden_Fixtures(t *testing.T) {
	for _, name := range []string{"package_licenses", "kind_conflicts", "id_generation"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

// The trace does not depend on the backend.
func TestRunWithGolden_SQLiteMatchesMemory(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "package_licenses.yaml"))
	require.NoError(t, err)

	st, err := sqlstore.Open(filepath.Join(t.TempDir(), "golden.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = RunWithGolden(t, scenario, WithStore(st))
	require.NoError(t, err)
}

func TestMarshalTrace_OmitsEmptyFields(t *testing.T) {
	data, err := MarshalTrace("x", "https://example/doc", []TraceEvent{
		{Step: 0, Op: OpExists, ID: "SPDXRef-1", Output: false},
		{Step: 1, Op: OpGet, ID: "SPDXRef-1", Property: "name", Absent: true},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"document":"https://example/doc","scenario_name":"x","trace":[`+
			`{"id":"SPDXRef-1","op":"exists","output":false,"step":0},`+
			`{"absent":true,"id":"SPDXRef-1","op":"get","property":"name","step":1}]}`,
		string(data))
}

func TestMarshalTrace_Empty(t *testing.T) {
	data, err := MarshalTrace("empty", "https://example/doc", []TraceEvent{})
	require.NoError(t, err)
	assert.Equal(t, `{"document":"https://example/doc","scenario_name":"empty","trace":[]}`, string(data))
}
