package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store/sqlstore"
)

const (
	seedDoc   = "https://example.com/doc"
	seedOther = "https://example.com/other"
)

// seedDatabase writes a small SPDX graph to a new database file:
// a package referencing a license, an unrelated file, and one object in a
// second document.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.db")
	st, err := sqlstore.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Create(seedDoc, "SPDXRef-pkg", "Package"))
	require.NoError(t, st.SetValue(seedDoc, "SPDXRef-pkg", "name", ir.String("libfoo")))
	require.NoError(t, st.AddValueToList(seedDoc, "SPDXRef-pkg", "licenses", ir.Ref(seedDoc, "LicenseRef-1", "License")))
	require.NoError(t, st.Create(seedDoc, "LicenseRef-1", "License"))
	require.NoError(t, st.SetValue(seedDoc, "LicenseRef-1", "licenseText", ir.String("MIT")))
	require.NoError(t, st.Create(seedDoc, "SPDXRef-unrelated", "File"))
	require.NoError(t, st.Create(seedOther, "SPDXRef-doc", "SpdxDocument"))
	return path
}

func TestDumpCommand_Document(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "dump", "--db", db, "--doc", seedDoc)
	require.NoError(t, err)
	assert.Equal(t,
		"https://example.com/doc#LicenseRef-1 (License)\n"+
			"  licenseText = \"MIT\"\n"+
			"https://example.com/doc#SPDXRef-pkg (Package)\n"+
			"  name = \"libfoo\"\n"+
			"  licenses[] = [{\"ref\":{\"document_uri\":\"https://example.com/doc\",\"id\":\"LicenseRef-1\",\"type\":\"License\"}}]\n"+
			"https://example.com/doc#SPDXRef-unrelated (File)\n",
		out)
}

func TestDumpCommand_AllDocuments(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "dump", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com/doc#SPDXRef-pkg (Package)")
	assert.Contains(t, out, "https://example.com/other#SPDXRef-doc (SpdxDocument)")
}

func TestDumpCommand_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "--format", "json", "dump", "--db", db, "--doc", seedOther)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Objects []map[string]any `json:"objects"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Objects, 1)
	assert.Equal(t, "SPDXRef-doc", resp.Data.Objects[0]["id"])
	assert.Equal(t, "SpdxDocument", resp.Data.Objects[0]["type"])
}

func TestDumpCommand_UnknownDocumentIsEmpty(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "dump", "--db", db, "--doc", "https://example.com/none")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDumpCommand_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing flag", []string{"dump"}, "--db is required"},
		{"missing file", []string{"dump", "--db", filepath.Join(t.TempDir(), "absent.db")}, "database not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, out, "Error [ERROR]")
		})
	}
}
