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

func objectIDs(t *testing.T, path, documentURI string) []string {
	t.Helper()
	st, err := sqlstore.Open(path)
	require.NoError(t, err)
	defer st.Close()
	ids, err := st.ObjectIDs(documentURI)
	require.NoError(t, err)
	return ids
}

func TestCopyCommand_SingleObject(t *testing.T) {
	src := seedDatabase(t)
	dst := filepath.Join(t.TempDir(), "dst.db")

	out, _, err := execute(t, "copy", "--from", src, "--to", dst, "--doc", seedDoc, "--id", "SPDXRef-pkg")
	require.NoError(t, err)
	assert.Equal(t, "copied https://example.com/doc#SPDXRef-pkg\n", out)

	// The license reference is copied as a value; its target is not.
	assert.Equal(t, []string{"SPDXRef-pkg"}, objectIDs(t, dst, seedDoc))
}

func TestCopyCommand_Recursive(t *testing.T) {
	src := seedDatabase(t)
	dst := filepath.Join(t.TempDir(), "dst.db")

	out, _, err := execute(t, "copy", "--from", src, "--to", dst, "--doc", seedDoc, "--id", "SPDXRef-pkg", "--recursive")
	require.NoError(t, err)
	assert.Equal(t,
		"copied https://example.com/doc#LicenseRef-1\n"+
			"copied https://example.com/doc#SPDXRef-pkg\n",
		out)
	assert.Equal(t, []string{"LicenseRef-1", "SPDXRef-pkg"}, objectIDs(t, dst, seedDoc))

	// Copies are faithful: digests match between the two files.
	srcDigests, _, err := execute(t, "digest", "--db", src, "--doc", seedDoc, "--id", "SPDXRef-pkg")
	require.NoError(t, err)
	dstDigests, _, err := execute(t, "digest", "--db", dst, "--doc", seedDoc, "--id", "SPDXRef-pkg")
	require.NoError(t, err)
	assert.Equal(t, srcDigests, dstDigests)
}

func TestCopyCommand_Document(t *testing.T) {
	src := seedDatabase(t)
	dst := filepath.Join(t.TempDir(), "dst.db")

	out, _, err := execute(t, "--format", "json", "copy", "--from", src, "--to", dst, "--doc", seedDoc)
	require.NoError(t, err)

	var resp struct {
		Data CopyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []ir.ObjectKey{
		{DocumentURI: seedDoc, ID: "LicenseRef-1"},
		{DocumentURI: seedDoc, ID: "SPDXRef-pkg"},
		{DocumentURI: seedDoc, ID: "SPDXRef-unrelated"},
	}, resp.Data.Copied)
	assert.Equal(t, []string{"LicenseRef-1", "SPDXRef-pkg", "SPDXRef-unrelated"}, objectIDs(t, dst, seedDoc))
	assert.Empty(t, objectIDs(t, dst, seedOther))
}

func TestCopyCommand_StoreErrors(t *testing.T) {
	src := seedDatabase(t)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing object", []string{"--id", "SPDXRef-absent"}, "NOT_FOUND"},
		{"wrong type", []string{"--id", "SPDXRef-pkg", "--type", "File"}, "TYPE_CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "dst.db")
			args := append([]string{"copy", "--from", src, "--to", dst, "--doc", seedDoc}, tt.args...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestCopyCommand_CommandErrors(t *testing.T) {
	src := seedDatabase(t)
	dst := filepath.Join(t.TempDir(), "dst.db")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing to", []string{"copy", "--from", src, "--doc", seedDoc}, "--to is required"},
		{"missing doc", []string{"copy", "--from", src, "--to", dst}, "--doc is required"},
		{"missing from", []string{"copy", "--to", dst, "--doc", seedDoc}, "--from is required"},
		{"recursive without id", []string{"copy", "--from", src, "--to", dst, "--doc", seedDoc, "--recursive"}, "require --id"},
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
