package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDCommand(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "next-id", "--db", db, "--doc", seedDoc, "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, "SPDXRef-gnrtd0\nSPDXRef-gnrtd1\n", out)

	// Reservations persist in the file, so a second process continues.
	out, _, err = execute(t, "next-id", "--db", db, "--doc", seedDoc)
	require.NoError(t, err)
	assert.Equal(t, "SPDXRef-gnrtd2\n", out)
}

func TestNextIDCommand_Kinds(t *testing.T) {
	db := seedDatabase(t)

	tests := []struct {
		kind string
		want string
	}{
		{"licenseref", "LicenseRef-gnrtd0\n"},
		{"DocumentRef", "DocumentRef-gnrtd0\n"},
		{"Anonymous", "__anon__gnrtd0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, _, err := execute(t, "next-id", "--db", db, "--doc", seedDoc, "--kind", tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestNextIDCommand_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "--format", "json", "next-id", "--db", db, "--doc", seedOther)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"ids":["SPDXRef-gnrtd0"]}}`, out)
}

func TestNextIDCommand_NotGeneratable(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(t, "next-id", "--db", db, "--doc", seedDoc, "--kind", "ListedLicense")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_INPUT]")
}

func TestNextIDCommand_CommandErrors(t *testing.T) {
	db := seedDatabase(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown kind", []string{"--db", db, "--doc", seedDoc, "--kind", "Bogus"}, "invalid --kind"},
		{"zero count", []string{"--db", db, "--doc", seedDoc, "-n", "0"}, "--count must be at least 1"},
		{"missing db", []string{"--doc", seedDoc}, "--db is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"next-id"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
