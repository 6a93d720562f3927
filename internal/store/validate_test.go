package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spdxstore/internal/ir"
)

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("op", "https://example/doc", "SPDXRef-1"))

	err := ValidateKey("op", "", "SPDXRef-1")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	err = ValidateKey("op", "https://example/doc", "")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.Contains(t, err.Error(), "document=https://example/doc")
}

func TestValidateType(t *testing.T) {
	for _, ok := range []string{"Package", "ExtractedLicensingInfo", "SpdxDocument"} {
		assert.NoError(t, ValidateType("op", ok), ok)
	}
	for _, bad := range []string{"", "Pack age", "Package\n", "\tFile"} {
		assert.True(t, IsInvalidInput(ValidateType("op", bad)), "%q", bad)
	}
}

func TestValidateValue(t *testing.T) {
	valid := []ir.Value{
		ir.String(""),
		ir.Bool(false),
		ir.Int(0),
		ir.Ref("https://example/doc", "SPDXRef-1", "File"),
		ir.String("Cafe\u0301"),
		ir.Ref("https://example/doc", "SPDXRef-e\u0301", "File"),
	}
	for _, v := range valid {
		assert.NoError(t, ValidateValue("op", v), "%#v", v)
	}

	invalid := []ir.Value{
		nil,
		ir.Ref("", "SPDXRef-1", "File"),
		ir.Ref("https://example/doc", "", "File"),
		ir.Ref("https://example/doc", "SPDXRef-1", ""),
		ir.Ref("https://example/doc", "SPDXRef-1", "Bad Type"),
		ir.String("a\xffb"),
		ir.Ref("https://example/doc", "SPDXRef-\xff", "File"),
	}
	for _, v := range invalid {
		assert.True(t, IsInvalidInput(ValidateValue("op", v)), "%#v", v)
	}
}

func TestValidateIDKind(t *testing.T) {
	for _, kind := range []ir.IDType{ir.LicenseRef, ir.DocumentRef, ir.SpdxID, ir.Anonymous} {
		assert.NoError(t, ValidateIDKind("op", kind), kind.String())
	}
	for _, kind := range []ir.IDType{ir.ListedLicense, ir.Literal, ir.IDType(0), ir.IDType(42)} {
		assert.True(t, IsInvalidInput(ValidateIDKind("op", kind)), kind.String())
	}
}

func TestValidatePropertyOp(t *testing.T) {
	assert.NoError(t, ValidatePropertyOp("op", "d", "i", "name"))
	assert.True(t, IsInvalidInput(ValidatePropertyOp("op", "d", "i", "")))
	assert.True(t, IsInvalidInput(ValidatePropertyOp("op", "", "i", "name")))
}

func TestGenerateID(t *testing.T) {
	taken := map[string]bool{
		ir.FormatGeneratedID(ir.SpdxID, 3): true,
		ir.FormatGeneratedID(ir.SpdxID, 4): true,
	}
	isTaken := func(id string) (bool, error) { return taken[id], nil }

	id, next, err := GenerateID(ir.SpdxID, 0, isTaken)
	require.NoError(t, err)
	assert.Equal(t, "SPDXRef-gnrtd0", id)
	assert.Equal(t, int64(1), next)

	id, next, err = GenerateID(ir.SpdxID, 3, isTaken)
	require.NoError(t, err)
	assert.Equal(t, "SPDXRef-gnrtd5", id)
	assert.Equal(t, int64(6), next)
}

func TestGenerateID_PropagatesErrors(t *testing.T) {
	boom := assert.AnError
	_, next, err := GenerateID(ir.LicenseRef, 7, func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(7), next, "counter must not advance on error")
}
