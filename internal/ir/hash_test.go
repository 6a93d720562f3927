package ir

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObject() Object {
	obj := NewObject("https://example/doc1", "SPDXRef-1", "Package")
	obj.Values["name"] = String("libfoo")
	obj.Lists["licenses"] = []Value{
		Ref("https://example/doc1", "LicenseRef-1", "License"),
		Ref("https://example/doc1", "LicenseRef-1", "License"),
	}
	return obj
}

func TestDigestObjectFormat(t *testing.T) {
	digest, err := DigestObject(sampleObject())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), digest)
}

func TestDigestObjectDeterministic(t *testing.T) {
	d1, err := DigestObject(sampleObject())
	require.NoError(t, err)
	d2, err := DigestObject(sampleObject())
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestDigestObjectSensitivity(t *testing.T) {
	base, err := DigestObject(sampleObject())
	require.NoError(t, err)

	changes := map[string]func(o *Object){
		"type":           func(o *Object) { o.Type = "File" },
		"value":          func(o *Object) { o.Values["name"] = String("libbar") },
		"value kind":     func(o *Object) { o.Values["name"] = Int(1) },
		"list contents":  func(o *Object) { o.Lists["licenses"] = append(o.Lists["licenses"], Bool(true)) },
		"scalar to list": func(o *Object) { delete(o.Values, "name"); o.Lists["name"] = []Value{String("libfoo")} },
	}

	for name, mutate := range changes {
		t.Run(name, func(t *testing.T) {
			obj := sampleObject()
			mutate(&obj)
			d, err := DigestObject(obj)
			require.NoError(t, err)
			assert.NotEqual(t, base, d)
		})
	}
}
