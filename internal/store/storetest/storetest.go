// Package storetest is the conformance suite every ModelStore backend runs.
//
// Usage from a backend's tests:
//
//	func TestContract(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) store.ModelStore { return memstore.New() })
//	}
package storetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// Factory returns a new, empty store. It registers its own cleanup.
type Factory func(t *testing.T) store.ModelStore

const (
	doc1 = "https://example/doc1"
	doc2 = "https://example/doc2"
)

// Run executes the full suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Create", func(t *testing.T) { testCreate(t, newStore) })
	t.Run("ExistenceGate", func(t *testing.T) { testExistenceGate(t, newStore) })
	t.Run("InvalidInput", func(t *testing.T) { testInvalidInput(t, newStore) })
	t.Run("ScalarValues", func(t *testing.T) { testScalarValues(t, newStore) })
	t.Run("TextFidelity", func(t *testing.T) { testTextFidelity(t, newStore) })
	t.Run("KindExclusivity", func(t *testing.T) { testKindExclusivity(t, newStore) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore) })
	t.Run("PropertyNames", func(t *testing.T) { testPropertyNames(t, newStore) })
	t.Run("RemoveProperty", func(t *testing.T) { testRemoveProperty(t, newStore) })
	t.Run("DocumentScoping", func(t *testing.T) { testDocumentScoping(t, newStore) })
	t.Run("NextID", func(t *testing.T) { testNextID(t, newStore) })
	t.Run("CopyFrom", func(t *testing.T) { testCopyFrom(t, newStore) })
	t.Run("CopyGraph", func(t *testing.T) { testCopyGraph(t, newStore) })
	t.Run("Snapshot", func(t *testing.T) { testSnapshot(t, newStore) })
	t.Run("Lister", func(t *testing.T) { testLister(t, newStore) })
	t.Run("Scenario", func(t *testing.T) { testScenario(t, newStore) })
	t.Run("Concurrency", func(t *testing.T) { testConcurrency(t, newStore) })
}

func requireCode(t *testing.T, err error, code store.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, store.CodeOf(err), "unexpected error: %v", err)
}

func licenseRef(id string) ir.TypedValue {
	return ir.Ref(doc1, id, "License")
}

func testCreate(t *testing.T, newStore Factory) {
	s := newStore(t)

	assert.False(t, s.Exists(doc1, "SPDXRef-1"))
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))
	assert.True(t, s.Exists(doc1, "SPDXRef-1"))

	typ, err := s.Type(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, "Package", typ)

	// Second create fails regardless of type, and the type is unchanged.
	for _, other := range []string{"Package", "File"} {
		err := s.Create(doc1, "SPDXRef-1", other)
		requireCode(t, err, store.CodeAlreadyExists)
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	}
	typ, err = s.Type(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, "Package", typ)

	// New objects start with no properties.
	names, err := s.PropertyValueNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Empty(t, names)
	listNames, err := s.PropertyValueListNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Empty(t, listNames)
}

func testExistenceGate(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-exists", "Package"))

	ops := map[string]func() error{
		"Type": func() error { _, err := s.Type(doc1, "SPDXRef-missing"); return err },
		"PropertyValueNames": func() error {
			_, err := s.PropertyValueNames(doc1, "SPDXRef-missing")
			return err
		},
		"PropertyValueListNames": func() error {
			_, err := s.PropertyValueListNames(doc1, "SPDXRef-missing")
			return err
		},
		"SetValue": func() error { return s.SetValue(doc1, "SPDXRef-missing", "name", ir.String("x")) },
		"ClearValueList": func() error { return s.ClearValueList(doc1, "SPDXRef-missing", "files") },
		"AddValueToList": func() error {
			return s.AddValueToList(doc1, "SPDXRef-missing", "files", ir.String("x"))
		},
		"ValueList": func() error { _, err := s.ValueList(doc1, "SPDXRef-missing", "files"); return err },
		"Value":     func() error { _, _, err := s.Value(doc1, "SPDXRef-missing", "name"); return err },
		"RemoveProperty": func() error { return s.RemoveProperty(doc1, "SPDXRef-missing", "name") },
		"OtherDocument": func() error {
			return s.SetValue(doc2, "SPDXRef-exists", "name", ir.String("x"))
		},
	}

	for name, fn := range ops {
		t.Run(name, func(t *testing.T) {
			err := fn()
			requireCode(t, err, store.CodeNotFound)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}

	// Property writes never create objects.
	assert.False(t, s.Exists(doc1, "SPDXRef-missing"))
	assert.False(t, s.Exists(doc2, "SPDXRef-exists"))
}

func testInvalidInput(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))

	ops := map[string]func() error{
		"create empty document": func() error { return s.Create("", "SPDXRef-2", "Package") },
		"create empty id":       func() error { return s.Create(doc1, "", "Package") },
		"create empty type":     func() error { return s.Create(doc1, "SPDXRef-2", "") },
		"create malformed type": func() error { return s.Create(doc1, "SPDXRef-2", "Pack age") },
		"set nil value":         func() error { return s.SetValue(doc1, "SPDXRef-1", "name", nil) },
		"set empty property":    func() error { return s.SetValue(doc1, "SPDXRef-1", "", ir.String("x")) },
		"add incomplete ref": func() error {
			return s.AddValueToList(doc1, "SPDXRef-1", "licenses", ir.Ref(doc1, "", "License"))
		},
		"add ref without type": func() error {
			return s.AddValueToList(doc1, "SPDXRef-1", "licenses", ir.Ref(doc1, "LicenseRef-1", ""))
		},
		"set invalid UTF-8": func() error {
			return s.SetValue(doc1, "SPDXRef-1", "name", ir.String("a\xffb"))
		},
		"add invalid UTF-8 ref": func() error {
			return s.AddValueToList(doc1, "SPDXRef-1", "licenses", ir.Ref(doc1, "LicenseRef-\xff", "License"))
		},
		"next id zero kind":      func() error { _, err := s.NextID(ir.IDType(0), doc1); return err },
		"next id listed":         func() error { _, err := s.NextID(ir.ListedLicense, doc1); return err },
		"next id literal":        func() error { _, err := s.NextID(ir.Literal, doc1); return err },
		"next id empty document": func() error { _, err := s.NextID(ir.SpdxID, ""); return err },
		"copy nil source":        func() error { return s.CopyFrom(doc1, "SPDXRef-1", "Package", nil) },
	}

	for name, fn := range ops {
		t.Run(name, func(t *testing.T) {
			err := fn()
			requireCode(t, err, store.CodeInvalidInput)
			assert.ErrorIs(t, err, store.ErrInvalidInput)
		})
	}

	assert.False(t, s.Exists("", "SPDXRef-2"))
	assert.False(t, s.Exists(doc1, ""))
	assert.False(t, s.Exists(doc1, "SPDXRef-2"))

	names, err := s.PropertyValueListNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Empty(t, names, "rejected appends must not create list slots")
}

func testScalarValues(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))

	v, ok, err := s.Value(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	values := map[string]ir.Value{
		"name":          ir.String("libfoo"),
		"filesAnalyzed": ir.Bool(false),
		"byteOffset":    ir.Int(-42),
		"supplier":      ir.Ref(doc2, "SPDXRef-org", "Organization"),
		"unicode":       ir.String("caf\u00e9 <&>"),
	}
	for name, val := range values {
		require.NoError(t, s.SetValue(doc1, "SPDXRef-1", name, val))
	}
	for name, want := range values {
		got, ok, err := s.Value(doc1, "SPDXRef-1", name)
		require.NoError(t, err)
		require.True(t, ok, name)
		assert.True(t, ir.Equal(want, got), "%s: want %v, got %v", name, want, got)
	}

	// Upsert replaces, including with a different kind of value.
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "name", ir.Int(7)))
	got, ok, err := s.Value(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ir.Int(7), got)

	// Dangling references are legal.
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "dangling", ir.Ref(doc1, "SPDXRef-nowhere", "File")))
	assert.False(t, s.Exists(doc1, "SPDXRef-nowhere"))
}

// Stored text comes back byte for byte; no Unicode normalization is applied.
func testTextFidelity(t *testing.T, newStore Factory) {
	s := newStore(t)
	decomposedID := "SPDXRef-e\u0301"
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))
	require.NoError(t, s.Create(doc1, decomposedID, "File"))

	name := ir.String("Cafe\u0301")
	ref := ir.Ref(doc1, decomposedID, "File")
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "name", name))
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "file", ref))
	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "files", ref))

	got, ok, err := s.Value(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, name, got)
	assert.Len(t, string(got.(ir.String)), 6)

	got, ok, err = s.Value(doc1, "SPDXRef-1", "file")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ref, got)

	list, err := s.ValueList(doc1, "SPDXRef-1", "files")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ref}, list)

	// The stored reference still resolves to the object it names.
	target := got.(ir.TypedValue)
	assert.True(t, s.Exists(target.DocumentURI, target.ID))

	t.Run("copy graph", func(t *testing.T) {
		dst := newStore(t)
		copied, err := store.CopyGraph(context.Background(), dst, s, doc1, "SPDXRef-1", "Package", store.CopyOptions{})
		require.NoError(t, err)
		assert.Equal(t, []ir.ObjectKey{
			{DocumentURI: doc1, ID: "SPDXRef-1"},
			{DocumentURI: doc1, ID: decomposedID},
		}, copied)
		assert.True(t, dst.Exists(doc1, decomposedID))

		got, ok, err := dst.Value(doc1, "SPDXRef-1", "name")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, name, got)
	})
}

func testKindExclusivity(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))

	// Scalar first: list operations conflict.
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "name", ir.String("libfoo")))
	err := s.AddValueToList(doc1, "SPDXRef-1", "name", ir.String("x"))
	requireCode(t, err, store.CodeTypeConflict)
	assert.ErrorIs(t, err, store.ErrTypeConflict)
	_, err = s.ValueList(doc1, "SPDXRef-1", "name")
	requireCode(t, err, store.CodeTypeConflict)

	// The failed append left the scalar intact.
	v, ok, err := s.Value(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ir.String("libfoo"), v)

	// List first (via append): scalar operations conflict.
	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "files", ir.String("a.c")))
	err = s.SetValue(doc1, "SPDXRef-1", "files", ir.String("x"))
	requireCode(t, err, store.CodeTypeConflict)
	_, _, err = s.Value(doc1, "SPDXRef-1", "files")
	requireCode(t, err, store.CodeTypeConflict)

	// List first (via clear): scalar operations conflict.
	require.NoError(t, s.ClearValueList(doc1, "SPDXRef-1", "checksums"))
	err = s.SetValue(doc1, "SPDXRef-1", "checksums", ir.String("x"))
	requireCode(t, err, store.CodeTypeConflict)

	// ClearValueList converts a scalar slot into an empty list slot.
	require.NoError(t, s.ClearValueList(doc1, "SPDXRef-1", "name"))
	vals, err := s.ValueList(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	assert.Empty(t, vals)
	names, err := s.PropertyValueNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.NotContains(t, names, "name")
	listNames, err := s.PropertyValueListNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Contains(t, listNames, "name")
}

func testListOrder(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))

	// Never-written slots read as empty, not as an error.
	vals, err := s.ValueList(doc1, "SPDXRef-1", "licenses")
	require.NoError(t, err)
	assert.NotNil(t, vals)
	assert.Empty(t, vals)

	want := []ir.Value{
		ir.String("v1"),
		licenseRef("LicenseRef-1"),
		ir.String("v1"),
		ir.Int(3),
		ir.Bool(true),
		licenseRef("LicenseRef-1"),
	}
	for _, v := range want {
		require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "licenses", v))
	}

	got, err := s.ValueList(doc1, "SPDXRef-1", "licenses")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValueList mismatch (-want +got):\n%s", diff)
	}

	// The returned slice is a copy.
	got[0] = ir.String("mutated")
	again, err := s.ValueList(doc1, "SPDXRef-1", "licenses")
	require.NoError(t, err)
	assert.Equal(t, ir.String("v1"), again[0])

	// Clearing empties the list; appends start over.
	require.NoError(t, s.ClearValueList(doc1, "SPDXRef-1", "licenses"))
	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "licenses", ir.String("after")))
	got, err = s.ValueList(doc1, "SPDXRef-1", "licenses")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.String("after")}, got)
}

func testPropertyNames(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))

	for _, name := range []string{"versionInfo", "name", "downloadLocation"} {
		require.NoError(t, s.SetValue(doc1, "SPDXRef-1", name, ir.String(name)))
	}
	for _, name := range []string{"files", "checksums"} {
		require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", name, ir.String(name)))
	}
	require.NoError(t, s.ClearValueList(doc1, "SPDXRef-1", "annotations"))

	names, err := s.PropertyValueNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"downloadLocation", "name", "versionInfo"}, names)

	listNames, err := s.PropertyValueListNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"annotations", "checksums", "files"}, listNames)

	// Repeated calls against unmodified state return the same order.
	again, err := s.PropertyValueNames(doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, names, again)
}

func testRemoveProperty(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "name", ir.String("libfoo")))
	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "files", ir.String("a.c")))

	before, err := store.ReadObject(s, doc1, "SPDXRef-1")
	require.NoError(t, err)

	// Absent names are a no-op.
	require.NoError(t, s.RemoveProperty(doc1, "SPDXRef-1", "absent"))
	after, err := store.ReadObject(s, doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Present names behave as if never set, and may be reused with the other kind.
	require.NoError(t, s.RemoveProperty(doc1, "SPDXRef-1", "name"))
	require.NoError(t, s.RemoveProperty(doc1, "SPDXRef-1", "files"))

	_, ok, err := s.Value(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	assert.False(t, ok)
	vals, err := s.ValueList(doc1, "SPDXRef-1", "files")
	require.NoError(t, err)
	assert.Empty(t, vals)

	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "name", ir.String("n")))
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "files", ir.String("f")))

	// Removing twice is still fine.
	require.NoError(t, s.RemoveProperty(doc1, "SPDXRef-1", "name"))
	require.NoError(t, s.RemoveProperty(doc1, "SPDXRef-1", "name"))
}

func testDocumentScoping(t *testing.T, newStore Factory) {
	s := newStore(t)
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))
	require.NoError(t, s.Create(doc2, "SPDXRef-1", "File"))

	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "name", ir.String("one")))
	require.NoError(t, s.SetValue(doc2, "SPDXRef-1", "name", ir.String("two")))

	v, _, err := s.Value(doc1, "SPDXRef-1", "name")
	require.NoError(t, err)
	assert.Equal(t, ir.String("one"), v)
	v, _, err = s.Value(doc2, "SPDXRef-1", "name")
	require.NoError(t, err)
	assert.Equal(t, ir.String("two"), v)

	typ, err := s.Type(doc2, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, "File", typ)
}

func testNextID(t *testing.T, newStore Factory) {
	t.Run("prefixes", func(t *testing.T) {
		s := newStore(t)
		for _, kind := range []ir.IDType{ir.LicenseRef, ir.DocumentRef, ir.SpdxID, ir.Anonymous} {
			id, err := s.NextID(kind, doc1)
			require.NoError(t, err)
			assert.Equal(t, kind, ir.ClassifyID(id), id)
			assert.Contains(t, id, ir.GeneratedMarker)
		}
	})

	t.Run("skips existing ids", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(doc1, ir.FormatGeneratedID(ir.SpdxID, 0), "Package"))
		require.NoError(t, s.Create(doc1, ir.FormatGeneratedID(ir.SpdxID, 1), "Package"))

		id, err := s.NextID(ir.SpdxID, doc1)
		require.NoError(t, err)
		assert.Equal(t, ir.FormatGeneratedID(ir.SpdxID, 2), id)
		assert.False(t, s.Exists(doc1, id))
	})

	t.Run("reserved ids are never returned twice", func(t *testing.T) {
		s := newStore(t)
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			id, err := s.NextID(ir.LicenseRef, doc1)
			require.NoError(t, err)
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}

		// A reserved id can still be created by the caller.
		id, err := s.NextID(ir.SpdxID, doc1)
		require.NoError(t, err)
		require.NoError(t, s.Create(doc1, id, "Package"))
		next, err := s.NextID(ir.SpdxID, doc1)
		require.NoError(t, err)
		assert.NotEqual(t, id, next)
	})

	t.Run("scoped per document", func(t *testing.T) {
		s := newStore(t)
		a, err := s.NextID(ir.SpdxID, doc1)
		require.NoError(t, err)
		b, err := s.NextID(ir.SpdxID, doc2)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("concurrent callers", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Create(doc1, ir.FormatGeneratedID(ir.SpdxID, int64(i*2)), "File"))
		}

		const n = 64
		ids := make([]string, n)
		var g errgroup.Group
		for i := 0; i < n; i++ {
			kind := ir.SpdxID
			if i%4 == 0 {
				kind = ir.LicenseRef
			}
			g.Go(func() error {
				id, err := s.NextID(kind, doc1)
				ids[i] = id
				return err
			})
		}
		require.NoError(t, g.Wait())

		seen := map[string]bool{}
		for _, id := range ids {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
			assert.False(t, s.Exists(doc1, id), "id %s collides with an existing object", id)
		}
		assert.Len(t, seen, n)
	})
}

func populate(t *testing.T, s store.ModelStore) {
	t.Helper()
	require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "name", ir.String("libfoo")))
	require.NoError(t, s.SetValue(doc1, "SPDXRef-1", "filesAnalyzed", ir.Bool(true)))
	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "licenses", licenseRef("LicenseRef-a")))
	require.NoError(t, s.AddValueToList(doc1, "SPDXRef-1", "licenses", licenseRef("LicenseRef-b")))
	require.NoError(t, s.ClearValueList(doc1, "SPDXRef-1", "annotations"))
}

func testCopyFrom(t *testing.T, newStore Factory) {
	t.Run("into empty store", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		populate(t, src)

		require.NoError(t, dst.CopyFrom(doc1, "SPDXRef-1", "Package", src))

		typ, err := dst.Type(doc1, "SPDXRef-1")
		require.NoError(t, err)
		assert.Equal(t, "Package", typ)
		v, ok, err := dst.Value(doc1, "SPDXRef-1", "name")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ir.String("libfoo"), v)
		vals, err := dst.ValueList(doc1, "SPDXRef-1", "licenses")
		require.NoError(t, err)
		assert.Equal(t, []ir.Value{licenseRef("LicenseRef-a"), licenseRef("LicenseRef-b")}, vals)

		// Empty lists keep their slot kind.
		listNames, err := dst.PropertyValueListNames(doc1, "SPDXRef-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"annotations", "licenses"}, listNames)

		// Referenced objects are not copied.
		assert.False(t, dst.Exists(doc1, "LicenseRef-a"))

		assertSameDigest(t, src, dst, doc1, "SPDXRef-1")
	})

	t.Run("source missing", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		err := dst.CopyFrom(doc1, "SPDXRef-1", "Package", src)
		requireCode(t, err, store.CodeNotFound)
		assert.False(t, dst.Exists(doc1, "SPDXRef-1"))
	})

	t.Run("source type mismatch", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		populate(t, src)
		err := dst.CopyFrom(doc1, "SPDXRef-1", "File", src)
		requireCode(t, err, store.CodeTypeConflict)
		assert.False(t, dst.Exists(doc1, "SPDXRef-1"))
	})

	t.Run("destination type conflict", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		populate(t, src)
		require.NoError(t, dst.Create(doc1, "SPDXRef-1", "File"))
		require.NoError(t, dst.SetValue(doc1, "SPDXRef-1", "fileName", ir.String("a.c")))

		err := dst.CopyFrom(doc1, "SPDXRef-1", "Package", src)
		requireCode(t, err, store.CodeTypeConflict)

		// Nothing was written.
		names, err := dst.PropertyValueNames(doc1, "SPDXRef-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"fileName"}, names)
	})

	t.Run("existing destination is overwritten per property", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		populate(t, src)

		require.NoError(t, dst.Create(doc1, "SPDXRef-1", "Package"))
		require.NoError(t, dst.SetValue(doc1, "SPDXRef-1", "name", ir.String("old")))
		require.NoError(t, dst.SetValue(doc1, "SPDXRef-1", "comment", ir.String("kept")))
		require.NoError(t, dst.AddValueToList(doc1, "SPDXRef-1", "licenses", licenseRef("LicenseRef-old")))
		// Slot kinds follow the source.
		require.NoError(t, dst.AddValueToList(doc1, "SPDXRef-1", "filesAnalyzed", ir.Bool(false)))
		require.NoError(t, dst.SetValue(doc1, "SPDXRef-1", "annotations", ir.String("scalar")))

		require.NoError(t, dst.CopyFrom(doc1, "SPDXRef-1", "Package", src))

		obj, err := store.ReadObject(dst, doc1, "SPDXRef-1")
		require.NoError(t, err)
		assert.Equal(t, map[string]ir.Value{
			"name":          ir.String("libfoo"),
			"filesAnalyzed": ir.Bool(true),
			"comment":       ir.String("kept"),
		}, obj.Values)
		assert.Equal(t, map[string][]ir.Value{
			"licenses":    {licenseRef("LicenseRef-a"), licenseRef("LicenseRef-b")},
			"annotations": {},
		}, obj.Lists)
	})

	t.Run("copy is idempotent", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		populate(t, src)
		require.NoError(t, dst.CopyFrom(doc1, "SPDXRef-1", "Package", src))
		require.NoError(t, dst.CopyFrom(doc1, "SPDXRef-1", "Package", src))
		assertSameDigest(t, src, dst, doc1, "SPDXRef-1")
	})

	t.Run("snapshot writer", func(t *testing.T) {
		src, dst := newStore(t), newStore(t)
		w, ok := dst.(store.SnapshotWriter)
		if !ok {
			t.Skipf("%T does not implement store.SnapshotWriter", dst)
		}
		populate(t, src)
		snap, err := store.ReadObject(src, doc1, "SPDXRef-1")
		require.NoError(t, err)
		require.NoError(t, w.WriteSnapshot(snap))
		assertSameDigest(t, src, dst, doc1, "SPDXRef-1")

		snap.Type = "File"
		requireCode(t, w.WriteSnapshot(snap), store.CodeTypeConflict)

		bad := ir.NewObject(doc1, "SPDXRef-bad", "Package")
		bad.Values["name"] = ir.String("a\xffb")
		requireCode(t, w.WriteSnapshot(bad), store.CodeInvalidInput)
		assert.False(t, dst.Exists(doc1, "SPDXRef-bad"))
	})

	t.Run("copy within one store", func(t *testing.T) {
		s := newStore(t)
		populate(t, s)
		require.NoError(t, s.CopyFrom(doc1, "SPDXRef-1", "Package", s))
		vals, err := s.ValueList(doc1, "SPDXRef-1", "licenses")
		require.NoError(t, err)
		assert.Len(t, vals, 2)
	})
}

func assertSameDigest(t *testing.T, a, b store.ModelStore, documentURI, id string) {
	t.Helper()
	objA, err := store.ReadObject(a, documentURI, id)
	require.NoError(t, err)
	objB, err := store.ReadObject(b, documentURI, id)
	require.NoError(t, err)
	da, err := ir.DigestObject(objA)
	require.NoError(t, err)
	db, err := ir.DigestObject(objB)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func testCopyGraph(t *testing.T, newStore Factory) {
	src, dst := newStore(t), newStore(t)

	// doc1: Package -> File1 -> File2 -> Package (cycle), Package -> LicenseRef in doc2,
	// File1 -> SPDXRef-missing (dangling).
	require.NoError(t, src.Create(doc1, "SPDXRef-pkg", "Package"))
	require.NoError(t, src.Create(doc1, "SPDXRef-f1", "File"))
	require.NoError(t, src.Create(doc1, "SPDXRef-f2", "File"))
	require.NoError(t, src.Create(doc1, "SPDXRef-unrelated", "File"))
	require.NoError(t, src.Create(doc2, "LicenseRef-ext", "ExtractedLicensingInfo"))

	require.NoError(t, src.AddValueToList(doc1, "SPDXRef-pkg", "files", ir.Ref(doc1, "SPDXRef-f1", "File")))
	require.NoError(t, src.SetValue(doc1, "SPDXRef-pkg", "license", ir.Ref(doc2, "LicenseRef-ext", "License")))
	require.NoError(t, src.SetValue(doc1, "SPDXRef-f1", "next", ir.Ref(doc1, "SPDXRef-f2", "File")))
	require.NoError(t, src.AddValueToList(doc1, "SPDXRef-f1", "seeAlso", ir.Ref(doc1, "SPDXRef-missing", "File")))
	require.NoError(t, src.SetValue(doc1, "SPDXRef-f2", "back", ir.Ref(doc1, "SPDXRef-pkg", "Package")))
	require.NoError(t, src.SetValue(doc2, "LicenseRef-ext", "extractedText", ir.String("custom")))

	copied, err := store.CopyGraph(context.Background(), dst, src, doc1, "SPDXRef-pkg", "Package", store.CopyOptions{Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, []ir.ObjectKey{
		{DocumentURI: doc1, ID: "SPDXRef-f1"},
		{DocumentURI: doc1, ID: "SPDXRef-f2"},
		{DocumentURI: doc1, ID: "SPDXRef-pkg"},
		{DocumentURI: doc2, ID: "LicenseRef-ext"},
	}, copied)

	for _, key := range copied {
		assertSameDigest(t, src, dst, key.DocumentURI, key.ID)
	}
	// The recorded type wins over the type carried by the reference.
	typ, err := dst.Type(doc2, "LicenseRef-ext")
	require.NoError(t, err)
	assert.Equal(t, "ExtractedLicensingInfo", typ)

	assert.False(t, dst.Exists(doc1, "SPDXRef-unrelated"))
	assert.False(t, dst.Exists(doc1, "SPDXRef-missing"))

	t.Run("same document only", func(t *testing.T) {
		dst := newStore(t)
		copied, err := store.CopyGraph(context.Background(), dst, src, doc1, "SPDXRef-pkg", "Package",
			store.CopyOptions{SameDocument: true})
		require.NoError(t, err)
		assert.Len(t, copied, 3)
		assert.False(t, dst.Exists(doc2, "LicenseRef-ext"))
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := store.CopyGraph(context.Background(), newStore(t), src, doc1, "SPDXRef-none", "Package", store.CopyOptions{})
		requireCode(t, err, store.CodeNotFound)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.CopyGraph(ctx, newStore(t), src, doc1, "SPDXRef-pkg", "Package", store.CopyOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func testSnapshot(t *testing.T, newStore Factory) {
	s := newStore(t)
	populate(t, s)

	obj, err := store.ReadObject(s, doc1, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, "Package", obj.Type)
	assert.Equal(t, ir.String("libfoo"), obj.Values["name"])
	assert.Equal(t, []ir.Value{}, obj.Lists["annotations"])

	_, err = store.ReadObject(s, doc1, "SPDXRef-none")
	requireCode(t, err, store.CodeNotFound)
}

func testLister(t *testing.T, newStore Factory) {
	s := newStore(t)
	lister, ok := s.(store.Lister)
	if !ok {
		t.Skipf("%T does not implement store.Lister", s)
	}

	uris, err := lister.DocumentURIs()
	require.NoError(t, err)
	assert.Empty(t, uris)

	require.NoError(t, s.Create(doc2, "SPDXRef-b", "File"))
	require.NoError(t, s.Create(doc1, "SPDXRef-b", "File"))
	require.NoError(t, s.Create(doc1, "SPDXRef-a", "File"))
	_, err = s.NextID(ir.SpdxID, "https://example/empty")
	require.NoError(t, err)

	uris, err = lister.DocumentURIs()
	require.NoError(t, err)
	assert.Equal(t, []string{doc1, doc2}, uris)

	ids, err := lister.ObjectIDs(doc1)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPDXRef-a", "SPDXRef-b"}, ids)

	ids, err = lister.ObjectIDs("https://example/unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)

	t.Run("copy document", func(t *testing.T) {
		dst := newStore(t)
		n, err := store.CopyDocument(context.Background(), dst, s, doc1, store.CopyOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.True(t, dst.Exists(doc1, "SPDXRef-a"))
		assert.True(t, dst.Exists(doc1, "SPDXRef-b"))
		assert.False(t, dst.Exists(doc2, "SPDXRef-b"))
	})
}

func testScenario(t *testing.T, newStore Factory) {
	s := newStore(t)
	const doc = "https://example/doc1"

	require.NoError(t, s.Create(doc, "SPDXRef-1", "Package"))
	require.NoError(t, s.SetValue(doc, "SPDXRef-1", "name", ir.String("libfoo")))
	ref := ir.Ref(doc, "LicenseRef-1", "License")
	require.NoError(t, s.AddValueToList(doc, "SPDXRef-1", "licenses", ref))
	require.NoError(t, s.AddValueToList(doc, "SPDXRef-1", "licenses", ref))

	vals, err := s.ValueList(doc, "SPDXRef-1", "licenses")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ref, ref}, vals)

	v, ok, err := s.Value(doc, "SPDXRef-1", "name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ir.String("libfoo"), v)
}

func testConcurrency(t *testing.T, newStore Factory) {
	t.Run("appends are not lost", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(doc1, "SPDXRef-1", "Package"))

		const writers, perWriter = 8, 25
		var g errgroup.Group
		for w := 0; w < writers; w++ {
			g.Go(func() error {
				for i := 0; i < perWriter; i++ {
					v := ir.String(fmt.Sprintf("w%d-%d", w, i))
					if err := s.AddValueToList(doc1, "SPDXRef-1", "files", v); err != nil {
						return err
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		vals, err := s.ValueList(doc1, "SPDXRef-1", "files")
		require.NoError(t, err)
		assert.Len(t, vals, writers*perWriter)

		// Each writer's elements keep their relative order.
		last := make(map[int]int)
		for _, v := range vals {
			var w, i int
			_, err := fmt.Sscanf(string(v.(ir.String)), "w%d-%d", &w, &i)
			require.NoError(t, err)
			if prev, ok := last[w]; ok {
				assert.Greater(t, i, prev)
			}
			last[w] = i
		}
	})

	t.Run("create races have one winner", func(t *testing.T) {
		s := newStore(t)
		const racers = 16
		var wins, conflicts atomic.Int32
		var g errgroup.Group
		for i := 0; i < racers; i++ {
			g.Go(func() error {
				err := s.Create(doc1, "SPDXRef-race", fmt.Sprintf("Type%d", i))
				switch {
				case err == nil:
					wins.Add(1)
				case store.IsAlreadyExists(err):
					conflicts.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(racers-1), conflicts.Load())
	})

	t.Run("mixed readers and writers", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 4; i++ {
			require.NoError(t, s.Create(doc1, fmt.Sprintf("SPDXRef-%d", i), "File"))
		}

		var g errgroup.Group
		for i := 0; i < 4; i++ {
			id := fmt.Sprintf("SPDXRef-%d", i)
			g.Go(func() error {
				for j := 0; j < 20; j++ {
					if err := s.SetValue(doc1, id, "n", ir.Int(int64(j))); err != nil {
						return err
					}
					if _, err := store.ReadObject(s, doc1, id); err != nil {
						return err
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		for i := 0; i < 4; i++ {
			v, ok, err := s.Value(doc1, fmt.Sprintf("SPDXRef-%d", i), "n")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, ir.Int(19), v)
		}
	})
}
