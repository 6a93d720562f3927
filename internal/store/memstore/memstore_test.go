package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
	"github.com/roach88/spdxstore/internal/store/storetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ModelStore {
		return New()
	})
}

func TestNew_Empty(t *testing.T) {
	s := New()
	uris, err := s.DocumentURIs()
	require.NoError(t, err)
	assert.Empty(t, uris)
	assert.False(t, s.Exists("https://example/doc", "SPDXRef-1"))
}

func TestWithLogger_LogsWrites(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := New(WithLogger(zap.New(core)))

	require.NoError(t, s.Create("https://example/doc", "SPDXRef-1", "Package"))
	_, err := s.NextID(ir.SpdxID, "https://example/doc")
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "created object", entries[0].Message)
	assert.Equal(t, "SPDXRef-1", entries[0].ContextMap()["id"])
	assert.Equal(t, "generated id", entries[1].Message)
	assert.Equal(t, "SpdxId", entries[1].ContextMap()["kind"])
}

func TestWithLogger_NilKeepsDefault(t *testing.T) {
	s := New(WithLogger(nil))
	require.NotNil(t, s.logger)
	require.NoError(t, s.Create("https://example/doc", "SPDXRef-1", "Package"))
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := New()
	const doc = "https://example/doc"
	require.NoError(t, s.Create(doc, "SPDXRef-1", "Package"))
	require.NoError(t, s.AddValueToList(doc, "SPDXRef-1", "files", ir.String("a.c")))

	snap, err := s.Snapshot(doc, "SPDXRef-1")
	require.NoError(t, err)
	snap.Lists["files"][0] = ir.String("mutated")
	snap.Values["name"] = ir.String("injected")

	vals, err := s.ValueList(doc, "SPDXRef-1", "files")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.String("a.c")}, vals)
	_, ok, err := s.Value(doc, "SPDXRef-1", "name")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextID_DoesNotCreateObjects(t *testing.T) {
	s := New()
	const doc = "https://example/doc"

	id, err := s.NextID(ir.Anonymous, doc)
	require.NoError(t, err)
	assert.Equal(t, ir.AnonymousPrefix+ir.GeneratedMarker+"0", id)
	assert.False(t, s.Exists(doc, id))

	ids, err := s.ObjectIDs(doc)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
