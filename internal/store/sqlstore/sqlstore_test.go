package sqlstore

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
	"github.com/roach88/spdxstore/internal/store/memstore"
	"github.com/roach88/spdxstore/internal/store/storetest"
)

// createTestStore opens a fresh database file under t.TempDir().
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ModelStore {
		return createTestStore(t)
	})
}

func TestContract_InMemoryDatabase(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ModelStore {
		s, err := Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	require.NoError(t, s1.Create("https://example/doc", "SPDXRef-1", "Package"))
	require.NoError(t, s1.AddValueToList("https://example/doc", "SPDXRef-1", "files", ir.String("a.c")))
	id, err := s1.NextID(ir.SpdxID, "https://example/doc")
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	// Objects, lists and reservations survive a reopen.
	assert.True(t, s2.Exists("https://example/doc", "SPDXRef-1"))
	vals, err := s2.ValueList("https://example/doc", "SPDXRef-1", "files")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.String("a.c")}, vals)

	next, err := s2.NextID(ir.SpdxID, "https://example/doc")
	require.NoError(t, err)
	assert.NotEqual(t, id, next)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"objects", "properties", "list_items", "id_counters", "reserved_ids"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	s.Close()

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_SlotKindCheck(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Create("https://example/doc", "SPDXRef-1", "Package"))

	_, err := s.db.Exec(`
		INSERT INTO properties (document_uri, id, name, kind, value)
		VALUES ('https://example/doc', 'SPDXRef-1', 'p', 'map', NULL)
	`)
	assert.Error(t, err, "unknown slot kinds must be rejected")

	_, err = s.db.Exec(`
		INSERT INTO properties (document_uri, id, name, kind, value)
		VALUES ('https://example/doc', 'SPDXRef-missing', 'p', 'list', NULL)
	`)
	assert.Error(t, err, "properties must belong to an object")
}

func TestRemoveProperty_DeletesListItems(t *testing.T) {
	s := createTestStore(t)
	const doc = "https://example/doc"
	require.NoError(t, s.Create(doc, "SPDXRef-1", "Package"))
	for _, f := range []string{"a.c", "b.c", "c.c"} {
		require.NoError(t, s.AddValueToList(doc, "SPDXRef-1", "files", ir.String(f)))
	}

	require.NoError(t, s.RemoveProperty(doc, "SPDXRef-1", "files"))

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM list_items").Scan(&n))
	assert.Zero(t, n)
}

func TestSetValue_StoresTaggedJSON(t *testing.T) {
	s := createTestStore(t)
	const doc = "https://example/doc"
	require.NoError(t, s.Create(doc, "SPDXRef-1", "Package"))
	require.NoError(t, s.SetValue(doc, "SPDXRef-1", "supplier", ir.Ref(doc, "SPDXRef-org", "Organization")))

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT value FROM properties WHERE name = 'supplier'`).Scan(&raw))
	assert.Equal(t,
		`{"document_uri":"https://example/doc","id":"SPDXRef-org","kind":"ref","type":"Organization"}`,
		raw)
}

func TestSetValue_StoresTextUnnormalized(t *testing.T) {
	s := createTestStore(t)
	const doc = "https://example/doc"
	require.NoError(t, s.Create(doc, "SPDXRef-1", "Package"))
	require.NoError(t, s.SetValue(doc, "SPDXRef-1", "name", ir.String("Cafe\u0301 <&>")))
	require.NoError(t, s.AddValueToList(doc, "SPDXRef-1", "files", ir.Ref(doc, "SPDXRef-e\u0301", "File")))

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT value FROM properties WHERE name = 'name'`).Scan(&raw))
	assert.Equal(t, "{\"kind\":\"string\",\"value\":\"Cafe\u0301 <&>\"}", raw)

	require.NoError(t, s.db.QueryRow(`SELECT value FROM list_items`).Scan(&raw))
	assert.Contains(t, raw, "\"id\":\"SPDXRef-e\u0301\"")

	err := s.SetValue(doc, "SPDXRef-1", "name", ir.String("a\xffb"))
	assert.True(t, store.IsInvalidInput(err))
}

func TestCopy_AcrossBackends(t *testing.T) {
	const doc = "https://example/doc"
	mem := memstore.New()
	require.NoError(t, mem.Create(doc, "SPDXRef-1", "Package"))
	require.NoError(t, mem.SetValue(doc, "SPDXRef-1", "name", ir.String("libfoo")))
	require.NoError(t, mem.AddValueToList(doc, "SPDXRef-1", "licenses", ir.Ref(doc, "LicenseRef-1", "License")))
	require.NoError(t, mem.ClearValueList(doc, "SPDXRef-1", "annotations"))

	sqlite := createTestStore(t)
	require.NoError(t, sqlite.CopyFrom(doc, "SPDXRef-1", "Package", mem))

	want, err := store.ReadObject(mem, doc, "SPDXRef-1")
	require.NoError(t, err)
	got, err := store.ReadObject(sqlite, doc, "SPDXRef-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// And back again into a fresh memory store.
	back := memstore.New()
	require.NoError(t, back.CopyFrom(doc, "SPDXRef-1", "Package", sqlite))
	wantDigest, err := ir.DigestObject(want)
	require.NoError(t, err)
	obj, err := store.ReadObject(back, doc, "SPDXRef-1")
	require.NoError(t, err)
	gotDigest, err := ir.DigestObject(obj)
	require.NoError(t, err)
	assert.Equal(t, wantDigest, gotDigest)
}

func TestNextID_CounterPersists(t *testing.T) {
	s := createTestStore(t)
	const doc = "https://example/doc"

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.NextID(ir.LicenseRef, doc)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{
		ir.FormatGeneratedID(ir.LicenseRef, 0),
		ir.FormatGeneratedID(ir.LicenseRef, 1),
		ir.FormatGeneratedID(ir.LicenseRef, 2),
	}, ids)

	var next int64
	require.NoError(t, s.db.QueryRow(
		"SELECT next FROM id_counters WHERE document_uri = ? AND id_type = ?", doc, int(ir.LicenseRef),
	).Scan(&next))
	assert.Equal(t, int64(3), next)

	rows, err := s.db.Query("SELECT id FROM reserved_ids WHERE document_uri = ?", doc)
	require.NoError(t, err)
	reserved, err := scanStrings(rows)
	require.NoError(t, err)
	slices.Sort(reserved)
	assert.Equal(t, ids, reserved)
}
