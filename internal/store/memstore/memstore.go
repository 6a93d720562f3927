// Package memstore is the in-memory reference backend of the Model Store.
//
// Locking is two-level: a store-wide RWMutex guards the document map and a
// per-document RWMutex guards that document's objects, ID counters and
// reservations. No operation holds more than one document lock, so copies
// between documents or stores cannot deadlock.
package memstore

import (
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// Store keeps every document in memory. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*document
	logger *zap.Logger
}

type document struct {
	mu       sync.RWMutex
	objects  map[string]*object
	reserved map[string]struct{}
	counters map[ir.IDType]int64
}

type object struct {
	typ    string
	values map[string]ir.Value
	lists  map[string][]ir.Value
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:   make(map[string]*document),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ store.ModelStore     = (*Store)(nil)
	_ store.Snapshotter    = (*Store)(nil)
	_ store.SnapshotWriter = (*Store)(nil)
	_ store.Lister         = (*Store)(nil)
)

// document returns the named document, creating it when create is set.
// Returns nil if it does not exist and create is false.
func (s *Store) document(uri string, create bool) *document {
	s.mu.RLock()
	d := s.docs[uri]
	s.mu.RUnlock()
	if d != nil || !create {
		return d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d = s.docs[uri]; d == nil {
		d = &document{
			objects:  make(map[string]*object),
			reserved: make(map[string]struct{}),
			counters: make(map[ir.IDType]int64),
		}
		s.docs[uri] = d
	}
	return d
}

// read runs fn under the document's read lock with the addressed object.
func (s *Store) read(op, documentURI, id string, fn func(*object) error) error {
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return err
	}
	d := s.document(documentURI, false)
	if d == nil {
		return store.NewNotFoundError(op, documentURI, id)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	obj, ok := d.objects[id]
	if !ok {
		return store.NewNotFoundError(op, documentURI, id)
	}
	return fn(obj)
}

// write runs fn under the document's write lock with the addressed object.
func (s *Store) write(op, documentURI, id string, fn func(*object) error) error {
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return err
	}
	d := s.document(documentURI, false)
	if d == nil {
		return store.NewNotFoundError(op, documentURI, id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	obj, ok := d.objects[id]
	if !ok {
		return store.NewNotFoundError(op, documentURI, id)
	}
	return fn(obj)
}

// Exists reports whether the object exists.
func (s *Store) Exists(documentURI, id string) bool {
	if documentURI == "" || id == "" {
		return false
	}
	d := s.document(documentURI, false)
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.objects[id]
	return ok
}

// Create allocates a new object.
func (s *Store) Create(documentURI, id, typ string) error {
	const op = "create"
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return err
	}
	if err := store.ValidateType(op, typ); err != nil {
		return err
	}

	d := s.document(documentURI, true)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.objects[id]; ok {
		return store.NewAlreadyExistsError(op, documentURI, id)
	}
	d.objects[id] = newObject(typ)
	s.logger.Debug("created object",
		zap.String("document", documentURI),
		zap.String("id", id),
		zap.String("type", typ))
	return nil
}

func newObject(typ string) *object {
	return &object{
		typ:    typ,
		values: make(map[string]ir.Value),
		lists:  make(map[string][]ir.Value),
	}
}

// Type returns the object's type.
func (s *Store) Type(documentURI, id string) (string, error) {
	var typ string
	err := s.read("type", documentURI, id, func(obj *object) error {
		typ = obj.typ
		return nil
	})
	return typ, err
}

// PropertyValueNames returns scalar property names, sorted.
func (s *Store) PropertyValueNames(documentURI, id string) ([]string, error) {
	var names []string
	err := s.read("property value names", documentURI, id, func(obj *object) error {
		names = sortedKeys(obj.values)
		return nil
	})
	return names, err
}

// PropertyValueListNames returns list property names, sorted.
func (s *Store) PropertyValueListNames(documentURI, id string) ([]string, error) {
	var names []string
	err := s.read("property value list names", documentURI, id, func(obj *object) error {
		names = sortedKeys(obj.lists)
		return nil
	})
	return names, err
}

// SetValue upserts a scalar property.
func (s *Store) SetValue(documentURI, id, property string, v ir.Value) error {
	const op = "set value"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	if err := store.ValidateValue(op, v); err != nil {
		return err
	}
	return s.write(op, documentURI, id, func(obj *object) error {
		if _, isList := obj.lists[property]; isList {
			return store.ListSlotConflict(op, documentURI, id, property)
		}
		obj.values[property] = v
		return nil
	})
}

// ClearValueList resets a property to an empty list.
func (s *Store) ClearValueList(documentURI, id, property string) error {
	const op = "clear value list"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	return s.write(op, documentURI, id, func(obj *object) error {
		delete(obj.values, property)
		obj.lists[property] = []ir.Value{}
		return nil
	})
}

// AddValueToList appends to a list property.
func (s *Store) AddValueToList(documentURI, id, property string, v ir.Value) error {
	const op = "add value to list"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	if err := store.ValidateValue(op, v); err != nil {
		return err
	}
	return s.write(op, documentURI, id, func(obj *object) error {
		if _, isScalar := obj.values[property]; isScalar {
			return store.ScalarSlotConflict(op, documentURI, id, property)
		}
		obj.lists[property] = append(obj.lists[property], v)
		return nil
	})
}

// ValueList returns a copy of a list property.
func (s *Store) ValueList(documentURI, id, property string) ([]ir.Value, error) {
	const op = "value list"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return nil, err
	}
	var vals []ir.Value
	err := s.read(op, documentURI, id, func(obj *object) error {
		if _, isScalar := obj.values[property]; isScalar {
			return store.ScalarSlotConflict(op, documentURI, id, property)
		}
		vals = cloneList(obj.lists[property])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vals, nil
}

// Value returns a scalar property and whether it is set.
func (s *Store) Value(documentURI, id, property string) (ir.Value, bool, error) {
	const op = "value"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return nil, false, err
	}
	var (
		v  ir.Value
		ok bool
	)
	err := s.read(op, documentURI, id, func(obj *object) error {
		if _, isList := obj.lists[property]; isList {
			return store.ListSlotConflict(op, documentURI, id, property)
		}
		v, ok = obj.values[property]
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, ok, nil
}

// RemoveProperty deletes a scalar or list property if present.
func (s *Store) RemoveProperty(documentURI, id, property string) error {
	const op = "remove property"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	return s.write(op, documentURI, id, func(obj *object) error {
		delete(obj.values, property)
		delete(obj.lists, property)
		return nil
	})
}

// NextID generates and reserves a fresh ID of the given kind.
func (s *Store) NextID(kind ir.IDType, documentURI string) (string, error) {
	const op = "next id"
	if err := store.ValidateIDKind(op, kind); err != nil {
		return "", err
	}
	if documentURI == "" {
		return "", store.NewInvalidInputError(op, "document URI is required")
	}

	d := s.document(documentURI, true)
	d.mu.Lock()
	defer d.mu.Unlock()

	id, next, err := store.GenerateID(kind, d.counters[kind], func(candidate string) (bool, error) {
		_, exists := d.objects[candidate]
		_, reserved := d.reserved[candidate]
		return exists || reserved, nil
	})
	if err != nil {
		return "", err
	}
	d.counters[kind] = next
	d.reserved[id] = struct{}{}
	s.logger.Debug("generated id",
		zap.String("document", documentURI),
		zap.Stringer("kind", kind),
		zap.String("id", id))
	return id, nil
}

// CopyFrom copies one object from src. An existing destination object of the
// same type is updated per property: each source property replaces the
// same-named slot, other destination properties are kept.
func (s *Store) CopyFrom(documentURI, id, typ string, src store.ModelStore) error {
	const op = "copy from"
	snap, err := store.ReadForCopy(op, src, documentURI, id, typ)
	if err != nil {
		return err
	}
	return s.writeSnapshot(op, snap)
}

// WriteSnapshot merges obj into the store exactly as CopyFrom would.
func (s *Store) WriteSnapshot(obj ir.Object) error {
	const op = "write snapshot"
	if err := store.ValidateSnapshot(op, obj); err != nil {
		return err
	}
	return s.writeSnapshot(op, obj)
}

func (s *Store) writeSnapshot(op string, snap ir.Object) error {
	documentURI, id, typ := snap.DocumentURI, snap.ID, snap.Type
	d := s.document(documentURI, true)
	d.mu.Lock()
	defer d.mu.Unlock()

	obj, exists := d.objects[id]
	if exists && obj.typ != typ {
		return store.ObjectTypeConflict(op, documentURI, id, obj.typ, typ)
	}
	if !exists {
		obj = newObject(typ)
		d.objects[id] = obj
	}
	for name, v := range snap.Values {
		delete(obj.lists, name)
		obj.values[name] = v
	}
	for name, vals := range snap.Lists {
		delete(obj.values, name)
		obj.lists[name] = cloneList(vals)
	}

	s.logger.Debug("copied object",
		zap.String("document", documentURI),
		zap.String("id", id),
		zap.String("type", typ),
		zap.Bool("created", !exists),
		zap.Int("values", len(snap.Values)),
		zap.Int("lists", len(snap.Lists)))
	return nil
}

// Snapshot returns an atomic copy of one object.
func (s *Store) Snapshot(documentURI, id string) (ir.Object, error) {
	var snap ir.Object
	err := s.read("snapshot", documentURI, id, func(obj *object) error {
		snap = ir.NewObject(documentURI, id, obj.typ)
		for name, v := range obj.values {
			snap.Values[name] = v
		}
		for name, vals := range obj.lists {
			snap.Lists[name] = cloneList(vals)
		}
		return nil
	})
	return snap, err
}

// DocumentURIs returns every document holding at least one object, sorted.
func (s *Store) DocumentURIs() ([]string, error) {
	s.mu.RLock()
	docs := make(map[string]*document, len(s.docs))
	for uri, d := range s.docs {
		docs[uri] = d
	}
	s.mu.RUnlock()

	uris := make([]string, 0, len(docs))
	for uri, d := range docs {
		d.mu.RLock()
		n := len(d.objects)
		d.mu.RUnlock()
		if n > 0 {
			uris = append(uris, uri)
		}
	}
	sort.Strings(uris)
	return uris, nil
}

// ObjectIDs returns the IDs of every object in a document, sorted.
// Unknown documents have no objects.
func (s *Store) ObjectIDs(documentURI string) ([]string, error) {
	d := s.document(documentURI, false)
	if d == nil {
		return []string{}, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.objects), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneList(vals []ir.Value) []ir.Value {
	if vals == nil {
		return []ir.Value{}
	}
	return slices.Clone(vals)
}
