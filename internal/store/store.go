package store

import "github.com/roach88/spdxstore/internal/ir"

// ModelStore is the storage contract shared by every backend.
// Implementations must be safe for concurrent use.
type ModelStore interface {
	// Exists reports whether the object exists. It never fails; malformed
	// identifiers simply do not exist.
	Exists(documentURI, id string) bool

	// Create allocates a new object with an empty property set.
	Create(documentURI, id, typ string) error

	// Type returns the type an object was created with.
	Type(documentURI, id string) (string, error)

	// PropertyValueNames returns the names of scalar properties, sorted.
	PropertyValueNames(documentURI, id string) ([]string, error)

	// PropertyValueListNames returns the names of list properties, sorted.
	PropertyValueListNames(documentURI, id string) ([]string, error)

	// SetValue upserts a scalar property.
	SetValue(documentURI, id, property string, v ir.Value) error

	// ClearValueList resets a property to an empty list, replacing any scalar.
	ClearValueList(documentURI, id, property string) error

	// AddValueToList appends to a list property, creating it if absent.
	AddValueToList(documentURI, id, property string, v ir.Value) error

	// ValueList returns a copy of a list property; empty if never written.
	ValueList(documentURI, id, property string) ([]ir.Value, error)

	// Value returns a scalar property and whether it is set.
	Value(documentURI, id, property string) (ir.Value, bool, error)

	// RemoveProperty deletes a scalar or list property. Absent names are a no-op.
	RemoveProperty(documentURI, id, property string) error

	// NextID generates and reserves a fresh ID of the given kind in the document.
	NextID(kind ir.IDType, documentURI string) (string, error)

	// CopyFrom copies one object of type typ from src into this store.
	CopyFrom(documentURI, id, typ string, src ModelStore) error
}

// Snapshotter is implemented by stores that can read one object atomically.
type Snapshotter interface {
	Snapshot(documentURI, id string) (ir.Object, error)
}

// Lister is implemented by stores that can enumerate their contents.
// Results are sorted.
type Lister interface {
	DocumentURIs() ([]string, error)
	ObjectIDs(documentURI string) ([]string, error)
}

// SnapshotWriter is implemented by stores that can merge an already-read
// object into themselves with the same semantics as CopyFrom. CopyGraph uses
// it so the snapshot it traverses is the one it wrote.
type SnapshotWriter interface {
	WriteSnapshot(obj ir.Object) error
}
