package store

import (
	"fmt"

	"github.com/roach88/spdxstore/internal/ir"
)

// ReadObject returns a snapshot of one object.
// Stores implementing Snapshotter return an atomic snapshot; for others the
// properties are read one by one.
func ReadObject(s ModelStore, documentURI, id string) (ir.Object, error) {
	if snap, ok := s.(Snapshotter); ok {
		return snap.Snapshot(documentURI, id)
	}

	typ, err := s.Type(documentURI, id)
	if err != nil {
		return ir.Object{}, err
	}
	obj := ir.NewObject(documentURI, id, typ)

	names, err := s.PropertyValueNames(documentURI, id)
	if err != nil {
		return ir.Object{}, err
	}
	for _, name := range names {
		v, ok, err := s.Value(documentURI, id, name)
		if err != nil {
			return ir.Object{}, err
		}
		if ok {
			obj.Values[name] = v
		}
	}

	listNames, err := s.PropertyValueListNames(documentURI, id)
	if err != nil {
		return ir.Object{}, err
	}
	for _, name := range listNames {
		vals, err := s.ValueList(documentURI, id, name)
		if err != nil {
			return ir.Object{}, err
		}
		obj.Lists[name] = vals
	}
	return obj, nil
}

// ReadForCopy validates a CopyFrom request and snapshots the source object.
// It fails with NotFound if the source object is missing and TypeConflict if
// the source object's type is not typ.
func ReadForCopy(op string, src ModelStore, documentURI, id, typ string) (ir.Object, error) {
	if err := ValidateKey(op, documentURI, id); err != nil {
		return ir.Object{}, err
	}
	if err := ValidateType(op, typ); err != nil {
		return ir.Object{}, err
	}
	if src == nil {
		return ir.Object{}, NewInvalidInputError(op, "source store is required")
	}

	obj, err := ReadObject(src, documentURI, id)
	if err != nil {
		if IsNotFound(err) {
			return ir.Object{}, &Error{
				Code:        CodeNotFound,
				Op:          op,
				DocumentURI: documentURI,
				ID:          id,
				Message:     "object does not exist in the source store",
			}
		}
		return ir.Object{}, err
	}
	if obj.Type != typ {
		return ir.Object{}, &Error{
			Code:        CodeTypeConflict,
			Op:          op,
			DocumentURI: documentURI,
			ID:          id,
			Message:     fmt.Sprintf("source object has type %q, not %q", obj.Type, typ),
		}
	}
	return obj, nil
}
