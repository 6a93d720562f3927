package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// Exists reports whether the object exists. Query failures count as absent.
func (s *Store) Exists(documentURI, id string) bool {
	if documentURI == "" || id == "" {
		return false
	}
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM objects WHERE document_uri = ? AND id = ?)
	`, documentURI, id).Scan(&exists)
	if err != nil {
		s.logger.Warn("exists query failed", zap.Error(err))
		return false
	}
	return exists
}

// Type returns the object's type.
func (s *Store) Type(documentURI, id string) (string, error) {
	const op = "type"
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return "", err
	}
	var typ string
	err := s.withTx(op, func(tx *sql.Tx) error {
		var err error
		typ, err = objectType(tx, op, documentURI, id)
		return err
	})
	return typ, err
}

// PropertyValueNames returns scalar property names, sorted.
func (s *Store) PropertyValueNames(documentURI, id string) ([]string, error) {
	return s.names("property value names", documentURI, id, slotValue)
}

// PropertyValueListNames returns list property names, sorted.
func (s *Store) PropertyValueListNames(documentURI, id string) ([]string, error) {
	return s.names("property value list names", documentURI, id, slotList)
}

func (s *Store) names(op, documentURI, id, kind string) ([]string, error) {
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return nil, err
	}
	var names []string
	err := s.withTx(op, func(tx *sql.Tx) error {
		if _, err := objectType(tx, op, documentURI, id); err != nil {
			return err
		}
		var err error
		names, err = propertyNames(tx, documentURI, id, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ValueList returns a list property; empty if never written.
func (s *Store) ValueList(documentURI, id, property string) ([]ir.Value, error) {
	const op = "value list"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return nil, err
	}
	var vals []ir.Value
	err := s.withTx(op, func(tx *sql.Tx) error {
		if _, err := objectType(tx, op, documentURI, id); err != nil {
			return err
		}
		kind, err := slotKind(tx, documentURI, id, property)
		if err != nil {
			return err
		}
		switch kind {
		case slotValue:
			return store.ScalarSlotConflict(op, documentURI, id, property)
		case "":
			vals = []ir.Value{}
			return nil
		}
		vals, err = readItems(tx, documentURI, id, property)
		return err
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
	var v ir.Value
	err := s.withTx(op, func(tx *sql.Tx) error {
		if _, err := objectType(tx, op, documentURI, id); err != nil {
			return err
		}
		var (
			kind string
			data sql.NullString
		)
		err := tx.QueryRow(`
			SELECT kind, value FROM properties
			WHERE document_uri = ? AND id = ? AND name = ?
		`, documentURI, id, property).Scan(&kind, &data)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("query value: %w", err)
		}
		if kind == slotList {
			return store.ListSlotConflict(op, documentURI, id, property)
		}
		v, err = ir.UnmarshalValue([]byte(data.String))
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

// Snapshot reads one object and all its properties in a single transaction.
func (s *Store) Snapshot(documentURI, id string) (ir.Object, error) {
	const op = "snapshot"
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return ir.Object{}, err
	}
	var obj ir.Object
	err := s.withTx(op, func(tx *sql.Tx) error {
		typ, err := objectType(tx, op, documentURI, id)
		if err != nil {
			return err
		}
		obj = ir.NewObject(documentURI, id, typ)

		rows, err := tx.Query(`
			SELECT name, kind, value FROM properties
			WHERE document_uri = ? AND id = ?
			ORDER BY name COLLATE BINARY ASC
		`, documentURI, id)
		if err != nil {
			return fmt.Errorf("query properties: %w", err)
		}
		var lists []string
		for rows.Next() {
			var (
				name, kind string
				data       sql.NullString
			)
			if err := rows.Scan(&name, &kind, &data); err != nil {
				rows.Close()
				return fmt.Errorf("scan property: %w", err)
			}
			if kind == slotList {
				lists = append(lists, name)
				continue
			}
			v, err := ir.UnmarshalValue([]byte(data.String))
			if err != nil {
				rows.Close()
				return err
			}
			obj.Values[name] = v
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate properties: %w", err)
		}
		rows.Close()

		for _, name := range lists {
			vals, err := readItems(tx, documentURI, id, name)
			if err != nil {
				return err
			}
			obj.Lists[name] = vals
		}
		return nil
	})
	if err != nil {
		return ir.Object{}, err
	}
	return obj, nil
}

// DocumentURIs returns every document holding at least one object, sorted.
func (s *Store) DocumentURIs() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT document_uri FROM objects
		ORDER BY document_uri COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("document uris: %w", err)
	}
	uris, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("document uris: %w", err)
	}
	return uris, nil
}

// ObjectIDs returns the IDs of every object in a document, sorted.
func (s *Store) ObjectIDs(documentURI string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT id FROM objects
		WHERE document_uri = ?
		ORDER BY id COLLATE BINARY ASC
	`, documentURI)
	if err != nil {
		return nil, fmt.Errorf("object ids: %w", err)
	}
	ids, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("object ids: %w", err)
	}
	return ids, nil
}
