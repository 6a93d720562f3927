package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// Create inserts a new object. ON CONFLICT DO NOTHING plus the affected-row
// count makes concurrent creates of one key yield exactly one success.
func (s *Store) Create(documentURI, id, typ string) error {
	const op = "create"
	if err := store.ValidateKey(op, documentURI, id); err != nil {
		return err
	}
	if err := store.ValidateType(op, typ); err != nil {
		return err
	}

	result, err := s.db.Exec(`
		INSERT INTO objects (document_uri, id, type)
		VALUES (?, ?, ?)
		ON CONFLICT (document_uri, id) DO NOTHING
	`, documentURI, id, typ)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return store.NewAlreadyExistsError(op, documentURI, id)
	}

	s.logger.Debug("created object",
		zap.String("document", documentURI),
		zap.String("id", id),
		zap.String("type", typ))
	return nil
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
	return s.withTx(op, func(tx *sql.Tx) error {
		if _, err := objectType(tx, op, documentURI, id); err != nil {
			return err
		}
		kind, err := slotKind(tx, documentURI, id, property)
		if err != nil {
			return err
		}
		if kind == slotList {
			return store.ListSlotConflict(op, documentURI, id, property)
		}
		return putValue(tx, documentURI, id, property, v)
	})
}

// ClearValueList resets a property to an empty list.
func (s *Store) ClearValueList(documentURI, id, property string) error {
	const op = "clear value list"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	return s.withTx(op, func(tx *sql.Tx) error {
		if _, err := objectType(tx, op, documentURI, id); err != nil {
			return err
		}
		return putEmptyList(tx, documentURI, id, property)
	})
}

// AddValueToList appends to a list property, creating the slot if absent.
func (s *Store) AddValueToList(documentURI, id, property string, v ir.Value) error {
	const op = "add value to list"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	if err := store.ValidateValue(op, v); err != nil {
		return err
	}
	return s.withTx(op, func(tx *sql.Tx) error {
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
			if err := putEmptyList(tx, documentURI, id, property); err != nil {
				return err
			}
		}
		return appendItem(tx, documentURI, id, property, v)
	})
}

// RemoveProperty deletes a scalar or list property if present.
func (s *Store) RemoveProperty(documentURI, id, property string) error {
	const op = "remove property"
	if err := store.ValidatePropertyOp(op, documentURI, id, property); err != nil {
		return err
	}
	return s.withTx(op, func(tx *sql.Tx) error {
		if _, err := objectType(tx, op, documentURI, id); err != nil {
			return err
		}
		if err := deleteItems(tx, documentURI, id, property); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			DELETE FROM properties
			WHERE document_uri = ? AND id = ? AND name = ?
		`, documentURI, id, property); err != nil {
			return fmt.Errorf("delete property: %w", err)
		}
		return nil
	})
}

// NextID generates and reserves a fresh ID of the given kind.
// The counter read, collision checks and reservation share one transaction.
func (s *Store) NextID(kind ir.IDType, documentURI string) (string, error) {
	const op = "next id"
	if err := store.ValidateIDKind(op, kind); err != nil {
		return "", err
	}
	if documentURI == "" {
		return "", store.NewInvalidInputError(op, "document URI is required")
	}

	var id string
	err := s.withTx(op, func(tx *sql.Tx) error {
		var next int64
		err := tx.QueryRow(`
			SELECT next FROM id_counters
			WHERE document_uri = ? AND id_type = ?
		`, documentURI, int(kind)).Scan(&next)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read counter: %w", err)
		}

		candidate, newNext, err := store.GenerateID(kind, next, func(candidate string) (bool, error) {
			var taken bool
			err := tx.QueryRow(`
				SELECT EXISTS (SELECT 1 FROM objects WHERE document_uri = ? AND id = ?)
				    OR EXISTS (SELECT 1 FROM reserved_ids WHERE document_uri = ? AND id = ?)
			`, documentURI, candidate, documentURI, candidate).Scan(&taken)
			if err != nil {
				return false, fmt.Errorf("check candidate: %w", err)
			}
			return taken, nil
		})
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`
			INSERT INTO reserved_ids (document_uri, id) VALUES (?, ?)
		`, documentURI, candidate); err != nil {
			return fmt.Errorf("reserve id: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO id_counters (document_uri, id_type, next)
			VALUES (?, ?, ?)
			ON CONFLICT (document_uri, id_type) DO UPDATE SET next = excluded.next
		`, documentURI, int(kind), newNext); err != nil {
			return fmt.Errorf("update counter: %w", err)
		}
		id = candidate
		return nil
	})
	if err != nil {
		return "", err
	}

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
	created := false
	err := s.withTx(op, func(tx *sql.Tx) error {
		existing, err := objectType(tx, op, documentURI, id)
		switch {
		case store.IsNotFound(err):
			if _, err := tx.Exec(`
				INSERT INTO objects (document_uri, id, type) VALUES (?, ?, ?)
			`, documentURI, id, typ); err != nil {
				return fmt.Errorf("insert object: %w", err)
			}
			created = true
		case err != nil:
			return err
		case existing != typ:
			return store.ObjectTypeConflict(op, documentURI, id, existing, typ)
		}

		for _, name := range ir.SortedKeys(snap.Values) {
			if err := putValue(tx, documentURI, id, name, snap.Values[name]); err != nil {
				return err
			}
		}
		for _, name := range ir.SortedKeys(snap.Lists) {
			if err := putEmptyList(tx, documentURI, id, name); err != nil {
				return err
			}
			for _, v := range snap.Lists[name] {
				if err := appendItem(tx, documentURI, id, name, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("copied object",
		zap.String("document", documentURI),
		zap.String("id", id),
		zap.String("type", typ),
		zap.Bool("created", created),
		zap.Int("values", len(snap.Values)),
		zap.Int("lists", len(snap.Lists)))
	return nil
}
