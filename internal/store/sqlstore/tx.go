package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

const (
	slotValue = "value"
	slotList  = "list"
)

// withTx runs fn in a transaction, committing if it returns nil.
// Store errors pass through unchanged; other errors are wrapped with op.
func (s *Store) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", zap.String("op", op), zap.Error(rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		if store.CodeOf(err) != "" {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// objectType returns the object's type, or NotFound.
func objectType(tx *sql.Tx, op, documentURI, id string) (string, error) {
	var typ string
	err := tx.QueryRow(`
		SELECT type FROM objects
		WHERE document_uri = ? AND id = ?
	`, documentURI, id).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.NewNotFoundError(op, documentURI, id)
	}
	if err != nil {
		return "", fmt.Errorf("query object: %w", err)
	}
	return typ, nil
}

// slotKind returns slotValue, slotList or "" if the property is absent.
func slotKind(tx *sql.Tx, documentURI, id, property string) (string, error) {
	var kind string
	err := tx.QueryRow(`
		SELECT kind FROM properties
		WHERE document_uri = ? AND id = ? AND name = ?
	`, documentURI, id, property).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query property kind: %w", err)
	}
	return kind, nil
}

// putValue upserts a scalar slot, discarding any list content under the name.
func putValue(tx *sql.Tx, documentURI, id, property string, v ir.Value) error {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return err
	}
	if err := deleteItems(tx, documentURI, id, property); err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO properties (document_uri, id, name, kind, value)
		VALUES (?, ?, ?, 'value', ?)
		ON CONFLICT (document_uri, id, name) DO UPDATE SET kind = 'value', value = excluded.value
	`, documentURI, id, property, string(data))
	if err != nil {
		return fmt.Errorf("upsert value: %w", err)
	}
	return nil
}

// putEmptyList makes the property an empty list slot.
func putEmptyList(tx *sql.Tx, documentURI, id, property string) error {
	if err := deleteItems(tx, documentURI, id, property); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO properties (document_uri, id, name, kind, value)
		VALUES (?, ?, ?, 'list', NULL)
		ON CONFLICT (document_uri, id, name) DO UPDATE SET kind = 'list', value = NULL
	`, documentURI, id, property)
	if err != nil {
		return fmt.Errorf("upsert list: %w", err)
	}
	return nil
}

// appendItem adds v after the last element of a list slot that already exists.
func appendItem(tx *sql.Tx, documentURI, id, property string, v ir.Value) error {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO list_items (document_uri, id, name, position, value)
		SELECT ?, ?, ?, COALESCE(MAX(position) + 1, 0), ?
		FROM list_items
		WHERE document_uri = ? AND id = ? AND name = ?
	`, documentURI, id, property, string(data), documentURI, id, property)
	if err != nil {
		return fmt.Errorf("append list item: %w", err)
	}
	return nil
}

func deleteItems(tx *sql.Tx, documentURI, id, property string) error {
	_, err := tx.Exec(`
		DELETE FROM list_items
		WHERE document_uri = ? AND id = ? AND name = ?
	`, documentURI, id, property)
	if err != nil {
		return fmt.Errorf("delete list items: %w", err)
	}
	return nil
}

// readItems returns a list slot's elements in order.
func readItems(tx *sql.Tx, documentURI, id, property string) ([]ir.Value, error) {
	rows, err := tx.Query(`
		SELECT value FROM list_items
		WHERE document_uri = ? AND id = ? AND name = ?
		ORDER BY position ASC
	`, documentURI, id, property)
	if err != nil {
		return nil, fmt.Errorf("query list items: %w", err)
	}
	defer rows.Close()

	vals := []ir.Value{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan list item: %w", err)
		}
		v, err := ir.UnmarshalValue([]byte(data))
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate list items: %w", err)
	}
	return vals, nil
}

// propertyNames returns the names of slots of one kind, sorted.
func propertyNames(tx *sql.Tx, documentURI, id, kind string) ([]string, error) {
	rows, err := tx.Query(`
		SELECT name FROM properties
		WHERE document_uri = ? AND id = ? AND kind = ?
		ORDER BY name COLLATE BINARY ASC
	`, documentURI, id, kind)
	if err != nil {
		return nil, fmt.Errorf("query property names: %w", err)
	}
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
