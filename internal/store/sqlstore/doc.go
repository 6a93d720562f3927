// Package sqlstore provides the SQLite-backed Model Store.
//
// Tables:
//   - objects:      (document_uri, id) -> type
//   - properties:   one row per property slot; kind is 'value' or 'list'
//   - list_items:   list elements ordered by position
//   - id_counters:  next generated-ID counter per (document, id kind)
//   - reserved_ids: every ID handed out by NextID
//
// Values are stored as tagged JSON (see ir.MarshalValue), byte for byte as
// written. Canonical JSON is used only for digests.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: properties cannot outlive their object
//   - one open connection: every multi-statement operation runs in a transaction
//     on the single connection, which serializes writers in-process
package sqlstore
