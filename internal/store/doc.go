// Package store defines the Model Store contract for SPDX document metadata.
//
// A Model Store holds documents (opaque URIs), each containing objects identified
// by an ID unique within the document. Every object has an immutable type and a
// set of properties; a property is either a scalar slot holding one ir.Value or a
// list slot holding an ordered sequence of ir.Value.
//
// # Invariants
//
// Every backend (memstore, sqlstore) satisfies the same contract, verified by the
// shared suite in store/storetest:
//
//   - Create fails with AlreadyExists if (document, id) is present; the type is fixed.
//   - Every property operation on a missing object fails with NotFound.
//   - A property name is a scalar slot or a list slot, never both. Only
//     ClearValueList and CopyFrom may switch a slot's kind.
//   - NextID never returns an ID present or previously generated in the document.
//   - References are not checked; dangling references are legal.
//   - Failed operations leave no partial state behind.
//
// # Concurrency
//
// Stores are safe for concurrent use. Property mutations on one object are
// atomic with respect to each other, concurrent Create calls for one key yield
// exactly one success, and concurrent NextID calls never return the same ID.
//
// # Copying
//
// CopyFrom copies a single object between stores, copying references by identity.
// CopyGraph and CopyDocument compose it to copy everything an object transitively
// references, or a whole document.
package store
