// Package harness runs Model Store scenarios written in YAML.
//
// A scenario is a named list of steps against one default document. Each step
// calls one store operation and may state what it expects: an error code, a
// value, a list, a set of names, or existence. After the steps, assertions
// compare whole objects against the final store state.
//
//	name: package_licenses
//	description: duplicate references are kept in order
//	document: https://example/doc1
//	steps:
//	  - {op: create, id: SPDXRef-1, type: Package}
//	  - op: add
//	    id: SPDXRef-1
//	    property: licenses
//	    value: {ref: {id: LicenseRef-1, type: License}}
//	    expect: {error: type_conflict}
//
// Scenario files are checked against an embedded CUE schema before they are
// decoded, so misspelled keys and unknown ops fail with a position.
//
// Every run records a trace of the calls and their outcomes. RunWithGolden
// compares the canonical JSON form of that trace against
// testdata/golden/<name>.golden; regenerate with
//
//	go test ./internal/harness -update
package harness
