// Package ir defines the value model shared by every store backend.
//
// This package contains type definitions only; it imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: String, Bool, Int, TypedValue. NO floats.
//   - IDType is a closed enum; the zero value is invalid.
//   - Stored values use RFC 8785 canonical JSON with a "kind" tag.
//   - All JSON tags use snake_case.
package ir
