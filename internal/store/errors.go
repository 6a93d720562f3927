package store

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes store errors.
type Code string

const (
	// CodeNotFound indicates the addressed object does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAlreadyExists indicates Create addressed an existing object.
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// CodeTypeConflict indicates a scalar/list mismatch, or a copy onto an
	// object of a different type.
	CodeTypeConflict Code = "TYPE_CONFLICT"

	// CodeInvalidInput indicates malformed identifiers, types or values.
	CodeInvalidInput Code = "INVALID_INPUT"
)

// Error is the typed error returned by every ModelStore operation.
// Backend failures (I/O, SQL) are returned wrapped, without a Code.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the failing operation ("create", "set value", ...).
	Op string

	// DocumentURI, ID and Property locate the failure when known.
	DocumentURI string
	ID          string
	Property    string

	// Message is a human-readable description.
	Message string
}

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "object not found"}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists, Message: "object already exists"}
	ErrTypeConflict  = &Error{Code: CodeTypeConflict, Message: "type conflict"}
	ErrInvalidInput  = &Error{Code: CodeInvalidInput, Message: "invalid input"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var loc []string
	if e.DocumentURI != "" {
		loc = append(loc, "document="+e.DocumentURI)
	}
	if e.ID != "" {
		loc = append(loc, "id="+e.ID)
	}
	if e.Property != "" {
		loc = append(loc, "property="+e.Property)
	}
	if len(loc) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(loc, ", "))
	}
	return b.String()
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the Code of err, or "" if err is not a store error.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound reports whether err is a NotFound store error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsAlreadyExists reports whether err is an AlreadyExists store error.
func IsAlreadyExists(err error) bool { return CodeOf(err) == CodeAlreadyExists }

// IsTypeConflict reports whether err is a TypeConflict store error.
func IsTypeConflict(err error) bool { return CodeOf(err) == CodeTypeConflict }

// IsInvalidInput reports whether err is an InvalidInput store error.
func IsInvalidInput(err error) bool { return CodeOf(err) == CodeInvalidInput }

// NewNotFoundError creates an Error for a missing object.
func NewNotFoundError(op, documentURI, id string) *Error {
	return &Error{
		Code:        CodeNotFound,
		Op:          op,
		DocumentURI: documentURI,
		ID:          id,
		Message:     "object does not exist",
	}
}

// NewAlreadyExistsError creates an Error for a duplicate Create.
func NewAlreadyExistsError(op, documentURI, id string) *Error {
	return &Error{
		Code:        CodeAlreadyExists,
		Op:          op,
		DocumentURI: documentURI,
		ID:          id,
		Message:     "object already exists",
	}
}

// NewTypeConflictError creates an Error for a kind or type mismatch.
func NewTypeConflictError(op, documentURI, id, property, message string) *Error {
	return &Error{
		Code:        CodeTypeConflict,
		Op:          op,
		DocumentURI: documentURI,
		ID:          id,
		Property:    property,
		Message:     message,
	}
}

// NewInvalidInputError creates an Error for malformed input.
func NewInvalidInputError(op, message string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Op:      op,
		Message: message,
	}
}

// Messages for scalar/list mismatches, shared by every backend.
const (
	msgListSlot   = "property holds a list; use the list operations"
	msgScalarSlot = "property holds a scalar value; use the value operations"
)

// ListSlotConflict reports a scalar operation on a list slot.
func ListSlotConflict(op, documentURI, id, property string) *Error {
	return NewTypeConflictError(op, documentURI, id, property, msgListSlot)
}

// ScalarSlotConflict reports a list operation on a scalar slot.
func ScalarSlotConflict(op, documentURI, id, property string) *Error {
	return NewTypeConflictError(op, documentURI, id, property, msgScalarSlot)
}

// ObjectTypeConflict reports a copy onto an object of a different type.
func ObjectTypeConflict(op, documentURI, id, have, want string) *Error {
	return NewTypeConflictError(op, documentURI, id, "",
		fmt.Sprintf("object has type %q, not %q", have, want))
}
