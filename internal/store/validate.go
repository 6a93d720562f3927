package store

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/spdxstore/internal/ir"
)

// ValidateKey checks the document URI and ID of an object address.
func ValidateKey(op, documentURI, id string) error {
	if documentURI == "" {
		return NewInvalidInputError(op, "document URI is required")
	}
	if id == "" {
		return &Error{Code: CodeInvalidInput, Op: op, DocumentURI: documentURI, Message: "id is required"}
	}
	return nil
}

// ValidateType checks an object type name: non-empty, no whitespace or control characters.
func ValidateType(op, typ string) error {
	if typ == "" {
		return NewInvalidInputError(op, "type is required")
	}
	if strings.IndexFunc(typ, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return NewInvalidInputError(op, fmt.Sprintf("malformed type %q", typ))
	}
	return nil
}

// ValidateProperty checks a property name.
func ValidateProperty(op, property string) error {
	if property == "" {
		return NewInvalidInputError(op, "property name is required")
	}
	return nil
}

// ValidateValue checks that v is a storable value.
func ValidateValue(op string, v ir.Value) error {
	switch val := v.(type) {
	case nil:
		return NewInvalidInputError(op, "value is required")
	case ir.String:
		if !ir.ValidUTF8(val) {
			return NewInvalidInputError(op, "string value is not valid UTF-8")
		}
		return nil
	case ir.Bool, ir.Int:
		return nil
	case ir.TypedValue:
		if !ir.ValidUTF8(val) {
			return NewInvalidInputError(op, "reference is not valid UTF-8")
		}
		if val.DocumentURI == "" || val.ID == "" {
			return NewInvalidInputError(op, "reference requires a document URI and an id")
		}
		if ValidateType(op, val.Type) != nil {
			return NewInvalidInputError(op, fmt.Sprintf("reference has malformed type %q", val.Type))
		}
		return nil
	default:
		return NewInvalidInputError(op, fmt.Sprintf("unsupported value kind %T", v))
	}
}

// ValidateIDKind checks that IDs of kind can be generated.
func ValidateIDKind(op string, kind ir.IDType) error {
	if !kind.Valid() {
		return NewInvalidInputError(op, fmt.Sprintf("unknown id type %s", kind))
	}
	if !kind.Generatable() {
		return NewInvalidInputError(op, fmt.Sprintf("cannot generate an id of type %s", kind))
	}
	return nil
}

// ValidatePropertyOp validates an object address plus property name.
func ValidatePropertyOp(op, documentURI, id, property string) error {
	if err := ValidateKey(op, documentURI, id); err != nil {
		return err
	}
	return ValidateProperty(op, property)
}

// ValidateSnapshot checks an object snapshot before it is written.
func ValidateSnapshot(op string, obj ir.Object) error {
	if err := ValidateKey(op, obj.DocumentURI, obj.ID); err != nil {
		return err
	}
	if err := ValidateType(op, obj.Type); err != nil {
		return err
	}
	for _, name := range ir.SortedKeys(obj.Values) {
		if err := ValidateProperty(op, name); err != nil {
			return err
		}
		if err := ValidateValue(op, obj.Values[name]); err != nil {
			return err
		}
	}
	for _, name := range ir.SortedKeys(obj.Lists) {
		if err := ValidateProperty(op, name); err != nil {
			return err
		}
		for _, v := range obj.Lists[name] {
			if err := ValidateValue(op, v); err != nil {
				return err
			}
		}
	}
	return nil
}
