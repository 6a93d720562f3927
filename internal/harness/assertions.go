package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Step, event.Op, event.ID)
			if event.Property != "" {
				fmt.Fprintf(&buf, " %s", event.Property)
			}
			if event.Error != "" {
				fmt.Fprintf(&buf, " -> %s", event.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// evaluateAssertions checks every assertion against the final store state and
// records failures in result. The error return is for store failures only.
func (h *Harness) evaluateAssertions(assertions []Assertion, result *Result) error {
	for i, a := range assertions {
		var (
			failure *AssertionError
			err     error
		)
		switch a.Type {
		case AssertObject:
			failure, err = h.assertObject(a)
		case AssertObjectCount:
			failure, err = h.assertObjectCount(a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
		if failure != nil {
			failure.Trace = result.Trace
			result.AddError(fmt.Sprintf("assertions[%d]: %s", i, failure.Error()))
		}
	}
	return nil
}

// assertObject checks that an object exists with exactly the given type and
// properties. List order matters.
func (h *Harness) assertObject(a Assertion) (*AssertionError, error) {
	doc := h.documentFor(a.Document)
	key := ir.ObjectKey{DocumentURI: doc, ID: a.ID}

	want := ir.NewObject(doc, a.ID, a.ObjectType)
	for name, v := range a.Values {
		val, err := ir.FromAny(v, doc)
		if err != nil {
			return nil, fmt.Errorf("values.%s: %w", name, err)
		}
		want.Values[name] = val
	}
	for name, vals := range a.Lists {
		list := make([]ir.Value, len(vals))
		for i, v := range vals {
			val, err := ir.FromAny(v, doc)
			if err != nil {
				return nil, fmt.Errorf("lists.%s[%d]: %w", name, i, err)
			}
			list[i] = val
		}
		want.Lists[name] = list
	}
	wantJSON, err := ir.MarshalCanonical(want.Plain())
	if err != nil {
		return nil, err
	}

	got, err := store.ReadObject(h.store, doc, a.ID)
	if store.IsNotFound(err) {
		return &AssertionError{
			Type:     AssertObject,
			Expected: string(wantJSON),
			Actual:   fmt.Sprintf("object %s not found", key),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	gotJSON, err := ir.MarshalCanonical(got.Plain())
	if err != nil {
		return nil, err
	}

	if string(wantJSON) != string(gotJSON) {
		return &AssertionError{
			Type:     AssertObject,
			Expected: string(wantJSON),
			Actual:   string(gotJSON),
		}, nil
	}
	return nil, nil
}

// assertObjectCount checks the number of objects in a document.
func (h *Harness) assertObjectCount(a Assertion) (*AssertionError, error) {
	lister, ok := h.store.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("%s: store %T cannot list objects", AssertObjectCount, h.store)
	}
	doc := h.documentFor(a.Document)
	ids, err := lister.ObjectIDs(doc)
	if err != nil {
		return nil, err
	}
	if len(ids) != a.Count {
		return &AssertionError{
			Type:     AssertObjectCount,
			Expected: fmt.Sprintf("%d objects in %s", a.Count, doc),
			Actual:   fmt.Sprintf("%d objects %v", len(ids), ids),
		}, nil
	}
	return nil, nil
}
