package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/ir"
	"github.com/roach88/spdxstore/internal/store"
	"github.com/roach88/spdxstore/internal/store/memstore"
)

// Harness executes scenario steps against one store.
type Harness struct {
	store  store.ModelStore
	logger *zap.Logger
	doc    string
}

// Option configures a run.
type Option func(*Harness)

// WithStore runs the scenario against st instead of a fresh in-memory store.
func WithStore(st store.ModelStore) Option {
	return func(h *Harness) {
		h.store = st
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// outcome is what a step's store call returned.
type outcome struct {
	value  ir.Value // get, type, next_id
	list   []ir.Value
	names  []string
	exists *bool
	absent bool
}

// Run executes a scenario and returns the result.
//
// Unless WithStore is given, each run uses a fresh memstore. Failed
// expectations and assertions are reported in the Result; the returned error
// is reserved for failures outside the scenario's control (backend I/O,
// cancellation, an unlistable store for object_count).
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		logger: zap.NewNop(),
		doc:    scenario.Document,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		h.store = memstore.New(memstore.WithLogger(h.logger))
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := h.executeStep(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	if err := h.evaluateAssertions(scenario.Assertions, result); err != nil {
		return nil, err
	}

	h.logger.Info("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Int("steps", len(scenario.Steps)),
		zap.Bool("pass", result.Pass),
		zap.Int("failures", len(result.Errors)))
	return result, nil
}

func (h *Harness) documentFor(override string) string {
	if override != "" {
		return override
	}
	return h.doc
}

func (h *Harness) executeStep(i int, step Step, result *Result) error {
	doc := h.documentFor(step.Document)
	event := TraceEvent{
		Step:     i,
		Op:       step.Op,
		Document: step.Document,
		ID:       step.ID,
		Type:     step.Type,
		Property: step.Property,
		Kind:     step.Kind,
	}

	var value ir.Value
	if step.Value != nil {
		v, err := ir.FromAny(step.Value, doc)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		value = v
		event.Value = ir.Plain(v)
	}

	out, err := h.call(step, doc, value)
	code := store.CodeOf(err)
	if err != nil && code == "" {
		return err
	}
	event.Error = errorName(code)

	switch {
	case out.exists != nil:
		event.Output = *out.exists
	case out.list != nil:
		event.Output = ir.PlainList(out.list)
	case out.names != nil:
		event.Output = out.names
	case out.value != nil:
		event.Output = ir.Plain(out.value)
	}
	event.Absent = out.absent
	result.AddTrace(event)

	h.check(i, step, doc, out, event.Error, result)

	h.logger.Debug("step executed",
		zap.Int("step", i),
		zap.String("op", step.Op),
		zap.String("document", doc),
		zap.String("id", step.ID),
		zap.String("error", event.Error))
	return nil
}

// call dispatches one step to the store.
func (h *Harness) call(step Step, doc string, value ir.Value) (outcome, error) {
	var (
		out outcome
		err error
	)
	st := h.store
	switch step.Op {
	case OpCreate:
		err = st.Create(doc, step.ID, step.Type)
	case OpExists:
		exists := st.Exists(doc, step.ID)
		out.exists = &exists
	case OpSet:
		err = st.SetValue(doc, step.ID, step.Property, value)
	case OpAdd:
		err = st.AddValueToList(doc, step.ID, step.Property, value)
	case OpClear:
		err = st.ClearValueList(doc, step.ID, step.Property)
	case OpRemove:
		err = st.RemoveProperty(doc, step.ID, step.Property)
	case OpGet:
		var ok bool
		out.value, ok, err = st.Value(doc, step.ID, step.Property)
		out.absent = err == nil && !ok
	case OpList:
		out.list, err = st.ValueList(doc, step.ID, step.Property)
	case OpNames:
		out.names, err = st.PropertyValueNames(doc, step.ID)
	case OpListNames:
		out.names, err = st.PropertyValueListNames(doc, step.ID)
	case OpNextID:
		// An unparsable kind is passed through as the zero IDType so the store
		// reports it as invalid input.
		kind, _ := ir.ParseIDType(step.Kind)
		var id string
		if id, err = st.NextID(kind, doc); err == nil {
			out.value = ir.String(id)
		}
	case OpType:
		var typ string
		if typ, err = st.Type(doc, step.ID); err == nil {
			out.value = ir.String(typ)
		}
	default:
		return out, fmt.Errorf("unknown op %q", step.Op)
	}
	return out, err
}

// check compares a step's outcome against its expectation.
func (h *Harness) check(i int, step Step, doc string, out outcome, gotErr string, result *Result) {
	fail := func(format string, args ...any) {
		result.AddError(fmt.Sprintf("step %d (%s): ", i, step.Op) + fmt.Sprintf(format, args...))
	}

	wantErr := ""
	if step.Expect != nil {
		wantErr = step.Expect.Error
	}
	switch {
	case wantErr == gotErr:
	case wantErr == "":
		fail("unexpected error %s", gotErr)
		return
	case gotErr == "":
		fail("expected error %s, got success", wantErr)
		return
	default:
		fail("expected error %s, got %s", wantErr, gotErr)
		return
	}
	if step.Expect == nil || gotErr != "" {
		return
	}
	exp := step.Expect

	if exp.Value != nil {
		want, _ := ir.FromAny(exp.Value, doc)
		if !ir.Equal(want, out.value) {
			fail("expected value %s, got %s", describe(want), describe(out.value))
		}
	}
	if exp.List != nil {
		want := make([]ir.Value, len(exp.List))
		for j, v := range exp.List {
			want[j], _ = ir.FromAny(v, doc)
		}
		if out.list == nil || !ir.EqualLists(want, out.list) {
			fail("expected list %s, got %s", describeList(want), describeList(out.list))
		}
	}
	if exp.Names != nil {
		if out.names == nil || !slices.Equal(exp.Names, out.names) {
			fail("expected names %v, got %v", exp.Names, out.names)
		}
	}
	if exp.Exists != nil {
		if out.exists == nil || *out.exists != *exp.Exists {
			fail("expected exists=%t", *exp.Exists)
		}
	}
	if exp.Absent && !out.absent {
		fail("expected no value, got %s", describe(out.value))
	}
}

func errorName(code store.Code) string {
	return strings.ToLower(string(code))
}

// describe renders a value as canonical JSON for failure messages.
func describe(v ir.Value) string {
	if v == nil {
		return "nothing"
	}
	data, err := ir.MarshalCanonical(ir.Plain(v))
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func describeList(vals []ir.Value) string {
	if vals == nil {
		return "nothing"
	}
	data, err := ir.MarshalCanonical(ir.PlainList(vals))
	if err != nil {
		return fmt.Sprint(vals)
	}
	return string(data)
}
