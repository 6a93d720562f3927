package harness

// TraceEvent records one step: the call made and what came back.
// Values are plain Go values (see ir.Plain) so the trace can be rendered as
// canonical JSON.
type TraceEvent struct {
	Step     int    `json:"step"`
	Op       string `json:"op"`
	Document string `json:"document,omitempty"` // only when the step overrides the scenario document
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Property string `json:"property,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Value    any    `json:"value,omitempty"`

	// Output is the operation's result; nil for operations without one.
	Output any `json:"output,omitempty"`

	// Absent is set when get found no value.
	Absent bool `json:"absent,omitempty"`

	// Error is the lower-case store error code, if the step failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
