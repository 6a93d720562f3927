package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spdxstore/internal/ir"
)

// Scenario is a sequence of store operations with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the default document URI for steps and assertions.
	Document string `yaml:"document"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions check whole objects after every step has run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step calls one store operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Document overrides the scenario document for this step.
	Document string `yaml:"document,omitempty"`

	ID       string `yaml:"id,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Property string `yaml:"property,omitempty"`

	// Value is the input of set and add. YAML scalars become strings, booleans
	// and integers; {ref: {document, id, type}} becomes a reference.
	Value any `yaml:"value,omitempty"`

	// Kind is the ID type for next_id (e.g. "SpdxId", "LicenseRef").
	Kind string `yaml:"kind,omitempty"`

	// Expect is optional. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect states the outcome of a step. Unset fields are not checked.
type Expect struct {
	// Error is the expected error code in lower case (e.g. "not_found").
	Error string `yaml:"error,omitempty"`

	// Value is the expected result of get, type and next_id.
	Value any `yaml:"value,omitempty"`

	// List is the expected result of list.
	List []any `yaml:"list,omitempty"`

	// Names is the expected result of names and list_names.
	Names []string `yaml:"names,omitempty"`

	// Exists is the expected result of exists.
	Exists *bool `yaml:"exists,omitempty"`

	// Absent expects get to find no value.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion checks final store state.
type Assertion struct {
	// Type is AssertObject or AssertObjectCount.
	Type string `yaml:"type"`

	// Document overrides the scenario document.
	Document string `yaml:"document,omitempty"`

	// ID, ObjectType, Values and Lists describe the exact expected object
	// (AssertObject). Properties not listed must not exist.
	ID         string           `yaml:"id,omitempty"`
	ObjectType string           `yaml:"object_type,omitempty"`
	Values     map[string]any   `yaml:"values,omitempty"`
	Lists      map[string][]any `yaml:"lists,omitempty"`

	// Count is the expected number of objects in the document (AssertObjectCount).
	Count int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpCreate    = "create"
	OpExists    = "exists"
	OpSet       = "set"
	OpAdd       = "add"
	OpClear     = "clear"
	OpRemove    = "remove"
	OpGet       = "get"
	OpList      = "list"
	OpNames     = "names"
	OpListNames = "list_names"
	OpNextID    = "next_id"
	OpType      = "type"
)

// Assertion types.
const (
	AssertObject      = "object"
	AssertObjectCount = "object_count"
)

// LoadScenario reads, schema-checks and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario schema-checks and parses scenario YAML.
// Returns an error if the YAML is malformed, contains unknown fields
// (typos), or is missing required fields.
func ParseScenario(data []byte) (*Scenario, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks what the schema cannot: per-op required fields and
// value conversion. Steps expecting invalid_input may omit required fields.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document == "" {
		return fmt.Errorf("document is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step, s.Document); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a, s.Document); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, document string) error {
	var needs []string
	switch step.Op {
	case OpCreate:
		needs = []string{"id", "type"}
	case OpExists, OpNames, OpListNames, OpType:
		needs = []string{"id"}
	case OpSet, OpAdd:
		needs = []string{"id", "property", "value"}
	case OpClear, OpRemove, OpGet, OpList:
		needs = []string{"id", "property"}
	case OpNextID:
		needs = []string{"kind"}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	tolerant := step.Expect != nil && step.Expect.Error == "invalid_input"
	if !tolerant {
		for _, field := range needs {
			if !stepHas(step, field) {
				return fmt.Errorf("%s is required", field)
			}
		}
	}

	doc := document
	if step.Document != "" {
		doc = step.Document
	}
	if step.Value != nil {
		if _, err := ir.FromAny(step.Value, doc); err != nil {
			return fmt.Errorf("value: %w", err)
		}
	}
	if step.Kind != "" {
		if _, err := ir.ParseIDType(step.Kind); err != nil {
			return fmt.Errorf("kind: %w", err)
		}
	}

	if step.Expect != nil {
		if step.Expect.Value != nil {
			if _, err := ir.FromAny(step.Expect.Value, doc); err != nil {
				return fmt.Errorf("expect.value: %w", err)
			}
		}
		for i, v := range step.Expect.List {
			if _, err := ir.FromAny(v, doc); err != nil {
				return fmt.Errorf("expect.list[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func stepHas(step Step, field string) bool {
	switch field {
	case "id":
		return step.ID != ""
	case "type":
		return step.Type != ""
	case "property":
		return step.Property != ""
	case "value":
		return step.Value != nil
	case "kind":
		return step.Kind != ""
	}
	return false
}

func validateAssertion(a Assertion, document string) error {
	doc := document
	if a.Document != "" {
		doc = a.Document
	}
	switch a.Type {
	case AssertObject:
		if a.ID == "" {
			return fmt.Errorf("id is required for %s", AssertObject)
		}
		if a.ObjectType == "" {
			return fmt.Errorf("object_type is required for %s", AssertObject)
		}
		for name, v := range a.Values {
			if _, err := ir.FromAny(v, doc); err != nil {
				return fmt.Errorf("values.%s: %w", name, err)
			}
		}
		for name, vals := range a.Lists {
			for i, v := range vals {
				if _, err := ir.FromAny(v, doc); err != nil {
					return fmt.Errorf("lists.%s[%d]: %w", name, i, err)
				}
			}
		}
	case AssertObjectCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
