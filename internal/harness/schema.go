package harness

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// A cue.Context is not safe for concurrent use, so schema checks are serialized.
var (
	schemaMu  sync.Mutex
	schemaCtx *cue.Context
	schemaDef cue.Value
)

func scenarioSchema() (*cue.Context, cue.Value, error) {
	if schemaCtx == nil {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			return nil, cue.Value{}, fmt.Errorf("compile scenario schema: %w", err)
		}
		schemaCtx, schemaDef = ctx, v.LookupPath(cue.ParsePath("#Scenario"))
	}
	return schemaCtx, schemaDef, nil
}

// ValidateSchema checks raw scenario YAML against the embedded CUE schema.
func ValidateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("scenario is empty")
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, def, err := scenarioSchema()
	if err != nil {
		return err
	}
	v := def.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}
