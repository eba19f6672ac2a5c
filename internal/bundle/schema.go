package bundle

import (
	_ "embed"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

var (
	schemaOnce sync.Once
	itemSchema cue.Value
)

// loadItemSchema compiles the embedded exchange schema once per process.
// The compiled value is immutable and safe to share across workers.
func loadItemSchema() cue.Value {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		itemSchema = ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Item"))
	})
	return itemSchema
}

// validateItemRecord checks one item frame against the CUE schema.
// Schema failures are ImportErrors carrying the first CUE error message;
// positions inside a wire frame are meaningless, so only the record
// ordinal locates the fault.
func validateItemRecord(frame []byte, record int) error {
	schema := loadItemSchema()
	if err := schema.Err(); err != nil {
		// The embedded schema failing to compile is a build defect, not
		// an input error.
		panic("bundle: embedded schema.cue does not compile: " + err.Error())
	}

	val := schema.Context().CompileBytes(frame)
	if err := val.Err(); err != nil {
		return importErrf(ErrMalformedRecord, record, "item record is not valid JSON: %s", firstCUEError(err))
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return importErrf(ErrMalformedRecord, record, "item record fails schema: %s", firstCUEError(err))
	}
	return nil
}

// firstCUEError extracts the leading message from a CUE error list.
func firstCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
