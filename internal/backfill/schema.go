package backfill

import (
	_ "embed"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/eventhistory/internal/archives"
	"github.com/roach88/eventhistory/internal/jsonx"
)

//go:embed record.cue
var recordCUE []byte

// ErrInvalidRecord is returned for records that don't match the archive
// record schema.
var ErrInvalidRecord = errors.New("invalid archive record")

// Schema validates archive records. Not safe for concurrent use.
type Schema struct {
	ctx    *cue.Context
	record cue.Value
}

// LoadSchema compiles the embedded record schema.
func LoadSchema() (*Schema, error) {
	ctx := cuecontext.New()

	v := ctx.CompileBytes(recordCUE, cue.Filename("record.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile record schema: %s", cueerrors.Details(err, nil))
	}

	record := v.LookupPath(cue.ParsePath("#Record"))
	if !record.Exists() {
		return nil, fmt.Errorf("compile record schema: #Record not defined")
	}
	return &Schema{ctx: ctx, record: record}, nil
}

// Validate checks rec against the schema.
func (s *Schema) Validate(rec archives.Record) error {
	raw, err := jsonx.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	v := s.ctx.CompileBytes(raw)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, cueerrors.Details(err, nil))
	}

	if err := s.record.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, cueerrors.Details(err, nil))
	}
	return nil
}
