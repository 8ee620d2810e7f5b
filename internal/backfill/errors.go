package backfill

import (
	"errors"
	"fmt"
)

// ErrMissingUUID is returned by import for a record with no UUID, which means
// the update step hasn't been run on its archive.
var ErrMissingUUID = errors.New("record has no UUID, cannot import")

// RecordError is a failure processing one record of an archive.
type RecordError struct {
	ArchiveID int64
	Line      int
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record at line %d in archive #%d: %v", e.Line, e.ArchiveID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
