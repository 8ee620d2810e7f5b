package archives

import (
	"fmt"
	"time"
)

// Type is the kind of record an archive holds.
type Type string

// Archive types.
const (
	TypeMessage Type = "message"
	TypeFlowRun Type = "run"
)

// Period is the span of time an archive covers.
type Period string

// Archive periods.
const (
	PeriodDaily   Period = "D"
	PeriodMonthly Period = "M"
)

// Org is a workspace that owns archives.
type Org struct {
	ID          int64
	Name        string
	IsActive    bool
	IsSuspended bool
}

// Archive is a catalog entry for one archive blob.
type Archive struct {
	ID            int64
	OrgID         int64
	Type          Type
	Period        Period
	StartDate     time.Time
	RecordCount   int
	Size          int64
	Hash          string
	Location      string
	RollupID      *int64
	NeedsDeletion bool
}

// EndDate returns the first day after the archive's period.
func (a *Archive) EndDate() time.Time {
	if a.Period == PeriodMonthly {
		return a.StartDate.AddDate(0, 1, 0)
	}
	return a.StartDate.AddDate(0, 0, 1)
}

// Overlaps returns whether the archive's period intersects [since, until].
// Zero values leave that side open.
func (a *Archive) Overlaps(since, until time.Time) bool {
	if !since.IsZero() && !a.EndDate().After(since) {
		return false
	}
	if !until.IsZero() && a.StartDate.After(until) {
		return false
	}
	return true
}

// Label returns the short form used in progress output, e.g. D@2015-01-01.
func (a *Archive) Label() string {
	return fmt.Sprintf("%s@%s", a.Period, a.StartDate.Format(time.DateOnly))
}

// BlobKey returns where the blob for this archive lives given its hash:
// <org>/<type>_<period><YYYYMMDD>_<hash>.jsonl.gz
func (a *Archive) BlobKey(hash string) string {
	return fmt.Sprintf("%d/%s_%s%s_%s.jsonl.gz", a.OrgID, a.Type, a.Period, a.StartDate.Format("20060102"), hash)
}
