package archives

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// OrgFilter selects orgs to process.
type OrgFilter struct {
	// OrgID limits to a single org when non-zero.
	OrgID int64

	// IncludeSuspended includes suspended orgs.
	IncludeSuspended bool
}

// Catalog is the relational record of orgs and their archives.
type Catalog interface {
	// Orgs returns active orgs that have at least one archive, by id.
	Orgs(ctx context.Context, f OrgFilter) ([]*Org, error)

	// Archives returns all archives of the given type for an org.
	Archives(ctx context.Context, orgID int64, typ Type) ([]*Archive, error)

	// UpdateArchive saves a rewritten archive's hash, size, location and
	// record count.
	UpdateArchive(ctx context.Context, a *Archive) error
}

// CoveringPeriod returns the archives needed to cover [since, until] with no
// record appearing twice: monthly archives overlapping the range, plus daily
// archives overlapping the range that haven't been rolled up into one of
// those monthly archives. Results are ordered by start date.
func CoveringPeriod(all []*Archive, since, until time.Time) []*Archive {
	monthlies := map[int64]bool{}
	var covering []*Archive

	for _, a := range all {
		if a.Period == PeriodMonthly && a.Overlaps(since, until) {
			monthlies[a.ID] = true
			covering = append(covering, a)
		}
	}
	for _, a := range all {
		if a.Period != PeriodDaily || !a.Overlaps(since, until) {
			continue
		}
		if a.RollupID != nil && monthlies[*a.RollupID] {
			continue
		}
		covering = append(covering, a)
	}

	slices.SortStableFunc(covering, func(a, b *Archive) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return covering
}
