package events

import (
	"context"
	"fmt"

	"github.com/roach88/eventhistory/internal/ident"
)

// UserDirectory looks up the current state of users referenced by events.
type UserDirectory interface {
	// LookupUsers returns the users that still exist among uuids, keyed by
	// uuid. Missing users are omitted.
	LookupUsers(ctx context.Context, orgID int64, uuids []ident.UUID) (map[ident.UUID]UserRef, error)
}

// refreshUsers replaces denormalized user references with the directory's
// current values using one lookup. References to users that no longer exist
// are cleared.
func refreshUsers(ctx context.Context, dir UserDirectory, orgID int64, evts []Event) error {
	var uuids []ident.UUID
	seen := map[ident.UUID]bool{}
	for _, e := range evts {
		if u := e.Envelope().User; u != nil && !seen[u.UUID] {
			seen[u.UUID] = true
			uuids = append(uuids, u.UUID)
		}
	}
	if len(uuids) == 0 {
		return nil
	}

	users, err := dir.LookupUsers(ctx, orgID, uuids)
	if err != nil {
		return fmt.Errorf("refresh users: %w", err)
	}

	for _, e := range evts {
		b := e.Envelope()
		if b.User == nil {
			continue
		}
		if u, ok := users[b.User.UUID]; ok {
			b.User = &u
		} else {
			b.User = nil
		}
	}
	return nil
}
