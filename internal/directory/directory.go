// Package directory looks up the platform's users so that user references
// stored on events can be refreshed when read.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/eventhistory/internal/events"
	"github.com/roach88/eventhistory/internal/ident"
)

var _ events.UserDirectory = (*Users)(nil)

// Users is the user directory backed by the platform database.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers returns a directory over pool.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

const sqlSelectUsers = `
SELECT u.uuid, u.first_name, u.last_name, u.email
  FROM users_user u
  JOIN orgs_orgmembership m ON m.user_id = u.id
 WHERE m.org_id = $1 AND u.uuid = ANY($2::uuid[]) AND u.is_active`

// LookupUsers implements events.UserDirectory. Users that no longer exist or
// no longer belong to the org are missing from the result.
func (d *Users) LookupUsers(ctx context.Context, orgID int64, uuids []ident.UUID) (map[ident.UUID]events.UserRef, error) {
	found := make(map[ident.UUID]events.UserRef, len(uuids))
	if len(uuids) == 0 {
		return found, nil
	}

	ids := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if parsed, err := uuid.Parse(string(u)); err == nil {
			ids = append(ids, parsed.String())
		}
	}
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := d.pool.Query(ctx, sqlSelectUsers, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}

	type row struct {
		UUID      uuid.UUID
		FirstName string
		LastName  string
		Email     string
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByPos[row])
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}

	for _, u := range users {
		ref := events.UserRef{UUID: ident.UUID(u.UUID.String()), Name: DisplayName(u.FirstName, u.LastName, u.Email)}
		found[ref.UUID] = ref
	}
	return found, nil
}

// DisplayName is the full name of a user, or their email if they have no
// name.
func DisplayName(first, last, email string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return email
}
