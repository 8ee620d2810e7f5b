package archives

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCatalog reads the archive catalog from the platform database.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and fails fast if the database is unreachable.
func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

// NewPostgresCatalog returns a catalog over pool.
func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

const sqlSelectOrgs = `
SELECT o.id, o.name, o.is_active, o.is_suspended
  FROM orgs_org o
 WHERE o.is_active
   AND EXISTS (SELECT 1 FROM archives_archive a WHERE a.org_id = o.id)
   AND ($1 = 0 OR o.id = $1)
   AND ($2 OR NOT o.is_suspended)
 ORDER BY o.id`

// Orgs implements Catalog.
func (c *PostgresCatalog) Orgs(ctx context.Context, f OrgFilter) ([]*Org, error) {
	rows, err := c.pool.Query(ctx, sqlSelectOrgs, f.OrgID, f.IncludeSuspended)
	if err != nil {
		return nil, fmt.Errorf("query orgs: %w", err)
	}

	orgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Org, error) {
		o := &Org{}
		err := row.Scan(&o.ID, &o.Name, &o.IsActive, &o.IsSuspended)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("query orgs: %w", err)
	}
	return orgs, nil
}

const sqlSelectArchives = `
SELECT id, org_id, archive_type, period, start_date, record_count, size, hash, location, rollup_id, needs_deletion
  FROM archives_archive
 WHERE org_id = $1 AND archive_type = $2
 ORDER BY start_date, id`

// Archives implements Catalog.
func (c *PostgresCatalog) Archives(ctx context.Context, orgID int64, typ Type) ([]*Archive, error) {
	rows, err := c.pool.Query(ctx, sqlSelectArchives, orgID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("query archives for org %d: %w", orgID, err)
	}

	archives, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Archive, error) {
		a := &Archive{}
		var typ, period string
		err := row.Scan(&a.ID, &a.OrgID, &typ, &period, &a.StartDate, &a.RecordCount, &a.Size, &a.Hash, &a.Location, &a.RollupID, &a.NeedsDeletion)
		a.Type, a.Period = Type(typ), Period(period)
		a.StartDate = a.StartDate.UTC()
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("query archives for org %d: %w", orgID, err)
	}
	return archives, nil
}

const sqlUpdateArchive = `
UPDATE archives_archive
   SET hash = $2, size = $3, location = $4, record_count = $5
 WHERE id = $1`

// UpdateArchive implements Catalog.
func (c *PostgresCatalog) UpdateArchive(ctx context.Context, a *Archive) error {
	tag, err := c.pool.Exec(ctx, sqlUpdateArchive, a.ID, a.Hash, a.Size, a.Location, a.RecordCount)
	if err != nil {
		return fmt.Errorf("update archive #%d: %w", a.ID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update archive #%d: no such archive", a.ID)
	}
	return nil
}
