package cli

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/eventhistory/internal/archives"
	"github.com/roach88/eventhistory/internal/directory"
	"github.com/roach88/eventhistory/internal/events"
	"github.com/roach88/eventhistory/internal/store"
)

// Logical table names.
const (
	historyTable     = "History"
	channelLogsTable = "ChannelLogs"
)

// env holds the open resources a command runs against.
type env struct {
	store *store.Store
	pool  *pgxpool.Pool
}

// openStore opens the item store from config.
func (o *RootOptions) openStore(e *env) error {
	cfg := o.Config.Store
	slog.Debug("opening store", "path", cfg.Path, "prefix", cfg.TablePrefix)

	st, err := store.Open(cfg.Path, store.WithTablePrefix(cfg.TablePrefix))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	e.store = st
	return nil
}

// connect opens the platform database pool if it isn't already open.
func (o *RootOptions) connect(ctx context.Context, e *env) error {
	if e.pool != nil {
		return nil
	}
	if err := o.Config.RequireDatabase(); err != nil {
		return WrapExitError(ExitCommandError, "no database configured", err)
	}
	pool, err := archives.Connect(ctx, o.Config.Database.URL)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to database", err)
	}
	e.pool = pool
	return nil
}

// repository returns the archive repository, connecting to the database
// unless a catalog was injected.
func (o *RootOptions) repository(ctx context.Context, e *env) (*archives.Repository, error) {
	catalog := o.Catalog
	if catalog == nil {
		if err := o.connect(ctx, e); err != nil {
			return nil, err
		}
		catalog = archives.NewPostgresCatalog(e.pool)
	}

	blobs := o.Blobs
	if blobs == nil {
		blobs = archives.NewDirBlobs(o.Config.Archives.Root)
	}
	return archives.NewRepository(catalog, blobs), nil
}

// users returns the user directory used to refresh user references, or nil
// when neither one was injected nor a database is configured.
func (o *RootOptions) users(ctx context.Context, e *env) (events.UserDirectory, error) {
	if o.Users != nil {
		return o.Users, nil
	}
	if o.Config.Database.URL == "" {
		return nil, nil
	}
	if err := o.connect(ctx, e); err != nil {
		return nil, err
	}
	return directory.NewUsers(e.pool), nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			slog.Error("error closing store", "error", err)
		}
	}
}
