package archives

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Repository combines the catalog with blob storage.
type Repository struct {
	Catalog Catalog
	Blobs   Blobs
}

// NewRepository returns a repository over the given catalog and blobs.
func NewRepository(c Catalog, b Blobs) *Repository {
	return &Repository{Catalog: c, Blobs: b}
}

// CoveringPeriod returns the org's archives of the given type needed to
// cover [since, until]. See CoveringPeriod.
func (r *Repository) CoveringPeriod(ctx context.Context, orgID int64, typ Type, since, until time.Time) ([]*Archive, error) {
	all, err := r.Catalog.Archives(ctx, orgID, typ)
	if err != nil {
		return nil, err
	}
	return CoveringPeriod(all, since, until), nil
}

// IterRecords calls fn with each record of the archive.
func (r *Repository) IterRecords(ctx context.Context, a *Archive, fn func(line int, rec Record) error) error {
	blob, err := r.Blobs.Open(ctx, a.Location)
	if err != nil {
		return fmt.Errorf("archive #%d: %w", a.ID, err)
	}
	defer blob.Close()

	return IterRecords(blob, fn)
}

// Rewrite replaces the archive's blob with one whose records have passed
// through transform, updating the catalog entry to match. The old blob is
// deleted once the catalog points at the new one, unless both have the
// same key because nothing changed.
func (r *Repository) Rewrite(ctx context.Context, a *Archive, transform func(Record) (Record, error)) error {
	tmp, err := os.CreateTemp("", "archive-*.jsonl.gz")
	if err != nil {
		return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	blob, err := r.Blobs.Open(ctx, a.Location)
	if err != nil {
		return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
	}
	hash, size, count, err := RewriteRecords(blob, tmp, transform)
	blob.Close()
	if err != nil {
		return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
	}

	if _, err := tmp.Seek(0, 0); err != nil {
		return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
	}

	oldKey := a.Location
	newKey := a.BlobKey(hash)

	if newKey != oldKey {
		if err := r.Blobs.Put(ctx, newKey, tmp); err != nil {
			return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
		}
	}

	updated := *a
	updated.Hash, updated.Size, updated.Location, updated.RecordCount = hash, size, newKey, count
	if err := r.Catalog.UpdateArchive(ctx, &updated); err != nil {
		return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
	}
	*a = updated

	if newKey != oldKey {
		if err := r.Blobs.Delete(ctx, oldKey); err != nil {
			return fmt.Errorf("rewrite archive #%d: %w", a.ID, err)
		}
	}

	slog.Debug("rewrote archive", "id", a.ID, "old", oldKey, "new", newKey, "records", count, "size", size)
	return nil
}
