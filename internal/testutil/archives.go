package testutil

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/roach88/eventhistory/internal/archives"
)

// Archives is an archive repository over an in-memory catalog and a temp
// directory of blobs.
type Archives struct {
	*archives.Repository
	Catalog *archives.MemoryCatalog
	Blobs   *archives.DirBlobs
}

// NewArchives creates an empty archive repository for a test.
func NewArchives(t *testing.T) *Archives {
	t.Helper()
	cat := archives.NewMemoryCatalog()
	blobs := archives.NewDirBlobs(t.TempDir())
	return &Archives{Repository: archives.NewRepository(cat, blobs), Catalog: cat, Blobs: blobs}
}

// CreateArchive writes records as a gzipped JSON lines blob and adds a
// catalog entry for it. ID, OrgID, Type, Period and StartDate must be set on
// a; the rest is filled in.
func (a *Archives) CreateArchive(t *testing.T, arc *archives.Archive, records []map[string]any) *archives.Archive {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode record: %v", err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip records: %v", err)
	}

	sum := md5.Sum(buf.Bytes())
	arc.Hash = hex.EncodeToString(sum[:])
	arc.Size = int64(buf.Len())
	arc.RecordCount = len(records)
	arc.Location = arc.BlobKey(arc.Hash)

	if err := a.Blobs.Put(context.Background(), arc.Location, &buf); err != nil {
		t.Fatalf("put archive blob: %v", err)
	}
	a.Catalog.AddArchive(arc)
	return arc
}

// ReadRecords returns all records of the catalog's current version of the
// archive with the given id.
func (a *Archives) ReadRecords(t *testing.T, id int64) []archives.Record {
	t.Helper()

	arc := a.Catalog.Archive(id)
	if arc == nil {
		t.Fatalf("no archive #%d", id)
	}

	var records []archives.Record
	err := a.IterRecords(context.Background(), arc, func(_ int, rec archives.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("read archive #%d: %v", id, err)
	}
	return records
}
