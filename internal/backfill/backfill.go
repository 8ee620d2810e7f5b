package backfill

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/roach88/eventhistory/internal/archives"
	"github.com/roach88/eventhistory/internal/ident"
	"github.com/roach88/eventhistory/internal/kv"
	"github.com/roach88/eventhistory/internal/metrics"
)

// Step is one of the two backfill steps.
type Step string

// Steps.
const (
	StepUpdate Step = "update"
	StepImport Step = "import"
)

// progressEvery is how many records are processed per progress dot.
const progressEvery = 10_000

// Options select what a run processes.
type Options struct {
	OrgID            int64
	IncludeSuspended bool

	// Since and Until bound the archive periods processed. Zero values
	// leave that side open.
	Since time.Time
	Until time.Time
}

// Backfill runs backfill steps, writing progress to out.
type Backfill struct {
	archives *archives.Repository
	history  kv.Table
	schema   *Schema
	out      io.Writer

	dotEvery int
}

// New creates a backfill reading archives from repo and writing timeline
// items to history.
func New(repo *archives.Repository, history kv.Table, out io.Writer) (*Backfill, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	return &Backfill{archives: repo, history: history, schema: schema, out: out, dotEvery: progressEvery}, nil
}

// Run runs a step for every matching org.
func (b *Backfill) Run(ctx context.Context, step Step, opts Options) error {
	if step != StepUpdate && step != StepImport {
		return fmt.Errorf("unknown step %q", step)
	}

	orgs, err := b.archives.Catalog.Orgs(ctx, archives.OrgFilter{OrgID: opts.OrgID, IncludeSuspended: opts.IncludeSuspended})
	if err != nil {
		return err
	}

	fmt.Fprintf(b.out, "Starting message archive %s for %d orgs...\n", step, len(orgs))

	for _, org := range orgs {
		if step == StepUpdate {
			fmt.Fprintf(b.out, " > updating archives for '%s' (#%d)... \n", org.Name, org.ID)
			err = b.updateOrg(ctx, org, opts)
		} else {
			fmt.Fprintf(b.out, " > importing archives for '%s' (#%d)... \n", org.Name, org.ID)
			err = b.importOrg(ctx, org, opts)
		}
		if err != nil {
			return fmt.Errorf("%s archives for org #%d: %w", step, org.ID, err)
		}
	}
	return nil
}

func (b *Backfill) dot(n int) {
	if n%b.dotEvery == 0 {
		fmt.Fprint(b.out, ".")
	}
}

func (b *Backfill) updateOrg(ctx context.Context, org *archives.Org, opts Options) error {
	covering, err := b.archives.CoveringPeriod(ctx, org.ID, archives.TypeMessage, opts.Since, opts.Until)
	if err != nil {
		return err
	}

	for _, a := range covering {
		fmt.Fprintf(b.out, "    - rewriting %s #%d...", a.Label(), a.ID)

		records, updated := 0, 0
		err := b.archives.Rewrite(ctx, a, func(rec archives.Record) (archives.Record, error) {
			if !hasEventUUID(rec) {
				createdOn, err := recordTime(rec)
				if err != nil {
					return nil, &RecordError{ArchiveID: a.ID, Line: records + 1, Err: err}
				}
				rec["uuid"] = string(ident.FromInstant(createdOn))
				updated++
				metrics.BackfillRecords.WithLabelValues(string(StepUpdate), "updated").Inc()
			} else {
				metrics.BackfillRecords.WithLabelValues(string(StepUpdate), "unchanged").Inc()
			}

			records++
			b.dot(records)
			return rec, nil
		})
		if err != nil {
			fmt.Fprintln(b.out, " FAILED")
			return err
		}

		metrics.BackfillArchives.WithLabelValues(string(StepUpdate)).Inc()
		fmt.Fprintf(b.out, " OK (%d records, %d updated)\n", records, updated)
	}
	return nil
}

func (b *Backfill) importOrg(ctx context.Context, org *archives.Org, opts Options) (err error) {
	w := kv.NewBatchWriter(ctx, b.history)
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	covering, err := b.archives.CoveringPeriod(ctx, org.ID, archives.TypeMessage, opts.Since, opts.Until)
	if err != nil {
		return err
	}

	for _, a := range covering {
		fmt.Fprintf(b.out, "    - importing %s #%d...", a.Label(), a.ID)

		imported := 0
		err := b.archives.IterRecords(ctx, a, func(line int, rec archives.Record) error {
			items, err := b.importRecord(org, rec)
			if err != nil {
				metrics.BackfillRecords.WithLabelValues(string(StepImport), "failed").Inc()
				return &RecordError{ArchiveID: a.ID, Line: line, Err: err}
			}
			for _, item := range items {
				if err := w.Put(item); err != nil {
					return err
				}
			}

			metrics.BackfillRecords.WithLabelValues(string(StepImport), "imported").Inc()
			imported++
			b.dot(imported)
			return nil
		})
		if err != nil {
			fmt.Fprintln(b.out, " FAILED")
			return err
		}

		metrics.BackfillArchives.WithLabelValues(string(StepImport)).Inc()
		fmt.Fprintf(b.out, " OK (%d imported)\n", imported)
	}
	return nil
}

func (b *Backfill) importRecord(org *archives.Org, rec archives.Record) ([]*kv.Item, error) {
	if u, _ := rec["uuid"].(string); u == "" {
		return nil, ErrMissingUUID
	}
	if err := b.schema.Validate(rec); err != nil {
		return nil, err
	}
	return recordItems(org.ID, rec)
}

// hasEventUUID reports whether rec already has a time ordered uuid it can
// be imported with. Missing, null and other versions of uuid are replaced
// by update.
func hasEventUUID(rec archives.Record) bool {
	u, _ := rec["uuid"].(string)
	return ident.IsV7(u)
}
