// Package metrics holds the Prometheus collectors for engine traffic and
// backfill progress.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EngineCalls counts calls made to the wide-column engine by table and
	// operation (query, batch_get, batch_write, put, scan, delete).
	EngineCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhistory_engine_calls_total",
			Help: "Total number of calls made to the item engine",
		},
		[]string{"table", "op"},
	)

	// EngineItems counts items read or written by table and operation.
	EngineItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhistory_engine_items_total",
			Help: "Total number of items read or written through the item engine",
		},
		[]string{"table", "op"},
	)

	// BackfillRecords counts archive records by step and outcome.
	BackfillRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhistory_backfill_records_total",
			Help: "Total number of archive records processed by the backfill",
		},
		[]string{"step", "outcome"},
	)

	// BackfillArchives counts archives completed by step.
	BackfillArchives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhistory_backfill_archives_total",
			Help: "Total number of archives completed by the backfill",
		},
		[]string{"step"},
	)

	// DroppedItems counts items discarded on read because their org didn't
	// match the owner they were looked up for.
	DroppedItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhistory_dropped_items_total",
			Help: "Total number of items dropped on read due to org mismatch",
		},
		[]string{"table"},
	)

	// BlankedValues counts free-text values fully masked during anonymization
	// because nothing matching the contact could be found in them.
	BlankedValues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhistory_redaction_blanked_total",
			Help: "Total number of log values fully masked because no match was found",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with reg. Only the first call has any
// effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(EngineCalls)
		reg.MustRegister(EngineItems)
		reg.MustRegister(BackfillRecords)
		reg.MustRegister(BackfillArchives)
		reg.MustRegister(DroppedItems)
		reg.MustRegister(BlankedValues)
	})
}
