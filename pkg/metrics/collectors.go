package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine-level visibility into the countdown machinery. Registered on the
// default registry so the scrape controller picks them up.
var (
	ClockSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slatrack_clock_subscribers",
		Help: "Current number of shared clock subscribers.",
	})

	ClockTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slatrack_clock_ticks_total",
		Help: "Total ticks emitted by the shared clock store.",
	})

	BoardRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slatrack_board_refresh_seconds",
		Help:    "Wall time of one board aggregation refresh across all sources.",
		Buckets: prometheus.DefBuckets,
	})

	BoardSourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slatrack_board_source_errors_total",
		Help: "Upstream list fetches that failed, by source.",
	}, []string{"source"})

	StageActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slatrack_stage_active",
		Help: "Entities currently waiting at a pipeline stage.",
	}, []string{"stage"})

	StageOverdue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slatrack_stage_overdue",
		Help: "Entities past their stage SLA deadline.",
	}, []string{"stage"})
)
