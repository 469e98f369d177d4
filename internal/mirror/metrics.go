package mirror

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankstack_sync",
			Name:      "mirror_jobs_submitted_total",
			Help:      "Jobs accepted into the mirror queue.",
		},
		[]string{"shard"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankstack_sync",
			Name:      "mirror_queue_full_total",
			Help:      "Submissions rejected because a shard stayed full.",
		},
		[]string{"shard"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankstack_sync",
			Name:      "mirror_job_failures_total",
			Help:      "Jobs that failed after exhausting their retries.",
		},
		[]string{"shard"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankstack_sync",
			Name:      "mirror_job_duration_seconds",
			Help:      "Time spent replaying a job on the remote store.",
		},
		[]string{"shard"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "rankstack_sync",
			Name:      "mirror_queue_depth",
			Help:      "Jobs waiting in each shard.",
		},
		[]string{"shard"},
	)
)

func labelFor(shard int) string { return strconv.Itoa(shard) }
