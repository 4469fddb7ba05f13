package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "villabook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "villabook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "villabook",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the availability check.",
		},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "villabook",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		},
	)

	expensesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "villabook",
			Name:      "expenses_written_total",
			Help:      "Expense create and update operations.",
		},
	)

	reportBuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "villabook",
			Name:      "report_builds_total",
			Help:      "Monthly XLSX reports generated.",
		},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "villabook",
			Name:      "sync_tasks_total",
			Help:      "Sheets sync task outcomes.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bookingsCreated,
			slotConflicts,
			expensesWritten,
			reportBuilds,
			syncTasks,
		)
	})
}

// IncHTTP counts one request for an endpoint/code pair.
func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

// ObserveHTTP records request latency for an endpoint.
func ObserveHTTP(endpoint string, d time.Duration) {
	httpDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncSlotConflict() { slotConflicts.Inc() }

func IncExpenseWritten() { expensesWritten.Inc() }

func IncReportBuild() { reportBuilds.Inc() }

// IncSyncTask counts one sync task outcome: done, retry or failed.
func IncSyncTask(status string) {
	syncTasks.WithLabelValues(status).Inc()
}
