package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "berth_allocator"

// Recorder tracks booking activity. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	bookings           *prometheus.CounterVec
	capacityRejections prometheus.Counter
	cancellations      prometheus.Counter
	promotions         *prometheus.CounterVec
	txRetries          *prometheus.CounterVec
	txConflicts        *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
}

// NewRecorder registers the booking collectors on reg
func NewRecorder(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		bookings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_total",
				Help:      "Total booked tickets by resulting ticket status",
			},
			[]string{"status"},
		),
		capacityRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capacity_rejections_total",
				Help:      "Total bookings rejected because the inventory could not hold the group",
			},
		),
		cancellations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cancellations_total",
				Help:      "Total cancelled tickets",
			},
		),
		promotions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "promotions_total",
				Help:      "Total promoted tickets by promotion pass",
			},
			[]string{"pass"},
		),
		txRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_retries_total",
				Help:      "Total transactions retried after a serialization failure",
			},
			[]string{"operation"},
		),
		txConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_conflicts_total",
				Help:      "Total operations that gave up after exhausting their retries",
			},
			[]string{"operation"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of booking operations including retries",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"operation", "outcome"},
		),
	}
}

// Handler exposes the recorder's registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) TrackBooking(status string) {
	if r == nil {
		return
	}
	r.bookings.WithLabelValues(status).Inc()
}

func (r *Recorder) TrackCapacityRejection() {
	if r == nil {
		return
	}
	r.capacityRejections.Inc()
}

func (r *Recorder) TrackCancellation() {
	if r == nil {
		return
	}
	r.cancellations.Inc()
}

// TrackPromotions adds count promoted tickets to the given pass
func (r *Recorder) TrackPromotions(pass string, count int) {
	if r == nil || count == 0 {
		return
	}
	r.promotions.WithLabelValues(pass).Add(float64(count))
}

func (r *Recorder) TrackRetry(operation string) {
	if r == nil {
		return
	}
	r.txRetries.WithLabelValues(operation).Inc()
}

func (r *Recorder) TrackConflict(operation string) {
	if r == nil {
		return
	}
	r.txConflicts.WithLabelValues(operation).Inc()
}

// TrackOperation observes how long an operation took
func (r *Recorder) TrackOperation(operation string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.operationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}
