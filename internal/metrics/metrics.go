// Package metrics holds the prometheus collectors of the booking engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "room_booking"

// Operation names used as label values.
const (
	OpCreateBooking  = "create_booking"
	OpUpdateBooking  = "update_booking"
	OpAvailableRooms = "available_rooms"
	OpSuggestedTimes = "suggested_times"
	OpSetRoomActive  = "set_room_active"
	OpSaveBuilding   = "save_building"
)

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	Operations       *prometheus.CounterVec
	OperationSeconds *prometheus.HistogramVec
	TxRetries        *prometheus.CounterVec
	RankedRooms      prometheus.Histogram
	CanceledByRoom   prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Booking engine operations by outcome (ok or the error kind).",
		}, []string{"operation", "outcome"}),

		OperationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent per booking engine operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		TxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serialization_retries_total",
			Help:      "Transactions retried after a serialization failure.",
		}, []string{"operation"}),

		RankedRooms: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranked_rooms",
			Help:      "Candidate rooms returned per attendee group.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),

		CanceledByRoom: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_canceled_by_room_deactivation_total",
			Help:      "Bookings canceled because one of their rooms was deactivated.",
		}),
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncRetry(operation string) {
	if m == nil {
		return
	}
	m.TxRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveRankedRooms(n int) {
	if m == nil {
		return
	}
	m.RankedRooms.Observe(float64(n))
}

func (m *Metrics) AddCanceledByRoom(n int) {
	if m == nil {
		return
	}
	m.CanceledByRoom.Add(float64(n))
}
