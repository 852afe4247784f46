package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SalesRecorded prometheus.Counter
	SalesRejected *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SalesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sales_recorded_total",
			Help: "Sales committed to the store",
		}),
		SalesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sales_rejected_total",
				Help: "Sales rejected before or during commit",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.SalesRecorded, m.SalesRejected)
	return m
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "error"
	}
}
