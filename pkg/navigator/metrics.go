package navigator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	navigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_navigator_navigations_total",
		Help: "Total navigations by direction (load, next, prev)",
	}, []string{"direction"})

	fetchesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tour_navigator_fetches_in_flight",
		Help: "Room fetches issued and not yet completed",
	})

	staleDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tour_navigator_stale_discarded_total",
		Help: "Completed fetches dropped because a newer navigation was issued",
	})

	renderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_navigator_render_errors_total",
		Help: "Fetch or render failures surfaced to the status target, by kind",
	}, []string{"kind"})
)
