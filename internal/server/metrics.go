package server

import (
	"net/http"

	"github.com/Sternrassler/room-tour/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_server_requests_total",
		Help: "Total room server requests by route and status",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tour_server_request_duration_seconds",
		Help:    "Room server handler latency in seconds by route",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"route"})

	roomsServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_server_rooms_served_total",
		Help: "Room records served (including 304 revalidations) by index",
	}, []string{"index"})
)

func metricsHandler() http.Handler {
	return metrics.Handler()
}
