package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Currently registered websocket connections",
	})
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_rooms",
		Help: "Rooms with at least one live connection",
	})
	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_broadcasts_total",
		Help: "Broadcast calls issued",
	})
	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_send_failures_total",
		Help: "Outbound sends that failed and evicted a connection",
	})
	Messages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_messages_total",
		Help: "Chat messages accepted over websocket",
	})
)

// Handler exposes the Prometheus registry at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
