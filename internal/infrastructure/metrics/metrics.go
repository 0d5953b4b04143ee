package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collab-plane instruments. A fresh set is registered on
// its own registry so tests can instantiate isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	OpenConnections prometheus.Gauge
	ActiveRooms     prometheus.Gauge

	EventsRouted        *prometheus.CounterVec
	BroadcastDrops      prometheus.Counter
	PersistenceFailures prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		OpenConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "collab_open_connections",
			Help: "Number of live websocket connections.",
		}),
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "collab_active_rooms",
			Help: "Number of rooms with at least one member.",
		}),
		EventsRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collab_events_routed_total",
			Help: "Inbound events dispatched through the router, by kind.",
		}, []string{"kind"}),
		BroadcastDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "collab_broadcast_drops_total",
			Help: "Messages dropped because a recipient's buffer was full.",
		}),
		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "collab_persistence_failures_total",
			Help: "Best-effort progress writes that failed.",
		}),
	}
}
