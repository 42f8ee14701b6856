package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmdash_gateway_requests_total",
			Help: "Analytics service calls by operation and outcome",
		},
		[]string{"op", "outcome"}, // ok|validation|authentication|not_found|protocol|transient|circuit_open
	)

	SessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmdash_session_transitions_total",
			Help: "Session state machine transitions by target state",
		},
		[]string{"state"}, // resolving|authenticated|anonymous
	)

	SupersededTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmdash_superseded_results_total",
			Help: "Fetch results dropped because a newer request was initiated",
		},
		[]string{"resource"}, // analysis|ranking|revenue|customer|vip|avgOrderValue
	)
)

var registerOnce sync.Once

// MustRegister registers the collectors once; later calls are no-ops so that
// both the CLI and the server can call it unconditionally.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			GatewayRequestsTotal,
			SessionTransitionsTotal,
			SupersededTotal,
		)
	})
}
