package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SimulationRunsTotal counts run requests by outcome: started, rejected, completed, cancelled
	SimulationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minetwin_simulation_runs_total",
			Help: "Total number of simulation run requests by outcome",
		},
		[]string{"outcome"},
	)

	// SimulationStepDuration tracks how long each step takes including the pacing delay
	SimulationStepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minetwin_simulation_step_duration_seconds",
			Help:    "Duration of a single simulation step in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 1},
		},
	)

	// SimulationProgress is the progress percentage of the run in flight
	SimulationProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minetwin_simulation_progress_percent",
			Help: "Progress of the current simulation run in percent",
		},
	)

	// EquipmentNodes is the number of nodes in the registry
	EquipmentNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minetwin_equipment_nodes",
			Help: "Number of equipment nodes in the registry",
		},
	)

	// ClientsConnected tracks the number of open event stream connections
	ClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minetwin_ws_clients_connected",
			Help: "Number of connected WebSocket event stream clients",
		},
	)
)

// RecordRun increments the run counter for outcome.
func RecordRun(outcome string) {
	SimulationRunsTotal.WithLabelValues(outcome).Inc()
}
