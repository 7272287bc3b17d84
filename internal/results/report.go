package results

import (
	"fmt"

	"minetwin/internal/equipment"
	"minetwin/internal/types"
)

type Summary struct {
	TotalThroughput       float64  `json:"totalThroughput"`
	TotalPowerConsumption float64  `json:"totalPowerConsumption"`
	AverageEfficiency     float64  `json:"averageEfficiency"`
	EnergyIntensity       *float64 `json:"energyIntensity"`
}

// Trend is the dual-axis line chart: throughput on the left axis, efficiency
// on the right.
type Trend struct {
	Labels     []string  `json:"labels"`
	Throughput []float64 `json:"throughput"`
	Efficiency []float64 `json:"efficiency"`
}

type PowerSlice struct {
	EquipmentID string  `json:"equipmentId"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Power       float64 `json:"power"`
}

type Row struct {
	EquipmentID string              `json:"equipmentId"`
	Icon        string              `json:"icon"`
	Name        string              `json:"name"`
	Type        types.EquipmentType `json:"equipmentType"`
	Throughput  float64             `json:"throughput"`
	Power       float64             `json:"power"`
	Efficiency  float64             `json:"efficiency"`
	Temperature float64             `json:"temperature"`
	Vibration   float64             `json:"vibration"`
	Status      types.Status        `json:"status"`
}

type Report struct {
	Empty   bool         `json:"empty"`
	Message string       `json:"message,omitempty"`
	Steps   int          `json:"steps"`
	Summary *Summary     `json:"summary,omitempty"`
	Trend   *Trend       `json:"trend,omitempty"`
	Power   []PowerSlice `json:"power,omitempty"`
	Table   []Row        `json:"table,omitempty"`
}

// Build derives the results view from a run's steps and the current nodes.
// Per-node figures come from each node's latest simulationResults.
func Build(steps []types.StepResult, nodes []types.EquipmentNode) Report {
	if len(steps) == 0 {
		return Report{
			Empty:   true,
			Message: "No simulation results available. Run a simulation to see detailed results and analytics.",
		}
	}

	last := steps[len(steps)-1].GlobalMetrics
	r := Report{
		Steps: len(steps),
		Summary: &Summary{
			TotalThroughput:       last.TotalThroughput,
			TotalPowerConsumption: last.TotalPowerConsumption,
			AverageEfficiency:     last.AverageEfficiency,
			EnergyIntensity:       last.EnergyIntensity,
		},
		Trend: &Trend{
			Labels:     make([]string, len(steps)),
			Throughput: make([]float64, len(steps)),
			Efficiency: make([]float64, len(steps)),
		},
	}
	for i, s := range steps {
		r.Trend.Labels[i] = fmt.Sprintf("Step %d", i+1)
		r.Trend.Throughput[i] = s.GlobalMetrics.TotalThroughput
		r.Trend.Efficiency[i] = s.GlobalMetrics.AverageEfficiency
	}

	for _, n := range nodes {
		perf := n.SimulationResults
		r.Power = append(r.Power, PowerSlice{
			EquipmentID: n.ID,
			Name:        n.Name,
			Color:       equipment.Color(n.Type),
			Power:       perf.PowerConsumption,
		})
		r.Table = append(r.Table, Row{
			EquipmentID: n.ID,
			Icon:        equipment.Icon(n.Type),
			Name:        n.Name,
			Type:        n.Type,
			Throughput:  perf.Throughput,
			Power:       perf.PowerConsumption,
			Efficiency:  perf.Efficiency,
			Temperature: perf.TemperatureActual,
			Vibration:   perf.VibrationActual,
			Status:      n.Status,
		})
	}
	return r
}

// FormatSummary renders the summary cards as short text lines.
func FormatSummary(r Report) []string {
	if r.Empty || r.Summary == nil {
		return []string{r.Message}
	}
	intensity := "n/a"
	if r.Summary.EnergyIntensity != nil {
		intensity = fmt.Sprintf("%.2f kWh/t", *r.Summary.EnergyIntensity)
	}
	return []string{
		fmt.Sprintf("Total Throughput: %.1f t/h", r.Summary.TotalThroughput),
		fmt.Sprintf("Total Power: %.1f kW", r.Summary.TotalPowerConsumption),
		fmt.Sprintf("Avg Efficiency: %.1f%%", r.Summary.AverageEfficiency),
		"Energy Intensity: " + intensity,
	}
}
