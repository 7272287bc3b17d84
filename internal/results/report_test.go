package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetwin/internal/equipment"
	"minetwin/internal/types"
)

func step(i int, throughput, power, eff float64, intensity *float64) types.StepResult {
	return types.StepResult{
		Step: i,
		GlobalMetrics: types.GlobalMetrics{
			TotalThroughput:       throughput,
			TotalPowerConsumption: power,
			AverageEfficiency:     eff,
			EnergyIntensity:       intensity,
		},
	}
}

func TestEmptyReport(t *testing.T) {
	r := Build(nil, nil)

	assert.True(t, r.Empty)
	assert.Nil(t, r.Summary)
	assert.Nil(t, r.Trend)
	assert.NotEmpty(t, r.Message)
	assert.Equal(t, []string{r.Message}, FormatSummary(r))
}

func TestReportFromSteps(t *testing.T) {
	reg := equipment.NewRegistry()
	reg.Seed()
	intensity := 2.5

	r := Build([]types.StepResult{
		step(0, 1000, 2000, 80, nil),
		step(1, 1100, 2750, 85, &intensity),
	}, reg.List())

	require.False(t, r.Empty)
	assert.Equal(t, 2, r.Steps)
	assert.Equal(t, 1100.0, r.Summary.TotalThroughput)
	assert.Equal(t, 2750.0, r.Summary.TotalPowerConsumption)
	assert.Equal(t, []string{"Step 1", "Step 2"}, r.Trend.Labels)
	assert.Equal(t, []float64{1000, 1100}, r.Trend.Throughput)
	assert.Equal(t, []float64{80, 85}, r.Trend.Efficiency)

	require.Len(t, r.Power, 3)
	assert.Equal(t, "Ball Mill", r.Power[2].Name)
	assert.Equal(t, 2100.0, r.Power[2].Power)
	assert.Equal(t, "#8B5CF6", r.Power[2].Color)

	require.Len(t, r.Table, 3)
	assert.Equal(t, types.Conveyor, r.Table[1].Type)
	assert.Equal(t, 96.2, r.Table[1].Efficiency)
	assert.Equal(t, types.Active, r.Table[1].Status)

	lines := FormatSummary(r)
	assert.Contains(t, lines, "Energy Intensity: 2.50 kWh/t")
}

func TestUnavailableEnergyIntensity(t *testing.T) {
	r := Build([]types.StepResult{step(0, 0, 350, 0, nil)}, nil)

	assert.Nil(t, r.Summary.EnergyIntensity)
	assert.Contains(t, FormatSummary(r), "Energy Intensity: n/a")
}
