package simulator

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetwin/internal/equipment"
	"minetwin/internal/types"
)

// fixedNoise returns base plus a constant offset clamped into [lo, hi].
type fixedNoise struct{ offset float64 }

func (f fixedNoise) Perturb(base, lo, hi float64) float64 {
	return base + clamp(f.offset, lo, hi)
}

type recorder struct {
	mu     sync.Mutex
	events []types.WSEvent
}

func (r *recorder) emit(v any) {
	ev, ok := v.(types.WSEvent)
	if !ok {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) progress() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []float64
	for _, ev := range r.events {
		if p, ok := ev.Payload.(types.ProgressEvent); ok {
			out = append(out, p.Progress)
		}
	}
	return out
}

type notes struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notes) Push(kind, message string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, kind+":"+message)
	n.mu.Unlock()
}

func crusherOnly() []types.EquipmentNode {
	params := equipment.Template(types.Crusher)
	params["capacity"] = 1200
	params["efficiency"] = 87
	return []types.EquipmentNode{{ID: "EQUIP_001", Name: "Crusher", Type: types.Crusher, Parameters: params}}
}

func seeded() *equipment.Registry {
	r := equipment.NewRegistry()
	r.Seed()
	return r
}

func TestRunProducesContiguousStepsAndProgress(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(Config{Steps: 100}, rec.emit, WithNoise(NewUniformNoise(7)))

	results, err := e.Run(context.Background(), seeded().Snapshot())
	require.NoError(t, err)
	require.Len(t, results, 100)

	for i, r := range results {
		assert.Equal(t, i, r.Step)
		if i > 0 {
			assert.Greater(t, r.Timestamp, results[i-1].Timestamp)
		}
		assert.Len(t, r.PerEquipment, 3)
	}

	progress := rec.progress()
	require.Len(t, progress, 100)
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
	assert.InDelta(t, 100.0, progress[len(progress)-1], 1e-9)
	assert.False(t, e.Running())
}

func TestCrusherScenarioBounds(t *testing.T) {
	e := NewEngine(Config{Steps: 100}, nil, WithNoise(NewUniformNoise(11)))

	results, err := e.Run(context.Background(), crusherOnly())
	require.NoError(t, err)

	for _, r := range results {
		s := r.PerEquipment[0]
		assert.GreaterOrEqual(t, s.Efficiency, 82.0)
		assert.LessOrEqual(t, s.Efficiency, 92.0)
		assert.GreaterOrEqual(t, s.Throughput, 1200*0.82-1e-9)
		assert.LessOrEqual(t, s.Throughput, 1200*0.92+1e-9)
		assert.GreaterOrEqual(t, s.PowerConsumption, 500*0.7)
		assert.LessOrEqual(t, s.PowerConsumption, 500*1.0)
		assert.GreaterOrEqual(t, s.Temperature, 45.0-3)
		assert.LessOrEqual(t, s.Temperature, 45.0+8)
		assert.GreaterOrEqual(t, s.Vibration, 3.2-0.5-1e-9)
		assert.LessOrEqual(t, s.Vibration, 3.2+1.0+1e-9)
		assert.GreaterOrEqual(t, s.WearRate, 0.5*0.8-1e-9)
		assert.LessOrEqual(t, s.WearRate, 0.5*1.3+1e-9)
	}
}

func TestAggregateConsistency(t *testing.T) {
	e := NewEngine(Config{Steps: 20}, nil, WithNoise(NewUniformNoise(3)))

	results, err := e.Run(context.Background(), seeded().Snapshot())
	require.NoError(t, err)

	for _, r := range results {
		var throughput, power, eff float64
		for _, s := range r.PerEquipment {
			throughput += s.Throughput
			power += s.PowerConsumption
			eff += s.Efficiency
		}
		assert.InDelta(t, throughput, r.GlobalMetrics.TotalThroughput, 1e-6)
		assert.InDelta(t, power, r.GlobalMetrics.TotalPowerConsumption, 1e-6)
		assert.InDelta(t, eff/float64(len(r.PerEquipment)), r.GlobalMetrics.AverageEfficiency, 1e-6)
		require.NotNil(t, r.GlobalMetrics.EnergyIntensity)
		assert.InDelta(t, power/throughput, *r.GlobalMetrics.EnergyIntensity, 1e-9)
	}
}

func TestEnergyIntensityUnavailableWithoutThroughput(t *testing.T) {
	m := Aggregate([]types.EquipmentSample{{Efficiency: 0, Throughput: 0, PowerConsumption: 350}})
	assert.Nil(t, m.EnergyIntensity)
	assert.False(t, math.IsNaN(m.AverageEfficiency))

	nodes := crusherOnly()
	nodes[0].Parameters["efficiency"] = 0
	e := NewEngine(Config{Steps: 3}, nil, WithNoise(fixedNoise{offset: -5}))
	results, err := e.Run(context.Background(), nodes)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, 0.0, r.PerEquipment[0].Efficiency)
		assert.Nil(t, r.GlobalMetrics.EnergyIntensity)
	}
}

func TestEmptySnapshotRejected(t *testing.T) {
	e := NewEngine(Config{Steps: 5}, nil)

	_, err := e.Start(nil)
	assert.ErrorIs(t, err, ErrEmptySnapshot)
	assert.False(t, e.Running())
	assert.Empty(t, e.Results())
}

func TestSingleFlight(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(Config{Steps: 10, StepDelay: 20 * time.Millisecond}, rec.emit)
	defer e.Close()

	runID, err := e.Start(seeded().Snapshot())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	_, err = e.Start(seeded().Snapshot())
	assert.ErrorIs(t, err, ErrRunInProgress)
	_, err = e.Run(context.Background(), seeded().Snapshot())
	assert.ErrorIs(t, err, ErrRunInProgress)

	require.Eventually(t, func() bool { return !e.Running() }, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, e.Results(), 10)
	assert.Len(t, rec.progress(), 10)
	assert.Equal(t, int64(1), e.Metrics().RunsStarted)
	assert.Equal(t, int64(2), e.Metrics().RunsRejected)
}

func TestSnapshotIsolation(t *testing.T) {
	reg := seeded()
	e := NewEngine(Config{Steps: 10, StepDelay: 10 * time.Millisecond}, nil,
		WithNoise(fixedNoise{}), WithResultWriter(reg))
	defer e.Close()

	_, err := e.Start(reg.Snapshot())
	require.NoError(t, err)

	_, err = reg.UpdateParameters("EQUIP_001", map[string]float64{"capacity": 5000, "efficiency": 10})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return !e.Running() }, 5*time.Second, 10*time.Millisecond)
	for _, r := range e.Results() {
		s := r.PerEquipment[0]
		assert.InDelta(t, 87.0, s.Efficiency, 1e-9)
		assert.InDelta(t, 1200*0.87, s.Throughput, 1e-9)
	}
}

func TestCompletedRunWritesFinalStep(t *testing.T) {
	reg := seeded()
	n := &notes{}
	e := NewEngine(Config{Steps: 4}, nil, WithNoise(fixedNoise{}), WithResultWriter(reg), WithNotifier(n))

	results, err := e.Run(context.Background(), reg.Snapshot())
	require.NoError(t, err)

	last := results[len(results)-1].PerEquipment[2]
	mill, err := reg.Get("EQUIP_003")
	require.NoError(t, err)
	assert.Equal(t, last.Throughput, mill.SimulationResults.Throughput)
	assert.Equal(t, last.PowerConsumption, mill.SimulationResults.PowerConsumption)
	assert.Equal(t, last.Temperature, mill.SimulationResults.TemperatureActual)
	assert.InDelta(t, 12.3+4*0.3*wearHoursPerStep, mill.SimulationResults.WearProgress, 1e-9)
	assert.Equal(t, []string{"success:Simulation completed successfully!"}, n.msgs)
}

func TestCancelStopsRunWithoutWriting(t *testing.T) {
	reg := seeded()
	rec := &recorder{}
	e := NewEngine(Config{Steps: 100, StepDelay: 50 * time.Millisecond}, rec.emit,
		WithNoise(fixedNoise{}), WithResultWriter(reg))

	_, err := e.Start(reg.Snapshot())
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)
	e.Close()

	assert.False(t, e.Running())
	assert.Empty(t, e.Results())
	assert.Less(t, len(rec.progress()), 100)
	crusher, err := reg.Get("EQUIP_001")
	require.NoError(t, err)
	assert.Equal(t, 1050.0, crusher.SimulationResults.Throughput)

	// a new run may start once the cancelled one has exited
	_, err = e.Start(reg.Snapshot())
	require.NoError(t, err)
	e.Close()
}

func TestRunHonoursCallerContext(t *testing.T) {
	e := NewEngine(Config{Steps: 100, StepDelay: 20 * time.Millisecond}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err := e.Run(ctx, seeded().Snapshot())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, e.Running())
	assert.Empty(t, e.Results())
}

func TestRunReturnsCallerCancellation(t *testing.T) {
	e := NewEngine(Config{Steps: 100, StepDelay: 20 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(40*time.Millisecond, cancel)

	_, err := e.Run(ctx, seeded().Snapshot())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallerContextDoesNotReachLaterRun(t *testing.T) {
	e := NewEngine(Config{Steps: 3, StepDelay: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := e.Run(ctx, seeded().Snapshot())
	require.NoError(t, err)

	_, err = e.Start(seeded().Snapshot())
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool { return !e.Running() }, 5*time.Second, 5*time.Millisecond)
	assert.Len(t, e.Results(), 3)
	assert.Equal(t, int64(6), e.Metrics().StepsCompleted)
}

func TestUniformNoiseBounds(t *testing.T) {
	n := NewUniformNoise(99)
	for i := 0; i < 1000; i++ {
		v := n.Perturb(10, -0.5, 1.0)
		assert.GreaterOrEqual(t, v, 9.5-1e-9)
		assert.LessOrEqual(t, v, 11.0+1e-9)
	}
}
