package simulator

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"minetwin/internal/metrics"
	"minetwin/internal/types"
)

var (
	ErrRunInProgress = errors.New("simulation already running")
	ErrEmptySnapshot = errors.New("no equipment to simulate")
)

// wearHoursPerStep converts per-step wear rates into wear progress.
const wearHoursPerStep = 0.1

type Config struct {
	Steps     int
	StepDelay time.Duration
}

func DefaultConfig() Config {
	return Config{Steps: 100, StepDelay: 50 * time.Millisecond}
}

// ResultWriter receives the final step of a completed run.
type ResultWriter interface {
	ApplyResults(results map[string]types.Performance)
}

type Notifier interface {
	Push(kind, message string)
}

type Option func(*Engine)

func WithNoise(n Noise) Option               { return func(e *Engine) { e.noise = n } }
func WithResultWriter(w ResultWriter) Option { return func(e *Engine) { e.writer = w } }
func WithNotifier(n Notifier) Option         { return func(e *Engine) { e.notifier = n } }
func WithLogger(l hclog.Logger) Option       { return func(e *Engine) { e.log = l } }
func WithClock(now func() time.Time) Option  { return func(e *Engine) { e.now = now } }

// Engine runs step simulations one at a time and reports progress through
// emit.
type Engine struct {
	cfg      Config
	emit     func(v any)
	noise    Noise
	writer   ResultWriter
	notifier Notifier
	log      hclog.Logger
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	runID    string
	progress float64
	results  []types.StepResult
	cancel   context.CancelFunc
	done     chan struct{}

	lastRunMs      atomic.Int64
	stepsCompleted atomic.Int64
	runsStarted    atomic.Int64
	runsRejected   atomic.Int64
}

func NewEngine(cfg Config, emitter func(v any), opts ...Option) *Engine {
	if cfg.Steps <= 0 {
		cfg.Steps = DefaultConfig().Steps
	}
	e := &Engine{
		cfg:   cfg,
		emit:  emitter,
		noise: NewUniformNoise(0),
		log:   hclog.NewNullLogger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.emit == nil {
		e.emit = func(any) {}
	}
	return e
}

// Start launches a run over snapshot in the background and returns its id.
func (e *Engine) Start(snapshot []types.EquipmentNode) (string, error) {
	ctx, runID, err := e.acquire(context.Background(), snapshot)
	if err != nil {
		return "", err
	}
	snap := cloneSnapshot(snapshot)
	go func() {
		_, _ = e.execute(ctx, runID, snap)
	}()
	return runID, nil
}

// Run executes a run synchronously. It obeys the same single-flight rule as
// Start and stops with ctx's error when ctx ends first.
func (e *Engine) Run(ctx context.Context, snapshot []types.EquipmentNode) ([]types.StepResult, error) {
	runCtx, runID, err := e.acquire(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	return e.execute(runCtx, runID, cloneSnapshot(snapshot))
}

// acquire claims the single run slot. The run's context is derived from
// parent, so only this run is cancelled through it.
func (e *Engine) acquire(parent context.Context, snapshot []types.EquipmentNode) (context.Context, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.runsRejected.Add(1)
		metrics.RecordRun("rejected")
		return nil, "", ErrRunInProgress
	}
	if len(snapshot) == 0 {
		e.runsRejected.Add(1)
		metrics.RecordRun("rejected")
		return nil, "", ErrEmptySnapshot
	}
	ctx, cancel := context.WithCancel(parent)
	e.running = true
	e.runID = uuid.New().String()
	e.progress = 0
	e.cancel = cancel
	e.done = make(chan struct{})
	e.runsStarted.Add(1)
	metrics.RecordRun("started")
	metrics.SimulationProgress.Set(0)
	return ctx, e.runID, nil
}

func (e *Engine) execute(ctx context.Context, runID string, snap []types.EquipmentNode) ([]types.StepResult, error) {
	start := e.now()
	e.log.Info("simulation started", "run_id", runID, "equipment", len(snap), "steps", e.cfg.Steps)
	e.emit(types.WSEvent{Type: "run_start", Payload: map[string]any{"runId": runID, "steps": e.cfg.Steps, "equipment": len(snap)}, Timestamp: nowISO()})

	results := make([]types.StepResult, 0, e.cfg.Steps)
	for step := 0; step < e.cfg.Steps; step++ {
		stepStart := time.Now()
		if err := e.wait(ctx); err != nil {
			e.finish(nil)
			e.log.Info("simulation cancelled", "run_id", runID, "step", step)
			metrics.RecordRun("cancelled")
			e.emit(types.WSEvent{Type: "cancelled", Payload: map[string]any{"runId": runID, "step": step}, Timestamp: nowISO()})
			return nil, err
		}

		res := e.step(step, start, snap)
		results = append(results, res)
		progress := float64(step+1) / float64(e.cfg.Steps) * 100

		e.mu.Lock()
		e.progress = progress
		e.mu.Unlock()
		e.stepsCompleted.Add(1)
		metrics.SimulationProgress.Set(progress)
		metrics.SimulationStepDuration.Observe(time.Since(stepStart).Seconds())

		e.emit(types.WSEvent{
			Type:      "progress",
			Timestamp: nowISO(),
			Payload:   types.ProgressEvent{RunID: runID, Step: step, Progress: progress, Result: res},
		})
	}

	if e.writer != nil {
		e.writer.ApplyResults(finalPerformance(snap, results))
	}
	e.finish(results)
	e.lastRunMs.Store(e.now().Sub(start).Milliseconds())
	metrics.RecordRun("completed")
	e.log.Info("simulation completed", "run_id", runID, "duration_ms", e.lastRunMs.Load())

	e.emit(types.WSEvent{Type: "done", Payload: map[string]any{"runId": runID, "steps": len(results)}, Timestamp: nowISO()})
	if e.notifier != nil {
		e.notifier.Push("success", "Simulation completed successfully!")
	}
	return copyResults(results), nil
}

// finish clears the running flag and, for completed runs, replaces the
// stored results.
func (e *Engine) finish(results []types.StepResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if results != nil {
		e.results = results
	}
	e.running = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
}

func (e *Engine) wait(ctx context.Context) error {
	if e.cfg.StepDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.cfg.StepDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) step(step int, start time.Time, snap []types.EquipmentNode) types.StepResult {
	samples := make([]types.EquipmentSample, len(snap))
	for i, n := range snap {
		samples[i] = sample(n, e.noise)
	}
	return types.StepResult{
		Step:          step,
		Timestamp:     start.Add(time.Duration(step) * time.Second).UnixMilli(),
		PerEquipment:  samples,
		GlobalMetrics: Aggregate(samples),
	}
}

func sample(n types.EquipmentNode, noise Noise) types.EquipmentSample {
	p := n.Parameters
	efficiency := clamp(noise.Perturb(p["efficiency"], -5, 5), 0, 100)
	return types.EquipmentSample{
		EquipmentID:      n.ID,
		Efficiency:       efficiency,
		Throughput:       p["capacity"] * (efficiency / 100),
		PowerConsumption: p["powerRating"] * (0.7 + (efficiency/100)*0.3),
		Temperature:      noise.Perturb(p["operatingTemperature"], -3, 8),
		Vibration:        noise.Perturb(p["vibrationLevel"], -0.5, 1.0),
		WearRate:         p["wearRate"] * noise.Perturb(1, -0.2, 0.3),
	}
}

// Aggregate sums and averages one step's samples. EnergyIntensity is left
// nil when nothing was produced.
func Aggregate(samples []types.EquipmentSample) types.GlobalMetrics {
	var m types.GlobalMetrics
	if len(samples) == 0 {
		return m
	}
	var effSum float64
	for _, s := range samples {
		m.TotalThroughput += s.Throughput
		m.TotalPowerConsumption += s.PowerConsumption
		effSum += s.Efficiency
	}
	m.AverageEfficiency = effSum / float64(len(samples))
	if m.TotalThroughput > 0 {
		intensity := m.TotalPowerConsumption / m.TotalThroughput
		m.EnergyIntensity = &intensity
	}
	return m
}

func finalPerformance(snap []types.EquipmentNode, results []types.StepResult) map[string]types.Performance {
	out := make(map[string]types.Performance, len(snap))
	if len(results) == 0 {
		return out
	}
	last := results[len(results)-1]
	for i, n := range snap {
		var wear float64
		for _, r := range results {
			wear += r.PerEquipment[i].WearRate * wearHoursPerStep
		}
		s := last.PerEquipment[i]
		out[n.ID] = types.Performance{
			Throughput:        s.Throughput,
			PowerConsumption:  s.PowerConsumption,
			WearProgress:      math.Min(100, n.SimulationResults.WearProgress+wear),
			VibrationActual:   s.Vibration,
			TemperatureActual: s.Temperature,
			Efficiency:        s.Efficiency,
		}
	}
	return out
}

func (e *Engine) Status() types.RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := types.RunStatus{Running: e.running, Progress: e.progress, Steps: e.cfg.Steps}
	if e.running {
		st.RunID = e.runID
	}
	return st
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Results returns a copy of the last completed run.
func (e *Engine) Results() []types.StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyResults(e.results)
}

// Cancel stops the run in flight, if any, and waits for it to exit.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

func (e *Engine) Close() {
	e.Cancel()
}

func (e *Engine) Metrics() types.MetricsSnapshot {
	return types.MetricsSnapshot{
		LastRunMs:      e.lastRunMs.Load(),
		StepsCompleted: e.stepsCompleted.Load(),
		RunsStarted:    e.runsStarted.Load(),
		RunsRejected:   e.runsRejected.Load(),
	}
}

func cloneSnapshot(nodes []types.EquipmentNode) []types.EquipmentNode {
	out := make([]types.EquipmentNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func copyResults(results []types.StepResult) []types.StepResult {
	if results == nil {
		return nil
	}
	out := make([]types.StepResult, len(results))
	copy(out, results)
	return out
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
