package types

type EquipmentType string

const (
	Crusher    EquipmentType = "Crusher"
	Mill       EquipmentType = "Mill"
	Conveyor   EquipmentType = "Conveyor"
	Pump       EquipmentType = "Pump"
	Separator  EquipmentType = "Separator"
	Screen     EquipmentType = "Screen"
	Feeder     EquipmentType = "Feeder"
	Compressor EquipmentType = "Compressor"
)

// EquipmentTypes lists every equipment type in display order.
var EquipmentTypes = []EquipmentType{Crusher, Mill, Conveyor, Pump, Separator, Screen, Feeder, Compressor}

func (t EquipmentType) Valid() bool {
	for _, known := range EquipmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

type MaterialType string

const (
	IronOre   MaterialType = "Iron Ore"
	CopperOre MaterialType = "Copper Ore"
	GoldOre   MaterialType = "Gold Ore"
	Limestone MaterialType = "Limestone"
	Coal      MaterialType = "Coal"
	Granite   MaterialType = "Granite"
)

var MaterialTypes = []MaterialType{IronOre, CopperOre, GoldOre, Limestone, Coal, Granite}

type Status string

const (
	Active   Status = "Active"
	Inactive Status = "Inactive"
)

type SimulationMode string

const (
	SteadyState      SimulationMode = "Steady State"
	Dynamic          SimulationMode = "Dynamic"
	Optimization     SimulationMode = "Optimization"
	ScenarioAnalysis SimulationMode = "Scenario Analysis"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) Sub(o Position) Position { return Position{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Position) Add(o Position) Position { return Position{X: p.X + o.X, Y: p.Y + o.Y} }

// Performance is the latest computed snapshot stored on a node.
type Performance struct {
	Throughput        float64 `json:"throughput"`
	PowerConsumption  float64 `json:"powerConsumption"`
	WearProgress      float64 `json:"wearProgress"`
	VibrationActual   float64 `json:"vibrationActual"`
	TemperatureActual float64 `json:"temperatureActual"`
	Efficiency        float64 `json:"efficiency"`
}

type EquipmentNode struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Type              EquipmentType      `json:"equipmentType"`
	Material          MaterialType       `json:"materialType"`
	Parameters        map[string]float64 `json:"parameters"`
	Position          Position           `json:"position"`
	Connections       []string           `json:"connections"`
	Status            Status             `json:"status"`
	SimulationResults Performance        `json:"simulationResults"`
}

// Clone returns a deep copy; parameter and connection storage is not shared.
func (n EquipmentNode) Clone() EquipmentNode {
	out := n
	out.Parameters = make(map[string]float64, len(n.Parameters))
	for k, v := range n.Parameters {
		out.Parameters[k] = v
	}
	out.Connections = append([]string(nil), n.Connections...)
	return out
}

type EquipmentSample struct {
	EquipmentID      string  `json:"equipmentId"`
	Efficiency       float64 `json:"efficiency"`
	Throughput       float64 `json:"throughput"`
	PowerConsumption float64 `json:"powerConsumption"`
	Temperature      float64 `json:"temperature"`
	Vibration        float64 `json:"vibration"`
	WearRate         float64 `json:"wearRate"`
}

type GlobalMetrics struct {
	TotalThroughput       float64 `json:"totalThroughput"`
	TotalPowerConsumption float64 `json:"totalPowerConsumption"`
	AverageEfficiency     float64 `json:"averageEfficiency"`
	// EnergyIntensity is nil when total throughput is zero.
	EnergyIntensity *float64 `json:"energyIntensity"`
}

type StepResult struct {
	Step          int               `json:"step"`
	Timestamp     int64             `json:"timestamp"`
	PerEquipment  []EquipmentSample `json:"perEquipment"`
	GlobalMetrics GlobalMetrics     `json:"globalMetrics"`
}

type GlobalParameters struct {
	Mode       SimulationMode     `json:"mode"`
	Parameters map[string]float64 `json:"parameters"`
}

type Notification struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

type WSEvent struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"ts,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

type AddEquipmentRequest struct {
	Name       string             `json:"name"`
	Type       EquipmentType      `json:"equipmentType"`
	Material   MaterialType       `json:"materialType"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Position   *Position          `json:"position,omitempty"`
}

type ChangeTypeRequest struct {
	Type EquipmentType `json:"equipmentType"`
}

type StatusRequest struct {
	Status Status `json:"status"`
}

type ConnectRequest struct {
	Target string `json:"target"`
}

type GrabRequest struct {
	ID      string   `json:"id"`
	Pointer Position `json:"pointer"`
}

type PointerRequest struct {
	Pointer Position `json:"pointer"`
}

type RunStatus struct {
	Running  bool    `json:"running"`
	RunID    string  `json:"runId,omitempty"`
	Progress float64 `json:"progress"`
	Steps    int     `json:"steps"`
}

type ProgressEvent struct {
	RunID    string     `json:"runId"`
	Step     int        `json:"step"`
	Progress float64    `json:"progress"`
	Result   StepResult `json:"result"`
}

type MetricsSnapshot struct {
	LastRunMs      int64 `json:"last_run_ms"`
	StepsCompleted int64 `json:"steps_completed"`
	RunsStarted    int64 `json:"runs_started"`
	RunsRejected   int64 `json:"runs_rejected"`
}
