package equipment

import (
	"minetwin/internal/metrics"
	"minetwin/internal/types"
)

// Seed loads the default plant: a jaw crusher feeding a conveyor feeding a
// ball mill.
func (r *Registry) Seed() {
	crusher := Template(types.Crusher)
	crusher["capacity"] = 1200
	crusher["efficiency"] = 87

	conveyor := Template(types.Conveyor)
	conveyor["capacity"] = 1500
	conveyor["beltSpeed"] = 3.0

	mill := Template(types.Mill)
	mill["capacity"] = 900
	mill["efficiency"] = 84

	nodes := []types.EquipmentNode{
		{
			ID:          "EQUIP_001",
			Name:        "Primary Jaw Crusher",
			Type:        types.Crusher,
			Material:    types.IronOre,
			Parameters:  crusher,
			Position:    types.Position{X: 150, Y: 200},
			Connections: []string{"EQUIP_002"},
			Status:      types.Active,
			SimulationResults: types.Performance{
				Throughput: 1050, PowerConsumption: 445, WearProgress: 15.5,
				VibrationActual: 3.4, TemperatureActual: 47.2, Efficiency: 87.5,
			},
		},
		{
			ID:          "EQUIP_002",
			Name:        "Primary Conveyor",
			Type:        types.Conveyor,
			Material:    types.IronOre,
			Parameters:  conveyor,
			Position:    types.Position{X: 400, Y: 200},
			Connections: []string{"EQUIP_003"},
			Status:      types.Active,
			SimulationResults: types.Performance{
				Throughput: 1050, PowerConsumption: 125, WearProgress: 8.2,
				VibrationActual: 1.3, TemperatureActual: 32.8, Efficiency: 96.2,
			},
		},
		{
			ID:          "EQUIP_003",
			Name:        "Ball Mill",
			Type:        types.Mill,
			Material:    types.IronOre,
			Parameters:  mill,
			Position:    types.Position{X: 650, Y: 200},
			Connections: []string{},
			Status:      types.Active,
			SimulationResults: types.Performance{
				Throughput: 850, PowerConsumption: 2100, WearProgress: 12.3,
				VibrationActual: 2.9, TemperatureActual: 68.5, Efficiency: 84.2,
			},
		},
	}

	r.mu.Lock()
	r.nodes = nodes
	r.mu.Unlock()
	metrics.EquipmentNodes.Set(float64(len(nodes)))
}
