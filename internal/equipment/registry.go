package equipment

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/google/uuid"

	"minetwin/internal/metrics"
	"minetwin/internal/types"
)

var (
	ErrNotFound       = errors.New("equipment not found")
	ErrNameRequired   = errors.New("equipment name is required")
	ErrUnknownType    = errors.New("unknown equipment type")
	ErrSelfConnection = errors.New("equipment cannot connect to itself")
	ErrUnknownStatus  = errors.New("unknown equipment status")
)

// Registry is the in-memory, ordered list of equipment nodes. Every accessor
// returns copies, so callers never share parameter maps with the registry.
type Registry struct {
	mu     sync.RWMutex
	nodes  []types.EquipmentNode
	global types.GlobalParameters
	newID  func() string
}

func NewRegistry() *Registry {
	return &Registry{
		global: defaultGlobal(),
		newID:  newEquipmentID,
	}
}

// newEquipmentID uses a UUIDv7 so ids sort by creation time.
func newEquipmentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "EQUIP_" + id.String()
}

func defaultGlobal() types.GlobalParameters {
	return types.GlobalParameters{
		Mode: types.SteadyState,
		Parameters: map[string]float64{
			"simulationTime":   24,
			"timeStep":         0.1,
			"temperature":      25,
			"humidity":         65,
			"ambientPressure":  101.3,
			"materialDensity":  2.7,
			"materialHardness": 6.5,
			"moistureContent":  8.5,
		},
	}
}

// Add validates the draft and appends a new inactive node built from it.
func (r *Registry) Add(d Draft) (types.EquipmentNode, error) {
	if !d.CanSubmit() {
		return types.EquipmentNode{}, ErrNameRequired
	}
	if !d.Type.Valid() {
		return types.EquipmentNode{}, fmt.Errorf("%w: %q", ErrUnknownType, d.Type)
	}
	params := Template(d.Type)
	for k, v := range d.Parameters {
		if _, ok := params[k]; ok {
			params[k] = v
		}
	}
	material := d.Material
	if material == "" {
		material = types.IronOre
	}
	node := types.EquipmentNode{
		ID:          r.newID(),
		Name:        strings.TrimSpace(d.Name),
		Type:        d.Type,
		Material:    material,
		Parameters:  params,
		Position:    d.Position,
		Connections: []string{},
		Status:      types.Inactive,
	}

	r.mu.Lock()
	r.nodes = append(r.nodes, node)
	count := len(r.nodes)
	r.mu.Unlock()

	metrics.EquipmentNodes.Set(float64(count))
	return node.Clone(), nil
}

func (r *Registry) List() []types.EquipmentNode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.EquipmentNode, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Snapshot is the frozen copy a simulation run works from.
func (r *Registry) Snapshot() []types.EquipmentNode {
	return r.List()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

func (r *Registry) Get(id string) (types.EquipmentNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.nodes[i].Clone(), nil
}

// UpdateParameters shallow-merges partial into the node's parameters. Keys
// outside the type template are accepted.
func (r *Registry) UpdateParameters(id string, partial map[string]float64) (types.EquipmentNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	params := r.nodes[i].Parameters
	if err := mergo.Merge(&params, partial, mergo.WithOverride); err != nil {
		return types.EquipmentNode{}, fmt.Errorf("merge parameters: %w", err)
	}
	r.nodes[i].Parameters = params
	return r.nodes[i].Clone(), nil
}

// ChangeType switches the node's type and replaces its whole parameter map
// with the new type's template.
func (r *Registry) ChangeType(id string, t types.EquipmentType) (types.EquipmentNode, error) {
	if !t.Valid() {
		return types.EquipmentNode{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.nodes[i].Type = t
	r.nodes[i].Parameters = Template(t)
	return r.nodes[i].Clone(), nil
}

func (r *Registry) SetStatus(id string, s types.Status) (types.EquipmentNode, error) {
	if s != types.Active && s != types.Inactive {
		return types.EquipmentNode{}, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.nodes[i].Status = s
	return r.nodes[i].Clone(), nil
}

func (r *Registry) Position(id string) (types.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return types.Position{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.nodes[i].Position, nil
}

func (r *Registry) SetPosition(id string, p types.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.nodes[i].Position = p
	return nil
}

// Connect adds a directed flow edge from -> to. Cycles are not checked.
func (r *Registry) Connect(from, to string) (types.EquipmentNode, error) {
	if from == to {
		return types.EquipmentNode{}, ErrSelfConnection
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(from)
	if i < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	if r.indexOf(to) < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, to)
	}
	if !slices.Contains(r.nodes[i].Connections, to) {
		r.nodes[i].Connections = append(r.nodes[i].Connections, to)
	}
	return r.nodes[i].Clone(), nil
}

func (r *Registry) Disconnect(from, to string) (types.EquipmentNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(from)
	if i < 0 {
		return types.EquipmentNode{}, fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	r.nodes[i].Connections = slices.DeleteFunc(r.nodes[i].Connections, func(id string) bool { return id == to })
	return r.nodes[i].Clone(), nil
}

// AutoLayout scatters every node over x in [100,700) and y in [100,500).
func (r *Registry) AutoLayout(rng *rand.Rand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.nodes {
		r.nodes[i].Position = types.Position{
			X: 100 + rng.Float64()*600,
			Y: 100 + rng.Float64()*400,
		}
	}
}

// ApplyResults overwrites simulationResults for the listed nodes. Nodes
// missing from the registry are ignored.
func (r *Registry) ApplyResults(results map[string]types.Performance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.nodes {
		if perf, ok := results[r.nodes[i].ID]; ok {
			r.nodes[i].SimulationResults = perf
		}
	}
}

func (r *Registry) Global() types.GlobalParameters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneGlobal(r.global)
}

func (r *Registry) UpdateGlobal(mode types.SimulationMode, partial map[string]float64) (types.GlobalParameters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode != "" {
		r.global.Mode = mode
	}
	params := r.global.Parameters
	if err := mergo.Merge(&params, partial, mergo.WithOverride); err != nil {
		return types.GlobalParameters{}, fmt.Errorf("merge global parameters: %w", err)
	}
	r.global.Parameters = params
	return cloneGlobal(r.global), nil
}

func cloneGlobal(g types.GlobalParameters) types.GlobalParameters {
	out := types.GlobalParameters{Mode: g.Mode, Parameters: make(map[string]float64, len(g.Parameters))}
	for k, v := range g.Parameters {
		out.Parameters[k] = v
	}
	return out
}

func (r *Registry) indexOf(id string) int {
	for i := range r.nodes {
		if r.nodes[i].ID == id {
			return i
		}
	}
	return -1
}
