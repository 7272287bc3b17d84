// Package canvas computes the layout drawing for the equipment designer: the
// background grid, flow arrows between nodes, animated material particles and
// the positioned node overlays. The geometry is surface-independent; Paint
// rasterizes it onto a terminal.
package canvas

import (
	"math"
	"time"

	"minetwin/internal/equipment"
	"minetwin/internal/types"
)

const (
	Width    = 900.0
	Height   = 600.0
	GridSize = 40.0
	NodeSize = 80.0

	// ArrowSetback keeps the arrow tip off the target's icon.
	ArrowSetback   = 20.0
	ArrowLength    = 15.0
	ArrowHalfWidth = 8.0

	FlowCycle = 2 * time.Second

	lineColor   = "#6B7280"
	activeColor = "#10B981"
)

var DashPattern = []float64{10, 5}

type Segment struct {
	From types.Position `json:"from"`
	To   types.Position `json:"to"`
}

type Connection struct {
	From  string         `json:"from"`
	To    string         `json:"to"`
	Line  Segment        `json:"line"`
	Dash  []float64      `json:"dash"`
	Color string         `json:"color"`
	Angle float64        `json:"angle"`
	Tip   types.Position `json:"tip"`
	// Head holds the arrowhead triangle: tip, upper barb, lower barb.
	Head [3]types.Position `json:"head"`
}

type Particle struct {
	Connection int            `json:"connection"`
	At         types.Position `json:"at"`
	Radius     float64        `json:"radius"`
	Color      string         `json:"color"`
}

type Overlay struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Type       types.EquipmentType `json:"equipmentType"`
	Status     types.Status        `json:"status"`
	Icon       string              `json:"icon"`
	Color      string              `json:"color"`
	Border     string              `json:"border"`
	Left       float64             `json:"left"`
	Top        float64             `json:"top"`
	Size       float64             `json:"size"`
	Throughput float64             `json:"throughput"`
	Power      float64             `json:"power"`
}

type Scene struct {
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	GridSize    float64      `json:"gridSize"`
	Running     bool         `json:"running"`
	Grid        []Segment    `json:"grid"`
	Connections []Connection `json:"connections"`
	Particles   []Particle   `json:"particles"`
	Overlays    []Overlay    `json:"overlays"`
}

// stream is one of the three material streams drawn along a connection.
type stream struct {
	along, across float64
	radius        float64
	color         string
}

var streams = [3]stream{
	{along: 0, across: 0, radius: 4, color: "#F59E0B"},
	{along: -20, across: -5, radius: 3, color: "#EF4444"},
	{along: 15, across: 8, radius: 3, color: "#10B981"},
}

// Build lays out the scene for nodes. Particles are only produced while
// running, for connections leaving an active node, at a phase taken from now.
func Build(nodes []types.EquipmentNode, running bool, now time.Time) Scene {
	s := Scene{
		Width:    Width,
		Height:   Height,
		GridSize: GridSize,
		Running:  running,
		Grid:     grid(Width, Height, GridSize),
	}

	byID := make(map[string]types.EquipmentNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	phase := Phase(now)
	for _, n := range nodes {
		for _, targetID := range n.Connections {
			target, ok := byID[targetID]
			if !ok {
				continue
			}
			conn := connect(n, target)
			s.Connections = append(s.Connections, conn)
			if running && n.Status == types.Active {
				s.Particles = append(s.Particles, particles(len(s.Connections)-1, conn, phase)...)
			}
		}
	}

	for _, n := range nodes {
		s.Overlays = append(s.Overlays, overlay(n))
	}
	return s
}

func grid(w, h, size float64) []Segment {
	var out []Segment
	for x := 0.0; x < w; x += size {
		out = append(out, Segment{From: types.Position{X: x}, To: types.Position{X: x, Y: h}})
	}
	for y := 0.0; y < h; y += size {
		out = append(out, Segment{From: types.Position{Y: y}, To: types.Position{X: w, Y: y}})
	}
	return out
}

func connect(from, to types.EquipmentNode) Connection {
	angle := math.Atan2(to.Position.Y-from.Position.Y, to.Position.X-from.Position.X)
	cos, sin := math.Cos(angle), math.Sin(angle)
	tip := types.Position{
		X: to.Position.X - ArrowSetback*cos,
		Y: to.Position.Y - ArrowSetback*sin,
	}
	return Connection{
		From:  from.ID,
		To:    to.ID,
		Line:  Segment{From: from.Position, To: to.Position},
		Dash:  DashPattern,
		Color: lineColor,
		Angle: angle,
		Tip:   tip,
		Head: [3]types.Position{
			tip,
			tip.Add(rotate(types.Position{X: -ArrowLength, Y: -ArrowHalfWidth}, cos, sin)),
			tip.Add(rotate(types.Position{X: -ArrowLength, Y: ArrowHalfWidth}, cos, sin)),
		},
	}
}

func rotate(p types.Position, cos, sin float64) types.Position {
	return types.Position{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}

// Phase is the position of the flow animation within its cycle, in [0, 1).
func Phase(now time.Time) float64 {
	cycle := FlowCycle.Milliseconds()
	return float64(now.UnixMilli()%cycle) / float64(cycle)
}

func particles(idx int, c Connection, phase float64) []Particle {
	from, to := c.Line.From, c.Line.To
	base := types.Position{
		X: from.X + (to.X-from.X)*phase,
		Y: from.Y + (to.Y-from.Y)*phase,
	}
	cos, sin := math.Cos(c.Angle), math.Sin(c.Angle)
	out := make([]Particle, 0, len(streams))
	for _, st := range streams {
		out = append(out, Particle{
			Connection: idx,
			At:         base.Add(rotate(types.Position{X: st.along, Y: st.across}, cos, sin)),
			Radius:     st.radius,
			Color:      st.color,
		})
	}
	return out
}

func overlay(n types.EquipmentNode) Overlay {
	border := lineColor
	if n.Status == types.Active {
		border = activeColor
	}
	return Overlay{
		ID:         n.ID,
		Name:       n.Name,
		Type:       n.Type,
		Status:     n.Status,
		Icon:       equipment.Icon(n.Type),
		Color:      equipment.Color(n.Type),
		Border:     border,
		Left:       n.Position.X - NodeSize/2,
		Top:        n.Position.Y - NodeSize/2,
		Size:       NodeSize,
		Throughput: n.SimulationResults.Throughput,
		Power:      n.SimulationResults.PowerConsumption,
	}
}

// NodeAt returns the id of the topmost node whose footprint contains p.
func NodeAt(nodes []types.EquipmentNode, p types.Position) (string, bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		pos := nodes[i].Position
		if math.Abs(p.X-pos.X) <= NodeSize/2 && math.Abs(p.Y-pos.Y) <= NodeSize/2 {
			return nodes[i].ID, true
		}
	}
	return "", false
}
