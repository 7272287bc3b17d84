package canvas

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"minetwin/internal/types"
)

// Canvas units covered by one terminal cell.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

var arrowRunes = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// ToCell maps a canvas position to the terminal cell that contains it.
func ToCell(p types.Position) (int, int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// FromCell maps a terminal cell to the canvas position at its centre.
func FromCell(x, y int) types.Position {
	return types.Position{X: (float64(x) + 0.5) * CellWidth, Y: (float64(y) + 0.5) * CellHeight}
}

// Paint clears screen and draws s onto it. It does not call Show.
func Paint(screen tcell.Screen, s Scene) {
	screen.Clear()
	base := tcell.StyleDefault

	gridStyle := base.Foreground(tcell.GetColor("#E5E7EB")).Dim(true)
	for x := 0.0; x < s.Width; x += s.GridSize {
		for y := 0.0; y < s.Height; y += s.GridSize {
			cx, cy := ToCell(types.Position{X: x, Y: y})
			screen.SetContent(cx, cy, '·', nil, gridStyle)
		}
	}

	for _, c := range s.Connections {
		paintConnection(screen, c, base.Foreground(tcell.GetColor(c.Color)))
	}

	for _, p := range s.Particles {
		cx, cy := ToCell(p.At)
		r := '•'
		if p.Radius >= 4 {
			r = '●'
		}
		screen.SetContent(cx, cy, r, nil, base.Foreground(tcell.GetColor(p.Color)))
	}

	for _, o := range s.Overlays {
		paintOverlay(screen, o)
	}
}

func paintConnection(screen tcell.Screen, c Connection, style tcell.Style) {
	from, tip := c.Line.From, c.Tip
	length := math.Hypot(tip.X-from.X, tip.Y-from.Y)
	period := c.Dash[0] + c.Dash[1]
	line := lineRune(c.Angle)
	cos, sin := math.Cos(c.Angle), math.Sin(c.Angle)
	for d := 0.0; d < length; d += 2 {
		if math.Mod(d, period) >= c.Dash[0] {
			continue
		}
		cx, cy := ToCell(types.Position{X: from.X + d*cos, Y: from.Y + d*sin})
		screen.SetContent(cx, cy, line, nil, style)
	}
	cx, cy := ToCell(tip)
	screen.SetContent(cx, cy, arrowRune(c.Angle), nil, style)
}

// octant buckets an angle into one of eight compass directions, 0 = east,
// counting clockwise in screen coordinates.
func octant(angle float64) int {
	o := int(math.Round(angle/(math.Pi/4))) % 8
	if o < 0 {
		o += 8
	}
	return o
}

func arrowRune(angle float64) rune {
	return arrowRunes[octant(angle)]
}

func lineRune(angle float64) rune {
	switch octant(angle) % 4 {
	case 0:
		return '─'
	case 1:
		return '╲'
	case 2:
		return '│'
	default:
		return '╱'
	}
}

func paintOverlay(screen tcell.Screen, o Overlay) {
	left, top := ToCell(types.Position{X: o.Left, Y: o.Top})
	cols := int(o.Size / CellWidth)
	rows := int(o.Size / CellHeight)
	fill := tcell.StyleDefault.Background(tcell.GetColor(o.Color)).Foreground(tcell.ColorWhite)
	border := fill.Foreground(tcell.GetColor(o.Border)).Bold(o.Status == types.Active)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			screen.SetContent(left+x, top+y, ' ', nil, fill)
		}
	}
	for y := 0; y < rows; y++ {
		screen.SetContent(left, top+y, '▌', nil, border)
		screen.SetContent(left+cols-1, top+y, '▐', nil, border)
	}

	status := "○ " + string(o.Status)
	if o.Status == types.Active {
		status = "● " + string(o.Status)
	}
	lines := []string{
		o.Name,
		string(o.Type),
		status,
		fmt.Sprintf("%.0f/%.0f", o.Throughput, o.Power),
	}
	for i, text := range lines {
		if i >= rows {
			break
		}
		putText(screen, left+1, top+i, cols-2, text, fill)
	}
}

func putText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	i := 0
	for _, r := range text {
		if i >= width {
			return
		}
		screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
