package console

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hashicorp/go-hclog"

	"minetwin/internal/canvas"
	"minetwin/internal/config"
	"minetwin/internal/drag"
	"minetwin/internal/equipment"
	"minetwin/internal/notify"
	"minetwin/internal/results"
	"minetwin/internal/simulator"
	"minetwin/internal/types"
)

type frameTick struct{}

// App is the terminal layout designer. All drawing and registry edits happen
// on the goroutine that calls HandleEvent.
type App struct {
	screen   tcell.Screen
	registry *equipment.Registry
	engine   *simulator.Engine
	drag     *drag.Controller
	feed     *notify.Feed
	chime    *notify.Chime
	animator *canvas.Animator
	rng      *rand.Rand
	log      hclog.Logger

	selected   string
	connecting bool
	form       form
}

func New(screen tcell.Screen, cfg config.Config, log hclog.Logger) *App {
	registry := equipment.NewRegistry()
	registry.Seed()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	a := &App{
		screen:   screen,
		registry: registry,
		drag:     drag.NewController(registry),
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
		log:      log,
	}

	var listeners []func(types.Notification)
	if cfg.Sound {
		a.chime = notify.NewChime(log.Named("chime"))
		listeners = append(listeners, a.chime.Notify)
	}
	a.feed = notify.NewFeed(listeners...)

	a.engine = simulator.NewEngine(
		simulator.Config{Steps: cfg.Steps, StepDelay: cfg.StepDelay},
		a.post,
		simulator.WithNoise(simulator.NewUniformNoise(cfg.Seed)),
		simulator.WithResultWriter(registry),
		simulator.WithNotifier(a.feed),
		simulator.WithLogger(log.Named("simulator")),
	)
	a.animator = canvas.NewAnimator(cfg.FrameInterval, func(time.Time) { a.post(frameTick{}) })
	return a
}

// post hands v to the event loop. Events are dropped when the queue is full;
// the next frame or progress event repaints anyway.
func (a *App) post(v any) {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(v))
}

// Run polls screen events until the user quits.
func (a *App) Run() {
	a.screen.EnableMouse()
	a.Draw(time.Now())
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		if !a.HandleEvent(ev) {
			return
		}
	}
}

// HandleEvent applies one event and repaints. It returns false when the
// user asked to quit.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if a.form.kind != formNone {
			a.handleFormKey(ev)
			break
		}
		if ev.Key() == tcell.KeyEscape {
			if !a.connecting {
				return false
			}
			a.connecting = false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				a.startRun()
			case 'a':
				a.registry.AutoLayout(a.rng)
			case 's':
				a.toggleStatus()
			case 'n':
				a.openAddForm()
			case 'e':
				a.openEditForm()
			case 'c':
				a.startConnect()
			}
		}
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventInterrupt:
		// engine events or frame ticks; either way the frame loop follows the run
		a.animator.Sync(a.engine.Running())
	case *tcell.EventResize:
		a.screen.Sync()
	}
	a.Draw(time.Now())
	return true
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pointer := canvas.FromCell(x, y)

	if ev.Buttons()&tcell.Button1 == 0 {
		a.drag.Release()
		return
	}
	if a.drag.Grabbed() != "" {
		if _, err := a.drag.Move(pointer); err != nil {
			a.log.Debug("drag move", "error", err)
		}
		return
	}
	id, ok := canvas.NodeAt(a.registry.List(), pointer)
	if !ok {
		return
	}
	if a.connecting {
		a.connectTo(id)
		return
	}
	if err := a.drag.Grab(id, pointer); err != nil {
		a.log.Debug("drag grab", "error", err)
		return
	}
	a.selected = id
}

func (a *App) startRun() {
	_, err := a.engine.Start(a.registry.Snapshot())
	switch {
	case errors.Is(err, simulator.ErrEmptySnapshot):
		a.feed.Push("warning", "Add equipment before running a simulation")
	case errors.Is(err, simulator.ErrRunInProgress):
		// the trigger is disabled while a run is active
	case err != nil:
		a.feed.Push("error", err.Error())
	default:
		a.animator.Sync(true)
	}
}

func (a *App) toggleStatus() {
	if a.selected == "" {
		return
	}
	node, err := a.registry.Get(a.selected)
	if err != nil {
		return
	}
	next := types.Active
	if node.Status == types.Active {
		next = types.Inactive
	}
	if _, err := a.registry.SetStatus(node.ID, next); err == nil {
		a.feed.Push("info", fmt.Sprintf("%s is now %s", node.Name, next))
	}
}

// Draw paints the layout and the status area below it.
func (a *App) Draw(now time.Time) {
	status := a.engine.Status()
	canvas.Paint(a.screen, canvas.Build(a.registry.List(), status.Running, now))

	_, h := a.screen.Size()
	style := tcell.StyleDefault
	lines := []string{a.summaryLine(status), a.notificationLine(), a.promptLine()}
	for i, line := range lines {
		row := h - len(lines) + i
		clearRow(a.screen, row)
		for x, r := range []rune(line) {
			a.screen.SetContent(x, row, r, nil, style)
		}
	}
	a.screen.Show()
}

func (a *App) summaryLine(status types.RunStatus) string {
	if status.Running {
		filled := int(status.Progress / 5)
		return fmt.Sprintf("Simulation Progress: [%s%s] %.1f%%",
			strings.Repeat("█", filled), strings.Repeat(" ", 20-filled), status.Progress)
	}
	return strings.Join(results.FormatSummary(results.Build(a.engine.Results(), a.registry.List())), " | ")
}

func (a *App) promptLine() string {
	switch {
	case a.form.kind != formNone:
		return a.formLine()
	case a.connecting:
		return "Click the target equipment to connect or disconnect · Esc cancel"
	}
	return "r run · n new · e edit · c connect · a auto layout · s toggle status · drag nodes with the mouse · q quit"
}

func (a *App) notificationLine() string {
	items := a.feed.List()
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s] %s", items[0].Timestamp, items[0].Message)
}

func clearRow(screen tcell.Screen, row int) {
	w, _ := screen.Size()
	for x := 0; x < w; x++ {
		screen.SetContent(x, row, ' ', nil, tcell.StyleDefault)
	}
}

// Close stops the frame loop and any simulation in flight, then releases
// the terminal.
func (a *App) Close() {
	a.animator.Stop()
	a.engine.Close()
	if a.chime != nil {
		a.chime.Close()
	}
	a.screen.Fini()
}
