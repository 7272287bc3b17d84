package console

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"minetwin/internal/equipment"
	"minetwin/internal/types"
)

type formKind int

const (
	formNone formKind = iota
	formAdd
	formEdit
)

// form is the single-line editor shown in the status area. The add form
// edits the draft's name and cycles its type with Tab; the edit form steps
// through the node's parameters one at a time and commits on the last one.
type form struct {
	kind   formKind
	nodeID string
	draft  equipment.Draft
	keys   []string
	field  int
	input  []rune
}

func (a *App) openAddForm() {
	a.form = form{kind: formAdd, draft: equipment.NewDraft()}
}

func (a *App) openEditForm() {
	if a.selected == "" {
		a.feed.Push("warning", "Select equipment to edit first")
		return
	}
	node, err := a.registry.Get(a.selected)
	if err != nil || len(node.Parameters) == 0 {
		return
	}
	a.form = form{
		kind:   formEdit,
		nodeID: node.ID,
		draft: equipment.Draft{
			Name:       node.Name,
			Type:       node.Type,
			Material:   node.Material,
			Parameters: node.Parameters,
			Position:   node.Position,
		},
		keys: slices.Sorted(maps.Keys(node.Parameters)),
	}
	a.form.input = []rune(formatValue(node.Parameters[a.form.keys[0]]))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// handleFormKey edits the open form. Esc discards it.
func (a *App) handleFormKey(ev *tcell.EventKey) {
	f := &a.form
	switch ev.Key() {
	case tcell.KeyEscape:
		a.form = form{}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(f.input) > 0 {
			f.input = f.input[:len(f.input)-1]
		}
	case tcell.KeyTab:
		if f.kind == formAdd {
			i := slices.Index(types.EquipmentTypes, f.draft.Type)
			f.draft.SetType(types.EquipmentTypes[(i+1)%len(types.EquipmentTypes)])
		}
	case tcell.KeyEnter:
		a.submitField()
	case tcell.KeyRune:
		f.input = append(f.input, ev.Rune())
	}
}

func (a *App) submitField() {
	f := &a.form
	switch f.kind {
	case formAdd:
		f.draft.Name = string(f.input)
		if !f.draft.CanSubmit() {
			a.feed.Push("warning", "Please enter an equipment name")
			return
		}
		node, err := a.registry.Add(f.draft)
		if err != nil {
			a.feed.Push("error", err.Error())
			return
		}
		a.log.Info("equipment added", "id", node.ID, "type", node.Type)
		a.feed.Push("success", "Added new equipment: "+node.Name)
		a.selected = node.ID
		a.form = form{}

	case formEdit:
		f.draft.SetParameter(f.keys[f.field], string(f.input))
		f.field++
		if f.field < len(f.keys) {
			f.input = []rune(formatValue(f.draft.Parameters[f.keys[f.field]]))
			return
		}
		if _, err := a.registry.UpdateParameters(f.nodeID, f.draft.Parameters); err != nil {
			a.feed.Push("error", err.Error())
		} else {
			a.feed.Push("info", "Equipment parameters updated")
		}
		a.form = form{}
	}
}

func (a *App) formLine() string {
	f := a.form
	switch f.kind {
	case formAdd:
		return fmt.Sprintf("New %s [Tab type, Enter add, Esc cancel] name: %s_", f.draft.Type, string(f.input))
	case formEdit:
		key := f.keys[f.field]
		return fmt.Sprintf("%s %s (%d/%d) [Enter next, Esc cancel]: %s_",
			f.draft.Name, equipment.ParameterLabel(key), f.field+1, len(f.keys), string(f.input))
	}
	return ""
}

// startConnect arms connect mode: the next clicked node becomes the target
// of a flow from the selected node, or loses it if the flow exists.
func (a *App) startConnect() {
	if a.selected == "" {
		a.feed.Push("warning", "Select the source equipment first")
		return
	}
	a.connecting = true
}

func (a *App) connectTo(target string) {
	a.connecting = false
	source, err := a.registry.Get(a.selected)
	if err != nil || target == source.ID {
		return
	}
	if slices.Contains(source.Connections, target) {
		_, err = a.registry.Disconnect(source.ID, target)
	} else {
		_, err = a.registry.Connect(source.ID, target)
	}
	if err != nil {
		a.feed.Push("error", err.Error())
	}
}
