package equipment

import (
	"strings"

	"minetwin/internal/types"
)

// Draft is the state of the add-equipment form before it is submitted.
type Draft struct {
	Name       string
	Type       types.EquipmentType
	Material   types.MaterialType
	Parameters map[string]float64
	Position   types.Position
}

func NewDraft() Draft {
	return Draft{
		Type:       types.Crusher,
		Material:   types.IronOre,
		Parameters: Template(types.Crusher),
		Position:   types.Position{X: 200, Y: 300},
	}
}

// DraftFromRequest builds a draft with the request's overrides applied on
// top of the type template. Keys outside the template are ignored.
func DraftFromRequest(req types.AddEquipmentRequest) Draft {
	d := NewDraft()
	d.Name = req.Name
	if req.Type != "" {
		d.SetType(req.Type)
	}
	if req.Material != "" {
		d.Material = req.Material
	}
	for k, v := range req.Parameters {
		if _, ok := d.Parameters[k]; ok {
			d.Parameters[k] = v
		}
	}
	if req.Position != nil {
		d.Position = *req.Position
	}
	return d
}

// SetType switches the draft's type and resets its parameters to the new
// template, dropping any edits.
func (d *Draft) SetType(t types.EquipmentType) {
	d.Type = t
	d.Parameters = Template(t)
}

// SetParameter stores the parsed value of text, or 0 if it does not parse.
// It reports false for keys the draft's template does not have.
func (d *Draft) SetParameter(key, text string) bool {
	if _, ok := d.Parameters[key]; !ok {
		return false
	}
	d.Parameters[key] = ParseParameter(text)
	return true
}

func (d Draft) CanSubmit() bool {
	return strings.TrimSpace(d.Name) != ""
}
