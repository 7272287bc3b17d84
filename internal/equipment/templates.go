package equipment

import (
	"math"
	"strconv"
	"strings"

	"minetwin/internal/types"
)

var templates = map[types.EquipmentType]map[string]float64{
	types.Crusher: {
		"capacity":             1000,
		"powerRating":          500,
		"efficiency":           85,
		"gapeSize":             150,
		"compressionRatio":     4,
		"wearRate":             0.5,
		"maintenanceInterval":  720,
		"operatingTemperature": 45,
		"vibrationLevel":       3.2,
		"noiseLevel":           85,
	},
	types.Mill: {
		"capacity":             800,
		"powerRating":          2500,
		"efficiency":           82,
		"millSpeed":            75,
		"ballCharge":           35,
		"pulpDensity":          70,
		"wearRate":             0.3,
		"maintenanceInterval":  1440,
		"operatingTemperature": 65,
		"vibrationLevel":       2.8,
		"noiseLevel":           92,
	},
	types.Conveyor: {
		"capacity":             2000,
		"powerRating":          150,
		"efficiency":           95,
		"beltSpeed":            2.5,
		"beltWidth":            1.2,
		"inclination":          15,
		"wearRate":             0.1,
		"maintenanceInterval":  2160,
		"operatingTemperature": 35,
		"vibrationLevel":       1.5,
		"noiseLevel":           65,
	},
	types.Pump: {
		"capacity":             500,
		"powerRating":          300,
		"efficiency":           78,
		"flowRate":             350,
		"headPressure":         85,
		"impellerSpeed":        1800,
		"wearRate":             0.4,
		"maintenanceInterval":  1080,
		"operatingTemperature": 55,
		"vibrationLevel":       2.2,
		"noiseLevel":           70,
	},
	types.Separator: {
		"capacity":             600,
		"powerRating":          220,
		"efficiency":           88,
		"magneticField":        0.8,
		"drumSpeed":            30,
		"recoveryRate":         92,
		"wearRate":             0.2,
		"maintenanceInterval":  1800,
		"operatingTemperature": 40,
		"vibrationLevel":       1.8,
		"noiseLevel":           72,
	},
	types.Screen: {
		"capacity":             1200,
		"powerRating":          45,
		"efficiency":           90,
		"apertureSize":         25,
		"deckCount":            2,
		"screenAngle":          20,
		"wearRate":             0.35,
		"maintenanceInterval":  960,
		"operatingTemperature": 38,
		"vibrationLevel":       4.5,
		"noiseLevel":           88,
	},
	types.Feeder: {
		"capacity":             1500,
		"powerRating":          75,
		"efficiency":           93,
		"feedRate":             1100,
		"hopperVolume":         40,
		"strokeLength":         12,
		"wearRate":             0.25,
		"maintenanceInterval":  1440,
		"operatingTemperature": 36,
		"vibrationLevel":       2.6,
		"noiseLevel":           78,
	},
	types.Compressor: {
		"capacity":             300,
		"powerRating":          400,
		"efficiency":           80,
		"dischargePressure":    8.5,
		"airFlow":              45,
		"stageCount":           2,
		"wearRate":             0.3,
		"maintenanceInterval":  2000,
		"operatingTemperature": 70,
		"vibrationLevel":       2.4,
		"noiseLevel":           95,
	},
}

var icons = map[types.EquipmentType]string{
	types.Crusher:    "🔨",
	types.Mill:       "⚙️",
	types.Conveyor:   "🔗",
	types.Pump:       "💧",
	types.Separator:  "🌀",
	types.Screen:     "📊",
	types.Feeder:     "📥",
	types.Compressor: "💨",
}

var colors = map[types.EquipmentType]string{
	types.Crusher:    "#EF4444",
	types.Mill:       "#8B5CF6",
	types.Conveyor:   "#06B6D4",
	types.Pump:       "#3B82F6",
	types.Separator:  "#10B981",
	types.Screen:     "#F59E0B",
	types.Feeder:     "#EC4899",
	types.Compressor: "#6B7280",
}

const defaultColor = "#6B7280"

// Template returns a fresh copy of the default parameter set for t, or nil
// when t is not a known equipment type.
func Template(t types.EquipmentType) map[string]float64 {
	tmpl, ok := templates[t]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(tmpl))
	for k, v := range tmpl {
		out[k] = v
	}
	return out
}

func Icon(t types.EquipmentType) string {
	if icon, ok := icons[t]; ok {
		return icon
	}
	return "⚙️"
}

func Color(t types.EquipmentType) string {
	if c, ok := colors[t]; ok {
		return c
	}
	return defaultColor
}

// ParseParameter converts form input to a parameter value. Unparseable input
// becomes 0.
func ParseParameter(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParameterLabel turns a camelCase key into a spaced title, e.g.
// "powerRating" -> "Power Rating".
func ParameterLabel(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteString(strings.ToUpper(string(r)))
			continue
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
