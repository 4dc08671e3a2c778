package config

import (
	"sort"

	"github.com/san-kum/twinvector/internal/control"
)

// Preset is a named input profile with a suggested run length.
type Preset struct {
	Description string
	Duration    float64
	Profile     control.Profile
}

var Presets = map[string]Preset{
	"hover": {
		Description: "centred stick at half throttle",
		Duration:    5,
		Profile: control.Profile{
			Throttle: control.Const(0.5),
		},
	},
	"spool-up": {
		Description: "throttle ramp from idle to full",
		Duration:    6,
		Profile: control.Profile{
			Throttle: control.Ramp(0, 1, 5),
		},
	},
	"pitch-step": {
		Description: "full pitch step at hover throttle",
		Duration:    4,
		Profile: control.Profile{
			Pitch:    control.Step(0, 1, 1),
			Throttle: control.Const(0.5),
		},
	},
	"yaw-sweep": {
		Description: "slow full-range yaw sine",
		Duration:    8,
		Profile: control.Profile{
			Yaw:      control.Sine(1, 4),
			Throttle: control.Const(0.6),
		},
	},
	"roll-sweep": {
		Description: "roll square wave, arms co-rotating",
		Duration:    8,
		Profile: control.Profile{
			Roll:     control.Waveform{Kind: control.KindSquare, Amplitude: 1, Period: 2},
			Throttle: control.Const(0.7),
		},
	},
	"idle-roll": {
		Description: "roll at zero throttle, the degenerate split",
		Duration:    4,
		Profile: control.Profile{
			Roll: control.Sine(1, 2),
		},
	},
	"saturate": {
		Description: "pitch and yaw pinned while throttle climbs into the bias limit",
		Duration:    6,
		Profile: control.Profile{
			Pitch:    control.Const(1),
			Yaw:      control.Const(-1),
			Throttle: control.Ramp(0.2, 1, 5),
		},
	},
}

// GetPreset returns a copy of the named preset with its profile name set.
func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	if !ok {
		return Preset{}, false
	}
	p.Profile.Name = name
	return p, true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
