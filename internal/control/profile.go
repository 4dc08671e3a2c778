package control

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/twinvector/internal/mount"
)

var ErrUnknownWaveform = errors.New("control: unknown waveform kind")

type Kind string

const (
	KindConst  Kind = "const"
	KindSine   Kind = "sine"
	KindSquare Kind = "square"
	KindRamp   Kind = "ramp"
	KindStep   Kind = "step"
)

// Waveform is one axis of a scripted input. Before Start it holds Offset.
type Waveform struct {
	Kind      Kind    `yaml:"kind" json:"kind"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Offset    float64 `yaml:"offset" json:"offset"`
	Period    float64 `yaml:"period" json:"period"`
	Phase     float64 `yaml:"phase" json:"phase"`
	Start     float64 `yaml:"start" json:"start"`
}

func Const(v float64) Waveform { return Waveform{Kind: KindConst, Offset: v} }

func Sine(amplitude, period float64) Waveform {
	return Waveform{Kind: KindSine, Amplitude: amplitude, Period: period}
}

func Ramp(from, to, duration float64) Waveform {
	return Waveform{Kind: KindRamp, Offset: from, Amplitude: to - from, Period: duration}
}

func Step(from, to, at float64) Waveform {
	return Waveform{Kind: KindStep, Offset: from, Amplitude: to - from, Start: at}
}

func (w Waveform) Validate() error {
	switch w.Kind {
	case "", KindConst, KindSine, KindSquare, KindRamp, KindStep:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownWaveform, w.Kind)
}

// At evaluates the waveform at time t (seconds).
func (w Waveform) At(t float64) float64 {
	if t < w.Start {
		return w.Offset
	}
	tau := t - w.Start

	switch w.Kind {
	case KindSine, KindSquare:
		if w.Period <= 0 {
			return w.Offset
		}
		s := math.Sin(2*math.Pi*tau/w.Period + w.Phase)
		if w.Kind == KindSquare {
			if s >= 0 {
				s = 1
			} else {
				s = -1
			}
		}
		return w.Offset + w.Amplitude*s
	case KindRamp:
		if w.Period <= 0 {
			return w.Offset + w.Amplitude
		}
		return w.Offset + w.Amplitude*math.Min(tau/w.Period, 1)
	case KindStep:
		return w.Offset + w.Amplitude
	default:
		return w.Offset
	}
}

// Profile scripts all four stick axes.
type Profile struct {
	Name     string   `yaml:"name" json:"name"`
	Pitch    Waveform `yaml:"pitch" json:"pitch"`
	Yaw      Waveform `yaml:"yaw" json:"yaw"`
	Roll     Waveform `yaml:"roll" json:"roll"`
	Throttle Waveform `yaml:"throttle" json:"throttle"`
}

func (p *Profile) Validate() error {
	axes := []struct {
		name string
		w    Waveform
	}{{"pitch", p.Pitch}, {"yaw", p.Yaw}, {"roll", p.Roll}, {"throttle", p.Throttle}}
	for _, a := range axes {
		if err := a.w.Validate(); err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
	}
	return nil
}

func (p *Profile) Compute(t float64) mount.Input {
	return mount.Input{
		Pitch:    p.Pitch.At(t),
		Yaw:      p.Yaw.At(t),
		Roll:     p.Roll.At(t),
		Throttle: p.Throttle.At(t),
	}
}
