package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/twinvector/internal/control"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
)

// Axis names a stick axis.
type Axis string

const (
	AxisPitch    Axis = "pitch"
	AxisYaw      Axis = "yaw"
	AxisRoll     Axis = "roll"
	AxisThrottle Axis = "throttle"
)

func ParseAxis(s string) (Axis, error) {
	switch a := Axis(s); a {
	case AxisPitch, AxisYaw, AxisRoll, AxisThrottle:
		return a, nil
	}
	return "", fmt.Errorf("unknown axis %q (want pitch, yaw, roll or throttle)", s)
}

// Set returns in with the axis replaced by v.
func (a Axis) Set(in mount.Input, v float64) mount.Input {
	switch a {
	case AxisPitch:
		in.Pitch = v
	case AxisYaw:
		in.Yaw = v
	case AxisRoll:
		in.Roll = v
	case AxisThrottle:
		in.Throttle = v
	}
	return in
}

// AxisSweep holds one axis at evenly spaced constant values, the other
// axes at Base.
type AxisSweep struct {
	Axis     Axis
	Min, Max float64
	NumSteps int
	Base     mount.Input
}

func (s AxisSweep) Values() []float64 {
	if s.NumSteps < 2 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

// Solve decouples every sweep point without simulating the plant.
func (s AxisSweep) Solve(dec *mount.Decoupler) []mount.Solution {
	vals := s.Values()
	out := make([]mount.Solution, len(vals))
	for i, v := range vals {
		out[i] = dec.Decouple(s.Axis.Set(s.Base, v))
	}
	return out
}

func (s AxisSweep) profile(v float64) *control.Profile {
	in := s.Axis.Set(s.Base, v)
	return &control.Profile{
		Name:     fmt.Sprintf("%s=%.3f", s.Axis, v),
		Pitch:    control.Const(in.Pitch),
		Yaw:      control.Const(in.Yaw),
		Roll:     control.Const(in.Roll),
		Throttle: control.Const(in.Throttle),
	}
}

type SweepResult struct {
	Value   float64
	Final   mount.Angles
	Metrics map[string]float64
}

// RunSweep simulates every sweep point in parallel.
func RunSweep(ctx context.Context, sweep AxisSweep, r Runner, workers int) ([]SweepResult, error) {
	vals := sweep.Values()
	jobs := make([]sim.Job, len(vals))
	for i, v := range vals {
		p := sweep.profile(v)
		jobs[i] = sim.Job{Name: p.Name, Source: p}
	}

	batch := sim.NewBatch(r.Decoupler, r.Plant, workers)
	out := make([]SweepResult, 0, len(vals))
	for i, jr := range batch.Run(ctx, jobs, r.Base) {
		if jr.Err != nil {
			return out, fmt.Errorf("%s: %w", jr.Name, jr.Err)
		}
		res := jr.Result
		var final mount.Angles
		if n := len(res.Joints); n > 0 {
			final = res.Joints[n-1]
		}
		out = append(out, SweepResult{Value: vals[i], Final: final, Metrics: res.Metrics})
	}
	return out, nil
}
