package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/mount"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

// System is a continuous-time plant: dx/dt = f(x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}

// Sample is what the metrics see after each physics step.
type Sample struct {
	T      float64
	Ticked bool
	// Solution is the most recent harness solve; zero until the first tick.
	Solution mount.Solution
	Achieved mount.Angles
	// Left and Right are the achieved arm directions.
	Left, Right mgl64.Vec3
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Config struct {
	Dt       float64        `yaml:"dt" json:"dt"`
	Duration float64        `yaml:"duration" json:"duration"`
	Harness  harness.Config `yaml:"harness" json:"harness"`
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.01,
		Duration: 5,
		Harness:  harness.DefaultConfig(),
	}
}

type Result struct {
	Times     []float64
	Inputs    []mount.Input
	Commanded []mount.Angles
	Joints    []mount.Angles
	Metrics   map[string]float64

	StepsTaken int
	Ticks      int
	Skipped    int
}
