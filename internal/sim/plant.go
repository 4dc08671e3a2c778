package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/geom"
	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/mount"
)

const (
	DefaultGain     = 25.0
	DefaultSlewRate = 300.0
)

// Joint order in the plant state vector.
const (
	idxHingeLeft = iota
	idxServoLeft
	idxHingeRight
	idxServoRight
	plantDim
)

// PlantConfig describes the four actuators. Each joint chases its target as
// a first-order lag with time constant 1/Gain, rate limited to SlewRate.
type PlantConfig struct {
	Gain     float64 `yaml:"gain" json:"gain"`
	SlewRate float64 `yaml:"slew_rate" json:"slew_rate"`

	HingeMin float64 `yaml:"hinge_min" json:"hinge_min"`
	HingeMax float64 `yaml:"hinge_max" json:"hinge_max"`
	ServoMin float64 `yaml:"servo_min" json:"servo_min"`
	ServoMax float64 `yaml:"servo_max" json:"servo_max"`

	Initial mount.Angles `yaml:"initial" json:"initial"`
}

func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		Gain:     DefaultGain,
		SlewRate: DefaultSlewRate,
		HingeMin: 0,
		HingeMax: 180,
		ServoMin: -90,
		ServoMax: 90,
		Initial:  mount.Angles{HingeLeft: 90, HingeRight: 90},
	}
}

func (c PlantConfig) Validate() error {
	if c.Gain <= 0 {
		return fmt.Errorf("plant gain must be positive, got %f", c.Gain)
	}
	if c.SlewRate <= 0 {
		return fmt.Errorf("plant slew rate must be positive, got %f", c.SlewRate)
	}
	if c.HingeMin >= c.HingeMax {
		return fmt.Errorf("hinge travel [%f, %f] is empty", c.HingeMin, c.HingeMax)
	}
	if c.ServoMin >= c.ServoMax {
		return fmt.Errorf("servo travel [%f, %f] is empty", c.ServoMin, c.ServoMax)
	}
	return nil
}

// Plant is a simulated mount: four rate-limited servos whose targets are
// set through harness ports.
type Plant struct {
	cfg        PlantConfig
	integrator Integrator
	lo, hi     [plantDim]float64

	mu      sync.Mutex
	x       State
	targets Control
	writes  int
}

func NewPlant(cfg PlantConfig, integrator Integrator) (*Plant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if integrator == nil {
		integrator = NewRK4()
	}
	p := &Plant{
		cfg:        cfg,
		integrator: integrator,
		lo:         [plantDim]float64{cfg.HingeMin, cfg.ServoMin, cfg.HingeMin, cfg.ServoMin},
		hi:         [plantDim]float64{cfg.HingeMax, cfg.ServoMax, cfg.HingeMax, cfg.ServoMax},
	}
	start := cfg.Initial.Array()
	p.x = make(State, plantDim)
	for i := range p.x {
		p.x[i] = p.limit(i, start[i])
	}
	p.targets = Control(p.x.Clone())
	return p, nil
}

func (p *Plant) StateDim() int { return plantDim }

func (p *Plant) Derive(x State, u Control, t float64) State {
	dx := make(State, len(x))
	for i := range x {
		rate := p.cfg.Gain * (u[i] - x[i])
		dx[i] = geom.Clamp(rate, -p.cfg.SlewRate, p.cfg.SlewRate)
	}
	return dx
}

func (p *Plant) limit(i int, v float64) float64 {
	return geom.Clamp(v, p.lo[i], p.hi[i])
}

// Step advances the joints by dt toward their current targets.
func (p *Plant) Step(t, dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.integrator.Step(p, p.x, p.targets, t, dt)
	for i := range next {
		next[i] = p.limit(i, next[i])
	}
	p.x = next
}

func (p *Plant) setTarget(i int, deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return fmt.Errorf("non-finite target %f", deg)
	}
	p.mu.Lock()
	p.targets[i] = p.limit(i, deg)
	p.writes++
	p.mu.Unlock()
	return nil
}

func (p *Plant) port(i int) harness.Port {
	return harness.PortFunc(func(deg float64) error { return p.setTarget(i, deg) })
}

func (p *Plant) Ports() harness.Ports {
	return harness.Ports{
		HingeLeft:  p.port(idxHingeLeft),
		ServoLeft:  p.port(idxServoLeft),
		HingeRight: p.port(idxHingeRight),
		ServoRight: p.port(idxServoRight),
	}
}

func anglesOf(v []float64) mount.Angles {
	return mount.Angles{
		HingeLeft:  v[idxHingeLeft],
		ServoLeft:  v[idxServoLeft],
		HingeRight: v[idxHingeRight],
		ServoRight: v[idxServoRight],
	}
}

// Joints returns the achieved joint angles in degrees.
func (p *Plant) Joints() mount.Angles {
	p.mu.Lock()
	defer p.mu.Unlock()
	return anglesOf(p.x)
}

func (p *Plant) Targets() mount.Angles {
	p.mu.Lock()
	defer p.mu.Unlock()
	return anglesOf(p.targets)
}

// Writes counts accepted setpoints across all four ports.
func (p *Plant) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// Arms returns the arm directions the achieved joints point along.
func (p *Plant) Arms(solver mount.HingeSolver, geo mount.Geometry) (left, right mgl64.Vec3) {
	return ArmsFor(p.Joints(), solver, geo)
}

func ArmsFor(a mount.Angles, solver mount.HingeSolver, geo mount.Geometry) (left, right mgl64.Vec3) {
	left = solver.Forward(mount.Joint{Hinge: geom.Rad(a.HingeLeft), Servo: geom.Rad(a.ServoLeft)}, geo.LeftAxis)
	right = solver.Forward(mount.Joint{Hinge: geom.Rad(a.HingeRight), Servo: geom.Rad(a.ServoRight)}, geo.RightAxis)
	return left, right
}
