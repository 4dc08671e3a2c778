package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/san-kum/twinvector/internal/harness"
	"github.com/san-kum/twinvector/internal/mount"
)

// Observer sees every physics step of an offline run.
type Observer interface {
	OnStep(s Sample)
}

type ObserverFunc func(s Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }

// Simulator runs the harness against a simulated plant in lockstep: each
// physics step advances a manual clock by Dt, offers the harness a tick and
// integrates the plant.
type Simulator struct {
	dec       *mount.Decoupler
	src       harness.Source
	plantCfg  PlantConfig
	newInteg  func() Integrator
	log       zerolog.Logger
	metrics   []Metric
	observers []Observer
	ticks     []harness.TickObserver
}

func New(dec *mount.Decoupler, src harness.Source, plant PlantConfig) *Simulator {
	return &Simulator{
		dec:      dec,
		src:      src,
		plantCfg: plant,
		newInteg: func() Integrator { return NewRK4() },
		log:      zerolog.Nop(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// AddTickObserver forwards harness ticks, e.g. to a recorder.
func (s *Simulator) AddTickObserver(o harness.TickObserver) { s.ticks = append(s.ticks, o) }

func (s *Simulator) SetLogger(l zerolog.Logger) { s.log = l }

// SetIntegrator picks the plant integrator; fn is called once per run.
func (s *Simulator) SetIntegrator(fn func() Integrator) { s.newInteg = fn }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	plant, err := NewPlant(s.plantCfg, s.newInteg())
	if err != nil {
		return nil, err
	}

	var (
		last   mount.Solution
		ticked bool
	)
	clock := &harness.ManualClock{}
	opts := []harness.Option{
		harness.WithClock(clock),
		harness.WithConfig(cfg.Harness),
		harness.WithLogger(s.log),
		harness.WithObserver(harness.TickFunc(func(t harness.Tick) {
			last, ticked = t.Solution, true
		})),
	}
	for _, o := range s.ticks {
		opts = append(opts, harness.WithObserver(o))
	}
	h, err := harness.New(s.dec, s.src, plant.Ports(), opts...)
	if err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:     make([]float64, 0, steps),
		Inputs:    make([]mount.Input, 0, steps),
		Commanded: make([]mount.Angles, 0, steps),
		Joints:    make([]mount.Angles, 0, steps),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	solver := s.dec.Solver()
	geo := s.dec.Geometry()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		clock.Set(t)

		_, ran, err := h.Tick(ctx)
		if err != nil {
			return result, fmt.Errorf("step %d: %w", i, err)
		}
		if ran {
			result.Ticks++
		} else {
			result.Skipped++
		}

		plant.Step(t, cfg.Dt)
		result.StepsTaken++

		joints := plant.Joints()
		if !joints.IsValid() {
			return result, fmt.Errorf("step %d: invalid joint state at t=%.4f", i, t)
		}

		result.Times = append(result.Times, t+cfg.Dt)
		result.Inputs = append(result.Inputs, last.Input)
		result.Commanded = append(result.Commanded, last.Angles)
		result.Joints = append(result.Joints, joints)

		if !ticked {
			continue
		}
		left, right := ArmsFor(joints, solver, geo)
		sample := Sample{
			T:        t + cfg.Dt,
			Ticked:   ran,
			Solution: last,
			Achieved: joints,
			Left:     left,
			Right:    right,
		}
		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, o := range s.observers {
			o.OnStep(sample)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Debug().
		Int("steps", result.StepsTaken).
		Int("ticks", result.Ticks).
		Int("skipped", result.Skipped).
		Msg("run finished")
	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
