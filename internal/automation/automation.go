// Package automation runs scripted sequences of offline simulations.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/twinvector/internal/config"
	"github.com/san-kum/twinvector/internal/control"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
	"github.com/san-kum/twinvector/internal/storage"
)

var ErrInvalidStep = errors.New("automation: invalid scenario step")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep runs either a named preset or an inline profile. Zero
// duration or dt falls back to the preset or runner defaults.
type ScenarioStep struct {
	Preset   string           `yaml:"preset"`
	Profile  *control.Profile `yaml:"profile"`
	Duration float64          `yaml:"duration"`
	Dt       float64          `yaml:"dt"`
	SaveAs   string           `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: scenario %q has no steps", ErrInvalidStep, s.Name)
	}
	for i, step := range s.Steps {
		if _, _, err := step.resolve(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Duration < 0 || step.Dt < 0 {
			return fmt.Errorf("%w: step %d: negative duration or dt", ErrInvalidStep, i+1)
		}
	}
	return nil
}

// resolve returns the step's profile and preset duration.
func (s ScenarioStep) resolve() (*control.Profile, float64, error) {
	switch {
	case s.Preset != "" && s.Profile != nil:
		return nil, 0, fmt.Errorf("%w: both preset and profile set", ErrInvalidStep)
	case s.Preset != "":
		p, ok := config.GetPreset(s.Preset)
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown preset %q", ErrInvalidStep, s.Preset)
		}
		return &p.Profile, p.Duration, nil
	case s.Profile != nil:
		if err := s.Profile.Validate(); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		return s.Profile, 0, nil
	default:
		return nil, 0, fmt.Errorf("%w: neither preset nor profile set", ErrInvalidStep)
	}
}

func (s ScenarioStep) name() string {
	switch {
	case s.SaveAs != "":
		return s.SaveAs
	case s.Preset != "":
		return s.Preset
	case s.Profile != nil && s.Profile.Name != "":
		return s.Profile.Name
	}
	return "step"
}

// Runner holds what every step shares. Store is optional; without it
// nothing is saved.
type Runner struct {
	Decoupler *mount.Decoupler
	Plant     sim.PlantConfig
	Base      sim.Config
	Store     *storage.Store
	Log       zerolog.Logger
}

type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, r Runner) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		profile, presetDuration, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		cfg := r.Base
		if presetDuration > 0 {
			cfg.Duration = presetDuration
		}
		if step.Duration > 0 {
			cfg.Duration = step.Duration
		}
		if step.Dt > 0 {
			cfg.Dt = step.Dt
		}

		name := step.name()
		r.Log.Info().
			Int("step", i+1).
			Int("of", len(scenario.Steps)).
			Str("name", name).
			Float64("duration", cfg.Duration).
			Msg("running scenario step")

		s := sim.New(r.Decoupler, profile, r.Plant)
		s.SetLogger(r.Log)
		for _, m := range sim.DefaultMetrics() {
			s.AddMetric(m)
		}

		result, err := s.Run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Result: result}
		if step.SaveAs != "" && r.Store != nil {
			id, err := r.Store.Save(storage.RunInfo{
				Name:       step.SaveAs,
				Integrator: "rk4",
				Config:     cfg,
				Plant:      r.Plant,
				Geometry:   storage.GeometryInfoOf(r.Decoupler.Geometry()),
			}, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
			r.Log.Info().Str("run", id).Msg("saved")
		}
		results = append(results, sr)
	}

	return results, nil
}
