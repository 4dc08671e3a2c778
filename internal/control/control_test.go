package control

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestNeutral(t *testing.T) {
	src := NewNeutral(0.4)
	in := src.Compute(3.0)

	if in.Throttle != 0.4 {
		t.Errorf("expected throttle 0.4, got %f", in.Throttle)
	}
	if in.Pitch != 0 || in.Yaw != 0 || in.Roll != 0 {
		t.Errorf("expected centred stick, got %+v", in)
	}
}

func TestManualKeys(t *testing.T) {
	tests := []struct {
		key   string
		check func(p, y, r float64) bool
	}{
		{"s", func(p, y, r float64) bool { return p == 1 }},
		{"w", func(p, y, r float64) bool { return p == -1 }},
		{"d", func(p, y, r float64) bool { return y == 1 }},
		{"a", func(p, y, r float64) bool { return y == -1 }},
		{"e", func(p, y, r float64) bool { return r == 1 }},
		{"q", func(p, y, r float64) bool { return r == -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := NewManual()
			if !m.Press(tt.key) {
				t.Fatalf("key %q not handled", tt.key)
			}
			in := m.Compute(0)
			if !tt.check(in.Pitch, in.Yaw, in.Roll) {
				t.Errorf("unexpected input after %q: %+v", tt.key, in)
			}
		})
	}
}

func TestManualUnknownKey(t *testing.T) {
	m := NewManual()
	if m.Press("k") {
		t.Error("expected unknown key to be ignored")
	}
}

func TestManualDecay(t *testing.T) {
	m := NewManual()
	m.Press("s")

	first := m.Compute(0)
	second := m.Compute(0.02)
	if first.Pitch != 1 {
		t.Fatalf("expected full pitch on first read, got %f", first.Pitch)
	}
	if math.Abs(second.Pitch-DefaultDecay) > 1e-12 {
		t.Errorf("expected pitch %f after one decay, got %f", DefaultDecay, second.Pitch)
	}

	for i := 0; i < 200; i++ {
		m.Compute(0)
	}
	if m.Snapshot().Pitch > 1e-6 {
		t.Errorf("expected pitch to decay to centre, got %f", m.Snapshot().Pitch)
	}
}

func TestManualThrottle(t *testing.T) {
	m := NewManual()
	for i := 0; i < 30; i++ {
		m.Press("+")
	}
	if m.Snapshot().Throttle != 1 {
		t.Errorf("expected throttle capped at 1, got %f", m.Snapshot().Throttle)
	}

	m.Press("x")
	if m.Snapshot().Throttle != 0 {
		t.Errorf("expected throttle cut, got %f", m.Snapshot().Throttle)
	}
	m.Press("-")
	if m.Snapshot().Throttle != 0 {
		t.Errorf("expected throttle floored at 0, got %f", m.Snapshot().Throttle)
	}

	m.Press("z")
	in := m.Compute(0)
	if in.Throttle != 1 {
		t.Errorf("expected full throttle, got %f", in.Throttle)
	}
	if m.Compute(0).Throttle != 1 {
		t.Error("throttle should not decay")
	}
}

func TestManualConcurrent(t *testing.T) {
	m := NewManual()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Press("s")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Compute(float64(i))
		}
	}()
	wg.Wait()
}

func TestWaveforms(t *testing.T) {
	tests := []struct {
		name     string
		w        Waveform
		t        float64
		expected float64
	}{
		{"const", Const(0.3), 5, 0.3},
		{"sine quarter", Sine(0.5, 4), 1, 0.5},
		{"sine half", Sine(0.5, 4), 2, 0},
		{"square low", Waveform{Kind: KindSquare, Amplitude: 1, Period: 2}, 1.5, -1},
		{"ramp mid", Ramp(0, 1, 10), 5, 0.5},
		{"ramp done", Ramp(0.2, 0.8, 2), 9, 0.8},
		{"step before", Step(0, 1, 3), 2.9, 0},
		{"step after", Step(0, 1, 3), 3, 1},
		{"zero period sine", Waveform{Kind: KindSine, Amplitude: 1, Offset: 0.1}, 7, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.At(tt.t); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("At(%v) = %v, want %v", tt.t, got, tt.expected)
			}
		})
	}
}

func TestProfileCompute(t *testing.T) {
	p := &Profile{
		Name:     "mixed",
		Pitch:    Const(0.2),
		Yaw:      Step(0, -0.5, 1),
		Roll:     Sine(1, 4),
		Throttle: Ramp(0, 1, 2),
	}

	in := p.Compute(1)
	if in.Pitch != 0.2 || in.Yaw != -0.5 || math.Abs(in.Roll-1) > 1e-12 || in.Throttle != 0.5 {
		t.Errorf("unexpected input: %+v", in)
	}
}

func TestProfileValidate(t *testing.T) {
	p := &Profile{Roll: Waveform{Kind: "triangle"}}
	err := p.Validate()
	if !errors.Is(err, ErrUnknownWaveform) {
		t.Errorf("expected ErrUnknownWaveform, got %v", err)
	}

	ok := &Profile{Throttle: Const(0.5)}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid profile, got %v", err)
	}
}
