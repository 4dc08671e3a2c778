package control

import (
	"sync"

	"github.com/san-kum/twinvector/internal/geom"
	"github.com/san-kum/twinvector/internal/mount"
)

const (
	DefaultDecay        = 0.85
	DefaultThrottleStep = 0.05
)

// Manual is a keyboard stick. A key press deflects its axis fully; the
// terminal never reports key release, so every Compute lets the deflection
// decay back toward centre. Press and Compute may run on different
// goroutines.
//
// Positive directions: S pitch, D yaw, E roll.
type Manual struct {
	mu           sync.Mutex
	in           mount.Input
	decay        float64
	throttleStep float64
}

func NewManual() *Manual {
	return &Manual{
		decay:        DefaultDecay,
		throttleStep: DefaultThrottleStep,
	}
}

// SetDecay sets the fraction of deflection kept per Compute.
func (m *Manual) SetDecay(decay float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decay = geom.Clamp(decay, 0, 1)
}

// Press applies a key and reports whether it was a stick key.
func (m *Manual) Press(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch key {
	case "s":
		m.in.Pitch = 1
	case "w":
		m.in.Pitch = -1
	case "d":
		m.in.Yaw = 1
	case "a":
		m.in.Yaw = -1
	case "e":
		m.in.Roll = 1
	case "q":
		m.in.Roll = -1
	case "shift+up", "+", "=":
		m.in.Throttle = geom.Clamp(m.in.Throttle+m.throttleStep, 0, 1)
	case "shift+down", "-", "_":
		m.in.Throttle = geom.Clamp(m.in.Throttle-m.throttleStep, 0, 1)
	case "z":
		m.in.Throttle = 1
	case "x":
		m.in.Throttle = 0
	case "c":
		m.in.Pitch, m.in.Yaw, m.in.Roll = 0, 0, 0
	default:
		return false
	}
	return true
}

func (m *Manual) SetThrottle(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.in.Throttle = geom.Clamp(v, 0, 1)
}

// Compute returns the current stick and then decays the deflection.
func (m *Manual) Compute(t float64) mount.Input {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.in
	m.in.Pitch *= m.decay
	m.in.Yaw *= m.decay
	m.in.Roll *= m.decay
	return out
}

// Snapshot returns the current stick without decaying it.
func (m *Manual) Snapshot() mount.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.in
}
