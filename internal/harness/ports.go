package harness

import (
	"errors"
	"fmt"

	"github.com/san-kum/twinvector/internal/mount"
)

// Part tags of the four actuators.
const (
	TagHingeLeft  = "h.l"
	TagServoLeft  = "s.l"
	TagHingeRight = "h.r"
	TagServoRight = "s.r"
)

// Port is one actuator that accepts a target angle in degrees.
type Port interface {
	SetTargetAngle(deg float64) error
}

// PortFunc adapts a function to Port.
type PortFunc func(deg float64) error

func (f PortFunc) SetTargetAngle(deg float64) error { return f(deg) }

// Ports are the four actuators of a mount.
type Ports struct {
	HingeLeft  Port
	ServoLeft  Port
	HingeRight Port
	ServoRight Port
}

type namedPort struct {
	tag  string
	port Port
}

func (p Ports) list() []namedPort {
	return []namedPort{
		{TagHingeLeft, p.HingeLeft},
		{TagServoLeft, p.ServoLeft},
		{TagHingeRight, p.HingeRight},
		{TagServoRight, p.ServoRight},
	}
}

func (p Ports) validate() error {
	for _, np := range p.list() {
		if np.port == nil {
			return fmt.Errorf("%w: %s", ErrMissingPort, np.tag)
		}
	}
	return nil
}

// apply writes all four setpoints. A failing port does not stop the others.
func (p Ports) apply(a mount.Angles) error {
	values := a.Array()
	var errs []error
	for i, np := range p.list() {
		if err := np.port.SetTargetAngle(values[i]); err != nil {
			errs = append(errs, &PortError{Tag: np.tag, Wrapped: err})
		}
	}
	return errors.Join(errs...)
}

// PortError wraps an actuator write failure with the actuator's tag.
type PortError struct {
	Tag     string
	Wrapped error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("harness: port %s: %v", e.Tag, e.Wrapped)
}

func (e *PortError) Unwrap() error {
	return e.Wrapped
}
