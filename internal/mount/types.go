package mount

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Input is one tick of stick input. Pitch, yaw and roll are nominally in
// [-1, 1] and throttle in [0, 1]; anything outside is clamped, not rejected.
type Input struct {
	Pitch    float64 `json:"pitch" yaml:"pitch"`
	Yaw      float64 `json:"yaw" yaml:"yaw"`
	Roll     float64 `json:"roll" yaml:"roll"`
	Throttle float64 `json:"throttle" yaml:"throttle"`
}

// Joint is a hinge/servo pair in radians.
type Joint struct {
	Hinge float64
	Servo float64
}

// Angles are the four actuator setpoints in degrees.
type Angles struct {
	HingeLeft  float64 `json:"hinge_left"`
	ServoLeft  float64 `json:"servo_left"`
	HingeRight float64 `json:"hinge_right"`
	ServoRight float64 `json:"servo_right"`
}

func (a Angles) Array() [4]float64 {
	return [4]float64{a.HingeLeft, a.ServoLeft, a.HingeRight, a.ServoRight}
}

func (a Angles) IsValid() bool {
	for _, v := range a.Array() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Solution carries every intermediate of one Decouple call.
type Solution struct {
	// Input after clamping.
	Input     Input
	BiasLimit float64
	// Clamped reports whether pitch or yaw was cut back to the bias limit.
	Clamped bool

	Thrust      mgl64.Vec3
	Left, Right mgl64.Vec3
	Degenerate  bool

	LeftJoint, RightJoint Joint
	Angles                Angles
}

// DebugLines are the arm and thrust directions scaled for display.
type DebugLines struct {
	Left, Right, Thrust mgl64.Vec3
}

// Observer receives debug geometry after each solve.
type Observer interface {
	OnSolve(lines DebugLines)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(lines DebugLines)

func (f ObserverFunc) OnSolve(lines DebugLines) { f(lines) }
