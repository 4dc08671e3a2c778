package mount

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/geom"
)

const (
	DefaultMaxTiltDeg         = 20.0
	DefaultMaxRollDeg         = 20.0
	DefaultDegenerateThrottle = 1e-5
	DefaultDebugScale         = 10.0

	// hinge axes must be perpendicular to Up, and CrossAxis must not be
	// parallel to it
	axisTolerance = 1e-9
)

// Geometry fixes the mount's limits and axes. It is configuration: it is
// validated once by New and never changes afterwards.
type Geometry struct {
	// MaxTiltDeg is the off-axis thrust angle reached at full pitch or yaw.
	MaxTiltDeg float64 `yaml:"max_tilt_deg"`
	// MaxRollDeg is the arm co-rotation reached at full roll.
	MaxRollDeg float64 `yaml:"max_roll_deg"`
	// DegenerateThrottle is the throttle below which the thrust vector is
	// treated as directionless.
	DegenerateThrottle float64 `yaml:"degenerate_throttle"`

	LeftAxis  mgl64.Vec3 `yaml:"left_axis,flow"`
	RightAxis mgl64.Vec3 `yaml:"right_axis,flow"`
	// Up is the hinge reference direction.
	Up mgl64.Vec3 `yaml:"up,flow"`
	// CrossAxis is crossed with the thrust to get the arm split direction.
	CrossAxis mgl64.Vec3 `yaml:"cross_axis,flow"`

	// NormalizeHingeNormal normalizes the hinge plane normal before the
	// hinge angle is taken. Off, the hinge angle is scaled by the servo
	// tilt, as on the flown hardware.
	NormalizeHingeNormal bool `yaml:"normalize_hinge_normal"`

	DebugScale float64 `yaml:"debug_scale"`
}

func DefaultGeometry() Geometry {
	return Geometry{
		MaxTiltDeg:         DefaultMaxTiltDeg,
		MaxRollDeg:         DefaultMaxRollDeg,
		DegenerateThrottle: DefaultDegenerateThrottle,
		LeftAxis:           geom.Z,
		RightAxis:          geom.Z.Mul(-1),
		Up:                 geom.Y,
		CrossAxis:          geom.Z,
		DebugScale:         DefaultDebugScale,
	}
}

// Validate reports the first field outside its valid range.
func (g Geometry) Validate() error {
	axes := []struct {
		name string
		v    mgl64.Vec3
	}{
		{"left_axis", g.LeftAxis},
		{"right_axis", g.RightAxis},
		{"up", g.Up},
		{"cross_axis", g.CrossAxis},
	}
	for _, a := range axes {
		if a.v.Len() == 0 {
			return &GeometryError{Field: a.name, Value: a.v, Wrapped: ErrZeroAxis}
		}
	}
	up := geom.Unit(g.Up)
	for _, a := range axes[:2] {
		if math.Abs(up.Dot(geom.Unit(a.v))) > axisTolerance {
			return &GeometryError{Field: a.name, Value: a.v, Wrapped: ErrGeometry}
		}
	}
	if up.Cross(geom.Unit(g.CrossAxis)).Len() < axisTolerance {
		return &GeometryError{Field: "cross_axis", Value: g.CrossAxis, Wrapped: ErrGeometry}
	}
	if g.MaxTiltDeg <= 0 || g.MaxTiltDeg >= 90 {
		return &GeometryError{Field: "max_tilt_deg", Value: g.MaxTiltDeg, Wrapped: ErrGeometry}
	}
	if g.MaxRollDeg < 0 || g.MaxRollDeg > 180 {
		return &GeometryError{Field: "max_roll_deg", Value: g.MaxRollDeg, Wrapped: ErrGeometry}
	}
	if g.DegenerateThrottle < 0 || g.DegenerateThrottle >= 1 {
		return &GeometryError{Field: "degenerate_throttle", Value: g.DegenerateThrottle, Wrapped: ErrGeometry}
	}
	if g.DebugScale < 0 {
		return &GeometryError{Field: "debug_scale", Value: g.DebugScale, Wrapped: ErrGeometry}
	}
	return nil
}
