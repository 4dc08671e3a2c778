package mount

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/geom"
)

// Decoupler turns stick input into the joint angles of both arms.
type Decoupler struct {
	geo       Geometry
	up        mgl64.Vec3
	cross     mgl64.Vec3
	rest      mgl64.Vec3
	tanTilt   float64
	maxRoll   float64
	solver    HingeSolver
	observers []Observer
}

func New(g Geometry) (*Decoupler, error) {
	if g.DebugScale == 0 {
		g.DebugScale = DefaultDebugScale
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	up, cross := geom.Unit(g.Up), geom.Unit(g.CrossAxis)
	return &Decoupler{
		geo:     g,
		up:      up,
		cross:   cross,
		rest:    geom.Unit(up.Cross(cross)),
		tanTilt: math.Tan(geom.Rad(g.MaxTiltDeg)),
		maxRoll: geom.Rad(g.MaxRollDeg),
		solver:  HingeSolver{Up: up, Normalize: g.NormalizeHingeNormal},
	}, nil
}

// MustNew is New for fixed geometries known to be valid.
func MustNew(g Geometry) *Decoupler {
	d, err := New(g)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Decoupler) Geometry() Geometry  { return d.geo }
func (d *Decoupler) Solver() HingeSolver { return d.solver }

// AddObserver registers o for debug geometry. Not safe to call concurrently
// with Decouple.
func (d *Decoupler) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// BiasLimit is the largest pitch/yaw command allowed at the given throttle.
// It shrinks to zero at full throttle, where no off-axis angle is left.
func BiasLimit(throttle, tanTilt float64) float64 {
	throttle = geom.Clamp(throttle, 0, 1)
	return math.Sqrt(1-throttle*throttle) / tanTilt
}

// Compose clamps the input and returns the commanded thrust vector, whose
// length equals the clamped throttle. NaN axes read as centred, and a NaN
// throttle as zero.
func (d *Decoupler) Compose(in Input) (mgl64.Vec3, Input, float64) {
	out := Input{
		Pitch:    orZero(in.Pitch),
		Yaw:      orZero(in.Yaw),
		Roll:     orZero(in.Roll),
		Throttle: orZero(in.Throttle),
	}
	out.Throttle = geom.Clamp(out.Throttle, 0, 1)

	limit := BiasLimit(out.Throttle, d.tanTilt)
	out.Pitch = geom.Clamp(out.Pitch, -limit, limit)
	out.Yaw = geom.Clamp(out.Yaw, -limit, limit)
	out.Roll = geom.Clamp(out.Roll, -1, 1)

	dir := mgl64.Vec3{-out.Yaw * d.tanTilt, 1, out.Pitch * d.tanTilt}
	thrust := geom.Unit(dir).Mul(out.Throttle)
	return thrust, out, limit
}

func orZero(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}

// Decompose splits thrust into two arm directions. Their sum is twice the
// thrust; their difference is perpendicular to it and rotated about it by
// the roll command. Below the degenerate throttle the split is Up x
// CrossAxis turned about Up by the roll command.
func (d *Decoupler) Decompose(thrust mgl64.Vec3, roll, throttle float64) (left, right mgl64.Vec3, degenerate bool) {
	rollAngle := geom.Clamp(roll, -1, 1) * d.maxRoll

	var split mgl64.Vec3
	if throttle < d.geo.DegenerateThrottle {
		degenerate = true
		split = geom.Rotate(d.rest, d.up, rollAngle)
	} else {
		// two unit arms separated by 2α sum to 2cos(α)
		alpha := geom.Acos(thrust.Len())
		split = thrust.Cross(d.cross).Mul(math.Tan(alpha))
		split = geom.Rotate(split, thrust, rollAngle)
	}

	return thrust.Add(split), thrust.Sub(split), degenerate
}

// Decouple runs the full pipeline for one tick.
func (d *Decoupler) Decouple(in Input) Solution {
	thrust, clamped, limit := d.Compose(in)
	left, right, degenerate := d.Decompose(thrust, clamped.Roll, clamped.Throttle)

	lj := d.solver.Solve(left, d.geo.LeftAxis)
	rj := d.solver.Solve(right, d.geo.RightAxis)

	sol := Solution{
		Input:      clamped,
		BiasLimit:  limit,
		Clamped:    clamped.Pitch != in.Pitch || clamped.Yaw != in.Yaw,
		Thrust:     thrust,
		Left:       left,
		Right:      right,
		Degenerate: degenerate,
		LeftJoint:  lj,
		RightJoint: rj,
		Angles: Angles{
			HingeLeft:  geom.Deg(lj.Hinge),
			ServoLeft:  geom.Deg(lj.Servo),
			HingeRight: geom.Deg(rj.Hinge),
			ServoRight: geom.Deg(rj.Servo),
		},
	}

	if len(d.observers) > 0 {
		s := d.geo.DebugScale
		lines := DebugLines{Left: left.Mul(s), Right: right.Mul(s), Thrust: thrust.Mul(s)}
		for _, o := range d.observers {
			o.OnSolve(lines)
		}
	}
	return sol
}
