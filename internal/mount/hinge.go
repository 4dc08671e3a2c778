package mount

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/twinvector/internal/geom"
)

// minPlaneNormal is the length below which the hinge plane is undefined
// (arm parallel to its hinge axis).
const minPlaneNormal = 1e-12

// HingeSolver maps arm directions to hinge/servo angles for hinges whose
// neutral plane is referenced against Up.
type HingeSolver struct {
	Up        mgl64.Vec3
	Normalize bool
}

// SolveHinge solves one arm against the default +Y reference.
func SolveHinge(vec, axis mgl64.Vec3) Joint {
	return HingeSolver{Up: geom.Y}.Solve(vec, axis)
}

// Solve returns the joint angles that point an arm along vec. The servo
// angle is the elevation of vec out of the hinge's neutral plane; the hinge
// angle compares the plane swept by the arm with the plane swept by Up.
// Unless Normalize is set, the plane normal keeps its length cos(servo).
func (s HingeSolver) Solve(vec, axis mgl64.Vec3) Joint {
	v := geom.Unit(vec)
	a := geom.Unit(axis)

	servo := math.Pi/2 - geom.Acos(v.Dot(a))

	normal := v.Cross(a)
	if s.Normalize {
		if l := normal.Len(); l > minPlaneNormal {
			normal = normal.Mul(1 / l)
		}
	}
	ref := geom.Unit(s.Up).Cross(a)
	hinge := math.Pi - geom.Acos(normal.Dot(ref))

	return Joint{Hinge: hinge, Servo: servo}
}

// Forward rebuilds the unit arm direction from a joint pair. A hinge of π
// points the arm along Up. It is the inverse of Solve in the normalized
// convention; unnormalized hinge angles are first mapped into it, which is
// exact for any pair Solve produced.
func (s HingeSolver) Forward(j Joint, axis mgl64.Vec3) mgl64.Vec3 {
	a := geom.Unit(axis)
	sin, cos := math.Sincos(j.Servo)
	hinge := j.Hinge
	if !s.Normalize && cos > minPlaneNormal {
		hinge = geom.Acos(math.Cos(hinge) / cos)
	}
	u := geom.Rotate(geom.Unit(s.Up), a, hinge-math.Pi)
	return u.Mul(cos).Add(a.Mul(sin))
}
