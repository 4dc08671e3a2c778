// Package geom holds the small set of 3D helpers the mount solver needs on
// top of mgl64.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	X = mgl64.Vec3{1, 0, 0}
	Y = mgl64.Vec3{0, 1, 0}
	Z = mgl64.Vec3{0, 0, 1}
)

// Rotate turns v about axis by angle radians (right-handed) using
// Rodrigues' formula. The axis need not be unit length; a zero axis leaves
// v unchanged.
func Rotate(v, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	l := axis.Len()
	if l == 0 {
		return v
	}
	k := axis.Mul(1 / l)
	sin, cos := math.Sincos(angle)

	// v cosθ + (k × v) sinθ + k (k·v)(1 − cosθ)
	return v.Mul(cos).
		Add(k.Cross(v).Mul(sin)).
		Add(k.Mul(k.Dot(v) * (1 - cos)))
}

// Acos is math.Acos with its argument clamped to [-1, 1], so normalization
// drift never produces NaN.
func Acos(x float64) float64 {
	return math.Acos(Clamp(x, -1, 1))
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Unit returns v scaled to length 1, or the zero vector for zero input.
func Unit(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// AngleBetween returns the angle between a and b in radians; zero vectors
// give 0.
func AngleBetween(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	return Acos(a.Dot(b) / (la * lb))
}

func Deg(rad float64) float64 { return rad * 180 / math.Pi }
func Rad(deg float64) float64 { return deg * math.Pi / 180 }
