package mount_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twinvector/internal/geom"
	"github.com/san-kum/twinvector/internal/mount"
)

var _ = Describe("HingeSolver", func() {
	solver := mount.HingeSolver{Up: geom.Y}
	normalized := mount.HingeSolver{Up: geom.Y, Normalize: true}
	axes := map[string]mgl64.Vec3{"left": geom.Z, "right": geom.Z.Mul(-1)}

	DescribeTable("recovers known joint angles",
		func(s mount.HingeSolver, hinge, servo float64) {
			for name, axis := range axes {
				dir := s.Forward(mount.Joint{Hinge: hinge, Servo: servo}, axis)
				Expect(dir.Len()).To(BeNumerically("~", 1, 1e-12), name)
				got := s.Solve(dir, axis)
				Expect(got.Hinge).To(BeNumerically("~", hinge, 1e-9), name)
				Expect(got.Servo).To(BeNumerically("~", servo, 1e-9), name)
			}
		},
		Entry("normalized: neutral", normalized, math.Pi, 0.0),
		Entry("normalized: splayed", normalized, 2*math.Pi/3, 0.0),
		Entry("normalized: flat", normalized, math.Pi/2, 0.0),
		Entry("normalized: splayed and tilted up", normalized, 0.8*math.Pi, 0.3),
		Entry("normalized: splayed and tilted down", normalized, 0.7*math.Pi, -0.45),
		Entry("normalized: near limit", normalized, 0.2, 1.2),
		Entry("unnormalized: splayed", solver, 2*math.Pi/3, 0.0),
		Entry("unnormalized: splayed and tilted up", solver, 0.8*math.Pi, 0.3),
		Entry("unnormalized: splayed and tilted down", solver, 0.7*math.Pi, -0.45),
		Entry("unnormalized: near limit", solver, 1.3, 1.2),
	)

	It("tilts by the servo angle out of the hinge plane", func() {
		dir := geom.Rotate(geom.Y, geom.X, 0.25) // toward +Z
		Expect(mount.SolveHinge(dir, geom.Z).Servo).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("normalizes its inputs", func() {
		a := solver.Solve(mgl64.Vec3{3, 4, 0}, mgl64.Vec3{0, 0, 9})
		b := solver.Solve(mgl64.Vec3{0.6, 0.8, 0}, geom.Z)
		Expect(a.Hinge).To(BeNumerically("~", b.Hinge, 1e-12))
		Expect(a.Servo).To(BeNumerically("~", b.Servo, 1e-12))
	})

	It("stays finite for an arm along its own axis", func() {
		j := solver.Solve(geom.Z, geom.Z)
		Expect(math.IsNaN(j.Hinge)).To(BeFalse())
		Expect(j.Servo).To(BeNumerically("~", math.Pi/2, 1e-12))
		Expect(j.Hinge).To(BeNumerically("~", math.Pi/2, 1e-12))
	})

	It("stays finite for a zero vector", func() {
		j := solver.Solve(mgl64.Vec3{}, geom.Z)
		Expect(math.IsNaN(j.Hinge) || math.IsNaN(j.Servo)).To(BeFalse())
	})

	Context("without normalizing the plane normal", func() {
		It("agrees with the normalized solver when the servo is centred", func() {
			dir := normalized.Forward(mount.Joint{Hinge: 0.75 * math.Pi}, geom.Z)
			Expect(solver.Solve(dir, geom.Z).Hinge).To(BeNumerically("~", 0.75*math.Pi, 1e-9))
		})

		It("couples the hinge to the servo tilt", func() {
			dir := normalized.Forward(mount.Joint{Hinge: 0.75 * math.Pi, Servo: 0.4}, geom.Z)
			got := solver.Solve(dir, geom.Z)
			want := math.Pi - math.Acos(math.Cos(0.4)*math.Cos(0.25*math.Pi))
			Expect(got.Hinge).To(BeNumerically("~", want, 1e-9))
			Expect(got.Servo).To(BeNumerically("~", 0.4, 1e-9))
		})
	})

	It("points decoupled arms back along their directions", func() {
		g := mount.DefaultGeometry()
		for _, norm := range []bool{false, true} {
			g.NormalizeHingeNormal = norm
			expectArmsRoundTrip(mount.MustNew(g))
		}
	})
})

func expectArmsRoundTrip(dec *mount.Decoupler) {
	solver := dec.Solver()
	inputs := []mount.Input{
		{Throttle: 0.5},
		{Yaw: 0.6, Throttle: 0.4},
		{Pitch: -0.8, Throttle: 0.7},
		{Pitch: 0.3, Yaw: -0.3, Throttle: 0.9},
		{Roll: 0.7, Throttle: 0.6},
	}
	for _, in := range inputs {
		sol := dec.Decouple(in)
		l := solver.Forward(sol.LeftJoint, geom.Z)
		r := solver.Forward(sol.RightJoint, geom.Z.Mul(-1))
		Expect(geom.AngleBetween(l, sol.Left)).To(BeNumerically("<", 1e-6), "%+v", in)
		Expect(geom.AngleBetween(r, sol.Right)).To(BeNumerically("<", 1e-6), "%+v", in)
	}
}
