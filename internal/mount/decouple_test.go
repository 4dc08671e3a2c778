package mount_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twinvector/internal/geom"
	"github.com/san-kum/twinvector/internal/mount"
)

const tol = 1e-9

func beVec(expected mgl64.Vec3) OmegaMatcher {
	return WithTransform(func(v mgl64.Vec3) float64 { return v.Sub(expected).Len() }, BeNumerically("<", 1e-9))
}

var _ = Describe("Decoupler", func() {
	var (
		dec     *mount.Decoupler
		tanTilt = math.Tan(geom.Rad(20))
	)

	BeforeEach(func() {
		dec = mount.MustNew(mount.DefaultGeometry())
	})

	Describe("Compose", func() {
		DescribeTable("clamps throttle to the nearest bound",
			func(throttle, expected float64) {
				_, in, _ := dec.Compose(mount.Input{Throttle: throttle})
				Expect(in.Throttle).To(Equal(expected))
			},
			Entry("below zero", -0.5, 0.0),
			Entry("far below zero", -100.0, 0.0),
			Entry("above one", 1.3, 1.0),
			Entry("inside", 0.42, 0.42),
		)

		It("is idempotent on already clamped input", func() {
			raw := mount.Input{Pitch: 5, Yaw: -3, Roll: 2, Throttle: 1.7}
			t1, in1, l1 := dec.Compose(raw)
			t2, in2, l2 := dec.Compose(in1)
			Expect(in2).To(Equal(in1))
			Expect(l2).To(Equal(l1))
			Expect(t2).To(beVec(t1))
		})

		It("scales the thrust vector to the throttle", func() {
			thrust, _, _ := dec.Compose(mount.Input{Pitch: 0.4, Yaw: -0.7, Throttle: 0.6})
			Expect(thrust.Len()).To(BeNumerically("~", 0.6, tol))
		})

		It("tilts toward -X for positive yaw and +Z for positive pitch", func() {
			thrust, _, _ := dec.Compose(mount.Input{Yaw: 1, Throttle: 0.5})
			Expect(thrust.X()).To(BeNumerically("<", 0))
			Expect(thrust.Z()).To(BeNumerically("~", 0, tol))

			thrust, _, _ = dec.Compose(mount.Input{Pitch: 1, Throttle: 0.5})
			Expect(thrust.Z()).To(BeNumerically(">", 0))
			Expect(thrust.X()).To(BeNumerically("~", 0, tol))
		})

		It("reaches the full tilt angle at full deflection", func() {
			thrust, _, _ := dec.Compose(mount.Input{Pitch: 1, Throttle: 0.3})
			Expect(geom.AngleBetween(thrust, geom.Y)).To(BeNumerically("~", geom.Rad(20), tol))
		})

		It("reads NaN axes as centred and a NaN throttle as zero", func() {
			nan := math.NaN()
			_, in, _ := dec.Compose(mount.Input{Pitch: nan, Yaw: nan, Roll: nan, Throttle: nan})
			Expect(in).To(Equal(mount.Input{}))

			sol := dec.Decouple(mount.Input{Pitch: 0.2, Yaw: nan, Throttle: 0.5})
			Expect(sol.Angles.IsValid()).To(BeTrue())
			Expect(sol.Angles).To(Equal(dec.Decouple(mount.Input{Pitch: 0.2, Throttle: 0.5}).Angles))
		})

		It("cuts pitch and yaw back to the bias limit", func() {
			_, in, limit := dec.Compose(mount.Input{Pitch: 1, Yaw: -1, Throttle: 0.99})
			Expect(limit).To(BeNumerically("<", 1))
			Expect(in.Pitch).To(Equal(limit))
			Expect(in.Yaw).To(Equal(-limit))
		})
	})

	Describe("BiasLimit", func() {
		It("is non-increasing in throttle and reaches zero at full throttle", func() {
			prev := math.Inf(1)
			for i := 0; i <= 1000; i++ {
				l := mount.BiasLimit(float64(i)/1000, tanTilt)
				Expect(l).To(BeNumerically("<=", prev))
				prev = l
			}
			Expect(mount.BiasLimit(1, tanTilt)).To(Equal(0.0))
		})

		It("allows the full stick range at zero throttle", func() {
			Expect(mount.BiasLimit(0, tanTilt)).To(BeNumerically(">", 1))
		})
	})

	Describe("Decompose", func() {
		It("keeps the arm pair antisymmetric about the thrust for every roll", func() {
			for _, roll := range []float64{-1, -0.6, -0.1, 0, 0.3, 0.8, 1} {
				sol := dec.Decouple(mount.Input{Pitch: 0.3, Yaw: -0.2, Roll: roll, Throttle: 0.55})
				dl := sol.Left.Sub(sol.Thrust)
				dr := sol.Right.Sub(sol.Thrust)
				Expect(dl.Add(dr).Len()).To(BeNumerically("<", tol), "roll %.1f", roll)
			}
		})

		It("preserves the thrust magnitude in the arm sum", func() {
			for _, th := range []float64{0.05, 0.3, 0.7, 0.95, 1} {
				sol := dec.Decouple(mount.Input{Pitch: -0.2, Yaw: 0.4, Roll: 0.5, Throttle: th})
				Expect(sol.Left.Add(sol.Right).Len() / 2).To(BeNumerically("~", sol.Thrust.Len(), 1e-6))
			}
		})

		It("splits level unit arms so their mean matches the throttle", func() {
			sol := dec.Decouple(mount.Input{Yaw: 0.5, Throttle: 0.6})
			Expect(sol.Left.Len()).To(BeNumerically("~", 1, tol))
			Expect(sol.Right.Len()).To(BeNumerically("~", 1, tol))
		})

		It("co-rotates the pair rigidly around the thrust", func() {
			base := dec.Decouple(mount.Input{Throttle: 0.5})
			rolled := dec.Decouple(mount.Input{Roll: 1, Throttle: 0.5})
			Expect(rolled.Thrust).To(beVec(base.Thrust))
			angle := geom.AngleBetween(base.Left.Sub(base.Thrust), rolled.Left.Sub(rolled.Thrust))
			Expect(angle).To(BeNumerically("~", geom.Rad(20), tol))
		})

		It("mirrors the arms across the thrust plane with no roll", func() {
			sol := dec.Decouple(mount.Input{Throttle: 0.5})
			Expect(sol.Left.X()).To(BeNumerically("~", -sol.Right.X(), tol))
			Expect(sol.Left.Y()).To(BeNumerically("~", sol.Right.Y(), tol))
		})

		It("collapses both arms onto the thrust at full throttle", func() {
			sol := dec.Decouple(mount.Input{Throttle: 1})
			Expect(sol.Left).To(beVec(geom.Y))
			Expect(sol.Right).To(beVec(geom.Y))
		})
	})

	Describe("zero input", func() {
		It("takes the degenerate branch without NaN", func() {
			sol := dec.Decouple(mount.Input{})
			Expect(sol.Degenerate).To(BeTrue())
			Expect(sol.Angles.IsValid()).To(BeTrue())
			Expect(sol.Left).To(beVec(geom.X))
			Expect(sol.Right).To(beVec(geom.X.Mul(-1)))
		})

		It("lays both arms flat at 90 degrees", func() {
			a := dec.Decouple(mount.Input{}).Angles
			Expect(a.HingeLeft).To(BeNumerically("~", 90, tol))
			Expect(a.HingeRight).To(BeNumerically("~", 90, tol))
			Expect(a.ServoLeft).To(BeNumerically("~", 0, tol))
			Expect(a.ServoRight).To(BeNumerically("~", 0, tol))
		})

		It("still turns the pair with roll alone", func() {
			sol := dec.Decouple(mount.Input{Roll: 1})
			Expect(sol.Degenerate).To(BeTrue())
			Expect(sol.Left).To(beVec(geom.Rotate(geom.X, geom.Y, geom.Rad(20))))
			Expect(sol.Angles.ServoLeft).NotTo(BeNumerically("~", 0, 1e-6))
		})

		It("continues the split of the smallest nominal throttle", func() {
			flipped := mount.DefaultGeometry()
			flipped.CrossAxis = mgl64.Vec3{0, 0, -2}
			scaled := mount.DefaultGeometry()
			scaled.Up = mgl64.Vec3{0, 3, 0}
			for _, g := range []mount.Geometry{mount.DefaultGeometry(), flipped, scaled} {
				d := mount.MustNew(g)
				for _, roll := range []float64{-1, 0, 0.5} {
					zero := d.Decouple(mount.Input{Roll: roll})
					small := d.Decouple(mount.Input{Roll: roll, Throttle: 1e-4})
					Expect(zero.Degenerate).To(BeTrue())
					Expect(small.Degenerate).To(BeFalse())
					Expect(geom.AngleBetween(zero.Left, small.Left)).To(BeNumerically("<", 1e-3), "%+v roll %.1f", g.CrossAxis, roll)
					Expect(geom.AngleBetween(zero.Right, small.Right)).To(BeNumerically("<", 1e-3), "%+v roll %.1f", g.CrossAxis, roll)
				}
			}
		})

		It("switches branch at the degenerate threshold", func() {
			Expect(dec.Decouple(mount.Input{Throttle: 0.9e-5}).Degenerate).To(BeTrue())
			Expect(dec.Decouple(mount.Input{Throttle: 1e-5}).Degenerate).To(BeFalse())
		})
	})

	Describe("full throttle", func() {
		It("removes every pitch and yaw bias", func() {
			sol := dec.Decouple(mount.Input{Pitch: 0.8, Yaw: -1, Throttle: 1})
			Expect(sol.BiasLimit).To(Equal(0.0))
			Expect(sol.Input.Pitch).To(Equal(0.0))
			Expect(sol.Input.Yaw).To(Equal(0.0))
			Expect(sol.Clamped).To(BeTrue())
			Expect(sol.Thrust).To(beVec(geom.Y))
		})

		It("points both hinges straight up", func() {
			a := dec.Decouple(mount.Input{Throttle: 1}).Angles
			Expect(a.HingeLeft).To(BeNumerically("~", 180, 1e-6))
			Expect(a.HingeRight).To(BeNumerically("~", 180, 1e-6))
			Expect(a.ServoLeft).To(BeNumerically("~", 0, 1e-6))
		})
	})

	It("never lets an arm cross the vertical within the bias limit", func() {
		for p := -1.0; p <= 1.0; p += 0.25 {
			for y := -1.0; y <= 1.0; y += 0.25 {
				for th := 0.0; th <= 1.0; th += 0.05 {
					sol := dec.Decouple(mount.Input{Pitch: p, Yaw: y, Throttle: th})
					Expect(sol.Angles.IsValid()).To(BeTrue())
					Expect(sol.Left.X()).To(BeNumerically(">=", -1e-12))
					Expect(sol.Right.X()).To(BeNumerically("<=", 1e-12))
				}
			}
		}
	})

	It("takes the hinge angle from the unnormalized plane normal by default", func() {
		closedForm := func(arm, axis mgl64.Vec3) (hinge, servo float64) {
			v := geom.Unit(arm)
			servo = math.Pi/2 - math.Acos(v.Dot(axis))
			c := v.Cross(axis).Dot(geom.Y.Cross(axis))
			return geom.Deg(math.Pi - math.Acos(math.Max(-1, math.Min(1, c)))), geom.Deg(servo)
		}
		for p := -1.0; p <= 1.0; p += 0.5 {
			for r := -1.0; r <= 1.0; r += 0.5 {
				for th := 0.05; th <= 1.0; th += 0.15 {
					in := mount.Input{Pitch: p, Yaw: 0.3, Roll: r, Throttle: th}
					sol := dec.Decouple(in)
					hl, sl := closedForm(sol.Left, geom.Z)
					hr, sr := closedForm(sol.Right, geom.Z.Mul(-1))
					Expect(sol.Angles.HingeLeft).To(BeNumerically("~", hl, 1e-7), "%+v", in)
					Expect(sol.Angles.ServoLeft).To(BeNumerically("~", sl, 1e-7), "%+v", in)
					Expect(sol.Angles.HingeRight).To(BeNumerically("~", hr, 1e-7), "%+v", in)
					Expect(sol.Angles.ServoRight).To(BeNumerically("~", sr, 1e-7), "%+v", in)
				}
			}
		}
	})

	It("differs from the normalized convention once the servo tilts", func() {
		g := mount.DefaultGeometry()
		g.NormalizeHingeNormal = true
		in := mount.Input{Pitch: -1, Roll: 1, Throttle: 0.95}
		raw := dec.Decouple(in)
		norm := mount.MustNew(g).Decouple(in)
		Expect(raw.Angles.ServoLeft).To(BeNumerically("~", norm.Angles.ServoLeft, 1e-9))
		Expect(math.Abs(raw.Angles.HingeLeft - norm.Angles.HingeLeft)).To(BeNumerically(">", 1))
	})

	It("reports debug lines scaled by the debug factor", func() {
		var got mount.DebugLines
		dec.AddObserver(mount.ObserverFunc(func(l mount.DebugLines) { got = l }))
		sol := dec.Decouple(mount.Input{Pitch: 0.1, Throttle: 0.4})
		Expect(got.Left).To(beVec(sol.Left.Mul(10)))
		Expect(got.Right).To(beVec(sol.Right.Mul(10)))
		Expect(got.Thrust).To(beVec(sol.Thrust.Mul(10)))
	})
})

var _ = Describe("Geometry", func() {
	It("rejects a zero hinge axis at construction", func() {
		g := mount.DefaultGeometry()
		g.RightAxis = mgl64.Vec3{}
		_, err := mount.New(g)
		Expect(err).To(MatchError(mount.ErrZeroAxis))
		var gerr *mount.GeometryError
		Expect(err).To(BeAssignableToTypeOf(gerr))
	})

	DescribeTable("rejects limits outside range",
		func(mutate func(*mount.Geometry)) {
			g := mount.DefaultGeometry()
			mutate(&g)
			_, err := mount.New(g)
			Expect(err).To(MatchError(mount.ErrGeometry))
		},
		Entry("zero tilt", func(g *mount.Geometry) { g.MaxTiltDeg = 0 }),
		Entry("right-angle tilt", func(g *mount.Geometry) { g.MaxTiltDeg = 90 }),
		Entry("negative roll", func(g *mount.Geometry) { g.MaxRollDeg = -1 }),
		Entry("degenerate threshold of one", func(g *mount.Geometry) { g.DegenerateThrottle = 1 }),
		Entry("hinge axis leaning on up", func(g *mount.Geometry) { g.LeftAxis = mgl64.Vec3{0, 0.1, 1} }),
		Entry("hinge axis along up", func(g *mount.Geometry) { g.RightAxis = geom.Y }),
		Entry("cross axis along up", func(g *mount.Geometry) { g.CrossAxis = mgl64.Vec3{0, -2, 0} }),
	)

	It("fills in the debug scale", func() {
		g := mount.DefaultGeometry()
		g.DebugScale = 0
		dec, err := mount.New(g)
		Expect(err).NotTo(HaveOccurred())
		Expect(dec.Geometry().DebugScale).To(Equal(mount.DefaultDebugScale))
	})
})
