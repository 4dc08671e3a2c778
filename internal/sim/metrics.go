package sim

import (
	"math"

	"github.com/san-kum/twinvector/internal/geom"
)

// mean accumulates a running average.
type mean struct {
	sum     float64
	samples int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.samples++
}

func (m *mean) value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *mean) reset() { *m = mean{} }

// PointingError is the mean angle in degrees between the commanded thrust
// and the sum of the achieved arm directions. Steps with no thrust are
// ignored.
type PointingError struct{ m mean }

func NewPointingError() *PointingError { return &PointingError{} }

func (p *PointingError) Name() string { return "pointing_error" }

func (p *PointingError) Observe(s Sample) {
	thrust := s.Solution.Thrust
	if thrust.Len() < 1e-9 {
		return
	}
	sum := s.Left.Add(s.Right)
	if sum.Len() < 1e-9 {
		p.m.add(90)
		return
	}
	p.m.add(geom.Deg(geom.AngleBetween(thrust, sum)))
}

func (p *PointingError) Value() float64 { return p.m.value() }
func (p *PointingError) Reset()         { p.m.reset() }

// ThrottleError is the mean gap between commanded throttle and the net
// thrust of two unit arms, |left+right|/2.
type ThrottleError struct{ m mean }

func NewThrottleError() *ThrottleError { return &ThrottleError{} }

func (e *ThrottleError) Name() string { return "throttle_error" }

func (e *ThrottleError) Observe(s Sample) {
	achieved := s.Left.Add(s.Right).Len() / 2
	e.m.add(math.Abs(s.Solution.Input.Throttle - achieved))
}

func (e *ThrottleError) Value() float64 { return e.m.value() }
func (e *ThrottleError) Reset()         { e.m.reset() }

// JointTravel is the mean total change in commanded angles per tick, in
// degrees. It measures how hard the input drives the actuators.
type JointTravel struct {
	m    mean
	prev [4]float64
	seen bool
}

func NewJointTravel() *JointTravel { return &JointTravel{} }

func (j *JointTravel) Name() string { return "joint_travel" }

func (j *JointTravel) Observe(s Sample) {
	if !s.Ticked {
		return
	}
	cur := s.Solution.Angles.Array()
	if j.seen {
		total := 0.0
		for i := range cur {
			total += math.Abs(cur[i] - j.prev[i])
		}
		j.m.add(total)
	}
	j.prev, j.seen = cur, true
}

func (j *JointTravel) Value() float64 { return j.m.value() }

func (j *JointTravel) Reset() {
	j.m.reset()
	j.prev, j.seen = [4]float64{}, false
}

// BiasSaturation is the fraction of ticks where pitch or yaw was clamped
// to the bias limit.
type BiasSaturation struct {
	clamped, ticks int
}

func NewBiasSaturation() *BiasSaturation { return &BiasSaturation{} }

func (b *BiasSaturation) Name() string { return "bias_saturation" }

func (b *BiasSaturation) Observe(s Sample) {
	if !s.Ticked {
		return
	}
	b.ticks++
	if s.Solution.Clamped {
		b.clamped++
	}
}

func (b *BiasSaturation) Value() float64 {
	if b.ticks == 0 {
		return 0
	}
	return float64(b.clamped) / float64(b.ticks)
}

func (b *BiasSaturation) Reset() { b.clamped, b.ticks = 0, 0 }

// DefaultMetrics returns a fresh set of the standard run metrics.
func DefaultMetrics() []Metric {
	return []Metric{
		NewPointingError(),
		NewThrottleError(),
		NewJointTravel(),
		NewBiasSaturation(),
	}
}
