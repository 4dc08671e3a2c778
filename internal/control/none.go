package control

import "github.com/san-kum/twinvector/internal/mount"

// Neutral holds the stick centred at a fixed throttle.
type Neutral struct {
	Throttle float64
}

func NewNeutral(throttle float64) *Neutral {
	return &Neutral{Throttle: throttle}
}

func (n *Neutral) Compute(t float64) mount.Input {
	return mount.Input{Throttle: n.Throttle}
}
