// Package control provides stick input sources for the mount harness.
//
// Sources implement Compute(t) and return one tick of [mount.Input]:
//
//   - [Neutral]: fixed throttle, centred stick
//   - [Manual]: keyboard stick driven by WASDQE and throttle keys
//   - [Profile]: per-axis waveforms for sweeps and scripted runs
//
// # Usage
//
//	src := control.NewManual()
//	src.Press("s") // pitch up
//	in := src.Compute(t)
package control
