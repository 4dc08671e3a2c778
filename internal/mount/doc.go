// Package mount converts pilot stick input into joint angles for a two-arm
// thrust-vectoring mount.
//
// Each arm is carried by a hinge and a rotation servo. The solver works in
// three stages:
//
//   - [Decoupler.Compose]: clamps the input and builds the commanded thrust
//     vector, forward along +Y, tilted by yaw toward -X and by pitch toward +Z.
//   - [Decoupler.Decompose]: splits the thrust vector into two arm directions
//     that sum to twice the thrust and are rotated about it by the roll
//     command.
//   - [HingeSolver.Solve]: projects each arm direction onto its hinge axis to
//     obtain the (hinge, servo) pair.
//
// # Example
//
//	dec, err := mount.New(mount.DefaultGeometry())
//	if err != nil {
//		return err
//	}
//	sol := dec.Decouple(mount.Input{Pitch: 0.2, Throttle: 0.7})
//	fmt.Println(sol.Angles.HingeLeft, sol.Angles.ServoLeft)
//
// # Thread Safety
//
// A configured [Decoupler] holds no per-call state. Decouple may be called
// from several goroutines once all observers have been registered.
package mount
