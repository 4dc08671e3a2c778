// Package viz draws the mount in the terminal.
//
// [Model] is a Bubble Tea program that flies a simulated mount from the
// keyboard: stick input goes through the harness into the plant, and the
// commanded thrust and both arms are projected onto a braille [Canvas].
//
// # Key Bindings
//
//	W/S      - pitch
//	A/D      - yaw
//	Q/E      - roll
//	+/-      - throttle (Z full, X cut, C centre stick)
//	Arrows   - orbit camera
//	< >      - zoom
//	Space    - pause
//	R        - reset
//	T        - cycle themes
//	?        - help
//	Esc      - quit
package viz
