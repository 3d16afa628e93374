// Package viz renders a running sand simulation in the terminal.
//
// The live view is a Bubble Tea program: particles are drawn on a braille
// [Canvas] (2x4 sub-pixels per character), with a stats panel and a
// particle-count chart beside it. Mouse presses and drags over the canvas
// spawn sand at the corresponding world position.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset the scene
//	B     - Toggle brush (single/plus)
//	T     - Cycle tie-break policy
//	Q     - Quit
package viz
