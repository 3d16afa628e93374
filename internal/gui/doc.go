// Package gui hosts a sand experiment in a raylib window. Holding the left
// mouse button spawns sand under the cursor; the engine viewport tracks the
// window size.
package gui
