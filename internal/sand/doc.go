// Package sand implements a falling-sand cellular automaton.
//
// Particles live on a square lattice of CellSize world units. Each call to
// Engine.Advance moves every sand particle down by FallSpeed*dt, stacks it
// on whatever sits below in its column and lets it slide one cell
// diagonally when the cell under a free neighbour column is empty.
//
// World Y grows upwards. The floor sits half a viewport below the origin,
// snapped to the lattice, so resting particles always sit on cell anchors.
//
// Every decision inside a tick reads the start-of-tick state, and results
// are committed in a fixed order, so a tick is reproducible bit for bit.
// The Engine is not safe for concurrent use.
package sand
