package sim

import "errors"

// ErrNotSetup is returned when a run is started without an engine.
var ErrNotSetup = errors.New("sim: runner has no engine")
