package sand

import "errors"

// ErrInvalidConfig is returned by New when the configuration cannot drive an engine.
var ErrInvalidConfig = errors.New("sand: invalid config")
