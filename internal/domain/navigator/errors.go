package navigator

import "errors"

// Sentinel kinds for navigator errors.
var (
	ErrUnknownFilter = errors.New("unknown filter")
)
