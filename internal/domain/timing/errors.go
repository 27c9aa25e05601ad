package timing

import "errors"

// Sentinel kinds for timing errors.
var (
	ErrInvalidTrialType = errors.New("invalid trial type")
	ErrBadToken         = errors.New("malformed stimulus-timing token")
)
