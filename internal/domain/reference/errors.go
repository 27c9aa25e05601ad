package reference

import "errors"

// Sentinel kinds for reference-table errors. Both are fatal for the unit
// being processed and never for the batch.
var (
	ErrMalformedTable = errors.New("malformed reference table")
	ErrMissingColumn  = errors.New("reference column not found")
)
