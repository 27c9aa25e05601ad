package eventlog

import "errors"

// Sentinel kinds for log parsing errors. Both are fatal for the log they
// occur in and never for the batch.
var (
	ErrMissingAnchor = errors.New("log has no MRI_start anchor")
	ErrUnreadableLog = errors.New("unreadable log")
)
