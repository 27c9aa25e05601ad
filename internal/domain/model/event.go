// Package model contains domain models passed between layers.
package model

// TicksPerSecond is the resolution of the task software's device clock.
// All raw event times are integer ticks at 1/10000 s.
const TicksPerSecond = 10000.0

// NeutralRating is the scale midpoint a participant starts at and the value
// substituted when no rating information is available.
const NeutralRating = 5

// AnchorCode marks the Picture event recorded at scanner acquisition start.
const AnchorCode = "MRI_start"

// StimulusEvent is one Picture or Video line from the task log.
// Field names mirror the 13 tab-delimited log columns.
type StimulusEvent struct {
	Subject      string
	Trial        int
	Code         string
	Time         int64 // device ticks
	TTime        int64 // time to target, device ticks
	Uncertainty1 int64
	Duration     int64
	Uncertainty2 int64
	ReqTime      int64
	ReqDuration  int64
	StimType     string
	PairIndex    int
}

// ResponseEvent is one Response line from the task log (7 columns).
type ResponseEvent struct {
	Subject      string
	Trial        int
	Code         string
	Time         int64 // device ticks
	TTime        int64
	Uncertainty1 int64
}

// Block is one contiguous stimulus-presentation segment, demarcated by a
// Video event.
type Block struct {
	// Index is the trial index the block starts at.
	Index int

	// Name identifies the stimulus, e.g. "vid_4" or "cvid_2". The leading
	// character encodes the trial type.
	Name string

	// StartTime is seconds relative to the acquisition anchor.
	StartTime float64
}

// BlockResult carries the per-block values consumed by the downstream
// regression step.
type BlockResult struct {
	Name        string
	Onset       float64 // seconds relative to the anchor
	Duration    float64 // reference stimulus duration, seconds
	Correlation float64 // participant vs reference, in [-1, 1]; 0 when undefined
	ButtonRate  float64 // presses / duration(s) / 60

	Diagnostics BlockDiagnostics
}

// BlockDiagnostics records which fallback paths a block's reconstruction
// took. Fallbacks are silent substitutions, never errors, but they must be
// auditable.
type BlockDiagnostics struct {
	// NeutralFallback is set when the block had no responses at all and the
	// trace was substituted with a single neutral sample.
	NeutralFallback bool

	// Unengaged is set when the block had responses but zero button presses,
	// and the trace was overridden with a constant neutral series.
	Unengaged bool

	// LookupMisses counts rating lookups that carried the last known
	// picture value forward.
	LookupMisses int

	// ButtonPresses is the number of qualifying press events in the block.
	ButtonPresses int

	// UndefinedCorrelation is set when the correlation was coerced to 0.
	UndefinedCorrelation bool
}
