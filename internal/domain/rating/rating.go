// Package rating reconstructs a continuous per-block rating trace from
// sparse, irregularly-timed response events.
//
// The participant adjusts a 0-10 rating with button presses while a
// stimulus plays; the log records a Response event per press and the new
// value on a Picture event of the following trial. The trace is rebuilt at
// repetition-interval granularity with hold-and-forward semantics: each
// elapsed interval records what the rating was, not the newly observed
// value.
package rating

import (
	"math"
	"strings"

	"empath/internal/domain/model"
	"empath/pkg/metrics"
)

// RepetitionInterval is the sampling cadence in seconds (the scanner TR).
const RepetitionInterval = 2.0

// Button-press codes; the MRI trigger itself is code 104 and is excluded.
const (
	pressDownCode = "102"
	pressUpCode   = "103"
)

// FinalBlock marks a block with no successor; its trial range extends
// through the last response event.
const FinalBlock = -1

// Trace is a reconstructed rating series plus its audit trail.
type Trace struct {
	// Samples holds one rating per repetition interval.
	Samples []float64

	// ButtonPresses counts qualifying press events in the block's range.
	ButtonPresses int

	// NeutralFallback is set when the block had no responses and the
	// entire trace was substituted with a single neutral sample.
	NeutralFallback bool

	// LookupMisses counts positions whose rating carried forward the last
	// known picture value.
	LookupMisses int
}

// Reconstruct rebuilds the rating trace for the block whose trial range is
// [start, next). Pass FinalBlock as next for the last block of the run; its
// range then extends through the last response's trial index.
// blockStartTime is the block onset in seconds relative to the anchor.
func Reconstruct(responses []model.ResponseEvent, pictures []model.StimulusEvent, start, next int, blockStartTime float64) Trace {
	var t Trace

	selected := selectRange(responses, start, next)
	if len(selected) == 0 {
		// No responses at all: the whole block is treated as held at
		// neutral.
		metrics.RecordNeutralFallback()
		return Trace{
			Samples:         []float64{model.NeutralRating},
			NeutralFallback: true,
		}
	}

	presses := filterPresses(selected)
	t.ButtonPresses = len(presses)

	// Ordered comparison set: first response, every button press, last
	// response. Duplicates are permitted.
	set := make([]model.ResponseEvent, 0, len(presses)+2)
	set = append(set, selected[0])
	set = append(set, presses...)
	set = append(set, selected[len(selected)-1])

	// The rating for a response is recorded on the Picture event of the
	// following trial. Resolve each position's picture up front; deltas
	// between consecutive pictures drive the hold counts.
	resolved := make([]*model.StimulusEvent, len(set))
	for i, r := range set {
		resolved[i] = pictureAt(pictures, r.Trial+1)
	}
	known := knownPictures(pictures, set)

	previous := float64(model.NeutralRating)
	for i := range set {
		value := resolveValue(i, resolved[i], known, previous, &t)

		delta := resolveDelta(i, set, resolved, blockStartTime)

		// Hold the previous rating for the elapsed interval. The first
		// position starts from the fixed neutral default.
		repeats := int(math.Round(delta / RepetitionInterval))
		for n := 0; n < repeats; n++ {
			t.Samples = append(t.Samples, previous)
		}
		previous = value
	}

	return t
}

// selectRange returns the responses whose trial index falls in the block's
// range.
func selectRange(responses []model.ResponseEvent, start, next int) []model.ResponseEvent {
	var out []model.ResponseEvent
	for _, r := range responses {
		if r.Trial < start {
			continue
		}
		if next != FinalBlock && r.Trial >= next {
			continue
		}
		out = append(out, r)
	}
	return out
}

// filterPresses keeps the responses whose code carries a button-press digit
// sequence.
func filterPresses(responses []model.ResponseEvent) []model.ResponseEvent {
	var out []model.ResponseEvent
	for _, r := range responses {
		if isPress(r) {
			out = append(out, r)
		}
	}
	return out
}

func isPress(r model.ResponseEvent) bool {
	return strings.Contains(r.Code, pressDownCode) || strings.Contains(r.Code, pressUpCode)
}

// pictureAt returns the first Picture event with the given trial index, or
// nil when none exists.
func pictureAt(pictures []model.StimulusEvent, trial int) *model.StimulusEvent {
	for i := range pictures {
		if pictures[i].Trial == trial {
			return &pictures[i]
		}
	}
	return nil
}

// knownPictures returns, in log order, the pictures belonging to any trial
// following a response in the comparison set. The last of these is the
// carry-forward source when a position's own lookup misses.
func knownPictures(pictures []model.StimulusEvent, set []model.ResponseEvent) []model.StimulusEvent {
	wanted := make(map[int]struct{}, len(set))
	for _, r := range set {
		wanted[r.Trial+1] = struct{}{}
	}
	var out []model.StimulusEvent
	for _, p := range pictures {
		if _, ok := wanted[p.Trial]; ok {
			out = append(out, p)
		}
	}
	return out
}

// resolveValue determines the rating observed at position i of the
// comparison set. The first position is fixed to the neutral default; a
// failed lookup falls back to the last known picture value, and failing
// that carries the previous rating forward.
func resolveValue(i int, pic *model.StimulusEvent, known []model.StimulusEvent, previous float64, t *Trace) float64 {
	if i == 0 {
		return model.NeutralRating
	}

	if pic != nil {
		if v, ok := parseRating(pic.Code); ok {
			return float64(v)
		}
	}

	t.LookupMisses++
	metrics.RecordPictureLookupMiss()

	if len(known) > 0 {
		if v, ok := parseRating(known[len(known)-1].Code); ok {
			return float64(v)
		}
	}
	return previous
}

// resolveDelta computes the elapsed seconds attributed to position i, used
// to derive the hold count. Picture times are preferred; response times
// substitute when either picture is unresolved.
//
// The first interval measures the device-clock picture time against the
// anchor-relative block start. That asymmetry reproduces the established
// reconstruction exactly and is kept for output compatibility; its intent
// is unverified.
func resolveDelta(i int, set []model.ResponseEvent, resolved []*model.StimulusEvent, blockStartTime float64) float64 {
	if i == 0 {
		if resolved[0] != nil {
			return float64(resolved[0].Time)/model.TicksPerSecond - blockStartTime
		}
		return float64(set[0].Time)/model.TicksPerSecond - blockStartTime
	}

	if resolved[i] != nil && resolved[i-1] != nil {
		return float64(resolved[i].Time-resolved[i-1].Time) / model.TicksPerSecond
	}
	return float64(set[i].Time-set[i-1].Time) / model.TicksPerSecond
}

// parseRating extracts the trailing digit run of a picture code, e.g.
// "rating_7" -> 7. Codes like "rating_10" decode to 10.
func parseRating(code string) (int, bool) {
	end := len(code)
	start := end
	for start > 0 && code[start-1] >= '0' && code[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	v := 0
	for _, c := range code[start:end] {
		v = v*10 + int(c-'0')
	}
	return v, true
}
