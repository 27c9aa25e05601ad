// Package timing assembles per-block results and renders the
// stimulus-timing and summary-table output formats consumed by the
// downstream regression step.
package timing

import (
	"fmt"
	"strings"

	"empath/internal/domain/model"
	"empath/internal/domain/rating"
	"empath/internal/domain/reference"
	"empath/pkg/metrics"
)

// TrialType selects which block category is retained in the output.
type TrialType string

// Valid trial types: empathic-accuracy videos, or the circles task.
const (
	Vid  TrialType = "vid"
	CVid TrialType = "cvid"
)

// SummaryHeader is the header row of the per-subject summary table.
const SummaryHeader = "correlation,n-pushes-per-minute"

// ParseTrialType validates a selector argument.
func ParseTrialType(s string) (TrialType, error) {
	switch TrialType(s) {
	case Vid, CVid:
		return TrialType(s), nil
	default:
		return "", fmt.Errorf("%w: %q (valid: vid, cvid)", ErrInvalidTrialType, s)
	}
}

// Retains reports whether a block belongs to the selected category. Block
// names encode their category in the leading character, so the selector
// skips blocks whose name begins with the excluded category's marker.
func (t TrialType) Retains(blockName string) bool {
	if blockName == "" {
		return false
	}
	switch t {
	case Vid:
		return blockName[0] != 'c'
	case CVid:
		return blockName[0] != 'v'
	default:
		return false
	}
}

// BlockInput bundles everything known about one block before emission.
type BlockInput struct {
	Block     model.Block
	Trace     rating.Trace
	Alignment reference.Alignment
	Duration  float64
}

// Emit assembles the BlockResults retained under the selector, in block
// order.
func Emit(selector TrialType, inputs []BlockInput) []model.BlockResult {
	var out []model.BlockResult
	for _, in := range inputs {
		if !selector.Retains(in.Block.Name) {
			continue
		}

		out = append(out, model.BlockResult{
			Name:        in.Block.Name,
			Onset:       in.Block.StartTime,
			Duration:    in.Duration,
			Correlation: in.Alignment.Correlation,
			ButtonRate:  float64(in.Trace.ButtonPresses) / in.Duration / 60.0,
			Diagnostics: model.BlockDiagnostics{
				NeutralFallback:      in.Trace.NeutralFallback,
				Unengaged:            in.Alignment.Unengaged,
				LookupMisses:         in.Trace.LookupMisses,
				ButtonPresses:        in.Trace.ButtonPresses,
				UndefinedCorrelation: in.Alignment.Undefined,
			},
		})
		metrics.RecordBlockEmitted()
	}
	return out
}

// FormatToken renders one block as a stimulus-timing event:
// <onset>*<correlation>,<buttonRate>:<duration>, all to two decimals.
func FormatToken(r model.BlockResult) string {
	return fmt.Sprintf("%.2f*%.2f,%.2f:%.2f", r.Onset, r.Correlation, r.ButtonRate, r.Duration)
}

// FormatRun renders one run's stimulus-timing line: events space-separated,
// a trailing newline terminating the run.
func FormatRun(results []model.BlockResult) string {
	tokens := make([]string, 0, len(results))
	for _, r := range results {
		tokens = append(tokens, FormatToken(r))
	}
	return strings.Join(tokens, " ") + "\n"
}

// SummaryRow renders one block's summary-table row.
func SummaryRow(r model.BlockResult) string {
	return fmt.Sprintf("%.2f,%.2f", r.Correlation, r.ButtonRate)
}

// ParseToken decodes a stimulus-timing event back into its four values.
func ParseToken(token string) (onset, correlation, buttonRate, duration float64, err error) {
	n, err := fmt.Sscanf(token, "%f*%f,%f:%f", &onset, &correlation, &buttonRate, &duration)
	if err != nil || n != 4 {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrBadToken, token)
	}
	return onset, correlation, buttonRate, duration, nil
}
