package reference

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"empath/internal/domain/model"
	"empath/pkg/metrics"
)

// Alignment is the outcome of comparing a participant trace against the
// reference series for one block.
type Alignment struct {
	// Participant and Reference are the equal-length series the
	// correlation was computed over, for plotting.
	Participant []float64
	Reference   []float64

	// Correlation is the Pearson coefficient, or 0 when undefined.
	Correlation float64

	// Unengaged is set when zero button presses forced the constant
	// neutral override.
	Unengaged bool

	// Undefined is set when the correlation was coerced to 0.
	Undefined bool
}

// Align compares a reconstructed participant trace against the reference
// series. With zero button presses the participant trace is replaced by a
// constant neutral series the length of the reference: a flat response is
// modeled as uniform neutral rating, not correlated noise. Otherwise the
// shorter series is stretched to the longer one's length before
// correlating.
func Align(participant, ref []float64, buttonPresses int) Alignment {
	a := Alignment{Participant: participant, Reference: ref}

	if buttonPresses == 0 {
		a.Unengaged = true
		a.Participant = constant(model.NeutralRating, len(ref))
	} else if len(a.Participant) < len(ref) {
		a.Participant = MatchLength(a.Participant, len(ref))
	} else if len(a.Participant) > len(ref) {
		a.Reference = MatchLength(a.Reference, len(a.Participant))
	}

	r := stat.Correlation(a.Participant, a.Reference, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		// A constant series has zero variance; the coefficient is
		// undefined and defined to be 0 here.
		metrics.RecordUndefinedCorrelation()
		a.Undefined = true
		r = 0
	}
	a.Correlation = r

	return a
}

// MatchLength resamples series to n samples by linear interpolation over
// its own index domain. This is a stretch/compress resampling, not a
// resampling against wall-clock time.
func MatchLength(series []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(series) == n {
		out := make([]float64, n)
		copy(out, series)
		return out
	}
	if len(series) < 2 {
		v := 0.0
		if len(series) == 1 {
			v = series[0]
		}
		return constant(v, n)
	}

	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, series); err != nil {
		// xs is strictly increasing and len >= 2, so Fit cannot fail.
		panic(err)
	}

	out := make([]float64, n)
	last := float64(len(series) - 1)
	if n == 1 {
		out[0] = series[0]
		return out
	}
	step := last / float64(n-1)
	for i := range out {
		out[i] = pl.Predict(float64(i) * step)
	}
	return out
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
