// Package blocks derives stimulus-block boundaries from the Video stream.
package blocks

import (
	"empath/internal/domain/model"
)

// Segment produces one Block per Video event, preserving log order. No
// filtering happens here; trial-type selection is applied downstream.
func Segment(videos []model.StimulusEvent, anchorTime int64) []model.Block {
	out := make([]model.Block, 0, len(videos))
	for _, v := range videos {
		out = append(out, model.Block{
			Index:     v.Trial,
			Name:      v.Code,
			StartTime: float64(v.Time-anchorTime) / model.TicksPerSecond,
		})
	}
	return out
}
