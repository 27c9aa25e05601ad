package plot_test

import (
	"os"
	"path/filepath"
	"testing"

	"empath/internal/adapters/plot"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteComparison(t *testing.T) {
	Convey("Given per-block trace pairs", t, func() {
		blocks := []plot.BlockSeries{
			{
				Name:        "vid_1",
				Correlation: 0.56,
				Participant: []float64{5, 6, 7, 8},
				Reference:   []float64{5, 5.5, 7, 8},
			},
			{
				Name:        "cvid_1",
				Correlation: -0.1,
				Participant: []float64{5, 5, 5},
				Reference:   []float64{2, 6, 4},
			},
		}

		Convey("When writing the comparison figure", func() {
			path := filepath.Join(t.TempDir(), "subj01_run1.png")
			err := plot.WriteComparison(path, blocks)

			Convey("Then a non-empty PNG is produced", func() {
				So(err, ShouldBeNil)
				info, statErr := os.Stat(path)
				So(statErr, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When there are no blocks", func() {
			path := filepath.Join(t.TempDir(), "empty.png")
			err := plot.WriteComparison(path, nil)

			Convey("Then no file is written", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(path)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}
