// Package plot renders the per-log comparison figure: the participant's
// reconstructed rating trace against the reference trace, one tile per
// block. The figure is a visual-inspection side output; nothing downstream
// consumes it.
package plot

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Tile sizing.
const (
	tileWidth  = 4 * vg.Inch
	tileHeight = 3 * vg.Inch
)

// BlockSeries is one block's pair of equal-length traces.
type BlockSeries struct {
	Name        string
	Correlation float64
	Participant []float64
	Reference   []float64
}

// WriteComparison writes a PNG figure with one tile per block. A log with
// no retained blocks produces no file.
func WriteComparison(path string, blocks []BlockSeries) error {
	if len(blocks) == 0 {
		return nil
	}

	row := make([]*plot.Plot, len(blocks))
	for i, b := range blocks {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s: r = %.2f", b.Name, b.Correlation)
		p.X.Label.Text = "TR"
		p.Y.Min, p.Y.Max = 0, 10
		if i == 0 {
			p.Y.Label.Text = "Rating"
		}

		ref, err := plotter.NewLine(seriesXYs(b.Reference))
		if err != nil {
			return fmt.Errorf("plot %s: %w", b.Name, err)
		}
		ref.Color = color.Black
		ref.Width = vg.Points(2)

		subj, err := plotter.NewLine(seriesXYs(b.Participant))
		if err != nil {
			return fmt.Errorf("plot %s: %w", b.Name, err)
		}
		subj.Color = color.RGBA{R: 0xd6, G: 0x2c, B: 0x2c, A: 0xff}
		subj.Width = vg.Points(2)

		p.Add(ref, subj)

		// Legend on the last tile only.
		if i == len(blocks)-1 {
			p.Legend.Add("Actor", ref)
			p.Legend.Add("Participant", subj)
			p.Legend.Top = true
		}

		row[i] = p
	}

	img := vgimg.New(tileWidth*vg.Length(len(blocks)), tileHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(blocks),
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for i := range row {
		row[i].Draw(canvases[0][i])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	return nil
}

func seriesXYs(series []float64) plotter.XYs {
	xys := make(plotter.XYs, len(series))
	for i, v := range series {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}
