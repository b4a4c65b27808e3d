package raster

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func init() {
	Register(pngDriver{})
}

// pngDriver renders the grid as a heatmap image for quick visual inspection.
// NODATA cells are left unpainted.
type pngDriver struct{}

func (pngDriver) Name() string         { return "PNG" }
func (pngDriver) Extensions() []string { return []string{"png"} }

// gridXYZ adapts a Grid (plus its geo transform) to plotter.GridXYZ.
type gridXYZ struct {
	g         *Grid
	transform [6]float64
}

func (gx gridXYZ) Dims() (c, r int) { return gx.g.Width, gx.g.Height }
func (gx gridXYZ) X(c int) float64  { return gx.transform[0] + gx.transform[1]*(float64(c)+0.5) }
func (gx gridXYZ) Y(r int) float64  { return gx.transform[3] + gx.transform[5]*(float64(r)+0.5) }

func (gx gridXYZ) Z(c, r int) float64 {
	v := gx.g.At(c, r)
	if v == gx.g.NoData {
		return math.NaN() // heatmap skips NaN cells
	}
	return v
}

func (pngDriver) Write(path string, g *Grid, transform [6]float64) error {
	p := plot.New()
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(gridXYZ{g: g, transform: transform}, palette.Heat(16, 1))
	p.Add(hm)

	size := vg.Points(float64(g.Width) * 4)
	if size < 4*vg.Inch {
		size = 4 * vg.Inch
	}
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("png: %w", err)
	}
	return nil
}
