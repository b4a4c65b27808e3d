// Package raster holds the output grid model and the file drivers that
// serialize it. A driver is chosen by matching the output path's extension
// against the registry.
package raster

import (
	"github.com/banshee-data/lasrast/internal/geom"
)

// DefaultNoData is the sentinel written to cells with no valid sample.
const DefaultNoData = -9999.0

// Grid is a single-band raster in row-major order, row 0 at the extent's
// minimum Y edge.
type Grid struct {
	Width, Height int
	Data          []float64
	NoData        float64
}

// New allocates a grid with every cell set to the NODATA sentinel.
func New(width, height int, nodata float64) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
		NoData: nodata,
	}
	for i := range g.Data {
		g.Data[i] = nodata
	}
	return g
}

// Idx maps cell coordinates to the flat data index.
func (g *Grid) Idx(x, y int) int { return y*g.Width + x }

// At returns the value at cell (x, y).
func (g *Grid) At(x, y int) float64 { return g.Data[g.Idx(x, y)] }

// Set stores v at cell (x, y).
func (g *Grid) Set(x, y int, v float64) { g.Data[g.Idx(x, y)] = v }

// GeoTransform returns the affine transform tuple for a grid anchored at the
// extent's minimum corner: (origin x, pixel width, 0, origin y, 0, pixel
// height). Pixel height is positive; rows ascend northward from the origin.
func GeoTransform(b geom.Bounds, res float64) [6]float64 {
	return [6]float64{b.Min.X, res, 0, b.Min.Y, 0, res}
}
