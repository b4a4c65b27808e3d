// Package binning implements the simple rasterization strategy: every point
// is dropped into the grid cell covering its planar position, and each cell's
// value list is collapsed with an aggregation function.
package binning

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lasrast/internal/geom"
	"github.com/banshee-data/lasrast/internal/las"
	"github.com/banshee-data/lasrast/internal/progress"
	"github.com/banshee-data/lasrast/internal/raster"
)

// Function is the per-cell aggregation.
type Function int

const (
	Mean Function = iota
	Median
	Min
	Max
	Count
)

// ParseFunction maps a CLI flag value to a Function.
func ParseFunction(s string) (Function, error) {
	switch s {
	case "mean":
		return Mean, nil
	case "median":
		return Median, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "count":
		return Count, nil
	default:
		return 0, fmt.Errorf("unknown function %q (want mean, median, min, max or count)", s)
	}
}

func (f Function) String() string {
	switch f {
	case Mean:
		return "mean"
	case Median:
		return "median"
	case Min:
		return "min"
	case Max:
		return "max"
	case Count:
		return "count"
	default:
		return fmt.Sprintf("Function(%d)", int(f))
	}
}

// Collapse reduces one cell's values to a single scalar. An empty cell
// collapses to nodata. Median of an even-length list is the midpoint of the
// two middle values. The input slice may be reordered.
func Collapse(values []float64, f Function, nodata float64) float64 {
	n := len(values)
	if n == 0 {
		return nodata
	}

	switch f {
	case Mean:
		return stat.Mean(values, nil)
	case Median:
		if n == 1 {
			return values[0]
		}
		sort.Float64s(values)
		if n%2 == 0 {
			return (values[n/2-1] + values[n/2]) / 2
		}
		return values[n/2]
	case Min:
		m := math.MaxFloat64
		for _, v := range values {
			m = math.Min(m, v)
		}
		return m
	case Max:
		m := -math.MaxFloat64
		for _, v := range values {
			m = math.Max(m, v)
		}
		return m
	case Count:
		return float64(n)
	default:
		return nodata
	}
}

// PointSource is the fallible point sequence consumed by Bin. *las.Reader
// satisfies it; the first non-EOF error aborts the run.
type PointSource interface {
	Next() (las.Point, error)
}

// Bin streams every point from src into per-cell bins over the given extent
// and collapses each bin with f. Points outside the extent's planar window
// are dropped; a class filter, when non-nil, keeps only matching points.
//
// A computed cell index outside the grid after the extent check is an
// internal error (a bug, not bad input) and aborts the run.
func Bin(src PointSource, b geom.Bounds, res float64, class *uint8, v las.Variable, f Function, nodata float64) (*raster.Grid, error) {
	width, height := geom.RasterSize(b, res)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("empty raster %dx%d for extent %+v at resolution %v", width, height, b, res)
	}

	bins := make([][]float64, width*height)
	binned := 0

	for {
		p, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if class != nil && p.Classification != *class {
			continue
		}
		if !b.ContainsXY(p.X, p.Y) {
			continue
		}

		xi := int(math.Floor((p.X - b.Min.X) / res))
		yi := int(math.Floor((p.Y - b.Min.Y) / res))
		// A point on the extent's max edge lands one cell past the end.
		if xi == width {
			xi--
		}
		if yi == height {
			yi--
		}
		i := yi*width + xi
		if xi < 0 || yi < 0 || xi >= width || yi >= height {
			return nil, fmt.Errorf("internal error: cell index %d/%d out of grid (%d, %d in %dx%d)",
				i, len(bins), xi, yi, width, height)
		}

		bins[i] = append(bins[i], v.Of(p))
		binned++
	}

	progress.Logf("Binned %d points into %dx%d cells, collapsing with %s...", binned, width, height, f)

	g := raster.New(width, height, nodata)
	for i, cell := range bins {
		g.Data[i] = Collapse(cell, f, nodata)
	}
	return g, nil
}
