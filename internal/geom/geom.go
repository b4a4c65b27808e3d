// Package geom provides the shared extent and raster-sizing primitives used
// by both rasterization strategies.
package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector is a point or offset in cloud coordinates.
type Vector struct {
	X, Y, Z float64
}

// Bounds is an axis-aligned box. Min and Max are inclusive.
type Bounds struct {
	Min, Max Vector
}

// ContainsXY reports whether the planar position (x, y) lies within the
// bounds. Z is ignored; the output raster is two-dimensional.
func (b Bounds) ContainsXY(x, y float64) bool {
	return x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y
}

// Extend grows the bounds to include v.
func (b *Bounds) Extend(v Vector) {
	b.Min.X = math.Min(b.Min.X, v.X)
	b.Min.Y = math.Min(b.Min.Y, v.Y)
	b.Min.Z = math.Min(b.Min.Z, v.Z)
	b.Max.X = math.Max(b.Max.X, v.X)
	b.Max.Y = math.Max(b.Max.Y, v.Y)
	b.Max.Z = math.Max(b.Max.Z, v.Z)
}

// RasterSize returns the (width, height) of a raster covering b at the given
// resolution, rounding partial cells up.
func RasterSize(b Bounds, res float64) (width, height int) {
	width = int(math.Ceil((b.Max.X - b.Min.X) / res))
	height = int(math.Ceil((b.Max.Y - b.Min.Y) / res))
	return width, height
}

// ParseExtent parses a comma-separated extent string. Two forms are accepted:
// "minx,miny,maxx,maxy" (Z unbounded) and "minx,miny,minz,maxx,maxy,maxz".
// Each axis must satisfy min <= max.
func ParseExtent(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return Bounds{}, fmt.Errorf("extent %q has an invalid number of coordinates", s)
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("extent coordinate %q: %w", p, err)
		}
		vals[i] = v
	}

	var b Bounds
	if len(vals) == 6 {
		b.Min = Vector{X: vals[0], Y: vals[1], Z: vals[2]}
		b.Max = Vector{X: vals[3], Y: vals[4], Z: vals[5]}
	} else {
		b.Min = Vector{X: vals[0], Y: vals[1], Z: -math.MaxFloat64}
		b.Max = Vector{X: vals[2], Y: vals[3], Z: math.MaxFloat64}
	}

	mins := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	maxs := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if mins[i] > maxs[i] {
			return Bounds{}, fmt.Errorf("invalid extent, %v is greater than %v", mins[i], maxs[i])
		}
	}

	return b, nil
}
