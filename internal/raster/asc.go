package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

func init() {
	Register(ascDriver{})
	Register(xyzDriver{})
}

// ascDriver writes ESRI ASCII grids (.asc). The format stores rows
// north-to-south, so grid rows are emitted in reverse.
type ascDriver struct{}

func (ascDriver) Name() string         { return "AAIGrid" }
func (ascDriver) Extensions() []string { return []string{"asc"} }

func (ascDriver) Write(path string, g *Grid, transform [6]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("asc: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", g.Width)
	fmt.Fprintf(w, "nrows %d\n", g.Height)
	fmt.Fprintf(w, "xllcorner %s\n", formatFloat(transform[0]))
	fmt.Fprintf(w, "yllcorner %s\n", formatFloat(transform[3]))
	fmt.Fprintf(w, "cellsize %s\n", formatFloat(transform[1]))
	fmt.Fprintf(w, "NODATA_value %s\n", formatFloat(g.NoData))

	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			if x > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(formatFloat(g.At(x, y)))
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("asc: %w", err)
	}
	return nil
}

// xyzDriver writes one "x y value" line per cell with data, positioned at the
// cell's origin corner. NODATA cells are omitted.
type xyzDriver struct{}

func (xyzDriver) Name() string         { return "XYZ" }
func (xyzDriver) Extensions() []string { return []string{"xyz"} }

func (xyzDriver) Write(path string, g *Grid, transform [6]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("xyz: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for y := 0; y < g.Height; y++ {
		py := transform[3] + transform[5]*float64(y)
		for x := 0; x < g.Width; x++ {
			v := g.At(x, y)
			if v == g.NoData {
				continue
			}
			px := transform[0] + transform[1]*float64(x)
			fmt.Fprintf(w, "%s %s %s\n", formatFloat(px), formatFloat(py), formatFloat(v))
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("xyz: %w", err)
	}
	return nil
}

// formatFloat renders values without trailing zero noise, matching the
// shortest round-trippable representation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
