package raster

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoDriver is returned when no registered driver claims the output path's
// extension. It is a configuration error: the run aborts before any
// computation when the CLI resolves the driver up front.
var ErrNoDriver = errors.New("no raster driver for extension")

// Driver serializes a finished grid to one file format.
type Driver interface {
	// Name is the short driver name, e.g. "AAIGrid".
	Name() string
	// Extensions lists the file extensions (lower case, no dot) the driver
	// claims.
	Extensions() []string
	// Write serializes the grid to path. transform is the affine geo
	// transform from GeoTransform.
	Write(path string, g *Grid, transform [6]float64) error
}

var drivers = map[string]Driver{}

// Register adds a driver to the extension registry. Later registrations win
// on extension collisions.
func Register(d Driver) {
	for _, ext := range d.Extensions() {
		drivers[ext] = d
	}
}

// DriverForPath resolves the driver for an output path by its extension.
func DriverForPath(path string) (Driver, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return nil, fmt.Errorf("%w: output path %q has no extension", ErrNoDriver, path)
	}
	d, ok := drivers[ext]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrNoDriver, ext, strings.Join(Extensions(), ", "))
	}
	return d, nil
}

// Extensions returns every registered extension, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(drivers))
	for ext := range drivers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
