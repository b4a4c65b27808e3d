// Command lasrast generates a georeferenced raster from a LAS point cloud,
// either by per-cell binning of raw values or by sampling a triangulated
// surface built from the points.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/lasrast/internal/binning"
	"github.com/banshee-data/lasrast/internal/geom"
	"github.com/banshee-data/lasrast/internal/las"
	"github.com/banshee-data/lasrast/internal/progress"
	"github.com/banshee-data/lasrast/internal/raster"
	"github.com/banshee-data/lasrast/internal/tin"
)

const version = "0.1.0"

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "bin":
		err = runBin(args)
	case "triangulate":
		err = runTriangulate(args)
	case "version":
		fmt.Printf("lasrast version %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lasrast %s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lasrast - generates a raster from a las file

Usage: lasrast <command> [options] <output>

Commands:
  bin          Rasterize raw point values by per-cell binning
  triangulate  Rasterize by sampling an incrementally built triangulated surface
  version      Print version
  help         Show this help

Shared options:
  -input    Path to the input .las file (required)
  -res      Resolution of the output raster (required, > 0)
  -class    Optional LAS classification code filter (0-255)
  -var      Variable to rasterize: x, y, z or intensity (default z)
  -extent   Output extent "minx,miny,maxx,maxy" or
            "minx,miny,minz,maxx,maxy,maxz" (default: source header bounds)
  -nodata   NODATA value for empty cells (default -9999)

bin options:
  -func     Aggregation: mean, median, min, max or count (default median)

triangulate options:
  -freeze-distance   Edges at most this long freeze into permanent
                     constraints once behind the sweep (required, > 0)
  -insertion-buffer  Elevation slack above the sweep front required before
                     freezing (required, > 0)

The output format is chosen by the output path's extension (` + extensionList() + `).`)
}

func extensionList() string {
	list := ""
	for i, ext := range raster.Extensions() {
		if i > 0 {
			list += ", "
		}
		list += ext
	}
	return list
}

// sharedFlags are the options common to both subcommands.
type sharedFlags struct {
	input    string
	res      float64
	class    int
	variable string
	extent   string
	nodata   float64
}

func registerShared(fs *flag.FlagSet) *sharedFlags {
	sf := &sharedFlags{}
	fs.StringVar(&sf.input, "input", "", "path to the input .las file")
	fs.Float64Var(&sf.res, "res", 0, "resolution of the output raster")
	fs.IntVar(&sf.class, "class", -1, "LAS classification code filter (0-255)")
	fs.StringVar(&sf.variable, "var", "z", "variable to rasterize: x, y, z or intensity")
	fs.StringVar(&sf.extent, "extent", "", "output extent override")
	fs.Float64Var(&sf.nodata, "nodata", raster.DefaultNoData, "NODATA value for empty cells")
	return sf
}

// runConfig is the validated shared configuration. Everything here is checked
// before any point is read, so configuration mistakes fail fast.
type runConfig struct {
	reader   *las.Reader
	bounds   geom.Bounds
	class    *uint8
	variable las.Variable
	res      float64
	nodata   float64
	output   string
	driver   raster.Driver
}

func (sf *sharedFlags) configure(fs *flag.FlagSet) (*runConfig, error) {
	if sf.input == "" {
		return nil, fmt.Errorf("missing required -input")
	}
	if sf.res <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %v", sf.res)
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one output path argument, got %d", fs.NArg())
	}

	cfg := &runConfig{
		res:    sf.res,
		nodata: sf.nodata,
		output: fs.Arg(0),
	}

	if sf.class != -1 {
		if sf.class < 0 || sf.class > 255 {
			return nil, fmt.Errorf("classification code %d out of range 0-255", sf.class)
		}
		c := uint8(sf.class)
		cfg.class = &c
	}

	var err error
	if cfg.variable, err = las.ParseVariable(sf.variable); err != nil {
		return nil, err
	}
	if cfg.driver, err = raster.DriverForPath(cfg.output); err != nil {
		return nil, err
	}

	if cfg.reader, err = las.Open(sf.input); err != nil {
		return nil, err
	}

	cfg.bounds = cfg.reader.Header().Bounds()
	if sf.extent != "" {
		if cfg.bounds, err = geom.ParseExtent(sf.extent); err != nil {
			cfg.reader.Close()
			return nil, err
		}
	}
	return cfg, nil
}

func (c *runConfig) write(g *raster.Grid) error {
	progress.Logf("Writing %s...", c.driver.Name())
	transform := raster.GeoTransform(c.bounds, c.res)
	if err := c.driver.Write(c.output, g, transform); err != nil {
		return err
	}
	progress.Logf("Done!")
	return nil
}

func runBin(args []string) error {
	fs := flag.NewFlagSet("bin", flag.ExitOnError)
	sf := registerShared(fs)
	fn := fs.String("func", "median", "aggregation: mean, median, min, max or count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := binning.ParseFunction(*fn)
	if err != nil {
		return err
	}
	cfg, err := sf.configure(fs)
	if err != nil {
		return err
	}
	defer cfg.reader.Close()

	g, err := binning.Bin(cfg.reader, cfg.bounds, cfg.res, cfg.class, cfg.variable, f, cfg.nodata)
	if err != nil {
		return err
	}
	return cfg.write(g)
}

func runTriangulate(args []string) error {
	fs := flag.NewFlagSet("triangulate", flag.ExitOnError)
	sf := registerShared(fs)
	freeze := fs.Float64("freeze-distance", 0,
		"edges at most this long freeze into constraints behind the sweep")
	buffer := fs.Float64("insertion-buffer", 0,
		"elevation slack above the sweep front required before freezing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *freeze <= 0 {
		return fmt.Errorf("-freeze-distance is required and must be positive")
	}
	if *buffer <= 0 {
		return fmt.Errorf("-insertion-buffer is required and must be positive")
	}
	cfg, err := sf.configure(fs)
	if err != nil {
		return err
	}
	defer cfg.reader.Close()

	points, watermark, err := tin.Collect(cfg.reader, cfg.bounds, cfg.class, cfg.variable)
	if err != nil {
		return err
	}

	mesh, err := tin.Build(points, watermark, tin.BuildParams{
		FreezeDistance:  *freeze,
		InsertionBuffer: *buffer,
	})
	if err != nil {
		return err
	}

	return cfg.write(tin.Sample(mesh, cfg.bounds, cfg.res, cfg.nodata))
}
