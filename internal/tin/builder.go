package tin

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/banshee-data/lasrast/internal/geom"
	"github.com/banshee-data/lasrast/internal/las"
	"github.com/banshee-data/lasrast/internal/progress"
)

// PointSource is the fallible point sequence consumed by Collect.
// *las.Reader satisfies it; the first non-EOF error aborts the run.
type PointSource interface {
	Next() (las.Point, error)
}

// Collect materializes the build input from a point stream. The returned
// watermark seed is the maximum elevation over the raw stream, observed
// before any filtering. High-noise points are always discarded; a class
// filter, when non-nil, keeps only matching points; points outside the
// extent's planar window are dropped.
func Collect(src PointSource, b geom.Bounds, class *uint8, v las.Variable) ([]Point, float64, error) {
	watermark := -math.MaxFloat64
	var pts []Point
	for {
		p, err := src.Next()
		if err == io.EOF {
			return pts, watermark, nil
		}
		if err != nil {
			return nil, 0, err
		}

		watermark = math.Max(watermark, p.Z)

		if p.IsHighNoise() {
			continue
		}
		if class != nil && p.Classification != *class {
			continue
		}
		if !b.ContainsXY(p.X, p.Y) {
			continue
		}
		pts = append(pts, Point{X: p.X, Y: p.Y, Z: p.Z, Value: v.Of(p)})
	}
}

// BuildParams tunes the freeze sweep.
type BuildParams struct {
	// FreezeDistance is the maximum planar edge length eligible for
	// promotion to a permanent constraint.
	FreezeDistance float64
	// InsertionBuffer is the elevation slack an edge's origin must clear
	// above the watermark before the edge may freeze, preventing locking
	// right at the active sweep front.
	InsertionBuffer float64
}

// Build constructs the constrained triangulation from the collected points.
// Points are processed in descending elevation (stable on ties); behind the
// sweep, short edges rooted sufficiently above the watermark are frozen into
// constraints, which bounds the live edge queue on large inputs.
//
// watermark seeds the sweep at the maximum elevation of the raw stream (see
// Collect). A rejected insertion aborts the build; no partial mesh is
// returned.
func Build(points []Point, watermark float64, params BuildParams) (*Mesh, error) {
	if params.FreezeDistance <= 0 {
		return nil, fmt.Errorf("tin: freeze distance must be positive, got %v", params.FreezeDistance)
	}
	if params.InsertionBuffer <= 0 {
		return nil, fmt.Errorf("tin: insertion buffer must be positive, got %v", params.InsertionBuffer)
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	if len(points) == 0 {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}
	m := NewMesh(minX, minY, maxX, maxY)

	progress.Logf("Sorting %d points...", len(points))
	sort.SliceStable(points, func(i, j int) bool { return points[i].Z > points[j].Z })

	progress.Logf("Building triangulation...")
	freeze2 := params.FreezeDistance * params.FreezeDistance
	var queue edgeDeque
	var out []EdgeIndex

	for _, pt := range points {
		// Freeze sweep: find the newest queued edge rooted clear of the
		// sweep front, then evict it and everything older. Older edges are
		// assumed already eligible, so the scan stops at the first hit.
		cut := -1
		for i := queue.len() - 1; i >= 0; i-- {
			origin := m.edges[queue.at(i)].origin
			if m.verts[origin].Z > watermark+params.InsertionBuffer {
				cut = i
				break
			}
		}
		for i := 0; i <= cut; i++ {
			e := queue.popFront()
			if m.EdgeLength2(e) <= freeze2 {
				m.SetConstraint(e)
			}
		}

		loc := m.Locate(pt.X, pt.Y)
		var accept bool
		switch loc.Kind {
		case OnFace:
			// A fully frozen face needs no further refinement.
			accept = !m.faceFullyConstrained(loc.Face)
		case OnVertex:
			accept = pt.Z-m.verts[loc.Vertex].Z > watermark
		case OnEdge:
			accept = !m.edges[loc.Edge].constraint
		case Outside:
			accept = true
		}
		if !accept {
			continue
		}

		watermark = math.Min(watermark, pt.Z)

		var v VertexIndex
		var err error
		switch loc.Kind {
		case OnFace:
			v = m.insertInFace(loc.Face, pt)
		case OnVertex:
			m.replaceVertex(loc.Vertex, pt)
			v = loc.Vertex
		case OnEdge:
			v, err = m.insertOnEdge(loc.Edge, pt)
		case Outside:
			// The bounding triangle covers the point set's bounding box, so
			// a point beyond it indicates a geometry bug, not user input.
			err = &InsertionError{X: pt.X, Y: pt.Y, Reason: "escaped the bounding triangle"}
		}
		if err != nil {
			return nil, err
		}

		out = m.OutEdges(v, out[:0])
		for _, e := range out {
			queue.pushBack(e)
		}
	}

	progress.Logf("Triangulation finished: %d vertices, %d faces, %d live edges at end",
		m.NumVertices(), m.NumFaces(), queue.len())
	return m, nil
}

// edgeDeque is the freeze buffer: push at the back as edges are created,
// bulk-pop from the front as regions freeze. Slice-backed with a head index;
// the backing array is compacted once the dead prefix dominates.
type edgeDeque struct {
	buf  []EdgeIndex
	head int
}

func (q *edgeDeque) len() int           { return len(q.buf) - q.head }
func (q *edgeDeque) at(i int) EdgeIndex { return q.buf[q.head+i] }

func (q *edgeDeque) pushBack(e EdgeIndex) { q.buf = append(q.buf, e) }

func (q *edgeDeque) popFront() EdgeIndex {
	e := q.buf[q.head]
	q.head++
	if q.head > 1024 && q.head*2 >= len(q.buf) {
		q.buf = append(q.buf[:0], q.buf[q.head:]...)
		q.head = 0
	}
	return e
}
