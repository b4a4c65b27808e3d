package tin

import (
	"math"

	"github.com/banshee-data/lasrast/internal/geom"
	"github.com/banshee-data/lasrast/internal/progress"
	"github.com/banshee-data/lasrast/internal/raster"
)

// Sample walks every cell of the output grid and interpolates the finished
// surface at the cell's origin corner: the extent's rounded minimum offset by
// resolution times the cell index. Cells outside the triangulated hull
// receive the NODATA sentinel.
func Sample(m *Mesh, b geom.Bounds, res, nodata float64) *raster.Grid {
	width, height := geom.RasterSize(b, res)
	g := raster.New(width, height, nodata)

	progress.Logf("Sampling %dx%d raster...", width, height)
	baseX := math.Round(b.Min.X)
	baseY := math.Round(b.Min.Y)
	for y := 0; y < height; y++ {
		py := baseY + res*float64(y)
		row := y * width
		for x := 0; x < width; x++ {
			px := baseX + res*float64(x)
			g.Data[row+x] = m.ValueAt(px, py, nodata)
		}
	}
	return g
}

// ValueAt interpolates the surface's value field at a planar position using
// the barycentric weights of the containing face's corners. Positions
// outside the hull (including anywhere in a face touching the bounding
// triangle) yield nodata; a position exactly on a vertex yields that vertex's
// value exactly.
func (m *Mesh) ValueAt(x, y, nodata float64) float64 {
	loc := m.Locate(x, y)
	switch loc.Kind {
	case Outside:
		return nodata
	case OnVertex:
		if m.IsSuperVertex(loc.Vertex) {
			return nodata
		}
		return m.verts[loc.Vertex].Value
	case OnEdge:
		return m.valueOnEdge(loc.Edge, x, y, nodata)
	case OnFace:
		if m.IsOuterFace(loc.Face) {
			return nodata
		}
		return m.barycentric(loc.Face, x, y)
	default:
		return nodata
	}
}

// valueOnEdge handles a sample point in the interior of an edge. Interior
// edges interpolate in either adjacent face (the results agree along the
// shared edge); hull edges use their one real face. An edge whose faces are
// both outer but whose endpoints are both real (a fully collinear dataset)
// degenerates to linear interpolation along the edge.
func (m *Mesh) valueOnEdge(e EdgeIndex, x, y, nodata float64) float64 {
	f := m.edges[e].face
	tf := m.edges[m.edges[e].twin].face

	if f != NoFace && !m.IsOuterFace(f) {
		return m.barycentric(f, x, y)
	}
	if tf != NoFace && !m.IsOuterFace(tf) {
		return m.barycentric(tf, x, y)
	}

	a, b := m.EdgeVertices(e)
	if m.IsSuperVertex(a) || m.IsSuperVertex(b) {
		return nodata
	}
	va, vb := m.verts[a], m.verts[b]
	dx, dy := vb.X-va.X, vb.Y-va.Y
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return va.Value
	}
	t := ((x-va.X)*dx + (y-va.Y)*dy) / len2
	return (1-t)*va.Value + t*vb.Value
}

// barycentric evaluates the affine interpolation of the face's corner values
// at (x, y). Exact for linear fields and at the corners themselves.
func (m *Mesh) barycentric(f FaceIndex, x, y float64) float64 {
	vs := m.FaceVertices(f)
	va, vb, vc := m.verts[vs[0]], m.verts[vs[1]], m.verts[vs[2]]

	denom := orient2d(va.X, va.Y, vb.X, vb.Y, vc.X, vc.Y)
	wa := orient2d(x, y, vb.X, vb.Y, vc.X, vc.Y) / denom
	wb := orient2d(va.X, va.Y, x, y, vc.X, vc.Y) / denom
	wc := 1 - wa - wb

	return wa*va.Value + wb*vb.Value + wc*vc.Value
}
