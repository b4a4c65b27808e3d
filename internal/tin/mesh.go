// Package tin builds a constrained Delaunay surface from a descending
// elevation sweep over a point cloud and samples it onto a regular grid.
//
// The triangulation is an arena: vertices, directed half-edges and triangular
// faces live in flat slices and reference each other by index. External code
// holds only these handles. An edge flip rotates the edge record in place, so
// edge handles stay valid for the life of the structure; nothing is ever
// freed.
package tin

import "math"

// Handle types into the mesh arenas. The zero slots of the vertex arena hold
// the three bounding super-triangle vertices.
type (
	VertexIndex int32
	EdgeIndex   int32
	FaceIndex   int32
)

const (
	NoVertex VertexIndex = -1
	NoEdge   EdgeIndex   = -1
	NoFace   FaceIndex   = -1
)

// superVerts is the number of bounding vertices allocated before any point.
const superVerts = 3

// Vertex is one point of the triangulation. Position is fixed once inserted;
// Z and Value may be replaced when a later point lands on the exact same
// planar position and passes the watermark test.
type Vertex struct {
	X, Y  float64
	Z     float64
	Value float64

	out EdgeIndex // one half-edge originating here
}

// halfEdge is one direction of an undirected edge. Boundary half-edges (the
// outside of the super triangle) carry face == NoFace but keep valid
// next/prev links along the boundary cycle.
type halfEdge struct {
	origin     VertexIndex
	twin       EdgeIndex
	next       EdgeIndex
	prev       EdgeIndex
	face       FaceIndex
	constraint bool
}

type faceRec struct {
	edge EdgeIndex // one incident half-edge
}

// Mesh is the constrained triangulation arena.
type Mesh struct {
	verts []Vertex
	edges []halfEdge
	faces []faceRec

	hint FaceIndex // locate start, last face touched
}

// NewMesh seeds a triangulation with a super triangle comfortably enclosing
// the given planar bounding box, so every subsequent insertion lands inside
// an existing face. Super-triangle faces count as outside the hull when
// sampling.
func NewMesh(minX, minY, maxX, maxY float64) *Mesh {
	span := math.Max(maxX-minX, maxY-minY)
	if span <= 0 {
		span = 1
	}
	// Far enough out that the bounding triangle barely distorts the
	// triangulation near the hull, close enough to keep the predicates well
	// conditioned.
	const reach = 1 << 12
	midX := (minX + maxX) / 2
	midY := (minY + maxY) / 2

	m := &Mesh{}
	a := m.addVertex(midX-reach*span, midY-span*reach/2, 0, 0)
	b := m.addVertex(midX+reach*span, midY-span*reach/2, 0, 0)
	c := m.addVertex(midX, midY+reach*span, 0, 0)

	// One interior face a-b-c (CCW) and the boundary cycle around it.
	ab, ba := m.addEdgePair(a, b)
	bc, cb := m.addEdgePair(b, c)
	ca, ac := m.addEdgePair(c, a)

	f := m.addFace(ab)
	m.linkLoop(f, ab, bc, ca)
	m.linkLoop(NoFace, ba, ac, cb)

	m.verts[a].out = ab
	m.verts[b].out = bc
	m.verts[c].out = ca
	m.hint = f
	return m
}

// NumVertices returns the number of inserted vertices, super triangle
// excluded.
func (m *Mesh) NumVertices() int {
	return len(m.verts) - superVerts
}

// NumFaces returns the number of interior faces, including those touching
// the super triangle.
func (m *Mesh) NumFaces() int { return len(m.faces) }

// Vertex returns the vertex record for a handle.
func (m *Mesh) Vertex(v VertexIndex) Vertex { return m.verts[v] }

// EdgeVertices returns the current endpoints of a directed edge, origin
// first. Flips rotate edges in place, so the endpoints of a held handle can
// change over time.
func (m *Mesh) EdgeVertices(e EdgeIndex) (VertexIndex, VertexIndex) {
	return m.edges[e].origin, m.edges[m.edges[e].twin].origin
}

// IsConstraint reports whether the undirected edge is a constraint.
func (m *Mesh) IsConstraint(e EdgeIndex) bool { return m.edges[e].constraint }

// SetConstraint promotes an edge to a constraint. Constraints are permanent:
// they are never flipped, split, or unmarked.
func (m *Mesh) SetConstraint(e EdgeIndex) {
	m.edges[e].constraint = true
	m.edges[m.edges[e].twin].constraint = true
}

// EdgeLength2 returns the squared planar length of an edge.
func (m *Mesh) EdgeLength2(e EdgeIndex) float64 {
	a, b := m.EdgeVertices(e)
	dx := m.verts[a].X - m.verts[b].X
	dy := m.verts[a].Y - m.verts[b].Y
	return dx*dx + dy*dy
}

// FaceVertices returns the three corners of a face in CCW order.
func (m *Mesh) FaceVertices(f FaceIndex) [3]VertexIndex {
	e0 := m.faces[f].edge
	e1 := m.edges[e0].next
	e2 := m.edges[e1].next
	return [3]VertexIndex{m.edges[e0].origin, m.edges[e1].origin, m.edges[e2].origin}
}

// faceEdges returns the three half-edges of a face in cycle order.
func (m *Mesh) faceEdges(f FaceIndex) [3]EdgeIndex {
	e0 := m.faces[f].edge
	e1 := m.edges[e0].next
	return [3]EdgeIndex{e0, e1, m.edges[e1].next}
}

// IsSuperVertex reports whether v is one of the three bounding vertices.
func (m *Mesh) IsSuperVertex(v VertexIndex) bool { return v < superVerts }

// IsOuterFace reports whether any corner of f is a bounding vertex; such
// faces lie outside the point hull for sampling purposes.
func (m *Mesh) IsOuterFace(f FaceIndex) bool {
	vs := m.FaceVertices(f)
	return m.IsSuperVertex(vs[0]) || m.IsSuperVertex(vs[1]) || m.IsSuperVertex(vs[2])
}

// faceFullyConstrained reports whether all three edges of f are constraints.
func (m *Mesh) faceFullyConstrained(f FaceIndex) bool {
	es := m.faceEdges(f)
	return m.edges[es[0]].constraint && m.edges[es[1]].constraint && m.edges[es[2]].constraint
}

// OutEdges appends every half-edge originating at v to dst, rotating
// counter-clockwise from v's reference edge, and returns the extended slice.
func (m *Mesh) OutEdges(v VertexIndex, dst []EdgeIndex) []EdgeIndex {
	start := m.verts[v].out
	e := start
	for {
		dst = append(dst, e)
		e = m.edges[m.edges[e].prev].twin
		if e == start {
			return dst
		}
	}
}

// arena constructors

func (m *Mesh) addVertex(x, y, z, value float64) VertexIndex {
	m.verts = append(m.verts, Vertex{X: x, Y: y, Z: z, Value: value, out: NoEdge})
	return VertexIndex(len(m.verts) - 1)
}

func (m *Mesh) addEdgePair(a, b VertexIndex) (EdgeIndex, EdgeIndex) {
	e := EdgeIndex(len(m.edges))
	t := e + 1
	m.edges = append(m.edges,
		halfEdge{origin: a, twin: t, next: NoEdge, prev: NoEdge, face: NoFace},
		halfEdge{origin: b, twin: e, next: NoEdge, prev: NoEdge, face: NoFace},
	)
	return e, t
}

func (m *Mesh) addFace(e EdgeIndex) FaceIndex {
	m.faces = append(m.faces, faceRec{edge: e})
	return FaceIndex(len(m.faces) - 1)
}

// linkLoop wires e0 -> e1 -> e2 -> e0 as the boundary of face f (which may be
// NoFace for the outer cycle).
func (m *Mesh) linkLoop(f FaceIndex, e0, e1, e2 EdgeIndex) {
	m.edges[e0].next, m.edges[e0].prev, m.edges[e0].face = e1, e2, f
	m.edges[e1].next, m.edges[e1].prev, m.edges[e1].face = e2, e0, f
	m.edges[e2].next, m.edges[e2].prev, m.edges[e2].face = e0, e1, f
	if f != NoFace {
		m.faces[f].edge = e0
	}
}

// geometric predicates

// orient2d returns twice the signed area of triangle (a, b, c): positive for
// counter-clockwise.
func orient2d(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func (m *Mesh) orientVert(a, b VertexIndex, px, py float64) float64 {
	va, vb := m.verts[a], m.verts[b]
	return orient2d(va.X, va.Y, vb.X, vb.Y, px, py)
}

// inCircumcircle reports whether d lies strictly inside the circumcircle of
// the CCW triangle (a, b, c).
func (m *Mesh) inCircumcircle(a, b, c, d VertexIndex) bool {
	va, vb, vc, vd := m.verts[a], m.verts[b], m.verts[c], m.verts[d]

	adx := va.X - vd.X
	ady := va.Y - vd.Y
	bdx := vb.X - vd.X
	bdy := vb.Y - vd.Y
	cdx := vc.X - vd.X
	cdy := vc.Y - vd.Y

	ad2 := adx*adx + ady*ady
	bd2 := bdx*bdx + bdy*bdy
	cd2 := cdx*cdx + cdy*cdy

	det := adx*(bdy*cd2-cdy*bd2) -
		ady*(bdx*cd2-cdx*bd2) +
		ad2*(bdx*cdy-cdx*bdy)
	return det > 0
}
