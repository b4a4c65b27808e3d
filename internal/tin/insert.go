package tin

import "fmt"

// InsertionError reports a point the triangulation cannot accept. It aborts
// the whole build; no partial mesh is returned.
type InsertionError struct {
	X, Y   float64
	Reason string
}

func (e *InsertionError) Error() string {
	return fmt.Sprintf("tin: cannot insert point (%g, %g): %s", e.X, e.Y, e.Reason)
}

// Point is one candidate vertex: planar position, elevation, and the scalar
// being rasterized (which may or may not equal the elevation).
type Point struct {
	X, Y  float64
	Z     float64
	Value float64
}

// Insert places p into the triangulation, retriangulating the surrounding
// region to restore the Delaunay property everywhere except across
// constraint edges. A point coinciding with an existing vertex replaces that
// vertex's elevation and value.
func (m *Mesh) Insert(p Point) (VertexIndex, error) {
	switch loc := m.Locate(p.X, p.Y); loc.Kind {
	case OnFace:
		return m.insertInFace(loc.Face, p), nil
	case OnVertex:
		m.replaceVertex(loc.Vertex, p)
		return loc.Vertex, nil
	case OnEdge:
		return m.insertOnEdge(loc.Edge, p)
	case Outside:
		return NoVertex, &InsertionError{X: p.X, Y: p.Y, Reason: "outside the bounding triangle"}
	default:
		return NoVertex, &InsertionError{X: p.X, Y: p.Y, Reason: "unhandled locate result"}
	}
}

// replaceVertex overwrites the elevation and value of an existing vertex.
// The planar position is untouched, so no retriangulation is needed.
func (m *Mesh) replaceVertex(v VertexIndex, p Point) {
	m.verts[v].Z = p.Z
	m.verts[v].Value = p.Value
}

// insertInFace splits face f into three triangles around the new vertex and
// legalizes outward.
func (m *Mesh) insertInFace(f FaceIndex, p Point) VertexIndex {
	es := m.faceEdges(f)
	e0, e1, e2 := es[0], es[1], es[2]
	a := m.edges[e0].origin
	b := m.edges[e1].origin
	c := m.edges[e2].origin

	v := m.addVertex(p.X, p.Y, p.Z, p.Value)
	av, va := m.addEdgePair(a, v)
	bv, vb := m.addEdgePair(b, v)
	cv, vc := m.addEdgePair(c, v)

	f1 := m.addFace(e1)
	f2 := m.addFace(e2)
	m.linkLoop(f, e0, bv, va)  // (a, b, v)
	m.linkLoop(f1, e1, cv, vb) // (b, c, v)
	m.linkLoop(f2, e2, av, vc) // (c, a, v)

	m.verts[v].out = va
	m.hint = f

	m.legalize(e0, e1, e2)
	return v
}

// insertOnEdge splits edge e (and its two adjacent triangles) at p,
// producing four triangles, and legalizes outward. Constraint edges must be
// filtered by the caller; a point on the bounding-triangle boundary is
// degenerate input.
func (m *Mesh) insertOnEdge(e EdgeIndex, p Point) (VertexIndex, error) {
	if m.edges[e].constraint {
		return NoVertex, &InsertionError{X: p.X, Y: p.Y, Reason: "splits a constraint edge"}
	}
	t := m.edges[e].twin
	f1 := m.edges[e].face
	f2 := m.edges[t].face
	if f1 == NoFace || f2 == NoFace {
		return NoVertex, &InsertionError{X: p.X, Y: p.Y, Reason: "on the bounding triangle boundary"}
	}

	bc := m.edges[e].next
	ca := m.edges[e].prev
	ad := m.edges[t].next
	db := m.edges[t].prev
	b := m.edges[t].origin
	c := m.edges[ca].origin
	d := m.edges[db].origin

	v := m.addVertex(p.X, p.Y, p.Z, p.Value)

	// e shortens to a->v; its twin becomes v->a.
	m.edges[t].origin = v
	vb, bv := m.addEdgePair(v, b)
	vc, cv := m.addEdgePair(v, c)
	vd, dv := m.addEdgePair(v, d)

	f3 := m.addFace(vb)
	f4 := m.addFace(bv)
	m.linkLoop(f1, e, vc, ca)  // (a, v, c)
	m.linkLoop(f2, t, ad, dv)  // (v, a, d)
	m.linkLoop(f3, vb, bc, cv) // (v, b, c)
	m.linkLoop(f4, bv, vd, db) // (b, v, d)

	if m.verts[b].out == t {
		m.verts[b].out = bv
	}
	m.verts[v].out = vb
	m.hint = f1

	m.legalize(ca, bc, ad, db)
	return v, nil
}

// legalize restores the empty-circumcircle property by flipping the given
// edges (and any edges exposed by those flips) until every non-constraint
// interior edge passes the incircle test.
func (m *Mesh) legalize(stack ...EdgeIndex) {
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if m.edges[e].constraint {
			continue
		}
		t := m.edges[e].twin
		if m.edges[e].face == NoFace || m.edges[t].face == NoFace {
			continue
		}

		a := m.edges[e].origin
		b := m.edges[t].origin
		c := m.edges[m.edges[e].prev].origin // apex of e's face
		d := m.edges[m.edges[t].prev].origin // apex of the twin face

		if !m.inCircumcircle(a, b, c, d) {
			continue
		}

		bc := m.edges[e].next
		ca := m.edges[e].prev
		ad := m.edges[t].next
		db := m.edges[t].prev
		m.flip(e)
		stack = append(stack, bc, ca, ad, db)
	}
}

// flip rotates edge e in place to the opposite diagonal of its two adjacent
// triangles. The edge record keeps its handle; only its endpoints and links
// change. Callers must ensure both faces are real and the edge is not a
// constraint.
func (m *Mesh) flip(e EdgeIndex) {
	t := m.edges[e].twin
	f1 := m.edges[e].face
	f2 := m.edges[t].face

	bc := m.edges[e].next
	ca := m.edges[e].prev
	ad := m.edges[t].next
	db := m.edges[t].prev

	a := m.edges[e].origin
	b := m.edges[t].origin
	c := m.edges[ca].origin
	d := m.edges[db].origin

	// Diagonal a-b becomes d-c.
	m.edges[e].origin = d
	m.edges[t].origin = c

	m.linkLoop(f1, ad, e, ca) // (a, d, c)
	m.linkLoop(f2, db, bc, t) // (d, b, c)

	if m.verts[a].out == e {
		m.verts[a].out = ad
	}
	if m.verts[b].out == t {
		m.verts[b].out = bc
	}
	m.hint = f1
}
