package tin

// AddConstraint marks the edge between vertices a and b as a constraint,
// first forcing the segment into the triangulation if other edges currently
// cross it. The segment cannot be forced across an existing constraint or
// through a third vertex lying exactly on it.
//
// The freeze sweep in Build never takes the forcing path: it promotes edges
// that already exist, by handle, via SetConstraint. Forcing is for callers
// constraining arbitrary vertex pairs.
func (m *Mesh) AddConstraint(a, b VertexIndex) error {
	if a == b {
		v := m.verts[a]
		return &InsertionError{X: v.X, Y: v.Y, Reason: "constraint endpoints coincide"}
	}
	if e, ok := m.edgeBetween(a, b); ok {
		m.SetConstraint(e)
		return nil
	}

	crossing, err := m.crossingEdges(a, b)
	if err != nil {
		return err
	}

	// Flip the crossing edges out of the way. An edge whose quad is not yet
	// strictly convex is deferred; flipping its neighbors convexifies it.
	pa, pb := m.verts[a], m.verts[b]
	guard := 4 * (len(m.edges) + len(crossing))
	for len(crossing) > 0 {
		if guard--; guard < 0 {
			return &InsertionError{X: pb.X, Y: pb.Y, Reason: "constraint segment could not be forced"}
		}

		e := crossing[0]
		crossing = crossing[1:]
		if m.edges[e].constraint {
			return &InsertionError{X: pb.X, Y: pb.Y, Reason: "constraint segment crosses another constraint"}
		}
		if !m.flipIsConvex(e) {
			crossing = append(crossing, e)
			continue
		}
		m.flip(e)
		// The rotated edge may still lie across the segment.
		p, q := m.EdgeVertices(e)
		if segmentsCross(pa, pb, m.verts[p], m.verts[q]) {
			crossing = append(crossing, e)
		}
	}

	e, ok := m.edgeBetween(a, b)
	if !ok {
		return &InsertionError{X: pb.X, Y: pb.Y, Reason: "constraint segment could not be forced"}
	}
	m.SetConstraint(e)
	return nil
}

// edgeBetween returns the half-edge from a to b, if the vertices are
// adjacent.
func (m *Mesh) edgeBetween(a, b VertexIndex) (EdgeIndex, bool) {
	start := m.verts[a].out
	e := start
	for {
		if _, to := m.EdgeVertices(e); to == b {
			return e, true
		}
		e = m.edges[m.edges[e].prev].twin
		if e == start {
			return NoEdge, false
		}
	}
}

// crossingEdges walks the faces pierced by the open segment a-b and returns
// the edges it properly crosses, in walk order.
func (m *Mesh) crossingEdges(a, b VertexIndex) ([]EdgeIndex, error) {
	pa, pb := m.verts[a], m.verts[b]
	onVertex := &InsertionError{X: pb.X, Y: pb.Y, Reason: "constraint segment touches another vertex"}

	// Find the incident face whose far edge the segment exits through.
	start := NoEdge
	outs := m.OutEdges(a, nil)
	for _, e := range outs {
		if m.edges[e].face == NoFace {
			continue
		}
		opp := m.edges[e].next
		_, p := m.EdgeVertices(e)
		q := m.edges[m.edges[e].prev].origin
		sp := m.orientVert(a, p, pb.X, pb.Y)
		sq := m.orientVert(a, q, pb.X, pb.Y)
		// A spoke collinear with a->b and pointing toward b runs through its
		// far endpoint (adjacency was ruled out by the caller).
		if sp == 0 && m.spokeTowards(a, p, pb) {
			return nil, onVertex
		}
		if sq == 0 && m.spokeTowards(a, q, pb) {
			return nil, onVertex
		}
		if sp > 0 && sq < 0 {
			start = opp
			break
		}
	}
	if start == NoEdge {
		return nil, onVertex
	}

	crossing := []EdgeIndex{start}
	// Entering each face through an edge directed left-to-right of a->b, the
	// apex decides which of the remaining two edges the segment exits by.
	cur := m.edges[start].twin
	for step := 0; step < len(m.edges); step++ {
		if m.edges[cur].face == NoFace {
			return nil, &InsertionError{X: pb.X, Y: pb.Y, Reason: "constraint segment leaves the triangulation"}
		}
		apex := m.edges[m.edges[cur].prev].origin
		if apex == b {
			return crossing, nil
		}
		s := orient2d(pa.X, pa.Y, pb.X, pb.Y, m.verts[apex].X, m.verts[apex].Y)
		if s == 0 {
			return nil, onVertex
		}
		next := m.edges[cur].prev
		if s > 0 {
			next = m.edges[cur].next
		}
		crossing = append(crossing, next)
		cur = m.edges[next].twin
	}
	return nil, &InsertionError{X: pb.X, Y: pb.Y, Reason: "constraint segment could not be traced"}
}

// spokeTowards reports whether the spoke a->p points in the direction of the
// target position. Callers have already established collinearity.
func (m *Mesh) spokeTowards(a, p VertexIndex, target Vertex) bool {
	va, vp := m.verts[a], m.verts[p]
	return (vp.X-va.X)*(target.X-va.X)+(vp.Y-va.Y)*(target.Y-va.Y) > 0
}

// flipIsConvex reports whether flipping e yields a valid diagonal: the two
// face apexes must see each other across the edge, i.e. the quad around e is
// strictly convex.
func (m *Mesh) flipIsConvex(e EdgeIndex) bool {
	t := m.edges[e].twin
	if m.edges[e].face == NoFace || m.edges[t].face == NoFace {
		return false
	}
	a, b := m.EdgeVertices(e)
	c := m.edges[m.edges[e].prev].origin
	d := m.edges[m.edges[t].prev].origin
	sa := m.orientVert(c, d, m.verts[a].X, m.verts[a].Y)
	sb := m.orientVert(c, d, m.verts[b].X, m.verts[b].Y)
	return (sa > 0 && sb < 0) || (sa < 0 && sb > 0)
}

// segmentsCross reports whether the open segments p1-p2 and p3-p4 properly
// intersect (no shared endpoints, no touching).
func segmentsCross(p1, p2, p3, p4 Vertex) bool {
	d1 := orient2d(p3.X, p3.Y, p4.X, p4.Y, p1.X, p1.Y)
	d2 := orient2d(p3.X, p3.Y, p4.X, p4.Y, p2.X, p2.Y)
	d3 := orient2d(p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y)
	d4 := orient2d(p1.X, p1.Y, p2.X, p2.Y, p4.X, p4.Y)
	if d1 == 0 || d2 == 0 || d3 == 0 || d4 == 0 {
		return false
	}
	return (d1 > 0) != (d2 > 0) && (d3 > 0) != (d4 > 0)
}
