package tin

// LocateKind tags the result of locating a planar position against the
// triangulation.
type LocateKind int

const (
	// OnFace: the position is strictly inside Face.
	OnFace LocateKind = iota
	// OnVertex: the position coincides exactly with Vertex.
	OnVertex
	// OnEdge: the position lies in the interior of Edge.
	OnEdge
	// Outside: no containing face (beyond the bounding triangle, or the mesh
	// has no faces).
	Outside
)

// Location is the tagged locate result. Exactly the fields implied by Kind
// are valid.
type Location struct {
	Kind   LocateKind
	Face   FaceIndex
	Edge   EdgeIndex
	Vertex VertexIndex
}

// Locate finds the position (x, y) in the triangulation by an orientation
// walk from the last touched face. The walk is deterministic; if it fails to
// settle within a step budget (possible only under extreme numeric
// degeneracy) it falls back to a linear scan over all faces.
func (m *Mesh) Locate(x, y float64) Location {
	if len(m.faces) == 0 {
		return Location{Kind: Outside, Face: NoFace, Edge: NoEdge, Vertex: NoVertex}
	}

	f := m.hint
	if f < 0 || int(f) >= len(m.faces) {
		f = 0
	}

	maxSteps := 3*len(m.faces) + 8
	for step := 0; step < maxSteps; step++ {
		loc, moved := m.classify(f, x, y)
		if !moved {
			m.hint = f
			return loc
		}
		if loc.Face == NoFace {
			// Crossed the boundary cycle: outside the bounding triangle.
			return Location{Kind: Outside, Face: NoFace, Edge: NoEdge, Vertex: NoVertex}
		}
		f = loc.Face
	}

	// Walk budget exhausted; scan.
	for fi := range m.faces {
		if loc, moved := m.classify(FaceIndex(fi), x, y); !moved {
			m.hint = FaceIndex(fi)
			return loc
		}
	}
	return Location{Kind: Outside, Face: NoFace, Edge: NoEdge, Vertex: NoVertex}
}

// classify tests (x, y) against face f. When the point lies beyond one of the
// face's edges it returns moved=true with Face set to the neighbor across
// that edge (NoFace at the boundary). Otherwise it returns the final
// location: interior, on an edge, or on a vertex.
func (m *Mesh) classify(f FaceIndex, x, y float64) (Location, bool) {
	es := m.faceEdges(f)

	var zero [2]EdgeIndex
	zeros := 0
	for _, e := range es {
		a, b := m.edges[e].origin, m.edges[m.edges[e].next].origin
		side := m.orientVert(a, b, x, y)
		if side < 0 {
			return Location{Face: m.edges[m.edges[e].twin].face}, true
		}
		if side == 0 {
			if zeros < 2 {
				zero[zeros] = e
			}
			zeros++
		}
	}

	switch zeros {
	case 0:
		return Location{Kind: OnFace, Face: f, Edge: NoEdge, Vertex: NoVertex}, false
	case 1:
		return Location{Kind: OnEdge, Face: f, Edge: zero[0], Vertex: NoVertex}, false
	default:
		// Collinear with two edges: the point is their shared corner.
		v := m.sharedVertex(zero[0], zero[1])
		return Location{Kind: OnVertex, Face: f, Edge: NoEdge, Vertex: v}, false
	}
}

// sharedVertex returns the endpoint common to two edges of one face.
func (m *Mesh) sharedVertex(e0, e1 EdgeIndex) VertexIndex {
	a0, b0 := m.EdgeVertices(e0)
	a1, b1 := m.EdgeVertices(e1)
	switch {
	case a0 == a1 || a0 == b1:
		return a0
	case b0 == a1 || b0 == b1:
		return b0
	default:
		return NoVertex
	}
}
