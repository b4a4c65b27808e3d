package tin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkMesh verifies the structural invariants of the half-edge arena: twin
// symmetry, three-cycles around every face, shared constraint flags, and
// counter-clockwise winding of every interior face.
func checkMesh(t *testing.T, m *Mesh) {
	t.Helper()

	for ei := range m.edges {
		e := EdgeIndex(ei)
		rec := m.edges[e]
		require.Equal(t, e, m.edges[rec.twin].twin, "edge %d: twin of twin", ei)
		require.Equal(t, e, m.edges[rec.next].prev, "edge %d: next/prev link", ei)
		require.Equal(t, rec.face, m.edges[rec.next].face, "edge %d: face continuity", ei)
		require.Equal(t, rec.constraint, m.edges[rec.twin].constraint, "edge %d: constraint flag split from twin", ei)
	}

	for fi := range m.faces {
		f := FaceIndex(fi)
		es := m.faceEdges(f)
		require.Equal(t, es[0], m.edges[es[2]].next, "face %d: edges do not close a 3-cycle", fi)
		for _, e := range es {
			require.Equal(t, f, m.edges[e].face, "face %d: edge %d points elsewhere", fi, e)
		}

		vs := m.FaceVertices(f)
		va, vb, vc := m.verts[vs[0]], m.verts[vs[1]], m.verts[vs[2]]
		require.Positive(t, orient2d(va.X, va.Y, vb.X, vb.Y, vc.X, vc.Y), "face %d: not CCW", fi)
	}

	for vi := range m.verts {
		out := m.verts[vi].out
		require.NotEqual(t, NoEdge, out, "vertex %d: no outgoing edge", vi)
		require.Equal(t, VertexIndex(vi), m.edges[out].origin, "vertex %d: out edge originates elsewhere", vi)
	}
}

// checkDelaunay verifies the empty-circumcircle property on every
// non-constraint edge with two interior faces.
func checkDelaunay(t *testing.T, m *Mesh) {
	t.Helper()
	for ei := range m.edges {
		e := EdgeIndex(ei)
		rec := m.edges[e]
		if rec.constraint || rec.face == NoFace || m.edges[rec.twin].face == NoFace {
			continue
		}
		a := rec.origin
		b := m.edges[rec.twin].origin
		c := m.edges[rec.prev].origin
		d := m.edges[m.edges[rec.twin].prev].origin
		assert.False(t, m.inCircumcircle(a, b, c, d), "edge %d (%d-%d) fails the incircle test", ei, a, b)
	}
}

func TestNewMesh(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	assert.Equal(t, 0, m.NumVertices())
	assert.Equal(t, 1, m.NumFaces())
	checkMesh(t, m)

	for v := VertexIndex(0); v < superVerts; v++ {
		assert.True(t, m.IsSuperVertex(v))
	}
	assert.False(t, m.IsSuperVertex(superVerts))
	assert.True(t, m.IsOuterFace(0))
}

func TestInsertInFace(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	v, err := m.Insert(Point{X: 5, Y: 5, Z: 3, Value: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, m.NumVertices())
	assert.Equal(t, 3, m.NumFaces())
	checkMesh(t, m)

	loc := m.Locate(5, 5)
	require.Equal(t, OnVertex, loc.Kind)
	assert.Equal(t, v, loc.Vertex)
	assert.Equal(t, 3.0, m.Vertex(v).Value)
}

func TestInsertSequence(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	pts := []Point{
		{X: 2, Y: 3, Z: 9, Value: 9},
		{X: 7, Y: 1, Z: 8, Value: 8},
		{X: 4, Y: 8, Z: 7, Value: 7},
		{X: 9, Y: 6, Z: 6, Value: 6},
		{X: 1, Y: 7, Z: 5, Value: 5},
	}
	for i, p := range pts {
		_, err := m.Insert(p)
		require.NoError(t, err, "point %d", i)
		checkMesh(t, m)
		checkDelaunay(t, m)
	}

	// Each in-face insertion adds two faces.
	assert.Equal(t, len(pts), m.NumVertices())
	assert.Equal(t, 1+2*len(pts), m.NumFaces())
}

func TestInsertOnEdge(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	for _, p := range []Point{
		{X: 0, Y: 0, Z: 1, Value: 1},
		{X: 10, Y: 0, Z: 1, Value: 1},
		{X: 5, Y: 8, Z: 1, Value: 1},
	} {
		_, err := m.Insert(p)
		require.NoError(t, err)
	}

	loc := m.Locate(5, 0)
	require.Equal(t, OnEdge, loc.Kind)
	a, b := m.EdgeVertices(loc.Edge)
	assert.False(t, m.IsSuperVertex(a))
	assert.False(t, m.IsSuperVertex(b))

	v, err := m.Insert(Point{X: 5, Y: 0, Z: 2, Value: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumVertices())
	checkMesh(t, m)
	checkDelaunay(t, m)

	got := m.Locate(5, 0)
	require.Equal(t, OnVertex, got.Kind)
	assert.Equal(t, v, got.Vertex)
}

func TestInsertOnConstraintEdgeFails(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	for _, p := range []Point{
		{X: 0, Y: 0, Z: 1, Value: 1},
		{X: 10, Y: 0, Z: 1, Value: 1},
		{X: 5, Y: 8, Z: 1, Value: 1},
	} {
		_, err := m.Insert(p)
		require.NoError(t, err)
	}

	loc := m.Locate(5, 0)
	require.Equal(t, OnEdge, loc.Kind)
	m.SetConstraint(loc.Edge)
	assert.True(t, m.IsConstraint(loc.Edge))
	assert.True(t, m.IsConstraint(m.edges[loc.Edge].twin))

	_, err := m.Insert(Point{X: 5, Y: 0, Z: 2, Value: 2})
	var insErr *InsertionError
	require.ErrorAs(t, err, &insErr)
	assert.Contains(t, insErr.Error(), "constraint")
}

func TestInsertReplacesCoincidentVertex(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	v, err := m.Insert(Point{X: 5, Y: 5, Z: 1, Value: 1})
	require.NoError(t, err)

	v2, err := m.Insert(Point{X: 5, Y: 5, Z: 2, Value: 2})
	require.NoError(t, err)

	assert.Equal(t, v, v2)
	assert.Equal(t, 1, m.NumVertices())
	assert.Equal(t, 2.0, m.Vertex(v).Z)
	assert.Equal(t, 2.0, m.Vertex(v).Value)
	// Planar position never moves.
	assert.Equal(t, 5.0, m.Vertex(v).X)
}

func TestInsertOutsideBoundingTriangle(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	_, err := m.Insert(Point{X: 1e9, Y: 1e9})
	var insErr *InsertionError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 1e9, insErr.X)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	newTriangle := func() *Mesh {
		m := NewMesh(0, 0, 10, 10)
		for _, p := range []Point{
			{X: 0, Y: 0},
			{X: 10, Y: 0},
			{X: 5, Y: 8},
		} {
			_, err := m.Insert(p)
			require.NoError(t, err)
		}
		return m
	}

	t.Run("interior point is on a face", func(t *testing.T) {
		t.Parallel()
		m := newTriangle()
		loc := m.Locate(5, 3)
		require.Equal(t, OnFace, loc.Kind)
		assert.False(t, m.IsOuterFace(loc.Face))
	})

	t.Run("exact vertex position", func(t *testing.T) {
		t.Parallel()
		m := newTriangle()
		loc := m.Locate(10, 0)
		require.Equal(t, OnVertex, loc.Kind)
		got := m.Vertex(loc.Vertex)
		assert.Equal(t, 10.0, got.X)
		assert.Equal(t, 0.0, got.Y)
	})

	t.Run("point on an edge interior", func(t *testing.T) {
		t.Parallel()
		m := newTriangle()
		loc := m.Locate(5, 0)
		require.Equal(t, OnEdge, loc.Kind)
	})

	t.Run("beyond the bounding triangle", func(t *testing.T) {
		t.Parallel()
		m := newTriangle()
		assert.Equal(t, Outside, m.Locate(1e9, 1e9).Kind)
	})

	t.Run("mesh with no faces", func(t *testing.T) {
		t.Parallel()
		m := &Mesh{}
		assert.Equal(t, Outside, m.Locate(0, 0).Kind)
	})
}

func TestEdgeHandleSurvivesFlip(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)

	// A thin quad whose first diagonal is not Delaunay, forcing a flip on the
	// final insertion.
	for _, p := range []Point{
		{X: 0, Y: 5},
		{X: 10, Y: 5},
		{X: 5, Y: 6},
		{X: 5, Y: 4},
	} {
		_, err := m.Insert(p)
		require.NoError(t, err)
	}
	checkMesh(t, m)
	checkDelaunay(t, m)

	// Every edge handle must still resolve to a valid record with live
	// endpoints. Flips rewire in place, never free.
	for ei := range m.edges {
		a, b := m.EdgeVertices(EdgeIndex(ei))
		require.GreaterOrEqual(t, int(a), 0)
		require.Less(t, int(b), len(m.verts))
		assert.Positive(t, m.EdgeLength2(EdgeIndex(ei)))
	}
}

func TestOutEdges(t *testing.T) {
	t.Parallel()
	m := NewMesh(0, 0, 10, 10)
	v, err := m.Insert(Point{X: 5, Y: 5})
	require.NoError(t, err)

	out := m.OutEdges(v, nil)
	// Splitting one face around the new vertex links it to the three corners.
	require.Len(t, out, 3)
	for _, e := range out {
		origin, _ := m.EdgeVertices(e)
		assert.Equal(t, v, origin)
	}
}
