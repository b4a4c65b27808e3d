package tin

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lasrast/internal/geom"
	"github.com/banshee-data/lasrast/internal/las"
)

type fakeSource struct {
	pts []las.Point
	err error
	i   int
}

func (s *fakeSource) Next() (las.Point, error) {
	if s.i >= len(s.pts) {
		if s.err != nil {
			return las.Point{}, s.err
		}
		return las.Point{}, io.EOF
	}
	p := s.pts[s.i]
	s.i++
	return p, nil
}

func testBounds() geom.Bounds {
	return geom.Bounds{
		Min: geom.Vector{X: 0, Y: 0, Z: -math.MaxFloat64},
		Max: geom.Vector{X: 10, Y: 10, Z: math.MaxFloat64},
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("watermark spans the raw stream", func(t *testing.T) {
		t.Parallel()
		// The high-noise return holds the maximum elevation. It must be
		// dropped from the build input but still seed the watermark.
		src := &fakeSource{pts: []las.Point{
			{X: 1, Y: 1, Z: 50, Classification: las.ClassHighNoise},
			{X: 2, Y: 2, Z: 1, Classification: las.ClassGround},
		}}
		pts, watermark, err := Collect(src, testBounds(), nil, las.VarZ)
		require.NoError(t, err)
		require.Len(t, pts, 1)
		assert.Equal(t, 2.0, pts[0].X)
		assert.Equal(t, 50.0, watermark)
	})

	t.Run("class filter", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{pts: []las.Point{
			{X: 1, Y: 1, Z: 1, Classification: las.ClassGround},
			{X: 2, Y: 2, Z: 2, Classification: las.ClassLowVegetation},
		}}
		ground := uint8(las.ClassGround)
		pts, _, err := Collect(src, testBounds(), &ground, las.VarZ)
		require.NoError(t, err)
		require.Len(t, pts, 1)
		assert.Equal(t, 1.0, pts[0].Z)
	})

	t.Run("out of extent points are clipped", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{pts: []las.Point{
			{X: 50, Y: 50, Z: 99},
			{X: 5, Y: 5, Z: 1},
		}}
		pts, watermark, err := Collect(src, testBounds(), nil, las.VarZ)
		require.NoError(t, err)
		require.Len(t, pts, 1)
		assert.Equal(t, 5.0, pts[0].X)
		// Clipped points still raise the watermark.
		assert.Equal(t, 99.0, watermark)
	})

	t.Run("value follows the selected variable", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{pts: []las.Point{
			{X: 3, Y: 4, Z: 5, Intensity: 1234},
		}}
		pts, _, err := Collect(src, testBounds(), nil, las.VarIntensity)
		require.NoError(t, err)
		require.Len(t, pts, 1)
		assert.Equal(t, 1234.0, pts[0].Value)
		assert.Equal(t, 5.0, pts[0].Z)
	})

	t.Run("source error aborts", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("read failed")
		src := &fakeSource{pts: []las.Point{{X: 1, Y: 1, Z: 1}}, err: boom}
		_, _, err := Collect(src, testBounds(), nil, las.VarZ)
		require.ErrorIs(t, err, boom)
	})

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()
		pts, watermark, err := Collect(&fakeSource{}, testBounds(), nil, las.VarZ)
		require.NoError(t, err)
		assert.Empty(t, pts)
		assert.Equal(t, -math.MaxFloat64, watermark)
	})
}

func defaultParams() BuildParams {
	return BuildParams{FreezeDistance: 100, InsertionBuffer: 100}
}

func TestBuildValidatesParams(t *testing.T) {
	t.Parallel()

	_, err := Build(nil, 0, BuildParams{FreezeDistance: 0, InsertionBuffer: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "freeze distance")

	_, err = Build(nil, 0, BuildParams{FreezeDistance: 1, InsertionBuffer: -2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insertion buffer")
}

func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()
	m, err := Build(nil, -math.MaxFloat64, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumVertices())
}

func TestBuildSquare(t *testing.T) {
	t.Parallel()
	pts := []Point{
		{X: 0, Y: 0, Z: 7, Value: 7},
		{X: 10, Y: 0, Z: 7, Value: 7},
		{X: 0, Y: 10, Z: 7, Value: 7},
		{X: 10, Y: 10, Z: 7, Value: 7},
	}
	m, err := Build(pts, 7, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumVertices())
	checkMesh(t, m)
	checkDelaunay(t, m)
}

func TestBuildReplacesCoincidentBelowWatermark(t *testing.T) {
	t.Parallel()
	// The later, deeper return at (0, 0) clears the watermark test
	// (-25 - -20 = -5 > -20) and replaces the earlier vertex.
	pts := []Point{
		{X: 1, Y: 1, Z: -5, Value: -5},
		{X: 0, Y: 0, Z: -20, Value: -20},
		{X: 0, Y: 0, Z: -25, Value: -25},
	}
	m, err := Build(pts, -5, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumVertices())
	assert.Equal(t, -25.0, m.ValueAt(0, 0, -9999))
}

func TestBuildSkipsCoincidentNearWatermark(t *testing.T) {
	t.Parallel()
	// 9 - 10 = -1 is not above the watermark of 10, so the second return at
	// the same position is discarded.
	pts := []Point{
		{X: 0, Y: 0, Z: 10, Value: 10},
		{X: 0, Y: 0, Z: 9, Value: 9},
	}
	m, err := Build(pts, 10, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, 1, m.NumVertices())
	assert.Equal(t, 10.0, m.ValueAt(0, 0, -9999))
}

func TestBuildFreezesShortEdges(t *testing.T) {
	t.Parallel()

	// A unit grid with a steep monotone descent: by the time each point is
	// inserted the earlier region is far above the watermark, so its short
	// edges freeze into constraints.
	var pts []Point
	for j := 0; j < 8; j++ {
		for i := 0; i < 8; i++ {
			z := -5 * float64(j*8+i)
			pts = append(pts, Point{X: float64(i), Y: float64(j), Z: z, Value: z})
		}
	}

	const freeze = 2.0
	m, err := Build(pts, 0, BuildParams{FreezeDistance: freeze, InsertionBuffer: 1})
	require.NoError(t, err)
	checkMesh(t, m)

	frozen := 0
	for ei := range m.edges {
		e := EdgeIndex(ei)
		if !m.IsConstraint(e) || e > m.edges[e].twin {
			continue
		}
		frozen++
		assert.LessOrEqual(t, m.EdgeLength2(e), freeze*freeze,
			"constraint edge %d longer than the freeze distance", ei)
	}
	assert.Positive(t, frozen, "descending sweep should have frozen edges")
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	base := make([]Point, 200)
	watermark := -math.MaxFloat64
	for i := range base {
		p := Point{
			X: rng.Float64() * 100,
			Y: rng.Float64() * 100,
			Z: rng.Float64() * 50,
		}
		p.Value = p.Z
		base[i] = p
		watermark = math.Max(watermark, p.Z)
	}

	build := func() *Mesh {
		in := make([]Point, len(base))
		copy(in, base)
		m, err := Build(in, watermark, BuildParams{FreezeDistance: 10, InsertionBuffer: 5})
		require.NoError(t, err)
		return m
	}

	m1 := build()
	m2 := build()

	b := geom.Bounds{Max: geom.Vector{X: 100, Y: 100}}
	g1 := Sample(m1, b, 10, -9999)
	g2 := Sample(m2, b, 10, -9999)
	if diff := cmp.Diff(g1, g2); diff != "" {
		t.Errorf("identical inputs produced different rasters (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(m1.verts, m2.verts, cmp.AllowUnexported(Vertex{})); diff != "" {
		t.Errorf("identical inputs produced different vertex arenas (-first +second):\n%s", diff)
	}
	assert.Equal(t, m1.NumFaces(), m2.NumFaces())
}
