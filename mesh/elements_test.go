package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapes(t *testing.T) {
	assert.Equal(t, 3, Triangle.NumFaces())
	assert.Equal(t, 4, Quad.NumFaces())
	assert.Equal(t, 4, Tet.NumFaces())
	assert.Equal(t, 3, Tet.FaceVertexCount())
	assert.Equal(t, 2, Quad.FaceVertexCount())
	assert.Equal(t, GmshTet, Tet.GmshCode())
	assert.Equal(t, "Quad", Quad.String())
	for _, s := range []ShapeKind{Triangle, Quad, Tet} {
		for _, cyclic := range []bool{false, true} {
			table := s.FaceTable(cyclic)
			assert.Len(t, table, s.NumFaces())
			for _, f := range table {
				assert.Len(t, f, s.FaceVertexCount())
			}
		}
	}
	_, err := ShapesForDimension(1)
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.NoError(t, CheckDimensions(2, 3))
	assert.Error(t, CheckDimensions(3, 2))
	assert.Error(t, CheckDimensions(2, 4))
}

func TestElementFilter(t *testing.T) {
	ef, err := NewElementFilter(2)
	require.NoError(t, err)

	recs := []ElementRecord{
		{ID: 1, ShapeCode: 15, Tags: []int{1, 1}, VertexIDs: []int{10}},            // Point
		{ID: 2, ShapeCode: 1, Tags: []int{1, 1}, VertexIDs: []int{10, 11}},         // Line
		{ID: 3, ShapeCode: 2, Tags: []int{2, 2}, VertexIDs: []int{10, 11, 12}},     // Triangle
		{ID: 4, ShapeCode: 3, Tags: []int{2, 2}, VertexIDs: []int{11, 13, 14, 12}}, // Quad
		{ID: 5, ShapeCode: 4, Tags: []int{3, 3}, VertexIDs: []int{10, 11, 12, 13}}, // Tet, wrong dimension
	}
	var kept []RetainedElement
	for _, rec := range recs {
		re, keep, err := ef.Classify(rec)
		require.NoError(t, err)
		if keep {
			kept = append(kept, re)
		}
	}
	assert.Equal(t, 3, ef.Skipped)
	assert.Equal(t, 2, ef.Retained)
	require.Len(t, kept, 2)
	assert.Equal(t, Triangle, kept[0].Shape)
	assert.Equal(t, Quad, kept[1].Shape)

	vt, err := BuildVertexTable([]NodeRecord{
		{ID: 10, Coords: []float64{0, 0}},
		{ID: 11, Coords: []float64{1, 0}},
		{ID: 12, Coords: []float64{0, 1}},
		{ID: 13, Coords: []float64{2, 0}},
		{ID: 14, Coords: []float64{2, 1}},
	}, 2)
	require.NoError(t, err)
	elems, err := TranslateAll(kept, vt.IDs)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, elems[0].Vertices)
	assert.Equal(t, []int{1, 3, 4, 2}, elems[1].Vertices)

	{ // Unknown vertex
		re := RetainedElement{ElementRecord: ElementRecord{ID: 9, VertexIDs: []int{10, 11, 99}}, Shape: Triangle}
		_, err = re.Translate(vt.IDs)
		assert.True(t, errors.Is(err, ErrMalformedInput))
	}
	{ // Retained shape with the wrong vertex count
		_, _, err = ef.Classify(ElementRecord{ID: 6, ShapeCode: 3, VertexIDs: []int{1, 2, 3}})
		assert.True(t, errors.Is(err, ErrMalformedInput))
	}
	{
		_, _, err = ef.Classify(ElementRecord{ID: 7, ShapeCode: 2, VertexIDs: []int{1, -2, 3}})
		assert.True(t, errors.Is(err, ErrMalformedInput))
	}
	{ // 3D keeps only tets
		ef3, err := NewElementFilter(3)
		require.NoError(t, err)
		_, keep, err := ef3.Classify(recs[2])
		require.NoError(t, err)
		assert.False(t, keep)
		_, keep, err = ef3.Classify(recs[4])
		require.NoError(t, err)
		assert.True(t, keep)
	}
}
