package mesh

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedFace(f []int) []int {
	s := append([]int{}, f...)
	sort.Ints(s)
	return s
}

// checkNoDuplicateFaces fails when two distinct faces have the same vertex set
func checkNoDuplicateFaces(t *testing.T, faces [][]int) {
	t.Helper()
	seen := make(map[[3]int]int)
	for fID, f := range faces {
		var key [3]int
		key[2] = -1
		copy(key[:], sortedFace(f))
		if prev, exists := seen[key]; exists {
			t.Errorf("faces %d and %d share vertex set %v", prev, fID, f)
		}
		seen[key] = fID
	}
}

func TestDeriveFaces_TwoTriangles(t *testing.T) {
	// Two triangles sharing the edge between vertices 1 and 2
	elems := []Element{
		{Vertices: []int{0, 1, 2}, Shape: Triangle},
		{Vertices: []int{2, 1, 3}, Shape: Triangle},
	}
	faces, cellFaces, err := DeriveFaces(elems, 2, DeriveOptions{})
	require.NoError(t, err)
	if len(faces) != 5 {
		t.Fatalf("Expected 5 unique faces, got %d: %v", len(faces), faces)
	}
	assert.Equal(t, [][]int{{0, 1}, {1, 2}, {2, 0}, {1, 3}, {3, 2}}, faces)
	assert.Equal(t, []int{0, 1, 2}, cellFaces[0])
	assert.Equal(t, []int{1, 3, 4}, cellFaces[1])

	// The shared edge resolves to the same ID from both cells
	assert.Equal(t, cellFaces[0][1], cellFaces[1][0])
	checkNoDuplicateFaces(t, faces)
}

func TestDeriveFaces_SingleQuad(t *testing.T) {
	elems := []Element{{Vertices: []int{0, 1, 2, 3}, Shape: Quad}}
	faces, cellFaces, err := DeriveFaces(elems, 2, DeriveOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}, faces)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, cellFaces)
}

func TestDeriveFaces_Padding(t *testing.T) {
	// Mixed triangle and quad, rows are padded to the quad face count
	elems := []Element{
		{Vertices: []int{0, 1, 4}, Shape: Triangle},
		{Vertices: []int{1, 2, 3, 4}, Shape: Quad},
	}
	faces, cellFaces, err := DeriveFaces(elems, 2, DeriveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, MaxFacesPerCell(elems))
	for k, row := range cellFaces {
		require.Len(t, row, 4, "cell %d", k)
		nf := elems[k].Shape.NumFaces()
		for i, f := range row {
			if i < nf {
				assert.True(t, f >= 0 && f < len(faces), "cell %d slot %d holds %d", k, i, f)
			} else {
				assert.Equal(t, NoFace, f, "cell %d slot %d", k, i)
			}
		}
	}
	assert.Len(t, faces, 6)
	checkNoDuplicateFaces(t, faces)
}

func TestDeriveFaces_TetPair(t *testing.T) {
	elems := []Element{
		{Vertices: []int{0, 1, 2, 3}, Shape: Tet},
		{Vertices: []int{1, 2, 3, 4}, Shape: Tet},
	}
	for _, opts := range []DeriveOptions{{}, {CyclicTetFaces: true}} {
		faces, cellFaces, err := DeriveFaces(elems, 3, opts)
		require.NoError(t, err)
		assert.Len(t, faces, 7, "cyclic = %v", opts.CyclicTetFaces)
		checkNoDuplicateFaces(t, faces)

		// Exactly one face ID appears in both rows
		var shared []int
		for _, f0 := range cellFaces[0] {
			for _, f1 := range cellFaces[1] {
				if f0 == f1 {
					shared = append(shared, f0)
				}
			}
		}
		require.Len(t, shared, 1)
		assert.Equal(t, []int{1, 2, 3}, sortedFace(faces[shared[0]]))
	}
	{ // Both face rules give the same face sets for a single tet
		one := elems[:1]
		f1, _, err := DeriveFaces(one, 3, DeriveOptions{})
		require.NoError(t, err)
		f2, _, err := DeriveFaces(one, 3, DeriveOptions{CyclicTetFaces: true})
		require.NoError(t, err)
		set := func(faces [][]int) (s [][]int) {
			for _, f := range faces {
				s = append(s, sortedFace(f))
			}
			sort.Slice(s, func(i, j int) bool {
				for k := range s[i] {
					if s[i][k] != s[j][k] {
						return s[i][k] < s[j][k]
					}
				}
				return false
			})
			return
		}
		assert.Equal(t, set(f1), set(f2))
		assert.Equal(t, []int{0, 2, 1}, f1[0])
		assert.Equal(t, []int{0, 1, 2}, f2[0])
	}
}

func TestDeriveFaces_RoundTrip(t *testing.T) {
	// A 2x2 structured quad patch split into triangles on one side
	elems := []Element{
		{Vertices: []int{0, 1, 4, 3}, Shape: Quad},
		{Vertices: []int{1, 2, 5, 4}, Shape: Quad},
		{Vertices: []int{3, 4, 7}, Shape: Triangle},
		{Vertices: []int{3, 7, 6}, Shape: Triangle},
		{Vertices: []int{4, 5, 8, 7}, Shape: Quad},
	}
	faces, cellFaces, err := DeriveFaces(elems, 2, DeriveOptions{})
	require.NoError(t, err)
	checkNoDuplicateFaces(t, faces)
	for k, el := range elems {
		for lf, local := range el.Shape.FaceTable(false) {
			want := sortedFace([]int{el.Vertices[local[0]], el.Vertices[local[1]]})
			got := sortedFace(faces[cellFaces[k][lf]])
			assert.Equal(t, want, got, "cell %d face %d", k, lf)
		}
	}
	// 18 candidate faces, 5 of them interior and shared
	assert.Len(t, faces, 13)
}

func TestDeriveFaces_Errors(t *testing.T) {
	{ // 2D cell in a 3D mesh
		elems := []Element{
			{Vertices: []int{0, 1, 2, 3}, Shape: Tet},
			{Vertices: []int{0, 1, 2}, Shape: Triangle},
		}
		_, _, err := DeriveFaces(elems, 3, DeriveOptions{})
		assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
	}
	{ // Wrong vertex count
		elems := []Element{{Vertices: []int{0, 1}, Shape: Triangle}}
		_, _, err := DeriveFaces(elems, 2, DeriveOptions{})
		assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
	}
	{
		_, _, err := DeriveFaces(nil, 4, DeriveOptions{})
		assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
	}
	{ // No cells is not an error
		faces, cellFaces, err := DeriveFaces(nil, 2, DeriveOptions{})
		require.NoError(t, err)
		assert.Empty(t, faces)
		assert.Empty(t, cellFaces)
	}
}
