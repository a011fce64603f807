package types

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxFaceVertices is the largest face that can be keyed, the triangular facet
// of a tetrahedron
const MaxFaceVertices = 3

/*
FaceKey is an order independent identity for a face. The vertex indices are
stored in ascending order and the unused trailing slots hold -1, so two faces
built from the same vertex set compare equal with == and can be used directly
as map keys.
A 3D face between vertices [4 0 2] is always stored as [0 2 4], a 2D face
between [7 3] as [3 7 -1].
*/
type FaceKey [MaxFaceVertices]int

func NewFaceKey(verts []int) (key FaceKey, err error) {
	if len(verts) < 2 || len(verts) > MaxFaceVertices {
		err = fmt.Errorf("unable to key a face with %d vertices, need 2 to %d",
			len(verts), MaxFaceVertices)
		return
	}
	for i := range key {
		key[i] = -1
	}
	for i, v := range verts {
		if v < 0 {
			err = fmt.Errorf("unable to key face %v, vertex %d is negative", verts, v)
			return
		}
		// Insertion sort, at most three entries
		j := i
		for ; j > 0 && key[j-1] > v; j-- {
			key[j] = key[j-1]
		}
		key[j] = v
	}
	return
}

// Len is the number of vertices in the face
func (fk FaceKey) Len() (n int) {
	for _, v := range fk {
		if v < 0 {
			break
		}
		n++
	}
	return
}

// Vertices returns the sorted vertex indices of the face
func (fk FaceKey) Vertices() (verts []int) {
	verts = make([]int, fk.Len())
	copy(verts, fk[:])
	return
}

func (fk FaceKey) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range fk.Vertices() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(']')
	return b.String()
}
