package mesh

import (
	"github.com/notargets/fvmesh/types"
)

// NoFace pads cell face rows past the cell's own face count
const NoFace = -1

type DeriveOptions struct {
	// CyclicTetFaces takes tet faces as the cyclic vertex windows {0,1,2},
	// {1,2,3}, {2,3,0}, {3,0,1} instead of the outward oriented face table.
	// Both give the same faces, only the stored vertex order differs.
	CyclicTetFaces bool
}

// MaxFacesPerCell is the largest face count among the shapes present in elems
func MaxFacesPerCell(elems []Element) (maxFaces int) {
	for _, el := range elems {
		if nf := el.Shape.NumFaces(); nf > maxFaces {
			maxFaces = nf
		}
	}
	return
}

/*
DeriveFaces finds the unique faces of a list of elements and the faces of each
element.
Faces are numbered in the order they are first seen and keep the vertex order
of that first appearance. Two candidate faces are the same face when their
sorted vertex lists are equal, so neighboring cells with opposite winding
resolve to one FaceID.
Each row of cellFaces has the length of the largest face count present, with
NoFace in the slots past the element's own face count.
*/
func DeriveFaces(elems []Element, faceLength int,
	opts DeriveOptions) (faces, cellFaces [][]int, err error) {
	if faceLength < 2 || faceLength > types.MaxFaceVertices {
		err = Malformed("face length %d is out of range", faceLength)
		return
	}
	var (
		maxFaces = MaxFacesPerCell(elems)
		faceMap  = make(map[types.FaceKey]int)
		slots    = make([]int, len(elems)*maxFaces)
		scratch  = make([]int, faceLength)
		key      types.FaceKey
	)
	cellFaces = make([][]int, len(elems))
	for k, el := range elems {
		if el.Shape.FaceVertexCount() != faceLength {
			err = Malformed("cell %d is a %s with %d vertex faces, mesh faces have %d",
				k, el.Shape, el.Shape.FaceVertexCount(), faceLength)
			return nil, nil, err
		}
		if len(el.Vertices) != el.Shape.NumVertices() {
			err = Malformed("cell %d is a %s with %d vertices", k, el.Shape, len(el.Vertices))
			return nil, nil, err
		}
		row := slots[k*maxFaces : (k+1)*maxFaces : (k+1)*maxFaces]
		for i := range row {
			row[i] = NoFace
		}
		for lf, local := range el.Shape.FaceTable(opts.CyclicTetFaces) {
			for i, lv := range local {
				scratch[i] = el.Vertices[lv]
			}
			if key, err = types.NewFaceKey(scratch); err != nil {
				err = Malformed("cell %d: %s", k, err.Error())
				return nil, nil, err
			}
			faceID, exists := faceMap[key]
			if !exists {
				faceID = len(faces)
				face := make([]int, faceLength)
				copy(face, scratch)
				faces = append(faces, face)
				faceMap[key] = faceID
			}
			row[lf] = faceID
		}
		cellFaces[k] = row
	}
	return
}
