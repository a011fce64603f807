package mesh

import "fmt"

// ShapeKind represents the supported linear cell shapes
type ShapeKind int

const (
	Triangle ShapeKind = iota
	Quad
	Tet
)

func (s ShapeKind) String() string {
	switch s {
	case Triangle:
		return "Triangle"
	case Quad:
		return "Quad"
	case Tet:
		return "Tet"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(s))
}

// Gmsh element type codes for the supported shapes
const (
	GmshTriangle = 2
	GmshQuad     = 3
	GmshTet      = 4
)

func (s ShapeKind) GmshCode() int {
	switch s {
	case Triangle:
		return GmshTriangle
	case Quad:
		return GmshQuad
	case Tet:
		return GmshTet
	}
	return -1
}

func (s ShapeKind) NumVertices() int {
	switch s {
	case Triangle:
		return 3
	case Quad, Tet:
		return 4
	}
	return 0
}

func (s ShapeKind) NumFaces() int {
	switch s {
	case Triangle:
		return 3
	case Quad, Tet:
		return 4
	}
	return 0
}

// Dimension is the topological dimension of the cell, which is also the number
// of vertices on each of its faces
func (s ShapeKind) Dimension() int {
	if s == Tet {
		return 3
	}
	return 2
}

// FaceVertexCount is the number of vertices on one face of the shape
func (s ShapeKind) FaceVertexCount() int { return s.Dimension() }

var (
	// Local vertex indices of each face
	triangleFaces = [][]int{{0, 1}, {1, 2}, {2, 0}}
	quadFaces     = [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	// Outward oriented for a positively oriented tet
	tetFaces = [][]int{
		{0, 2, 1}, // Face 0
		{0, 1, 3}, // Face 1
		{1, 2, 3}, // Face 2
		{0, 3, 2}, // Face 3
	}
	// Cyclic windows of length 3 over the vertex list
	tetFacesCyclic = [][]int{{0, 1, 2}, {1, 2, 3}, {2, 3, 0}, {3, 0, 1}}
)

// FaceTable returns the local vertex indices of each face of the shape
func (s ShapeKind) FaceTable(cyclicTet bool) [][]int {
	switch s {
	case Triangle:
		return triangleFaces
	case Quad:
		return quadFaces
	case Tet:
		if cyclicTet {
			return tetFacesCyclic
		}
		return tetFaces
	}
	return nil
}

// ShapeSet maps the Gmsh element type code to the shape it represents
type ShapeSet map[int]ShapeKind

// ShapesForDimension returns the shapes retained for a mesh of the given
// dimension
func ShapesForDimension(dim int) (ss ShapeSet, err error) {
	switch dim {
	case 2:
		ss = ShapeSet{GmshTriangle: Triangle, GmshQuad: Quad}
	case 3:
		ss = ShapeSet{GmshTet: Tet}
	default:
		err = Malformed("mesh dimension %d is not 2 or 3", dim)
	}
	return
}

// CheckDimensions validates the mesh and coordinate dimensions pair
func CheckDimensions(dim, coordDims int) error {
	if dim != 2 && dim != 3 {
		return Malformed("mesh dimension %d is not 2 or 3", dim)
	}
	if coordDims < dim || coordDims > 3 {
		return Malformed("coordinate dimension %d must be between %d and 3", coordDims, dim)
	}
	return nil
}
