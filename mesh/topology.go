package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Topology is the finite volume view of a mesh, or of one partition of it
type Topology struct {
	Dimensions      int
	CoordDimensions int

	// Geometry
	Coords    *mat.Dense // [coordDimensions][numVertices], nil for an empty mesh
	VertexIDs []int      // File vertex ID of each vertex index

	// Connectivity
	Faces           [][]int // [numFaces][faceLength] vertex indices, first seen order
	CellFaces       [][]int // [numCells][maxFacesPerCell] face IDs, NoFace padded
	CellShapes      []ShapeKind
	MaxFacesPerCell int

	// Partition data, PartitionID is 0 for a serial mesh
	PartitionID    int
	NumOwned       int   // Cells [0,NumOwned) are owned, the rest are ghosts
	OwnedGlobalIDs []int // Global cell ID of each owned cell
	GhostGlobalIDs []int // Global cell ID of each ghost cell
	IDOffset       int
	HasIDOffset    bool
}

// NewTopology derives the faces of a serial mesh
func NewTopology(dim, coordDims int, vt *VertexTable, elems []Element,
	opts DeriveOptions) (t *Topology, err error) {
	if err = CheckDimensions(dim, coordDims); err != nil {
		return
	}
	if vt.Coords != nil && vt.CoordDims() != coordDims {
		err = Malformed("vertex table has %d coordinates per vertex, need %d",
			vt.CoordDims(), coordDims)
		return
	}
	t = &Topology{
		Dimensions:      dim,
		CoordDimensions: coordDims,
		Coords:          vt.Coords,
		VertexIDs:       vt.IDs.IDs(),
		CellShapes:      make([]ShapeKind, len(elems)),
		MaxFacesPerCell: MaxFacesPerCell(elems),
		NumOwned:        len(elems),
	}
	for k, el := range elems {
		t.CellShapes[k] = el.Shape
	}
	if t.Faces, t.CellFaces, err = DeriveFaces(elems, dim, opts); err != nil {
		t = nil
		return
	}
	return
}

// NewPartitionTopology derives the faces of the local cells of one partition,
// owned cells first
func NewPartitionTopology(dim, coordDims int, vt *VertexTable, lc *LocalCells,
	opts DeriveOptions) (t *Topology, err error) {
	var elems []Element
	if elems, err = TranslateAll(lc.Cells(), vt.IDs); err != nil {
		return
	}
	if t, err = NewTopology(dim, coordDims, vt, elems, opts); err != nil {
		return
	}
	t.PartitionID = lc.PartitionID
	t.NumOwned = len(lc.Owned)
	t.OwnedGlobalIDs = append([]int{}, lc.OwnedGlobalIDs...)
	t.GhostGlobalIDs = append([]int{}, lc.GhostGlobalIDs...)
	t.IDOffset, t.HasIDOffset = lc.IDOffset, lc.HasIDOffset
	return
}

func (t *Topology) NumVertices() int { return len(t.VertexIDs) }
func (t *Topology) NumFaces() int    { return len(t.Faces) }
func (t *Topology) NumCells() int    { return len(t.CellFaces) }
func (t *Topology) NumGhosts() int   { return t.NumCells() - t.NumOwned }

// CoordinateArray returns the coordinates as [coordDimensions][numVertices]
func (t *Topology) CoordinateArray() (xyz [][]float64) {
	xyz = make([][]float64, t.CoordDimensions)
	for i := range xyz {
		if t.Coords == nil {
			xyz[i] = []float64{}
			continue
		}
		xyz[i] = mat.Row(nil, i, t.Coords)
	}
	return
}

/*
FaceVertexArray returns the face vertices in the layout the solver mesh
consumes: component major, [faceLength][numFaces], with the component axis
reversed, so row k holds vertex faceLength-1-k of every face.
*/
func (t *Topology) FaceVertexArray() [][]int {
	return reverseComponents(t.Faces, t.Dimensions)
}

// CellFaceArray returns the cell faces as [maxFacesPerCell][numCells], with
// the same reversed component axis as FaceVertexArray
func (t *Topology) CellFaceArray() [][]int {
	return reverseComponents(t.CellFaces, t.MaxFacesPerCell)
}

func reverseComponents(rows [][]int, width int) (out [][]int) {
	out = make([][]int, width)
	for k := range out {
		out[k] = make([]int, len(rows))
		for j, row := range rows {
			out[k][j] = row[width-1-k]
		}
	}
	return
}

func (t *Topology) String() string {
	s := fmt.Sprintf("%dD topology: %d vertices, %d faces, %d cells",
		t.Dimensions, t.NumVertices(), t.NumFaces(), t.NumCells())
	if t.PartitionID != 0 {
		s += fmt.Sprintf(" (partition %d: %d owned, %d ghost)",
			t.PartitionID, t.NumOwned, t.NumGhosts())
	}
	return s
}

// GlobalCounts sums the per partition topologies of one mesh
type GlobalCounts struct {
	Cells      int // Owned cells, each counted once
	Ghosts     int
	Faces      int // Per partition faces, faces on partition boundaries count once per side
	Partitions int
}

func ReduceCounts(parts []*Topology) (gc GlobalCounts) {
	for _, t := range parts {
		if t == nil {
			continue
		}
		gc.Partitions++
		gc.Cells += t.NumOwned
		gc.Ghosts += t.NumGhosts()
		gc.Faces += t.NumFaces()
	}
	return
}
