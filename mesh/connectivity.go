package mesh

import (
	"sort"

	"github.com/james-bowman/sparse"
)

// Incidence builds the sparse [numCells][numFaces] matrix with a 1 where a
// cell bounds a face. Nil for a topology with no cells.
func (t *Topology) Incidence() *sparse.CSR {
	if t.NumCells() == 0 || t.NumFaces() == 0 {
		return nil
	}
	CToF := sparse.NewDOK(t.NumCells(), t.NumFaces())
	for k, row := range t.CellFaces {
		for _, f := range row {
			if f != NoFace {
				CToF.Set(k, f, 1)
			}
		}
	}
	return CToF.ToCSR()
}

// BoundaryFaces returns the faces bounded by a single cell, ascending
func (t *Topology) BoundaryFaces() (bf []int) {
	CToF := t.Incidence()
	if CToF == nil {
		return
	}
	cellCount := make([]int, t.NumFaces())
	CToF.DoNonZero(func(i, j int, v float64) {
		cellCount[j]++
	})
	for f, count := range cellCount {
		if count == 1 {
			bf = append(bf, f)
		}
	}
	return
}

// CellNeighbors returns, for each cell, the ascending list of cells that share
// at least one face with it
func (t *Topology) CellNeighbors() (nbrs [][]int) {
	nbrs = make([][]int, t.NumCells())
	CToF := t.Incidence()
	if CToF == nil {
		return
	}
	K := t.NumCells()
	CToC := sparse.NewCSR(K, K, nil, nil, nil)
	CToC.Mul(CToF, CToF.T())
	CToC.DoNonZero(func(i, j int, v float64) {
		if i != j && v != 0 {
			nbrs[i] = append(nbrs[i], j)
		}
	})
	for _, row := range nbrs {
		sort.Ints(row)
	}
	return
}
