package mesh

import (
	"errors"
	"io"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"gonum.org/v1/gonum/mat"
)

// VertexIDMap translates file vertex IDs into dense vertex indices
type VertexIDMap interface {
	// Index returns the dense index of a vertex ID and whether it is known
	Index(id int) (int, bool)
	Len() int
	// IDs returns the vertex IDs in index order
	IDs() []int
}

// denseIDMap is a lookup slice indexed by vertex ID, used when the IDs fill
// most of their range
type denseIDMap struct {
	lookup []int32
	ids    []int
}

func (d *denseIDMap) Index(id int) (int, bool) {
	if id < 0 || id >= len(d.lookup) || d.lookup[id] < 0 {
		return -1, false
	}
	return int(d.lookup[id]), true
}

func (d *denseIDMap) Len() int   { return len(d.ids) }
func (d *denseIDMap) IDs() []int { return d.ids }

type sparseIDMap struct {
	lookup map[int]int
	ids    []int
}

func (s *sparseIDMap) Index(id int) (ind int, ok bool) {
	ind, ok = s.lookup[id]
	if !ok {
		ind = -1
	}
	return
}

func (s *sparseIDMap) Len() int   { return len(s.ids) }
func (s *sparseIDMap) IDs() []int { return s.ids }

// A dense lookup is used while the ID range is at most this multiple of the
// vertex count
const denseIDRatio = 4

// NewVertexIDMap builds the ID map for ids, which must be ascending and unique
func NewVertexIDMap(ids []int) VertexIDMap {
	n := len(ids)
	if n > 0 && ids[n-1]+1 <= denseIDRatio*n && ids[n-1] < 1<<31 {
		d := &denseIDMap{lookup: make([]int32, ids[n-1]+1), ids: ids}
		for i := range d.lookup {
			d.lookup[i] = -1
		}
		for i, id := range ids {
			d.lookup[id] = int32(i)
		}
		return d
	}
	return newSparseIDMap(ids)
}

func newSparseIDMap(ids []int) *sparseIDMap {
	s := &sparseIDMap{lookup: make(map[int]int, len(ids)), ids: ids}
	for i, id := range ids {
		s.lookup[id] = i
	}
	return s
}

// NodeRecord is one vertex as read from the node block
type NodeRecord struct {
	ID     int
	Coords []float64
}

// NodeStream yields node records in file order and io.EOF after the last one
type NodeStream interface {
	Next() (NodeRecord, error)
}

// VertexTable holds the vertex coordinates ordered by ascending vertex ID
type VertexTable struct {
	Coords *mat.Dense // [coordDims][numVertices], nil when there are no vertices
	IDs    VertexIDMap
}

func (vt *VertexTable) NumVertices() int { return vt.IDs.Len() }

func (vt *VertexTable) CoordDims() int {
	if vt.Coords == nil {
		return 0
	}
	r, _ := vt.Coords.Dims()
	return r
}

func newVertexTable(recs []NodeRecord, ids VertexIDMap, coordDims int) *VertexTable {
	vt := &VertexTable{IDs: ids}
	if len(recs) == 0 {
		return vt
	}
	vt.Coords = mat.NewDense(coordDims, len(recs), nil)
	for j, rec := range recs {
		for i := 0; i < coordDims; i++ {
			vt.Coords.Set(i, j, rec.Coords[i])
		}
	}
	return vt
}

func checkNode(rec NodeRecord, coordDims int) error {
	if rec.ID < 0 {
		return Malformed("vertex ID %d is negative", rec.ID)
	}
	if len(rec.Coords) < coordDims {
		return Malformed("vertex %d has %d coordinates, need %d",
			rec.ID, len(rec.Coords), coordDims)
	}
	return nil
}

// BuildVertexTable places all node records into a vertex table, sorted by
// vertex ID. Coordinates beyond coordDims are dropped.
func BuildVertexTable(nodes []NodeRecord, coordDims int) (vt *VertexTable, err error) {
	if coordDims < 1 || coordDims > 3 {
		err = Malformed("coordinate dimension %d is out of range", coordDims)
		return
	}
	recs := make([]NodeRecord, len(nodes))
	copy(recs, nodes)
	for _, rec := range recs {
		if err = checkNode(rec, coordDims); err != nil {
			return
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	ids := make([]int, len(recs))
	for i, rec := range recs {
		if i > 0 && rec.ID == recs[i-1].ID {
			err = Malformed("vertex ID %d appears more than once", rec.ID)
			return
		}
		ids[i] = rec.ID
	}
	vt = newVertexTable(recs, NewVertexIDMap(ids), coordDims)
	return
}

// FilterReferenced keeps the node records whose ID is in referenced, in their
// original order. Records with a negative ID are kept so that BuildVertexTable
// rejects them.
func FilterReferenced(nodes []NodeRecord, referenced *roaring64.Bitmap) (kept []NodeRecord) {
	kept = make([]NodeRecord, 0, referenced.GetCardinality())
	for _, rec := range nodes {
		if rec.ID < 0 || referenced.Contains(uint64(rec.ID)) {
			kept = append(kept, rec)
		}
	}
	return
}

/*
BuildVertexTableStreaming reads only the requested vertices out of an ascending
node stream. The requested ID set and the stream are merged in a single pass,
and reading stops as soon as the last requested ID has been found, so the full
node block is never held in memory.
*/
func BuildVertexTableStreaming(wanted *roaring64.Bitmap, nodes NodeStream,
	coordDims int) (vt *VertexTable, err error) {
	if coordDims < 1 || coordDims > 3 {
		err = Malformed("coordinate dimension %d is out of range", coordDims)
		return
	}
	var (
		n      = int(wanted.GetCardinality())
		recs   = make([]NodeRecord, 0, n)
		ids    = make([]int, 0, n)
		it     = wanted.Iterator()
		lastID = -1
		rec    NodeRecord
	)
	for it.HasNext() {
		want := int(it.Next())
		for {
			if rec, err = nodes.Next(); err != nil {
				if errors.Is(err, io.EOF) {
					err = Malformed("requested vertex %d is not in the node block", want)
				}
				return
			}
			if err = checkNode(rec, coordDims); err != nil {
				return
			}
			if rec.ID <= lastID {
				err = Malformed("node block is not in ascending ID order at vertex %d after %d",
					rec.ID, lastID)
				return
			}
			lastID = rec.ID
			if rec.ID == want {
				break
			}
			if rec.ID > want {
				err = Malformed("requested vertex %d is not in the node block", want)
				return
			}
		}
		recs = append(recs, NodeRecord{ID: rec.ID, Coords: rec.Coords[:coordDims:coordDims]})
		ids = append(ids, rec.ID)
	}
	vt = newVertexTable(recs, newSparseIDMap(ids), coordDims)
	return
}
