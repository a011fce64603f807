package mesh

// ElementRecord is one line of the element block
type ElementRecord struct {
	ID        int
	ShapeCode int   // Gmsh element type
	Tags      []int // Tags in file order
	VertexIDs []int
	Line      int // Source line, 0 when unknown
}

// ElementStream yields element records in file order and io.EOF after the last
type ElementStream interface {
	Next() (ElementRecord, error)
}

// Element is a cell described by dense vertex indices
type Element struct {
	Vertices []int
	Shape    ShapeKind
}

// RetainedElement is an element record that passed the shape filter, still
// expressed in file vertex IDs
type RetainedElement struct {
	ElementRecord
	Shape ShapeKind
}

// Translate converts the vertex IDs of the element to dense vertex indices
func (re RetainedElement) Translate(ids VertexIDMap) (el Element, err error) {
	el = Element{Shape: re.Shape, Vertices: make([]int, len(re.VertexIDs))}
	for i, id := range re.VertexIDs {
		ind, ok := ids.Index(id)
		if !ok {
			err = Malformed("element %d references unknown vertex %d", re.ID, id)
			return
		}
		el.Vertices[i] = ind
	}
	return
}

// ElementFilter keeps the elements whose shape belongs to the mesh dimension
// and counts what it drops
type ElementFilter struct {
	Shapes   ShapeSet
	Skipped  int
	Retained int
}

func NewElementFilter(dim int) (ef *ElementFilter, err error) {
	var ss ShapeSet
	if ss, err = ShapesForDimension(dim); err != nil {
		return
	}
	ef = &ElementFilter{Shapes: ss}
	return
}

// Classify reports whether rec is retained. Unsupported shape codes are not an
// error, a retained element with the wrong vertex count is.
func (ef *ElementFilter) Classify(rec ElementRecord) (re RetainedElement, keep bool, err error) {
	shape, ok := ef.Shapes[rec.ShapeCode]
	if !ok {
		ef.Skipped++
		return
	}
	if len(rec.VertexIDs) != shape.NumVertices() {
		err = Malformed("element %d is a %s with %d vertices, need %d",
			rec.ID, shape, len(rec.VertexIDs), shape.NumVertices())
		return
	}
	for _, id := range rec.VertexIDs {
		if id < 0 {
			err = Malformed("element %d references negative vertex ID %d", rec.ID, id)
			return
		}
	}
	ef.Retained++
	re = RetainedElement{ElementRecord: rec, Shape: shape}
	keep = true
	return
}

// TranslateAll converts a list of retained elements to dense vertex indices
func TranslateAll(res []RetainedElement, ids VertexIDMap) (elems []Element, err error) {
	elems = make([]Element, len(res))
	for i, re := range res {
		if elems[i], err = re.Translate(ids); err != nil {
			elems = nil
			return
		}
	}
	return
}
