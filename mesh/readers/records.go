package readers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/notargets/fvmesh/mesh"
)

// blockScanner walks the body of a counted Gmsh block: a record count on the
// first line and one record per following line
type blockScanner struct {
	section  string
	scanner  *bufio.Scanner
	line     int // Source line of the current record
	declared int
	count    int
	done     bool
}

func newBlockScanner(section string, r io.Reader, startLine int) (bs *blockScanner, err error) {
	bs = &blockScanner{
		section: section,
		scanner: newScanner(r),
		line:    startLine - 1,
	}
	var fields []string
	if fields, err = bs.nextFields(); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, bs.recordError("", "unexpected EOF in %s, no record count", section)
	}
	if len(fields) != 1 {
		return nil, bs.recordError(strings.Join(fields, " "), "invalid number of %s", strings.ToLower(section))
	}
	if bs.declared, err = strconv.Atoi(fields[0]); err != nil || bs.declared < 0 {
		return nil, bs.recordError(fields[0], "invalid number of %s", strings.ToLower(section))
	}
	return bs, nil
}

// nextFields returns the fields of the next non-blank line, nil at the end
func (bs *blockScanner) nextFields() (fields []string, err error) {
	for bs.scanner.Scan() {
		bs.line++
		if fields = strings.Fields(bs.scanner.Text()); len(fields) != 0 {
			return
		}
	}
	if err = bs.scanner.Err(); err != nil {
		err = fmt.Errorf("scanner error in %s: %w", bs.section, err)
	}
	return nil, err
}

// next returns the fields of the next record, or io.EOF once the declared
// number of records has been read and the block is exhausted
func (bs *blockScanner) next() (fields []string, err error) {
	if bs.done {
		return nil, io.EOF
	}
	if fields, err = bs.nextFields(); err != nil {
		return
	}
	if fields == nil {
		bs.done = true
		if bs.count != bs.declared {
			return nil, bs.recordError("", "%s declares %d records, found %d",
				bs.section, bs.declared, bs.count)
		}
		return nil, io.EOF
	}
	bs.count++
	if bs.count > bs.declared {
		bs.done = true
		return nil, bs.recordError(strings.Join(fields, " "), "%s declares %d records, found more",
			bs.section, bs.declared)
	}
	return
}

func (bs *blockScanner) recordError(record, format string, args ...any) error {
	return &mesh.RecordError{
		Section: bs.section,
		Line:    bs.line,
		Record:  record,
		Err:     mesh.Malformed(format, args...),
	}
}

// NodeReader tokenizes a $Nodes body
type NodeReader struct {
	bs *blockScanner
}

func NewNodeReader(r io.Reader, startLine int) (nr *NodeReader, err error) {
	var bs *blockScanner
	if bs, err = newBlockScanner("Nodes", r, startLine); err != nil {
		return
	}
	nr = &NodeReader{bs: bs}
	return
}

// Declared is the node count given at the top of the block
func (nr *NodeReader) Declared() int { return nr.bs.declared }

func (nr *NodeReader) Next() (rec mesh.NodeRecord, err error) {
	var fields []string
	if fields, err = nr.bs.next(); err != nil {
		return
	}
	if len(fields) < 4 {
		err = nr.bs.recordError(strings.Join(fields, " "), "node record needs an ID and 3 coordinates")
		return
	}
	if rec.ID, err = strconv.Atoi(fields[0]); err != nil {
		err = nr.bs.recordError(strings.Join(fields, " "), "invalid node ID %q", fields[0])
		return
	}
	rec.Coords = make([]float64, len(fields)-1)
	for j, field := range fields[1:] {
		if rec.Coords[j], err = strconv.ParseFloat(field, 64); err != nil {
			err = nr.bs.recordError(strings.Join(fields, " "), "invalid coordinate %q", field)
			return
		}
	}
	return
}

// ReadAll reads the remaining node records
func (nr *NodeReader) ReadAll() (nodes []mesh.NodeRecord, err error) {
	nodes = make([]mesh.NodeRecord, 0, nr.Declared())
	for {
		var rec mesh.NodeRecord
		if rec, err = nr.Next(); err != nil {
			if err == io.EOF {
				err = nil
			}
			return
		}
		nodes = append(nodes, rec)
	}
}

// ElementReader tokenizes an $Elements body
type ElementReader struct {
	bs *blockScanner
}

func NewElementReader(r io.Reader, startLine int) (er *ElementReader, err error) {
	var bs *blockScanner
	if bs, err = newBlockScanner("Elements", r, startLine); err != nil {
		return
	}
	er = &ElementReader{bs: bs}
	return
}

func (er *ElementReader) Declared() int { return er.bs.declared }

func (er *ElementReader) Next() (rec mesh.ElementRecord, err error) {
	var fields []string
	if fields, err = er.bs.next(); err != nil {
		return
	}
	record := func() string { return strings.Join(fields, " ") }
	if len(fields) < 3 {
		err = er.bs.recordError(record(), "element record needs an ID, a type and a tag count")
		return
	}
	ints := make([]int, len(fields))
	for i, field := range fields {
		if ints[i], err = strconv.Atoi(field); err != nil {
			err = er.bs.recordError(record(), "invalid integer %q", field)
			return
		}
	}
	numTags := ints[2]
	if numTags < 0 || 3+numTags > len(ints) {
		err = er.bs.recordError(record(), "element declares %d tags, record is too short", numTags)
		return
	}
	rec = mesh.ElementRecord{
		ID:        ints[0],
		ShapeCode: ints[1],
		Tags:      ints[3 : 3+numTags : 3+numTags],
		VertexIDs: ints[3+numTags:],
		Line:      er.bs.line,
	}
	return
}

// Line is the source line of the last record returned
func (er *ElementReader) Line() int { return er.bs.line }
