package readers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/notargets/fvmesh/mesh"
)

// FormatNodeRecord renders a node line: id x y z
func FormatNodeRecord(rec mesh.NodeRecord) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(rec.ID))
	for _, x := range rec.Coords {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return b.String()
}

// FormatElementRecord renders an element line:
// elem-id elem-type num-tags tag1 tag2 ... node1 node2 ...
func FormatElementRecord(rec mesh.ElementRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d %d", rec.ID, rec.ShapeCode, len(rec.Tags))
	for _, tag := range rec.Tags {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(tag))
	}
	for _, id := range rec.VertexIDs {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// WriteMeshFormat writes a complete $MeshFormat section
func WriteMeshFormat(w io.Writer, h Header) error {
	_, err := fmt.Fprintf(w, "$MeshFormat\n%s\n$EndMeshFormat\n", h)
	return err
}

// Gmsh22Builder assembles Gmsh 2.x ASCII text from records
type Gmsh22Builder struct {
	Header   Header
	Nodes    []mesh.NodeRecord
	Elements []mesh.ElementRecord
}

func NewGmsh22Builder(version string) *Gmsh22Builder {
	v, _ := strconv.ParseFloat(version, 64)
	return &Gmsh22Builder{
		Header: Header{Version: v, VersionString: version, FileType: 0, DataSize: 8},
	}
}

func (b *Gmsh22Builder) AddNode(id int, coords ...float64) *Gmsh22Builder {
	b.Nodes = append(b.Nodes, mesh.NodeRecord{ID: id, Coords: coords})
	return b
}

func (b *Gmsh22Builder) AddElement(id, shapeCode int, tags []int, vertexIDs ...int) *Gmsh22Builder {
	b.Elements = append(b.Elements, mesh.ElementRecord{
		ID: id, ShapeCode: shapeCode, Tags: tags, VertexIDs: vertexIDs,
	})
	return b
}

// Build renders the header, node and element sections
func (b *Gmsh22Builder) Build() string {
	var sb strings.Builder
	WriteMeshFormat(&sb, b.Header)

	sb.WriteString("$Nodes\n")
	fmt.Fprintf(&sb, "%d\n", len(b.Nodes))
	for _, n := range b.Nodes {
		sb.WriteString(FormatNodeRecord(n))
		sb.WriteByte('\n')
	}
	sb.WriteString("$EndNodes\n")

	sb.WriteString("$Elements\n")
	fmt.Fprintf(&sb, "%d\n", len(b.Elements))
	for _, e := range b.Elements {
		sb.WriteString(FormatElementRecord(e))
		sb.WriteByte('\n')
	}
	sb.WriteString("$EndElements\n")
	return sb.String()
}
