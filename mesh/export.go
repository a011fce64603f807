package mesh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ghodss/yaml"
)

// TopologyDocument is the serialized form of a Topology, in the consumer layout
type TopologyDocument struct {
	Dimensions      int         `json:"dimensions"`
	CoordDimensions int         `json:"coordDimensions"`
	NumVertices     int         `json:"numVertices"`
	NumFaces        int         `json:"numFaces"`
	NumCells        int         `json:"numCells"`
	MaxFacesPerCell int         `json:"maxFacesPerCell"`
	VertexCoords    [][]float64 `json:"vertexCoords"`
	FaceVertexIDs   [][]int     `json:"faceVertexIDs"`
	CellFaceIDs     [][]int     `json:"cellFaceIDs"`
	CellShapes      []string    `json:"cellShapes"`
	// Partition fields
	PartitionID    int   `json:"partitionID,omitempty"`
	NumOwned       int   `json:"numOwned,omitempty"`
	NumGhosts      int   `json:"numGhosts,omitempty"`
	OwnedGlobalIDs []int `json:"cellGlobalIDs,omitempty"`
	GhostGlobalIDs []int `json:"ghostCellGlobalIDs,omitempty"`
}

func (t *Topology) Document() (doc TopologyDocument) {
	doc = TopologyDocument{
		Dimensions:      t.Dimensions,
		CoordDimensions: t.CoordDimensions,
		NumVertices:     t.NumVertices(),
		NumFaces:        t.NumFaces(),
		NumCells:        t.NumCells(),
		MaxFacesPerCell: t.MaxFacesPerCell,
		VertexCoords:    t.CoordinateArray(),
		FaceVertexIDs:   t.FaceVertexArray(),
		CellFaceIDs:     t.CellFaceArray(),
		CellShapes:      make([]string, len(t.CellShapes)),
	}
	for k, s := range t.CellShapes {
		doc.CellShapes[k] = s.String()
	}
	if t.PartitionID != 0 {
		doc.PartitionID = t.PartitionID
		doc.NumOwned = t.NumOwned
		doc.NumGhosts = t.NumGhosts()
		doc.OwnedGlobalIDs = t.OwnedGlobalIDs
		doc.GhostGlobalIDs = t.GhostGlobalIDs
	}
	return
}

func marshalDocument(v interface{}, format string) (data []byte, err error) {
	switch strings.ToLower(format) {
	case "yaml", "yml", "":
		data, err = yaml.Marshal(v)
	case "json":
		if data, err = json.MarshalIndent(v, "", "  "); err == nil {
			data = append(data, '\n')
		}
	default:
		err = fmt.Errorf("unknown topology output format %q", format)
	}
	return
}

// WriteTopology serializes the topology as "yaml" or "json"
func WriteTopology(w io.Writer, t *Topology, format string) (err error) {
	var data []byte
	if data, err = marshalDocument(t.Document(), format); err != nil {
		return
	}
	_, err = w.Write(data)
	return
}

// WriteTopologies serializes several topologies into one stream: a YAML
// document per topology, each opened by "---", or a single JSON array
func WriteTopologies(w io.Writer, topos []*Topology, format string) (err error) {
	var data []byte
	if strings.ToLower(format) == "json" {
		docs := make([]TopologyDocument, len(topos))
		for i, t := range topos {
			docs[i] = t.Document()
		}
		if data, err = marshalDocument(docs, format); err != nil {
			return
		}
		_, err = w.Write(data)
		return
	}
	for _, t := range topos {
		if data, err = marshalDocument(t.Document(), format); err != nil {
			return
		}
		if _, err = io.WriteString(w, yamlSeparator+"\n"); err != nil {
			return
		}
		if _, err = w.Write(data); err != nil {
			return
		}
	}
	return
}

const yamlSeparator = "---"

// ReadTopologyDocument parses a single document written by WriteTopology, in
// either format. A stream holding more than one document is an error.
func ReadTopologyDocument(r io.Reader) (doc TopologyDocument, err error) {
	var docs []TopologyDocument
	if docs, err = ReadTopologyDocuments(r); err != nil {
		return
	}
	if len(docs) != 1 {
		err = fmt.Errorf("expected one topology document, found %d", len(docs))
		return
	}
	return docs[0], nil
}

// ReadTopologyDocuments parses the output of WriteTopologies or WriteTopology
func ReadTopologyDocuments(r io.Reader) (docs []TopologyDocument, err error) {
	var data []byte
	if data, err = io.ReadAll(r); err != nil {
		return
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		err = yaml.Unmarshal(data, &docs)
		return
	}
	var chunk []byte
	flush := func() error {
		defer func() { chunk = chunk[:0] }()
		if len(bytes.TrimSpace(chunk)) == 0 {
			return nil
		}
		var doc TopologyDocument
		if err := yaml.Unmarshal(chunk, &doc); err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	}
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if string(bytes.TrimSpace(line)) == yamlSeparator {
			if err = flush(); err != nil {
				return
			}
			continue
		}
		chunk = append(chunk, line...)
	}
	err = flush()
	return
}
