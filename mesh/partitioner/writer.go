package partitioner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/mesh/readers"
)

// PartitionedVersion is the $MeshFormat version written to partitioned output
const PartitionedVersion = "2.5"

// partitionTags builds the Gmsh partition tags of a cell from its original
// physical and elementary tags
func partitionTags(orig []int, owner int, ghosts []int) (tags []int) {
	var phys, elem int
	if len(orig) > 0 {
		phys = orig[0]
	}
	if len(orig) > 1 {
		elem = orig[1]
	}
	tags = make([]int, 0, 4+len(ghosts))
	tags = append(tags, phys, elem, 1+len(ghosts), owner+1)
	for _, g := range ghosts {
		tags = append(tags, -(g + 1))
	}
	return
}

/*
WritePartitioned writes the mesh held in ss with the cell partitioning of res.
The node block is copied unchanged. Each retained element gets the tags
	phys elem nPart owner -ghost1 -ghost2 ...
with partitions numbered from 1, other elements keep their tags. Sections
other than the nodes and elements are not written.
*/
func WritePartitioned(w io.Writer, ss *readers.Sections, dim int, res *Result) (err error) {
	var (
		bw = bufio.NewWriter(w)
		h  = ss.Header
	)
	h.VersionString = PartitionedVersion
	h.Version, _ = strconv.ParseFloat(PartitionedVersion, 64)
	if err = readers.WriteMeshFormat(bw, h); err != nil {
		return
	}

	var nodes io.Reader
	if nodes, err = ss.Nodes.Reader(); err != nil {
		return
	}
	bw.WriteString("$Nodes\n")
	if _, err = io.Copy(bw, nodes); err != nil {
		return
	}
	bw.WriteString("$EndNodes\n")

	var (
		elems io.Reader
		er    *readers.ElementReader
		ef    *mesh.ElementFilter
		k     int
	)
	if ef, err = mesh.NewElementFilter(dim); err != nil {
		return
	}
	if elems, err = ss.Elements.Reader(); err != nil {
		return
	}
	if er, err = readers.NewElementReader(elems, ss.Elements.StartLine); err != nil {
		return
	}
	bw.WriteString("$Elements\n")
	fmt.Fprintf(bw, "%d\n", er.Declared())
	for {
		var (
			rec  mesh.ElementRecord
			keep bool
		)
		if rec, err = er.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				return
			}
			err = nil
			break
		}
		if _, keep, err = ef.Classify(rec); err != nil {
			return &mesh.RecordError{Section: "Elements", Line: rec.Line, Err: err}
		}
		if keep {
			if k >= len(res.EToP) {
				return fmt.Errorf("partitioning covers %d cells, mesh has more", len(res.EToP))
			}
			rec.Tags = partitionTags(rec.Tags, res.EToP[k], res.GhostHolders[k])
			k++
		}
		bw.WriteString(readers.FormatElementRecord(rec))
		bw.WriteByte('\n')
	}
	if k != len(res.EToP) {
		return fmt.Errorf("partitioning covers %d cells, mesh has %d", len(res.EToP), k)
	}
	bw.WriteString("$EndElements\n")
	return bw.Flush()
}

// PartitionFile partitions the serial mesh at location and writes the
// partitioned mesh to w
func PartitionFile(ctx context.Context, location string, w io.Writer,
	cfg *Config, opts readers.Options) (res *Result, err error) {
	var (
		rc   io.ReadCloser
		ss   *readers.Sections
		topo *mesh.Topology
	)
	if rc, err = readers.OpenSource(ctx, location, opts.Source); err != nil {
		return
	}
	defer rc.Close()
	if ss, err = opts.Extract(rc, readers.MinSerialVersion); err != nil {
		return
	}
	defer ss.Close()
	if topo, err = readers.BuildTopology(ss, opts); err != nil {
		return
	}
	logger := opts.GetLogger()
	if res, err = NewMeshPartitioner(topo, cfg, logger).Partition(); err != nil {
		return
	}
	if err = WritePartitioned(w, ss, opts.Dimensions, res); err != nil {
		return
	}
	logger.Info("wrote partitioned mesh",
		zap.String("source", location), zap.Int("partitions", res.NumPartitions))
	return
}
