package readers

import (
	"context"
	"errors"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.uber.org/zap"

	"github.com/notargets/fvmesh/mesh"
)

// Options controls a Gmsh import
type Options struct {
	Dimensions      int // Mesh dimension, 2 or 3
	CoordDimensions int // Coordinates kept per vertex, Dimensions when 0
	// MinVersion overrides the minimum $MeshFormat version of the import mode
	MinVersion     float64
	TempDir        string
	CyclicTetFaces bool
	Source         SourceConfig
	Logger         *zap.Logger
}

func (o Options) coordDims() int {
	if o.CoordDimensions == 0 {
		return o.Dimensions
	}
	return o.CoordDimensions
}

// GetLogger returns Logger, or a no-op logger when none is set
func (o Options) GetLogger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) minVersion(modeMin float64) float64 {
	if o.MinVersion > 0 {
		return o.MinVersion
	}
	return modeMin
}

// Extract checks the dimensions and extracts the sections of r, requiring at
// least modeMin unless MinVersion is set
func (o Options) Extract(r io.Reader, modeMin float64) (*Sections, error) {
	if err := mesh.CheckDimensions(o.Dimensions, o.coordDims()); err != nil {
		return nil, err
	}
	return ExtractSections(r, ExtractOptions{
		MinVersion: o.minVersion(modeMin),
		TempDir:    o.TempDir,
		Logger:     o.Logger,
	})
}

// ReadGmsh builds the topology of a whole Gmsh 2.x mesh, keeping the vertices
// its retained elements reference
func ReadGmsh(r io.Reader, opts Options) (topo *mesh.Topology, err error) {
	var ss *Sections
	if ss, err = opts.Extract(r, MinSerialVersion); err != nil {
		return
	}
	defer ss.Close()
	return BuildTopology(ss, opts)
}

// BuildTopology builds the serial topology from already extracted sections.
// Cell k of the result is the k-th retained element of the element block, and
// only the vertices retained elements reference are kept.
func BuildTopology(ss *Sections, opts Options) (topo *mesh.Topology, err error) {
	logger := opts.GetLogger()
	if err = mesh.CheckDimensions(opts.Dimensions, opts.coordDims()); err != nil {
		return
	}
	var (
		ef         *mesh.ElementFilter
		vt         *mesh.VertexTable
		retained   []mesh.RetainedElement
		referenced = roaring64.New()
	)
	ef, err = readRetainedElements(ss.Elements, opts.Dimensions, func(re mesh.RetainedElement) error {
		retained = append(retained, re)
		for _, id := range re.VertexIDs {
			referenced.Add(uint64(id))
		}
		return nil
	})
	if err != nil {
		return
	}
	if vt, err = readVertexTable(ss.Nodes, opts.coordDims(), referenced); err != nil {
		return
	}
	logger.Debug("filtered elements", zap.Int("retained", ef.Retained), zap.Int("skipped", ef.Skipped))

	var elems []mesh.Element
	if elems, err = mesh.TranslateAll(retained, vt.IDs); err != nil {
		return
	}
	topo, err = mesh.NewTopology(opts.Dimensions, opts.coordDims(), vt, elems,
		mesh.DeriveOptions{CyclicTetFaces: opts.CyclicTetFaces})
	if err != nil {
		return
	}
	logger.Info("built topology",
		zap.Int("vertices", topo.NumVertices()),
		zap.Int("faces", topo.NumFaces()),
		zap.Int("cells", topo.NumCells()))
	return
}

// ReadGmshPartition builds the topology of partition pid of a partitioned
// Gmsh mesh: its owned cells followed by its ghost cells, and only the vertices
// those cells reference
func ReadGmshPartition(r io.Reader, pid int, opts Options) (topo *mesh.Topology, err error) {
	var (
		ss     *Sections
		lc     *mesh.LocalCells
		logger = opts.GetLogger().With(zap.Int("partition", pid))
	)
	if lc, err = mesh.NewLocalCells(pid); err != nil {
		return
	}
	if ss, err = opts.Extract(r, MinPartitionedVersion); err != nil {
		return
	}
	defer ss.Close()

	var ef *mesh.ElementFilter
	if ef, err = readRetainedElements(ss.Elements, opts.Dimensions, lc.Add); err != nil {
		return
	}
	logger.Debug("classified elements",
		zap.Int("retained", ef.Retained), zap.Int("skipped", ef.Skipped),
		zap.Int("owned", len(lc.Owned)), zap.Int("ghost", len(lc.Ghost)))

	var (
		nodes io.Reader
		nr    *NodeReader
		vt    *mesh.VertexTable
	)
	if nodes, err = ss.Nodes.Reader(); err != nil {
		return
	}
	if nr, err = NewNodeReader(nodes, ss.Nodes.StartLine); err != nil {
		return
	}
	if vt, err = mesh.BuildVertexTableStreaming(lc.Referenced, nr, opts.coordDims()); err != nil {
		return
	}
	topo, err = mesh.NewPartitionTopology(opts.Dimensions, opts.coordDims(), vt, lc,
		mesh.DeriveOptions{CyclicTetFaces: opts.CyclicTetFaces})
	if err != nil {
		return
	}
	if lc.NumCells() == 0 {
		logger.Warn("partition has no local cells")
	}
	logger.Info("built partition topology",
		zap.Int("vertices", topo.NumVertices()),
		zap.Int("faces", topo.NumFaces()),
		zap.Int("owned", topo.NumOwned),
		zap.Int("ghost", topo.NumGhosts()))
	return
}

// ReadGmshFile opens location with OpenSource and imports the whole mesh
func ReadGmshFile(ctx context.Context, location string, opts Options) (*mesh.Topology, error) {
	rc, err := OpenSource(ctx, location, opts.Source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadGmsh(rc, opts)
}

// ReadGmshPartitionFile opens location with OpenSource and imports one partition
func ReadGmshPartitionFile(ctx context.Context, location string, pid int, opts Options) (*mesh.Topology, error) {
	rc, err := OpenSource(ctx, location, opts.Source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadGmshPartition(rc, pid, opts)
}

// readVertexTable reads the whole node block and keeps the referenced vertices
func readVertexTable(sec *Section, coordDims int,
	referenced *roaring64.Bitmap) (vt *mesh.VertexTable, err error) {
	var (
		r     io.Reader
		nr    *NodeReader
		nodes []mesh.NodeRecord
	)
	if r, err = sec.Reader(); err != nil {
		return
	}
	if nr, err = NewNodeReader(r, sec.StartLine); err != nil {
		return
	}
	if nodes, err = nr.ReadAll(); err != nil {
		return
	}
	return mesh.BuildVertexTable(mesh.FilterReferenced(nodes, referenced), coordDims)
}

// readRetainedElements streams the element block through the shape filter,
// handing each retained element to add
func readRetainedElements(sec *Section, dim int,
	add func(re mesh.RetainedElement) error) (ef *mesh.ElementFilter, err error) {
	var (
		r  io.Reader
		er *ElementReader
	)
	if ef, err = mesh.NewElementFilter(dim); err != nil {
		return
	}
	if r, err = sec.Reader(); err != nil {
		return
	}
	if er, err = NewElementReader(r, sec.StartLine); err != nil {
		return
	}
	for {
		var (
			rec  mesh.ElementRecord
			re   mesh.RetainedElement
			keep bool
		)
		if rec, err = er.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return
		}
		if re, keep, err = ef.Classify(rec); err != nil {
			err = &mesh.RecordError{Section: "Elements", Line: rec.Line, Err: err}
			return
		}
		if !keep {
			continue
		}
		if err = add(re); err != nil {
			err = &mesh.RecordError{Section: "Elements", Line: rec.Line, Err: err}
			return
		}
	}
}
