package partitioner

import (
	"fmt"
	"math"
	"sort"

	metis "github.com/notargets/go-metis"
	"go.uber.org/zap"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// Config holds configuration for mesh partitioning
type Config struct {
	NumPartitions    int32
	Method           string  // "metis" or "block"
	ImbalanceFactor  float32 // e.g., 1.05 for 5% imbalance
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
}

// DefaultConfig returns default partitioning configuration
func DefaultConfig(nparts int32) *Config {
	return &Config{
		NumPartitions:    nparts,
		Method:           "metis",
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        "vol", // minimize communication volume
	}
}

// Result assigns every cell of a serial topology to a partition. Partitions
// are numbered from 0 here, the Gmsh file numbering starts at 1.
type Result struct {
	NumPartitions int
	EToP          []int   // Partition of each cell
	GhostHolders  [][]int // Other partitions holding each cell as a ghost, ascending
	ObjVal        int32
	Stats         []PartitionStats
}

// PartitionStats holds statistics for a single partition
type PartitionStats struct {
	ID           int
	NumElements  int
	NumGhosts    int
	ComputeLoad  int64
	ElementTypes map[mesh.ShapeKind]int
	NumNeighbors map[int]int // neighbor partition -> shared faces
}

// MeshPartitioner partitions the cells of a serial topology
type MeshPartitioner struct {
	topo   *mesh.Topology
	config *Config
	logger *zap.Logger
	nbrs   [][]int // Face neighbors of each cell

	// Cost models
	computeCostModel func(shape mesh.ShapeKind) int32
	commCostModel    func(faceVertices int) int32
}

func NewMeshPartitioner(topo *mesh.Topology, config *Config, logger *zap.Logger) *MeshPartitioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	mp := &MeshPartitioner{
		topo:   topo,
		config: config,
		logger: logger,
	}

	// Finite volume cost scales with the number of face fluxes
	mp.computeCostModel = func(shape mesh.ShapeKind) int32 {
		return int32(shape.NumFaces())
	}

	// Cost proportional to number of face vertices
	mp.commCostModel = func(faceVertices int) int32 {
		return int32(faceVertices)
	}

	return mp
}

// Partition assigns each cell to a partition and derives the ghost holders
func (mp *MeshPartitioner) Partition() (res *Result, err error) {
	var (
		K      = mp.topo.NumCells()
		nparts = int(mp.config.NumPartitions)
	)
	if nparts < 1 {
		return nil, fmt.Errorf("number of partitions %d must be 1 or greater", nparts)
	}
	if K < nparts {
		return nil, fmt.Errorf("unable to split %d cells into %d partitions", K, nparts)
	}
	mp.logger.Info("partitioning mesh",
		zap.Int("cells", K), zap.Int("partitions", nparts), zap.String("method", mp.config.Method))

	mp.nbrs = mp.topo.CellNeighbors()
	res = &Result{NumPartitions: nparts}
	switch {
	case nparts == 1:
		res.EToP = make([]int, K)
	case mp.config.Method == "block":
		res.EToP = blockPartition(K, nparts)
	case mp.config.Method == "metis" || mp.config.Method == "":
		if res.EToP, res.ObjVal, err = mp.metisPartition(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown partition method %q", mp.config.Method)
	}

	res.GhostHolders = make([][]int, K)
	for k, nbrs := range mp.nbrs {
		for _, nbr := range nbrs {
			if p := res.EToP[nbr]; p != res.EToP[k] {
				res.GhostHolders[k] = append(res.GhostHolders[k], p)
			}
		}
		res.GhostHolders[k] = uniqueSorted(res.GhostHolders[k])
	}

	res.Stats = mp.analyzePartition(res)
	return res, nil
}

func uniqueSorted(a []int) []int {
	if len(a) < 2 {
		return a
	}
	sort.Ints(a)
	out := a[:1]
	for _, v := range a[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// blockPartition gives each partition a contiguous range of cells
func blockPartition(K, nparts int) (EToP []int) {
	pm := utils.NewPartitionMap(nparts, K)
	EToP = make([]int, K)
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		kMin, kMax := pm.GetBucketRange(bn)
		for k := kMin; k < kMax; k++ {
			EToP[k] = bn
		}
	}
	return
}

func (mp *MeshPartitioner) metisPartition() (EToP []int, objval int32, err error) {
	// Build METIS graph
	xadj, adjncy, vwgt, adjwgt := mp.buildMetisGraph()

	// Set METIS options
	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		return nil, 0, fmt.Errorf("failed to set METIS options: %w", err)
	}

	// Set objective function
	if mp.config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}

	// Set allowed imbalance
	ubvec := []float32{mp.config.ImbalanceFactor}

	// Handle case where weights might be nil
	var vwgtPtr, adjwgtPtr []int32
	if mp.config.UseVertexWeights {
		vwgtPtr = vwgt
	}
	if mp.config.UseEdgeWeights {
		adjwgtPtr = adjwgt
	}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, vwgtPtr, adjwgtPtr,
		mp.config.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("METIS partitioning failed: %w", err)
	}

	EToP = make([]int, len(part))
	for i, p := range part {
		EToP[i] = int(p)
	}
	return
}

// buildMetisGraph converts the cell face adjacency to METIS CSR format
func (mp *MeshPartitioner) buildMetisGraph() (xadj, adjncy, vwgt, adjwgt []int32) {
	ne := mp.topo.NumCells()

	// Build vertex weights (computational cost per element)
	vwgt = make([]int32, ne)
	for i := 0; i < ne; i++ {
		vwgt[i] = mp.computeCostModel(mp.topo.CellShapes[i])
	}

	// Build adjacency and edge weights
	xadj = make([]int32, ne+1)
	adjncy = []int32{}
	adjwgt = []int32{}

	faceCost := mp.commCostModel(mp.topo.Dimensions)
	xadj[0] = 0
	for elem := 0; elem < ne; elem++ {
		for _, neighbor := range mp.nbrs[elem] {
			adjncy = append(adjncy, int32(neighbor))
			adjwgt = append(adjwgt, faceCost)
		}
		xadj[elem+1] = int32(len(adjncy))
	}

	return xadj, adjncy, vwgt, adjwgt
}

// analyzePartition computes and reports partition quality metrics
func (mp *MeshPartitioner) analyzePartition(res *Result) (partStats []PartitionStats) {
	nparts := res.NumPartitions

	partStats = make([]PartitionStats, nparts)
	for i := range partStats {
		partStats[i].ID = i
		partStats[i].ElementTypes = make(map[mesh.ShapeKind]int)
		partStats[i].NumNeighbors = make(map[int]int)
	}

	for elem, part := range res.EToP {
		stats := &partStats[part]
		stats.NumElements++
		stats.ElementTypes[mp.topo.CellShapes[elem]]++
		stats.ComputeLoad += int64(mp.computeCostModel(mp.topo.CellShapes[elem]))
		for _, holder := range res.GhostHolders[elem] {
			partStats[holder].NumGhosts++
		}
	}

	// Analyze communication
	var (
		cutFaces   int
		commVolume int64
		faceCost   = int64(mp.commCostModel(mp.topo.Dimensions))
	)
	for elem, nbrs := range mp.nbrs {
		elemPart := res.EToP[elem]
		for _, neighbor := range nbrs {
			if neighbor <= elem { // Count each face once
				continue
			}
			if neighborPart := res.EToP[neighbor]; neighborPart != elemPart {
				cutFaces++
				commVolume += faceCost
				partStats[elemPart].NumNeighbors[neighborPart]++
				partStats[neighborPart].NumNeighbors[elemPart]++
			}
		}
	}

	// Compute load imbalance
	var (
		avgLoad float64
		maxLoad int64
		minLoad int64 = math.MaxInt64
	)
	for _, stats := range partStats {
		avgLoad += float64(stats.ComputeLoad)
		maxLoad = max(maxLoad, stats.ComputeLoad)
		minLoad = min(minLoad, stats.ComputeLoad)
	}
	avgLoad /= float64(nparts)
	imbalance := float64(maxLoad)/avgLoad - 1.0

	mp.logger.Info("partition analysis",
		zap.Int32("objective", res.ObjVal),
		zap.Int("cutFaces", cutFaces),
		zap.Int64("commVolume", commVolume),
		zap.Float64("imbalancePercent", imbalance*100),
		zap.Int64("minLoad", minLoad),
		zap.Int64("maxLoad", maxLoad),
		zap.Float64("avgLoad", avgLoad))
	for _, stats := range partStats {
		mp.logger.Debug("partition",
			zap.Int("id", stats.ID),
			zap.Int("elements", stats.NumElements),
			zap.Int("ghosts", stats.NumGhosts),
			zap.Int64("computeLoad", stats.ComputeLoad),
			zap.Int("neighbors", len(stats.NumNeighbors)))
	}
	return
}
