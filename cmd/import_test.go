package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fvmesh/InputParameters"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/mesh/partitioner"
	"github.com/notargets/fvmesh/mesh/readers"
)

func twoQuadMesh(t *testing.T) (path string) {
	b := readers.NewGmsh22Builder("2.2").
		AddNode(1, 0, 0, 0).AddNode(2, 1, 0, 0).AddNode(3, 2, 0, 0).
		AddNode(4, 0, 1, 0).AddNode(5, 1, 1, 0).AddNode(6, 2, 1, 0).
		AddElement(1, 3, []int{0, 1}, 1, 2, 5, 4).
		AddElement(2, 3, []int{0, 1}, 2, 3, 6, 5)
	path = filepath.Join(t.TempDir(), "quads.msh")
	require.NoError(t, os.WriteFile(path, []byte(b.Build()), 0644))
	return
}

func TestRunImport(t *testing.T) {
	var (
		meshFile = twoQuadMesh(t)
		dir      = t.TempDir()
		buf      bytes.Buffer
	)
	ip := &InputParameters.ImportParameters{MeshFile: meshFile, Dimensions: 2}
	require.NoError(t, ip.Validate())
	require.NoError(t, RunImport(context.Background(), ip, &buf))
	doc, err := mesh.ReadTopologyDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.NumCells)
	assert.Equal(t, 7, doc.NumFaces)
	assert.Equal(t, 6, doc.NumVertices)
	assert.Equal(t, []string{"Quad", "Quad"}, doc.CellShapes)

	// Partition into two blocks, then build both partitions
	partitioned := filepath.Join(dir, "quads_2.msh")
	cfg := partitioner.DefaultConfig(2)
	cfg.Method = "block"
	require.NoError(t, RunPartition(context.Background(),
		&InputParameters.ImportParameters{MeshFile: meshFile, Dimensions: 2, Output: partitioned}, cfg, nil))

	ip = &InputParameters.ImportParameters{MeshFile: partitioned, Dimensions: 2, NumPartitions: 2,
		Output: filepath.Join(dir, "quads.json"), Format: "json"}
	require.NoError(t, ip.Validate())
	require.NoError(t, RunImport(context.Background(), ip, nil))
	for pid := 1; pid <= 2; pid++ {
		f, err := os.Open(filepath.Join(dir, partitionOutput("quads.json", pid)))
		require.NoError(t, err)
		doc, err := mesh.ReadTopologyDocument(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, pid, doc.PartitionID)
		assert.Equal(t, 1, doc.NumOwned)
		assert.Equal(t, 1, doc.NumGhosts)
		assert.Equal(t, []int{pid - 1}, doc.OwnedGlobalIDs)
		assert.Equal(t, []int{2 - pid}, doc.GhostGlobalIDs)
	}

	// All partitions to stdout keep their own documents
	for _, format := range []string{"yaml", "json"} {
		buf.Reset()
		ip = &InputParameters.ImportParameters{MeshFile: partitioned, Dimensions: 2, NumPartitions: 2,
			Format: format}
		require.NoError(t, ip.Validate())
		require.NoError(t, RunImport(context.Background(), ip, &buf))
		docs, err := mesh.ReadTopologyDocuments(&buf)
		require.NoError(t, err)
		require.Len(t, docs, 2, format)
		for i, doc := range docs {
			assert.Equal(t, i+1, doc.PartitionID)
			assert.Equal(t, []int{i}, doc.OwnedGlobalIDs)
		}
	}

	// A single partition
	buf.Reset()
	ip = &InputParameters.ImportParameters{MeshFile: partitioned, Dimensions: 2, PartitionID: 2}
	require.NoError(t, ip.Validate())
	require.NoError(t, RunImport(context.Background(), ip, &buf))
	doc, err = mesh.ReadTopologyDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, doc.OwnedGlobalIDs)

	// The serial file is below the partitioned version
	ip = &InputParameters.ImportParameters{MeshFile: meshFile, Dimensions: 2, PartitionID: 1}
	require.NoError(t, ip.Validate())
	assert.ErrorIs(t, RunImport(context.Background(), ip, &buf), mesh.ErrVersionUnsupported)
}

func TestProcessInput(t *testing.T) {
	paramsFile := filepath.Join(t.TempDir(), "import.yaml")
	require.NoError(t, os.WriteFile(paramsFile, []byte(`
MeshFile: a.msh
Dimensions: 3
Format: json
`), 0644))

	cmd := &cobra.Command{}
	addMeshFlags(cmd)
	cmd.Flags().StringP("format", "f", "yaml", "")
	require.NoError(t, cmd.Flags().Set("inputParametersFile", paramsFile))
	require.NoError(t, cmd.Flags().Set("meshFile", "b.msh"))

	ip, err := processInput(cmd)
	require.NoError(t, err)
	assert.Equal(t, "b.msh", ip.MeshFile) // Command line wins
	assert.Equal(t, 3, ip.Dimensions)     // Flag default does not replace the file
	assert.Equal(t, 3, ip.CoordDimensions)
	assert.Equal(t, "json", ip.Format)

	cmd = &cobra.Command{}
	addMeshFlags(cmd)
	_, err = processInput(cmd)
	assert.Error(t, err) // No mesh file
}

func TestPartitionOutput(t *testing.T) {
	assert.Equal(t, "mesh.p3.yaml", partitionOutput("mesh.yaml", 3))
	assert.Equal(t, "out/mesh.p1", partitionOutput("out/mesh", 1))
	assert.Equal(t, "", partitionOutput("", 2))
}
