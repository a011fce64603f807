/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/fvmesh/InputParameters"
	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/mesh/readers"
)

// ImportCmd represents the import command
var ImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Build the finite volume topology of a Gmsh mesh",
	Long: `
Builds the vertex coordinates, face vertices and cell faces of a Gmsh 2.x mesh
and writes them as YAML or JSON. With a partition id only that partition's
owned and ghost cells are built, with a number of partitions every partition
is built concurrently.

fvmesh import -F mesh.msh -d 2 -o mesh.yaml
fvmesh import -F s3://meshes/wing.msh.zst -d 3 -p 2
fvmesh import -F wing_8.msh -d 3 -n 8 -o wing.json -f json`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var ip *InputParameters.ImportParameters
		if ip, err = processInput(cmd); err != nil {
			return
		}
		if viper.GetBool("verbose") {
			ip.Print()
		}
		return RunImport(cmd.Context(), ip, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(ImportCmd)
	addMeshFlags(ImportCmd)
	ImportCmd.Flags().IntP("partitionID", "p", 0, "partition to build, numbered from 1, 0 builds the whole mesh")
	ImportCmd.Flags().IntP("numPartitions", "n", 0, "build all partitions of a partitioned mesh concurrently")
	ImportCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")
}

// addMeshFlags adds the flags shared by the commands that read a mesh
func addMeshFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("meshFile", "F", "", "Gmsh 2.x ASCII mesh, a path or s3://bucket/key, optionally .gz .zst or .lz4")
	cmd.Flags().IntP("dimensions", "d", 2, "mesh dimension, 2 or 3")
	cmd.Flags().IntP("coordDimensions", "c", 0, "coordinates kept per vertex, defaults to the mesh dimension")
	cmd.Flags().StringP("inputParametersFile", "I", "", "YAML file holding the import parameters")
	cmd.Flags().StringP("output", "o", "", "output file, standard output when empty")
	cmd.Flags().Float64("minVersion", 0, "override the minimum accepted $MeshFormat version")
	cmd.Flags().Bool("cyclicTetFaces", false, "use cyclic windows for tetrahedron faces")
}

// processInput reads the parameters file when given, then applies the flags
// that were set on the command line
func processInput(cmd *cobra.Command) (ip *InputParameters.ImportParameters, err error) {
	ip = &InputParameters.ImportParameters{}
	flags := cmd.Flags()
	if fileName, _ := flags.GetString("inputParametersFile"); len(fileName) != 0 {
		var data []byte
		if data, err = os.ReadFile(fileName); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			return nil, fmt.Errorf("reading %s: %w", fileName, err)
		}
	}
	override := func(name string) bool {
		return flags.Lookup(name) != nil && (flags.Changed(name) || !flagFromFile(name, ip))
	}
	if override("meshFile") {
		ip.MeshFile, _ = flags.GetString("meshFile")
	}
	if override("dimensions") {
		ip.Dimensions, _ = flags.GetInt("dimensions")
	}
	if override("coordDimensions") {
		ip.CoordDimensions, _ = flags.GetInt("coordDimensions")
	}
	if override("partitionID") {
		ip.PartitionID, _ = flags.GetInt("partitionID")
	}
	if override("numPartitions") {
		ip.NumPartitions, _ = flags.GetInt("numPartitions")
	}
	if override("output") {
		ip.Output, _ = flags.GetString("output")
	}
	if override("format") {
		ip.Format, _ = flags.GetString("format")
	}
	if override("minVersion") {
		ip.MinVersion, _ = flags.GetFloat64("minVersion")
	}
	if override("cyclicTetFaces") {
		ip.CyclicTetFaces, _ = flags.GetBool("cyclicTetFaces")
	}
	err = ip.Validate()
	return
}

// flagFromFile reports whether the parameters file already set a value
func flagFromFile(name string, ip *InputParameters.ImportParameters) bool {
	switch name {
	case "meshFile":
		return len(ip.MeshFile) != 0
	case "dimensions":
		return ip.Dimensions != 0
	case "coordDimensions":
		return ip.CoordDimensions != 0
	case "partitionID":
		return ip.PartitionID != 0
	case "numPartitions":
		return ip.NumPartitions != 0
	case "output":
		return len(ip.Output) != 0
	case "format":
		return len(ip.Format) != 0
	case "minVersion":
		return ip.MinVersion != 0
	case "cyclicTetFaces":
		return ip.CyclicTetFaces
	}
	return false
}

func readerOptions(ip *InputParameters.ImportParameters) readers.Options {
	return readers.Options{
		Dimensions:      ip.Dimensions,
		CoordDimensions: ip.CoordDimensions,
		MinVersion:      ip.MinVersion,
		TempDir:         viper.GetString("tempDir"),
		CyclicTetFaces:  ip.CyclicTetFaces,
		Source:          sourceConfig(ip.S3),
		Logger:          logger,
	}
}

// RunImport builds the requested topologies and writes them to ip.Output, or
// to stdout when no output is named
func RunImport(ctx context.Context, ip *InputParameters.ImportParameters, stdout io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := readerOptions(ip)
	switch {
	case ip.PartitionID > 0:
		var topo *mesh.Topology
		if topo, err = readers.ReadGmshPartitionFile(ctx, ip.MeshFile, ip.PartitionID, opts); err != nil {
			return
		}
		return writeTopology(ip.Output, stdout, topo, ip.Format)
	case ip.NumPartitions > 0:
		var (
			parts []*mesh.Topology
			gc    mesh.GlobalCounts
		)
		parts, gc, err = readers.ReadGmshPartitions(ctx, readers.LocationOpener(ip.MeshFile, opts.Source),
			ip.NumPartitions, opts)
		if err != nil {
			return
		}
		logger.Info("global counts", zap.Int("cells", gc.Cells), zap.Int("ghosts", gc.Ghosts),
			zap.Int("faces", gc.Faces), zap.Int("partitions", gc.Partitions))
		if len(ip.Output) == 0 {
			// One stream, a YAML document or JSON array element per partition
			return mesh.WriteTopologies(stdout, parts, ip.Format)
		}
		for _, topo := range parts {
			if err = writeTopology(partitionOutput(ip.Output, topo.PartitionID), stdout, topo, ip.Format); err != nil {
				return
			}
		}
		return
	default:
		var topo *mesh.Topology
		if topo, err = readers.ReadGmshFile(ctx, ip.MeshFile, opts); err != nil {
			return
		}
		return writeTopology(ip.Output, stdout, topo, ip.Format)
	}
}

// partitionOutput names the output file of one partition, mesh.yaml becomes
// mesh.p3.yaml
func partitionOutput(output string, pid int) string {
	if len(output) == 0 {
		return ""
	}
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s.p%d%s", strings.TrimSuffix(output, ext), pid, ext)
}

func writeTopology(output string, stdout io.Writer, topo *mesh.Topology, format string) (err error) {
	if len(output) == 0 {
		return mesh.WriteTopology(stdout, topo, format)
	}
	var f *os.File
	if f, err = os.Create(output); err != nil {
		return
	}
	if err = mesh.WriteTopology(f, topo, format); err != nil {
		f.Close()
		return
	}
	if err = f.Close(); err == nil {
		logger.Info("wrote topology", zap.String("file", output))
	}
	return
}
