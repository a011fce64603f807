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

	"github.com/spf13/cobra"

	"github.com/notargets/fvmesh/InputParameters"
	"github.com/notargets/fvmesh/mesh/partitioner"
)

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a serial Gmsh mesh and write it with partition tags",
	Long: `
Partitions the cells of a serial Gmsh 2.x mesh with METIS, or in contiguous
blocks, and writes a Gmsh 2.5 mesh whose cells carry owner and ghost partition
tags, ready for "fvmesh import -p" or "fvmesh import -n".

fvmesh partition -F mesh.msh -d 3 -n 8 -o mesh_8.msh`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var ip *InputParameters.ImportParameters
		if ip, err = processInput(cmd); err != nil {
			return
		}
		if ip.NumPartitions < 1 {
			return fmt.Errorf("must supply the number of partitions (-n, --numPartitions)")
		}
		cfg := partitioner.DefaultConfig(int32(ip.NumPartitions))
		cfg.Method, _ = cmd.Flags().GetString("method")
		cfg.Objective, _ = cmd.Flags().GetString("objective")
		imb, _ := cmd.Flags().GetFloat64("imbalance")
		cfg.ImbalanceFactor = float32(imb)
		return RunPartition(cmd.Context(), ip, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	addMeshFlags(PartitionCmd)
	PartitionCmd.Flags().IntP("numPartitions", "n", 0, "number of partitions")
	PartitionCmd.Flags().String("method", "metis", "partitioning method: metis or block")
	PartitionCmd.Flags().String("objective", "vol", "METIS objective: vol (communication volume) or cut (edge cut)")
	PartitionCmd.Flags().Float64("imbalance", 1.05, "allowed load imbalance factor")
}

// RunPartition partitions ip.MeshFile and writes the result to ip.Output, or
// to stdout when no output is named
func RunPartition(ctx context.Context, ip *InputParameters.ImportParameters,
	cfg *partitioner.Config, stdout io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	w := stdout
	if len(ip.Output) != 0 {
		var f *os.File
		if f, err = os.Create(ip.Output); err != nil {
			return
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	_, err = partitioner.PartitionFile(ctx, ip.MeshFile, w, cfg, readerOptions(ip))
	return
}
