package readers

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/fvmesh/mesh"
	"github.com/notargets/fvmesh/utils"
)

// Opener opens an independent stream over the same partitioned mesh source
type Opener func(ctx context.Context) (io.ReadCloser, error)

// LocationOpener opens location with OpenSource on every call
func LocationOpener(location string, cfg SourceConfig) Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return OpenSource(ctx, location, cfg)
	}
}

// ctxReader fails reads once its context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

/*
ReadGmshPartitions imports partitions 1 through nParts concurrently. Each
partition opens its own stream and builds its topology with no shared state,
the per partition counts are then reduced once.
The first failure cancels the remaining partitions and is returned alone.
*/
func ReadGmshPartitions(ctx context.Context, open Opener, nParts int,
	opts Options) (parts []*mesh.Topology, gc mesh.GlobalCounts, err error) {
	if nParts < 1 {
		err = fmt.Errorf("number of partitions %d must be 1 or greater", nParts)
		return
	}
	var (
		logger  = opts.GetLogger()
		g, gctx = errgroup.WithContext(ctx)
	)
	parts = make([]*mesh.Topology, nParts)
	for np := 0; np < nParts; np++ {
		np := np
		pid := np + 1
		g.Go(func() error {
			rc, err := open(gctx)
			if err != nil {
				return fmt.Errorf("partition %d: %w", pid, err)
			}
			defer rc.Close()
			topo, err := ReadGmshPartition(ctxReader{ctx: gctx, r: rc}, pid, opts)
			if err != nil {
				return fmt.Errorf("partition %d: %w", pid, err)
			}
			parts[np] = topo
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		parts = nil
		return
	}
	gc = mesh.ReduceCounts(parts)
	logger.Info("imported partitions",
		append([]zap.Field{
			zap.Int("partitions", gc.Partitions),
			zap.Int("cells", gc.Cells),
			zap.Int("ghosts", gc.Ghosts),
			zap.Int("faces", gc.Faces),
		}, utils.MemUsageFields()...)...)
	return
}
