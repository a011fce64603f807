package readers

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/notargets/fvmesh/mesh"
)

func stringOpener(content string) Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}
}

func TestReadGmshPartitions(t *testing.T) {
	defer goleak.VerifyNone(t)

	opts := Options{Dimensions: 2, Logger: zaptest.NewLogger(t)}
	parts, gc, err := ReadGmshPartitions(context.Background(), stringOpener(partitionedStripMsh), 3, opts)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	for np, topo := range parts {
		assert.Equal(t, np+1, topo.PartitionID)
	}
	assert.Equal(t, mesh.GlobalCounts{Cells: 4, Ghosts: 2, Faces: 14, Partitions: 3}, gc)

	// Every global cell is owned exactly once
	owners := make(map[int]int)
	for _, topo := range parts {
		for _, gid := range topo.OwnedGlobalIDs {
			owners[gid]++
		}
	}
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1}, owners)
}

func TestReadGmshPartitions_Errors(t *testing.T) {
	defer goleak.VerifyNone(t)

	opts := Options{Dimensions: 2}
	_, _, err := ReadGmshPartitions(context.Background(), stringOpener(partitionedStripMsh), 0, opts)
	assert.Error(t, err)

	boom := errors.New("boom")
	failing := func(ctx context.Context) (io.ReadCloser, error) { return nil, boom }
	parts, _, err := ReadGmshPartitions(context.Background(), failing, 4, opts)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, parts)

	// Version errors surface through the runner
	_, _, err = ReadGmshPartitions(context.Background(), stringOpener(twoTriangleMsh), 2, opts)
	assert.True(t, errors.Is(err, mesh.ErrVersionUnsupported), "got %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ReadGmshPartitions(ctx, stringOpener(partitionedStripMsh), 2, opts)
	assert.ErrorIs(t, err, context.Canceled)
}
