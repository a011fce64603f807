package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOwnership(t *testing.T) {
	{ // File order [2 -3], reversed [-3 2]
		o, err := ParseOwnership([]int{2, -3})
		require.NoError(t, err)
		assert.Equal(t, 2, o.Owner)
		assert.Equal(t, []int{3}, o.GhostHolders)

		owned, ghost := o.Classify(3)
		assert.False(t, owned)
		assert.True(t, ghost)
		owned, ghost = o.Classify(2)
		assert.True(t, owned)
		assert.False(t, ghost)
		owned, ghost = o.Classify(5)
		assert.False(t, owned)
		assert.False(t, ghost)
	}
	{ // Full partitioned tag list
		o, err := ParseOwnership([]int{99, 7, 3, 1, -2, -4})
		require.NoError(t, err)
		assert.Equal(t, 1, o.Owner)
		assert.Equal(t, []int{4, 2}, o.GhostHolders)
	}
	{ // No ghosts
		o, err := ParseOwnership([]int{99, 7, 1, 3})
		require.NoError(t, err)
		assert.Equal(t, 3, o.Owner)
		assert.Empty(t, o.GhostHolders)
	}
	for _, tags := range [][]int{{}, {-1, -2}, {2, -2}} {
		_, err := ParseOwnership(tags)
		assert.True(t, errors.Is(err, ErrMalformedInput), "tags %v: got %v", tags, err)
	}
}

func TestLocalCells(t *testing.T) {
	_, err := NewLocalCells(0)
	assert.Error(t, err)

	lc, err := NewLocalCells(2)
	require.NoError(t, err)
	res := []RetainedElement{
		{ElementRecord: ElementRecord{ID: 11, Tags: []int{1, 1, 1, 1}, VertexIDs: []int{1, 2, 3}}, Shape: Triangle},
		{ElementRecord: ElementRecord{ID: 12, Tags: []int{1, 1, 2, 1, -2}, VertexIDs: []int{2, 3, 4}}, Shape: Triangle},
		{ElementRecord: ElementRecord{ID: 13, Tags: []int{1, 1, 2, 2, -1}, VertexIDs: []int{3, 4, 5}}, Shape: Triangle},
		{ElementRecord: ElementRecord{ID: 14, Tags: []int{1, 1, 1, 2}, VertexIDs: []int{4, 5, 6}}, Shape: Triangle},
	}
	for _, re := range res {
		require.NoError(t, lc.Add(re))
	}
	assert.True(t, lc.HasIDOffset)
	assert.Equal(t, 11, lc.IDOffset)
	assert.Equal(t, []int{2, 3}, lc.OwnedGlobalIDs)
	assert.Equal(t, []int{1}, lc.GhostGlobalIDs)
	assert.Equal(t, 3, lc.NumCells())
	cells := lc.Cells()
	assert.Equal(t, []int{13, 14, 12}, []int{cells[0].ID, cells[1].ID, cells[2].ID})
	assert.Equal(t, []uint64{2, 3, 4, 5, 6}, lc.Referenced.ToArray())

	bad := RetainedElement{ElementRecord: ElementRecord{ID: 15, Tags: []int{1, 1, 2, 2, -2}}, Shape: Triangle}
	assert.True(t, errors.Is(lc.Add(bad), ErrMalformedInput))
}
