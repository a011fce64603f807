package mesh

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

/*
Ownership is the partition information carried by an element's tags.
Reading the tag list from its end, the run of negative values names the other
partitions that hold a ghost copy of the element, and the first non negative
value before that run is the owning partition. A partitioned Gmsh 2.x element
written as

	physical elementary nPart owner -g1 -g2

parses to Owner = owner, GhostHolders = [g2 g1].
*/
type Ownership struct {
	Owner        int
	GhostHolders []int
}

func ParseOwnership(tags []int) (o Ownership, err error) {
	if len(tags) == 0 {
		err = Malformed("element has no tags to take ownership from")
		return
	}
	i := len(tags) - 1
	for ; i >= 0 && tags[i] < 0; i-- {
		o.GhostHolders = append(o.GhostHolders, -tags[i])
	}
	if i < 0 {
		err = Malformed("element tags %v have no owning partition", tags)
		return
	}
	o.Owner = tags[i]
	if slices.Contains(o.GhostHolders, o.Owner) {
		err = Malformed("element tags %v list owner %d as a ghost holder", tags, o.Owner)
		return
	}
	return
}

// Classify tests ownership and ghosting independently, an element can be
// owned by pid and ghosted elsewhere
func (o Ownership) Classify(pid int) (owned, ghost bool) {
	owned = o.Owner == pid
	ghost = slices.Contains(o.GhostHolders, pid)
	return
}

// LocalCells collects the owned and ghost cells of one partition in element
// block order
type LocalCells struct {
	PartitionID    int
	Owned, Ghost   []RetainedElement
	OwnedGlobalIDs []int
	GhostGlobalIDs []int
	// IDOffset is the element ID of the first retained element seen, local or not
	IDOffset    int
	HasIDOffset bool
	// Referenced holds every vertex ID used by a local cell
	Referenced *roaring64.Bitmap
}

func NewLocalCells(pid int) (lc *LocalCells, err error) {
	if pid < 1 {
		err = Malformed("partition ID %d must be 1 or greater", pid)
		return
	}
	lc = &LocalCells{
		PartitionID: pid,
		Referenced:  roaring64.New(),
	}
	return
}

// Add classifies a retained element for this partition and records it when
// owned or ghosted here
func (lc *LocalCells) Add(re RetainedElement) (err error) {
	if !lc.HasIDOffset {
		lc.IDOffset = re.ID
		lc.HasIDOffset = true
	}
	var o Ownership
	if o, err = ParseOwnership(re.Tags); err != nil {
		err = fmt.Errorf("element %d: %w", re.ID, err)
		return
	}
	owned, ghost := o.Classify(lc.PartitionID)
	if !owned && !ghost {
		return
	}
	if owned {
		lc.Owned = append(lc.Owned, re)
		lc.OwnedGlobalIDs = append(lc.OwnedGlobalIDs, re.ID-lc.IDOffset)
	}
	if ghost {
		lc.Ghost = append(lc.Ghost, re)
		lc.GhostGlobalIDs = append(lc.GhostGlobalIDs, re.ID-lc.IDOffset)
	}
	for _, id := range re.VertexIDs {
		lc.Referenced.Add(uint64(id))
	}
	return
}

// Cells returns the owned cells followed by the ghost cells
func (lc *LocalCells) Cells() (cells []RetainedElement) {
	cells = make([]RetainedElement, 0, len(lc.Owned)+len(lc.Ghost))
	cells = append(cells, lc.Owned...)
	cells = append(cells, lc.Ghost...)
	return
}

func (lc *LocalCells) NumCells() int { return len(lc.Owned) + len(lc.Ghost) }
