package readers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notargets/fvmesh/mesh"
)

// Minimum $MeshFormat versions for each import mode
const (
	MinSerialVersion      = 2.0
	MinPartitionedVersion = 2.5
)

// Header is the content of the $MeshFormat section
type Header struct {
	Version       float64
	VersionString string
	FileType      int // 0 for ASCII, 1 for binary
	DataSize      int
}

func (h Header) IsBinary() bool { return h.FileType == 1 }

func (h Header) String() string {
	return fmt.Sprintf("%s %d %d", h.VersionString, h.FileType, h.DataSize)
}

func parseHeader(line string) (h Header, err error) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		err = mesh.Malformed("invalid MeshFormat line %q", line)
		return
	}
	h.VersionString = parts[0]
	if h.Version, err = strconv.ParseFloat(parts[0], 64); err != nil {
		err = mesh.Malformed("invalid MeshFormat version %q", parts[0])
		return
	}
	if h.FileType, err = strconv.Atoi(parts[1]); err != nil {
		err = mesh.Malformed("invalid MeshFormat file type %q", parts[1])
		return
	}
	if h.DataSize, err = strconv.Atoi(parts[2]); err != nil {
		err = mesh.Malformed("invalid MeshFormat data size %q", parts[2])
		return
	}
	return
}

// Check rejects headers this reader cannot parse: versions below minVersion,
// the version 4 block layout and binary files
func (h Header) Check(minVersion float64) error {
	switch {
	case h.Version < minVersion:
		return fmt.Errorf("%w: format version %s is below %.1f",
			mesh.ErrVersionUnsupported, h.VersionString, minVersion)
	case h.Version >= 3:
		return fmt.Errorf("%w: format version %s uses the block layout, only 2.x is read",
			mesh.ErrVersionUnsupported, h.VersionString)
	case h.IsBinary():
		return fmt.Errorf("%w: binary format is not read, convert with gmsh -format msh2",
			mesh.ErrVersionUnsupported)
	}
	return nil
}
