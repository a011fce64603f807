package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type ImportParameters struct {
	Title           string            `yaml:"Title"`
	MeshFile        string            `yaml:"MeshFile"`
	Dimensions      int               `yaml:"Dimensions"`
	CoordDimensions int               `yaml:"CoordDimensions"`
	NumPartitions   int               `yaml:"NumPartitions"`
	PartitionID     int               `yaml:"PartitionID"` // 0 imports the whole mesh
	MinVersion      float64           `yaml:"MinVersion"`
	CyclicTetFaces  bool              `yaml:"CyclicTetFaces"`
	Output          string            `yaml:"Output"`
	Format          string            `yaml:"Format"` // "yaml" or "json"
	S3              map[string]string `yaml:"S3"`     // Endpoint, AccessKey, SecretKey, Region
}

func (ip *ImportParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// Validate fills defaults and checks the parameters for consistency
func (ip *ImportParameters) Validate() (err error) {
	if len(ip.MeshFile) == 0 {
		return fmt.Errorf("must supply a mesh file")
	}
	if ip.Dimensions != 2 && ip.Dimensions != 3 {
		return fmt.Errorf("dimensions must be 2 or 3, have %d", ip.Dimensions)
	}
	if ip.CoordDimensions == 0 {
		ip.CoordDimensions = ip.Dimensions
	}
	if ip.PartitionID < 0 || ip.NumPartitions < 0 {
		return fmt.Errorf("partition id %d and number of partitions %d must not be negative",
			ip.PartitionID, ip.NumPartitions)
	}
	if ip.NumPartitions > 0 && ip.PartitionID > ip.NumPartitions {
		return fmt.Errorf("partition id %d exceeds the number of partitions %d",
			ip.PartitionID, ip.NumPartitions)
	}
	switch ip.Format {
	case "":
		ip.Format = "yaml"
	case "yaml", "json":
	default:
		return fmt.Errorf("unknown output format %q", ip.Format)
	}
	return
}

func (ip *ImportParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t= MeshFile\n", ip.MeshFile)
	fmt.Printf("[%d]\t\t\t\t= Dimensions\n", ip.Dimensions)
	fmt.Printf("[%d]\t\t\t\t= Coordinate Dimensions\n", ip.CoordDimensions)
	fmt.Printf("[%d]\t\t\t\t= Number of Partitions\n", ip.NumPartitions)
	fmt.Printf("[%d]\t\t\t\t= Partition ID\n", ip.PartitionID)
	fmt.Printf("[%v]\t\t\t= Cyclic Tet Faces\n", ip.CyclicTetFaces)
	fmt.Printf("[%s]\t\t\t= Format\n", ip.Format)
	keys := make([]string, len(ip.S3))
	i := 0
	for k := range ip.S3 {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "SecretKey" {
			fmt.Printf("S3[%s] = ****\n", key)
			continue
		}
		fmt.Printf("S3[%s] = %v\n", key, ip.S3[key])
	}
}
