package loaders

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const spirvMagic uint32 = 0x07230203

// ShaderLoader reads a compiled SPIR-V module. The resource data is a []uint32.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	code, err := LoadSPIRV(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     resourceName(params),
		FullPath: path,
		Type:     metadata.ResourceTypeShader,
		DataSize: uint64(len(code) * 4),
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// LoadSPIRV reads a SPIR-V file and checks its magic number.
func LoadSPIRV(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSPIRV(data)
}

func ParseSPIRV(data []byte) ([]uint32, error) {
	if len(data) < 20 || len(data)%4 != 0 {
		return nil, fmt.Errorf("spirv: invalid module size %d", len(data))
	}
	code := BytesToBytecode(data)
	if code[0] != spirvMagic {
		return nil, fmt.Errorf("spirv: bad magic number 0x%08x", code[0])
	}
	return code, nil
}
