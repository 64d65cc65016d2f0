package loaders

import (
	"io"
	"os"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// BinaryLoader reads a file verbatim. The resource data is a []byte.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &metadata.Resource{
		Name:     resourceName(params),
		FullPath: path,
		Type:     assetType,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// resourceName reads the optional "name" entry of loader params.
func resourceName(params interface{}) string {
	if p, ok := params.(map[string]string); ok {
		return p["name"]
	}
	return ""
}

// BytesToBytecode packs little endian bytes into SPIR-V words. Trailing
// bytes that do not fill a word are dropped.
func BytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
