package loaders

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"path/filepath"
	"strings"
)

// The subset of the glTF 2.0 document read by the model loader.
type gltfDocument struct {
	Accessors   []gltfAccessor   `json:"accessors"`
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Images      []gltfImage      `json:"images"`
	Materials   []gltfMaterial   `json:"materials"`
	Meshes      []gltfMesh       `json:"meshes"`
	Textures    []gltfTexture    `json:"textures"`
}

type gltfAccessor struct {
	BufferView    *int   `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Normalized    bool   `json:"normalized"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride"`
}

type gltfImage struct {
	URI        string `json:"uri"`
	MimeType   string `json:"mimeType"`
	BufferView *int   `json:"bufferView"`
}

type gltfMaterial struct {
	PBRMetallicRoughness *struct {
		BaseColorFactor  []float32 `json:"baseColorFactor"`
		BaseColorTexture *struct {
			Index int `json:"index"`
		} `json:"baseColorTexture"`
	} `json:"pbrMetallicRoughness"`
}

type gltfMesh struct {
	Name       string          `json:"name"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
	Material   *int           `json:"material"`
	Mode       *int           `json:"mode"`
}

type gltfTexture struct {
	Source *int `json:"source"`
}

// accessor.componentType values.
const (
	componentByte          = 5120
	componentUnsignedByte  = 5121
	componentShort         = 5122
	componentUnsignedShort = 5123
	componentUnsignedInt   = 5125
	componentFloat         = 5126
)

const primitiveTriangles = 4

// GLB framing.
const (
	glbMagic     = 0x46546c67
	glbChunkJSON = 0x4e4f534a
	glbChunkBIN  = 0x004e4942
	glbHeaderLen = 12
)

var (
	errNotGLB        = errors.New("gltf: not a GLB blob")
	errInvalidChunk  = errors.New("gltf: invalid GLB chunk")
	errAccessorRange = errors.New("gltf: accessor out of range")
)

// gltfAsset is a parsed document with its buffers resolved.
type gltfAsset struct {
	doc     gltfDocument
	buffers [][]byte
	baseDir string
}

func isGLB(data []byte) bool {
	return len(data) >= glbHeaderLen && binary.LittleEndian.Uint32(data) == glbMagic
}

/**
 * @brief Splits a GLB blob into its JSON chunk and optional BIN chunk.
 */
func splitGLB(data []byte) ([]byte, []byte, error) {
	if !isGLB(data) {
		return nil, nil, errNotGLB
	}
	if version := binary.LittleEndian.Uint32(data[4:]); version != 2 {
		return nil, nil, fmt.Errorf("gltf: unsupported GLB version %d", version)
	}
	total := int(binary.LittleEndian.Uint32(data[8:]))
	if total > len(data) {
		return nil, nil, errInvalidChunk
	}

	var jsonChunk, binChunk []byte
	offset := glbHeaderLen
	for offset+8 <= total {
		length := int(binary.LittleEndian.Uint32(data[offset:]))
		kind := binary.LittleEndian.Uint32(data[offset+4:])
		start := offset + 8
		if length < 0 || start+length > total {
			return nil, nil, errInvalidChunk
		}
		switch kind {
		case glbChunkJSON:
			jsonChunk = data[start : start+length]
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = data[start : start+length]
			}
		}
		// Chunks are padded to four bytes.
		offset = start + (length+3)&^3
	}
	if len(jsonChunk) == 0 {
		return nil, nil, errInvalidChunk
	}
	return jsonChunk, binChunk, nil
}

/**
 * @brief Parses a .gltf or .glb blob. External URIs are resolved against baseDir.
 */
func parseGLTF(data []byte, baseDir string) (*gltfAsset, error) {
	jsonChunk := data
	var binChunk []byte
	if isGLB(data) {
		var err error
		if jsonChunk, binChunk, err = splitGLB(data); err != nil {
			return nil, err
		}
	}

	asset := &gltfAsset{baseDir: baseDir}
	if err := json.NewDecoder(bytes.NewReader(jsonChunk)).Decode(&asset.doc); err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}

	asset.buffers = make([][]byte, len(asset.doc.Buffers))
	for i, b := range asset.doc.Buffers {
		var (
			payload []byte
			err     error
		)
		switch {
		case b.URI == "" && i == 0 && binChunk != nil:
			payload = binChunk
		case b.URI != "":
			payload, err = asset.readURI(b.URI)
		default:
			err = fmt.Errorf("gltf: buffer %d has no data", i)
		}
		if err != nil {
			return nil, err
		}
		if len(payload) < b.ByteLength {
			return nil, fmt.Errorf("gltf: buffer %d is %d bytes, want %d", i, len(payload), b.ByteLength)
		}
		asset.buffers[i] = payload
	}
	return asset, nil
}

// readURI decodes a data URI or reads a file relative to the document.
func (a *gltfAsset) readURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		comma := strings.IndexByte(uri, ',')
		if comma < 0 || !strings.HasSuffix(uri[:comma], ";base64") {
			return nil, fmt.Errorf("gltf: unsupported data uri")
		}
		return base64.StdEncoding.DecodeString(uri[comma+1:])
	}
	return os.ReadFile(filepath.Join(a.baseDir, filepath.FromSlash(uri)))
}

func (a *gltfAsset) bufferView(index int) ([]byte, int, error) {
	if index < 0 || index >= len(a.doc.BufferViews) {
		return nil, 0, errAccessorRange
	}
	view := a.doc.BufferViews[index]
	if view.Buffer < 0 || view.Buffer >= len(a.buffers) {
		return nil, 0, errAccessorRange
	}
	buf := a.buffers[view.Buffer]
	end := view.ByteOffset + view.ByteLength
	if view.ByteOffset < 0 || end > len(buf) {
		return nil, 0, errAccessorRange
	}
	return buf[view.ByteOffset:end], view.ByteStride, nil
}

func componentCount(kind string) int {
	switch kind {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	}
	return 0
}

func componentSize(componentType int) int {
	switch componentType {
	case componentByte, componentUnsignedByte:
		return 1
	case componentShort, componentUnsignedShort:
		return 2
	case componentUnsignedInt, componentFloat:
		return 4
	}
	return 0
}

// accessorElements returns the element bytes of an accessor and its stride.
func (a *gltfAsset) accessorElements(index int) (*gltfAccessor, []byte, int, error) {
	if index < 0 || index >= len(a.doc.Accessors) {
		return nil, nil, 0, errAccessorRange
	}
	acc := &a.doc.Accessors[index]
	size := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if size == 0 {
		return nil, nil, 0, fmt.Errorf("gltf: accessor %d has unsupported layout %s/%d", index, acc.Type, acc.ComponentType)
	}
	if acc.BufferView == nil {
		// Accessors without a view read as zeros.
		return acc, make([]byte, size*acc.Count), size, nil
	}
	view, stride, err := a.bufferView(*acc.BufferView)
	if err != nil {
		return nil, nil, 0, err
	}
	if stride == 0 {
		stride = size
	}
	if acc.Count > 0 && acc.ByteOffset+(acc.Count-1)*stride+size > len(view) {
		return nil, nil, 0, errAccessorRange
	}
	return acc, view[acc.ByteOffset:], stride, nil
}

func readComponent(data []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case componentFloat:
		return gomath.Float32frombits(binary.LittleEndian.Uint32(data))
	case componentUnsignedByte:
		if normalized {
			return float32(data[0]) / 255.0
		}
		return float32(data[0])
	case componentByte:
		if normalized {
			return max(float32(int8(data[0]))/127.0, -1)
		}
		return float32(int8(data[0]))
	case componentUnsignedShort:
		v := binary.LittleEndian.Uint16(data)
		if normalized {
			return float32(v) / 65535.0
		}
		return float32(v)
	case componentShort:
		v := int16(binary.LittleEndian.Uint16(data))
		if normalized {
			return max(float32(v)/32767.0, -1)
		}
		return float32(v)
	case componentUnsignedInt:
		return float32(binary.LittleEndian.Uint32(data))
	}
	return 0
}

/**
 * @brief Reads the first n components of every element of a float accessor.
 */
func (a *gltfAsset) readFloats(index, n int) ([][4]float32, error) {
	acc, data, stride, err := a.accessorElements(index)
	if err != nil {
		return nil, err
	}
	csize := componentSize(acc.ComponentType)
	count := min(n, componentCount(acc.Type), 4)
	out := make([][4]float32, acc.Count)
	for i := range out {
		element := data[i*stride:]
		for c := 0; c < count; c++ {
			out[i][c] = readComponent(element[c*csize:], acc.ComponentType, acc.Normalized)
		}
	}
	return out, nil
}

// readIndices reads an unsigned scalar accessor.
func (a *gltfAsset) readIndices(index int) ([]uint32, error) {
	acc, data, stride, err := a.accessorElements(index)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	for i := range out {
		element := data[i*stride:]
		switch acc.ComponentType {
		case componentUnsignedByte:
			out[i] = uint32(element[0])
		case componentUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(element))
		case componentUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(element)
		default:
			return nil, fmt.Errorf("gltf: index accessor %d has component type %d", index, acc.ComponentType)
		}
	}
	return out, nil
}

// imageBytes returns the encoded bytes of an image, embedded or external.
func (a *gltfAsset) imageBytes(index int) ([]byte, error) {
	if index < 0 || index >= len(a.doc.Images) {
		return nil, errAccessorRange
	}
	img := a.doc.Images[index]
	if img.BufferView != nil {
		data, _, err := a.bufferView(*img.BufferView)
		return data, err
	}
	if img.URI != "" {
		return a.readURI(img.URI)
	}
	return nil, fmt.Errorf("gltf: image %d has no data", index)
}
