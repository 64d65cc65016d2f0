package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief Vertex colour of primitives without a base colour factor. */
var DefaultBaseColour = math.NewVec3(0.7, 0.7, 0.8)

/** @brief Loaded models are scaled so their bounding box diagonal has this length. */
const ModelFitExtent float32 = 2.0

// ModelLoader reads glTF 2.0 (.gltf and .glb) files. The resource data is
// a *metadata.MeshData holding every triangle primitive merged into one mesh.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	mesh, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     mesh.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeMesh,
		DataSize: uint64(len(mesh.Vertices)),
		Data:     mesh,
	}, nil
}

func (ml *ModelLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// LoadModel reads and parses a glTF or GLB file.
func LoadModel(path string) (*metadata.MeshData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mesh, err := ParseModel(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("func LoadModel - %s: %w", path, err)
	}
	mesh.Name = filepath.Base(path)
	return mesh, nil
}

/**
 * @brief Merges every triangle primitive of a glTF blob into one mesh,
 * centred on the origin and scaled to ModelFitExtent.
 *
 * @param data The .gltf JSON or .glb bytes.
 * @param baseDir Directory external buffers and images are resolved against.
 * @return The mesh data. BaseColourImage is the first base colour texture found.
 */
func ParseModel(data []byte, baseDir string) (*metadata.MeshData, error) {
	asset, err := parseGLTF(data, baseDir)
	if err != nil {
		return nil, err
	}

	mesh := &metadata.MeshData{}
	for _, m := range asset.doc.Meshes {
		if mesh.Name == "" {
			mesh.Name = m.Name
		}
		for _, prim := range m.Primitives {
			if prim.Mode != nil && *prim.Mode != primitiveTriangles {
				continue
			}
			if err := asset.appendPrimitive(mesh, &prim); err != nil {
				return nil, err
			}
		}
	}
	if len(mesh.Vertices) == 0 {
		return nil, fmt.Errorf("no geometry found in model: %w", core.ErrInvalidMesh)
	}
	fitToExtent(mesh.Vertices, ModelFitExtent)
	mesh.BaseColourImage = asset.firstBaseColourImage()
	return mesh, nil
}

func (a *gltfAsset) appendPrimitive(mesh *metadata.MeshData, prim *gltfPrimitive) error {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil
	}
	positions, err := a.readFloats(posIndex, 3)
	if err != nil {
		return err
	}

	var normals, uvs [][4]float32
	if index, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = a.readFloats(index, 3); err != nil {
			return err
		}
	}
	if index, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = a.readFloats(index, 2); err != nil {
			return err
		}
	}

	colour := DefaultBaseColour
	if mat := a.material(prim.Material); mat != nil && mat.PBRMetallicRoughness != nil {
		if f := mat.PBRMetallicRoughness.BaseColorFactor; len(f) >= 3 {
			colour = math.NewVec3(f[0], f[1], f[2])
		} else {
			colour = math.NewVec3One()
		}
	}

	base := uint32(len(mesh.Vertices))
	for i, p := range positions {
		v := math.Vertex3D{
			Position: math.NewVec3(p[0], p[1], p[2]),
			Normal:   math.NewVec3Up(),
			Colour:   colour,
		}
		if i < len(normals) {
			v.Normal = math.NewVec3(normals[i][0], normals[i][1], normals[i][2])
		}
		if i < len(uvs) {
			v.Texcoord = math.NewVec2(uvs[i][0], uvs[i][1])
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	if prim.Indices == nil {
		for i := range positions {
			mesh.Indices = append(mesh.Indices, base+uint32(i))
		}
		return nil
	}
	indices, err := a.readIndices(*prim.Indices)
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return fmt.Errorf("gltf: index %d out of range (%d vertices): %w", idx, len(positions), core.ErrInvalidMesh)
		}
		mesh.Indices = append(mesh.Indices, base+idx)
	}
	return nil
}

func (a *gltfAsset) material(index *int) *gltfMaterial {
	if index == nil || *index < 0 || *index >= len(a.doc.Materials) {
		return nil
	}
	return &a.doc.Materials[*index]
}

// firstBaseColourImage walks primitives in order and returns the bytes of
// the first base colour texture that can be read.
func (a *gltfAsset) firstBaseColourImage() []byte {
	for _, m := range a.doc.Meshes {
		for _, prim := range m.Primitives {
			mat := a.material(prim.Material)
			if mat == nil || mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
				continue
			}
			texIndex := mat.PBRMetallicRoughness.BaseColorTexture.Index
			if texIndex < 0 || texIndex >= len(a.doc.Textures) || a.doc.Textures[texIndex].Source == nil {
				continue
			}
			data, err := a.imageBytes(*a.doc.Textures[texIndex].Source)
			if err != nil {
				core.LogWarn("could not read base colour texture %d: %v", texIndex, err)
				continue
			}
			return data
		}
	}
	return nil
}

// fitToExtent centres vertices on the origin and scales their bounding box
// diagonal to extent.
func fitToExtent(vertices []math.Vertex3D, extent float32) {
	minB := vertices[0].Position
	maxB := vertices[0].Position
	for _, v := range vertices[1:] {
		p := v.Position
		minB = math.NewVec3(min(minB.X, p.X), min(minB.Y, p.Y), min(minB.Z, p.Z))
		maxB = math.NewVec3(max(maxB.X, p.X), max(maxB.Y, p.Y), max(maxB.Z, p.Z))
	}
	centre := minB.Add(maxB).MulScalar(0.5)
	scale := float32(1)
	if length := maxB.Sub(minB).Length(); length > 0 {
		scale = extent / length
	}
	for i := range vertices {
		vertices[i].Position = vertices[i].Position.Sub(centre).MulScalar(scale)
	}
}
