package systems

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// GeometryUploader owns the GPU copy of the arena. UploadGeometry must wait
// for the device to go idle, release the previous buffers and create new
// ones holding exactly the given data.
type GeometryUploader interface {
	UploadGeometry(vertices []math.Vertex3D, indices []uint32) error
}

// GeometryPool is the append-only arena shared by every mesh. Any AddMesh
// invalidates the GPU copy; the next Rebuild re-uploads the whole arena.
type GeometryPool struct {
	vertices []math.Vertex3D
	indices  []uint32
	meshes   []metadata.Mesh
	dirty    bool
	uploaded bool
}

func NewGeometryPool() *GeometryPool {
	return &GeometryPool{}
}

/**
 * @brief Appends a mesh bound to the default material.
 *
 * @param vertices The mesh vertices.
 * @param indices Indices local to the mesh.
 * @return The mesh id, or InvalidID with ErrEmptyMesh if either input is empty.
 */
func (gp *GeometryPool) AddMesh(vertices []math.Vertex3D, indices []uint32) (uint32, error) {
	return gp.AddMeshWithMaterial(vertices, indices, metadata.DefaultMaterialID)
}

/**
 * @brief Appends a mesh bound to the given material.
 */
func (gp *GeometryPool) AddMeshWithMaterial(vertices []math.Vertex3D, indices []uint32, materialID uint32) (uint32, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return metadata.InvalidID, fmt.Errorf("func AddMesh - %w (vertices=%d, indices=%d)", core.ErrEmptyMesh, len(vertices), len(indices))
	}

	mesh := metadata.Mesh{
		VertexOffset: int32(len(gp.vertices)),
		IndexOffset:  uint32(len(gp.indices)),
		IndexCount:   uint32(len(indices)),
		MaterialID:   materialID,
	}
	gp.vertices = append(gp.vertices, vertices...)
	gp.indices = append(gp.indices, indices...)
	gp.meshes = append(gp.meshes, mesh)
	gp.dirty = true

	return uint32(len(gp.meshes) - 1), nil
}

// Mesh returns the mesh with the given id.
func (gp *GeometryPool) Mesh(id uint32) (metadata.Mesh, bool) {
	if id >= uint32(len(gp.meshes)) {
		return metadata.Mesh{}, false
	}
	return gp.meshes[id], true
}

func (gp *GeometryPool) MeshCount() uint32 {
	return uint32(len(gp.meshes))
}

func (gp *GeometryPool) VertexCount() int {
	return len(gp.vertices)
}

func (gp *GeometryPool) IndexCount() int {
	return len(gp.indices)
}

// IsDirty reports whether the GPU copy is stale.
func (gp *GeometryPool) IsDirty() bool {
	return gp.dirty
}

// HasBuffers reports whether at least one upload succeeded.
func (gp *GeometryPool) HasBuffers() bool {
	return gp.uploaded
}

/**
 * @brief Re-uploads the whole arena when it is dirty. Does nothing when the
 * arena is clean or empty.
 *
 * @param uploader The backend that owns the vertex and index buffers.
 * @return An error if the upload failed; the arena stays dirty.
 */
func (gp *GeometryPool) Rebuild(uploader GeometryUploader) error {
	if !gp.dirty || len(gp.vertices) == 0 || len(gp.indices) == 0 {
		return nil
	}
	if err := uploader.UploadGeometry(gp.vertices, gp.indices); err != nil {
		err = fmt.Errorf("func Rebuild - failed to upload geometry arena: %w", err)
		core.LogError(err.Error())
		return err
	}
	gp.dirty = false
	gp.uploaded = true
	core.LogDebug("geometry arena rebuilt: %d meshes, %d vertices, %d indices", len(gp.meshes), len(gp.vertices), len(gp.indices))
	return nil
}

// Invalidate drops the upload flag, e.g. after the backend released buffers.
func (gp *GeometryPool) Invalidate() {
	gp.uploaded = false
	if len(gp.meshes) > 0 {
		gp.dirty = true
	}
}
