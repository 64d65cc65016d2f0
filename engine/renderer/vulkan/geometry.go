package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
)

/**
 * @brief The device local arenas holding every mesh of the geometry pool.
 * Both are replaced as a whole on each upload.
 */
type vulkanGeometryBuffers struct {
	Vertex      *VulkanBuffer
	Index       *VulkanBuffer
	VertexCount uint32
	IndexCount  uint32
}

func (gb *vulkanGeometryBuffers) ready() bool {
	return gb.Vertex != nil && gb.Index != nil && gb.IndexCount > 0
}

func (gb *vulkanGeometryBuffers) destroy(context *VulkanContext) {
	gb.Vertex.Destroy(context)
	gb.Index.Destroy(context)
	gb.Vertex = nil
	gb.Index = nil
	gb.VertexCount = 0
	gb.IndexCount = 0
}

// uploadDeviceLocal creates a device local buffer of the given usage holding data, going through a staging buffer.
func uploadDeviceLocal(context *VulkanContext, usage vk.BufferUsageFlags, data []byte) (*VulkanBuffer, error) {
	size := vk.DeviceSize(len(data))
	staging, err := NewBuffer(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		false)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, data); err != nil {
		return nil, err
	}

	buffer, err := NewBuffer(
		context,
		size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		false)
	if err != nil {
		return nil, err
	}
	if err := staging.CopyTo(context, 0, buffer, 0, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}

/**
 * @brief Replaces the vertex and index arenas with the given contents. The
 * device is idled first since in-flight frames may still read the old ones.
 */
func (vr *VulkanRenderer) UploadGeometry(vertices []math.Vertex3D, indices []uint32) error {
	if len(vertices) == 0 || len(indices) == 0 {
		err := fmt.Errorf("func UploadGeometry - %d vertices and %d indices: %w", len(vertices), len(indices), core.ErrEmptyMesh)
		core.LogError(err.Error())
		return err
	}
	if err := vr.WaitIdle(); err != nil {
		return err
	}
	vr.geometry.destroy(vr.context)

	vertexBuffer, err := uploadDeviceLocal(vr.context, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), sliceBytes(vertices))
	if err != nil {
		return err
	}
	indexBuffer, err := uploadDeviceLocal(vr.context, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), sliceBytes(indices))
	if err != nil {
		vertexBuffer.Destroy(vr.context)
		return err
	}

	vr.geometry = vulkanGeometryBuffers{
		Vertex:      vertexBuffer,
		Index:       indexBuffer,
		VertexCount: uint32(len(vertices)),
		IndexCount:  uint32(len(indices)),
	}
	core.LogDebug("Geometry uploaded: %d vertices, %d indices.", len(vertices), len(indices))
	return nil
}
