package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
)

/**
 * @brief A buffer and its dedicated memory. Host visible buffers can stay
 * mapped for their whole lifetime.
 */
type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	Size        vk.DeviceSize
	Usage       vk.BufferUsageFlags
	MemoryFlags vk.MemoryPropertyFlags

	mapped unsafe.Pointer
}

func NewBuffer(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags, mapMemory bool) (*VulkanBuffer, error) {
	outBuffer := &VulkanBuffer{
		Size:        size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive, // NOTE: Only used in one queue.
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("func NewBuffer - failed to create buffer: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	outBuffer.Handle = handle

	// Gather memory requirements.
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, outBuffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		outBuffer.Destroy(context)
		err := fmt.Errorf("func NewBuffer - failed to allocate %d bytes: %s: %w", requirements.Size, VulkanResultString(res, true), core.ErrAllocation)
		core.LogError(err.Error())
		return nil, err
	}
	outBuffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, outBuffer.Handle, outBuffer.Memory, 0); res != vk.Success {
		outBuffer.Destroy(context)
		err := fmt.Errorf("func NewBuffer - failed to bind buffer memory: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	if mapMemory {
		if err := outBuffer.Map(context); err != nil {
			outBuffer.Destroy(context)
			return nil, err
		}
	}
	return outBuffer, nil
}

// Map maps the whole buffer. Mapping an already mapped buffer is a no-op.
func (vb *VulkanBuffer) Map(context *VulkanContext) error {
	if vb.mapped != nil {
		return nil
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, vb.Memory, 0, vb.Size, 0, &data); res != vk.Success {
		err := fmt.Errorf("func Map - failed to map buffer memory: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vb.mapped = data
	return nil
}

func (vb *VulkanBuffer) Unmap(context *VulkanContext) {
	if vb.mapped == nil {
		return
	}
	vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
	vb.mapped = nil
}

func (vb *VulkanBuffer) IsMapped() bool {
	return vb.mapped != nil
}

/**
 * @brief Copies data into the buffer at offset. A buffer that is not
 * persistently mapped is mapped for the duration of the copy.
 */
func (vb *VulkanBuffer) LoadData(context *VulkanContext, offset vk.DeviceSize, data []byte) error {
	if offset+vk.DeviceSize(len(data)) > vb.Size {
		err := fmt.Errorf("func LoadData - %d bytes at offset %d overflow a buffer of %d bytes: %w", len(data), offset, vb.Size, core.ErrAllocation)
		core.LogError(err.Error())
		return err
	}
	if len(data) == 0 {
		return nil
	}

	if vb.mapped != nil {
		vk.Memcopy(unsafe.Add(vb.mapped, offset), data)
		return nil
	}

	var ptr unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, vb.Memory, offset, vk.DeviceSize(len(data)), 0, &ptr); res != vk.Success {
		err := fmt.Errorf("func LoadData - failed to map buffer memory: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
	return nil
}

// CopyTo records and submits a copy of size bytes into dst.
func (vb *VulkanBuffer) CopyTo(context *VulkanContext, sourceOffset vk.DeviceSize, dst *VulkanBuffer, dstOffset, size vk.DeviceSize) error {
	return context.WithSingleUseCommands(func(cb vk.CommandBuffer) error {
		region := vk.BufferCopy{
			SrcOffset: sourceOffset,
			DstOffset: dstOffset,
			Size:      size,
		}
		vk.CmdCopyBuffer(cb, vb.Handle, dst.Handle, 1, []vk.BufferCopy{region})
		return nil
	})
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb == nil {
		return
	}
	vb.Unmap(context)
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	vb.Size = 0
}

// asBytes views a value as its raw bytes for upload.
func asBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// sliceBytes views a slice as its raw bytes for upload.
func sliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
