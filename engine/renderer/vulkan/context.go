package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
)

type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	err := fmt.Errorf("func FindMemoryIndex - no memory type for filter %#x and flags %#x: %w", typeFilter, propertyFlags, core.ErrAllocation)
	core.LogWarn(err.Error())
	return 0, err
}

/**
 * @brief Allocates a one-shot command buffer from the graphics pool, records fn
 * into it, submits it and waits for the graphics queue to go idle. The buffer
 * is freed on every path.
 */
func (vc *VulkanContext) WithSingleUseCommands(fn func(cb vk.CommandBuffer) error) error {
	cb, err := AllocateAndBeginSingleUse(vc, vc.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	defer cb.Free(vc, vc.Device.GraphicsCommandPool)

	if err := fn(cb.Handle); err != nil {
		// Close the recording so the buffer can be freed in a valid state.
		cb.End()
		return err
	}
	return cb.EndSingleUse(vc, vc.Device.GraphicsQueue)
}
