package vulkan

import (
	"fmt"
	stdmath "math"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief The per-slot state of a frame in flight: sync objects, the command
 * buffer and persistently mapped uniform and overlay memory.
 */
type vulkanFrameSlot struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *VulkanFence
	CommandBuffer  *VulkanCommandBuffer

	CameraBuffer  *VulkanBuffer
	LightBuffer   *VulkanBuffer
	OverlayBuffer *VulkanBuffer
	overlayCount  uint32
}

func newSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &semaphore); res != vk.Success {
		err := fmt.Errorf("func newSemaphore - failed to create semaphore: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func newFrameSlot(context *VulkanContext) (*vulkanFrameSlot, error) {
	slot := &vulkanFrameSlot{}
	var err error

	if slot.ImageAvailable, err = newSemaphore(context); err != nil {
		return slot, err
	}
	if slot.RenderFinished, err = newSemaphore(context); err != nil {
		return slot, err
	}
	// Created signaled so the first wait on the slot returns immediately.
	if slot.InFlight, err = NewFence(context, true); err != nil {
		return slot, err
	}
	if slot.CommandBuffer, err = NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true); err != nil {
		return slot, err
	}

	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	if slot.CameraBuffer, err = NewBuffer(context, vk.DeviceSize(unsafe.Sizeof(metadata.UniformBufferObject{})), vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible, true); err != nil {
		return slot, err
	}
	if slot.LightBuffer, err = NewBuffer(context, vk.DeviceSize(unsafe.Sizeof(metadata.LightUBO{})), vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible, true); err != nil {
		return slot, err
	}
	overlaySize := vk.DeviceSize(VULKAN_MAX_UI_VERTEX_COUNT) * vk.DeviceSize(unsafe.Sizeof(math.Vertex2D{}))
	if slot.OverlayBuffer, err = NewBuffer(context, overlaySize, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), hostVisible, true); err != nil {
		return slot, err
	}
	return slot, nil
}

func (fs *vulkanFrameSlot) destroy(context *VulkanContext) {
	if fs == nil {
		return
	}
	fs.OverlayBuffer.Destroy(context)
	fs.LightBuffer.Destroy(context)
	fs.CameraBuffer.Destroy(context)
	fs.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
	fs.InFlight.Destroy(context)
	if fs.RenderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(context.Device.LogicalDevice, fs.RenderFinished, context.Allocator)
		fs.RenderFinished = vk.NullSemaphore
	}
	if fs.ImageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(context.Device.LogicalDevice, fs.ImageAvailable, context.Allocator)
		fs.ImageAvailable = vk.NullSemaphore
	}
}

func (vr *VulkanRenderer) slot(index uint32) (*vulkanFrameSlot, error) {
	if !vr.initialized || index >= metadata.MaxFramesInFlight || vr.frames[index] == nil {
		err := fmt.Errorf("func slot - frame slot %d: %w", index, core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	return vr.frames[index], nil
}

// WaitForFrame blocks until the GPU has finished the last submission of the slot.
func (vr *VulkanRenderer) WaitForFrame(slot uint32) error {
	fs, err := vr.slot(slot)
	if err != nil {
		return err
	}
	return fs.InFlight.Wait(vr.context, stdmath.MaxUint64)
}

/**
 * @brief Acquires the next swapchain image. An image still owned by another
 * slot is waited for before it is handed out. Without a swapchain, after a
 * failed recreation, the status is out of date.
 */
func (vr *VulkanRenderer) AcquireNextImage(slot uint32) (uint32, metadata.SwapchainStatus, error) {
	fs, err := vr.slot(slot)
	if err != nil {
		return 0, metadata.SwapchainStatusOptimal, err
	}
	if vr.context.Swapchain == nil {
		return 0, metadata.SwapchainStatusOutOfDate, nil
	}
	imageIndex, status, err := vr.context.Swapchain.AcquireNextImageIndex(vr.context, stdmath.MaxUint64, fs.ImageAvailable)
	if err != nil || status == metadata.SwapchainStatusOutOfDate {
		return imageIndex, status, err
	}

	if int(imageIndex) < len(vr.imagesInFlight) {
		if owner := vr.imagesInFlight[imageIndex]; owner != nil && owner != fs.InFlight {
			if err := owner.Wait(vr.context, stdmath.MaxUint64); err != nil {
				return imageIndex, status, err
			}
		}
		vr.imagesInFlight[imageIndex] = fs.InFlight
	}
	return imageIndex, status, nil
}

// ResetFrame readies the slot's command buffer for recording. The fence is
// left signaled until SubmitFrame.
func (vr *VulkanRenderer) ResetFrame(slot uint32) error {
	fs, err := vr.slot(slot)
	if err != nil {
		return err
	}
	return fs.CommandBuffer.Reset()
}

/**
 * @brief Writes the camera and light uniforms and the overlay vertices of
 * the frame into the slot's mapped buffers. Overlay vertices beyond the
 * buffer capacity are dropped.
 */
func (vr *VulkanRenderer) UpdateFrame(slot uint32, frame *metadata.FrameData) error {
	fs, err := vr.slot(slot)
	if err != nil {
		return err
	}
	if err := fs.CameraBuffer.LoadData(vr.context, 0, asBytes(&frame.Camera)); err != nil {
		return err
	}
	if err := fs.LightBuffer.LoadData(vr.context, 0, asBytes(&frame.Lights)); err != nil {
		return err
	}

	overlay := frame.Overlay
	if uint32(len(overlay)) > VULKAN_MAX_UI_VERTEX_COUNT {
		core.LogWarn("func UpdateFrame - %d overlay vertices truncated to %d", len(overlay), VULKAN_MAX_UI_VERTEX_COUNT)
		overlay = overlay[:VULKAN_MAX_UI_VERTEX_COUNT]
	}
	// Whole quads only.
	overlay = overlay[:len(overlay)-len(overlay)%6]
	if err := fs.OverlayBuffer.LoadData(vr.context, 0, sliceBytes(overlay)); err != nil {
		return err
	}
	fs.overlayCount = uint32(len(overlay))
	return nil
}

func (vr *VulkanRenderer) drawIndexed(cb *VulkanCommandBuffer, pipeline *VulkanPipeline, draws []metadata.DrawCommand) {
	for i := range draws {
		draw := &draws[i]
		if draw.IndexCount == 0 {
			continue
		}
		vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, pipeline.PipelineLayout, 1, 1,
			[]vk.DescriptorSet{vr.materialSet(draw.Material)}, 0, nil)
		push := metadata.ModelPushConstant{Model: draw.Model}
		vk.CmdPushConstants(cb.Handle, pipeline.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			0, uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))
		vk.CmdDrawIndexed(cb.Handle, draw.IndexCount, 1, draw.IndexOffset, draw.VertexOffset, 0)
	}
}

/**
 * @brief Records the render pass of the frame: the scene, then the
 * wireframe debug entities when enabled, then the overlay quads.
 */
func (vr *VulkanRenderer) RecordFrame(slot, imageIndex uint32, frame *metadata.FrameData) error {
	fs, err := vr.slot(slot)
	if err != nil {
		return err
	}
	swapchain := vr.context.Swapchain
	if swapchain == nil {
		err := fmt.Errorf("func RecordFrame - %w", core.ErrSwapchainOutOfDate)
		core.LogError(err.Error())
		return err
	}
	if int(imageIndex) >= len(swapchain.Framebuffers) {
		err := fmt.Errorf("func RecordFrame - image index %d out of %d framebuffers", imageIndex, len(swapchain.Framebuffers))
		core.LogError(err.Error())
		return err
	}

	cb := fs.CommandBuffer
	if err := cb.Begin(false, false, false); err != nil {
		return err
	}

	// Dynamic state
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(swapchain.Extent.Width),
		Height:   float32(swapchain.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: swapchain.Extent,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.context.MainRenderpass.Begin(cb, swapchain.Framebuffers[imageIndex], swapchain.Extent)

	if vr.geometry.ready() {
		globalSets := []vk.DescriptorSet{vr.descriptors.GlobalSets[slot]}

		if len(frame.Scene) > 0 {
			vr.pipelines.Main.Bind(cb, vk.PipelineBindPointGraphics)
			vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{vr.geometry.Vertex.Handle}, []vk.DeviceSize{0})
			vk.CmdBindIndexBuffer(cb.Handle, vr.geometry.Index.Handle, 0, vk.IndexTypeUint32)
			vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, vr.pipelines.Main.PipelineLayout, 0, 1, globalSets, 0, nil)
			vr.drawIndexed(cb, vr.pipelines.Main, frame.Scene)
		}

		if frame.DrawDebug && len(frame.Debug) > 0 {
			vr.pipelines.Debug.Bind(cb, vk.PipelineBindPointGraphics)
			vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{vr.geometry.Vertex.Handle}, []vk.DeviceSize{0})
			vk.CmdBindIndexBuffer(cb.Handle, vr.geometry.Index.Handle, 0, vk.IndexTypeUint32)
			vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, vr.pipelines.Debug.PipelineLayout, 0, 1, globalSets, 0, nil)
			vr.drawIndexed(cb, vr.pipelines.Debug, frame.Debug)
		}
	}

	if fs.overlayCount > 0 && vr.fontSet != nil {
		ui := vr.pipelines.UI
		ui.Bind(cb, vk.PipelineBindPointGraphics)
		vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{fs.OverlayBuffer.Handle}, []vk.DeviceSize{0})
		vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, ui.PipelineLayout, 1, 1, []vk.DescriptorSet{vr.fontSet}, 0, nil)
		push := metadata.OverlayPushConstant{
			ScreenSize: math.NewVec2(float32(swapchain.Extent.Width), float32(swapchain.Extent.Height)),
		}
		vk.CmdPushConstants(cb.Handle, ui.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			0, uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))
		vk.CmdDraw(cb.Handle, fs.overlayCount, 1, 0, 0)
	}

	vr.context.MainRenderpass.End(cb)
	return cb.End()
}

func (vr *VulkanRenderer) SubmitFrame(slot uint32) error {
	fs, err := vr.slot(slot)
	if err != nil {
		return err
	}

	// Colour attachment writes wait until the image is available.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{fs.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{fs.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{fs.RenderFinished},
	}
	if err := fs.InFlight.Reset(vr.context); err != nil {
		return err
	}
	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fs.InFlight.Handle); res != vk.Success {
		err := fmt.Errorf("func SubmitFrame - vkQueueSubmit failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	fs.CommandBuffer.UpdateSubmitted()
	return nil
}

/**
 * @brief Releases a slot whose frame failed after the image was acquired.
 * An empty batch consumes the image semaphore and signals the fence, so the
 * next wait on the slot returns.
 */
func (vr *VulkanRenderer) AbortFrame(slot uint32) error {
	fs, err := vr.slot(slot)
	if err != nil {
		return err
	}
	if err := fs.InFlight.Reset(vr.context); err != nil {
		return err
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{fs.ImageAvailable},
		PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)},
	}
	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fs.InFlight.Handle); res != vk.Success {
		err := fmt.Errorf("func AbortFrame - vkQueueSubmit failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (vr *VulkanRenderer) PresentFrame(slot, imageIndex uint32) (metadata.SwapchainStatus, error) {
	fs, err := vr.slot(slot)
	if err != nil {
		return metadata.SwapchainStatusOptimal, err
	}
	if vr.context.Swapchain == nil {
		return metadata.SwapchainStatusOutOfDate, nil
	}
	return vr.context.Swapchain.Present(vr.context.Device.PresentQueue, fs.RenderFinished, imageIndex)
}

func (vr *VulkanRenderer) FramebufferExtent() (uint32, uint32) {
	return vr.context.FramebufferWidth, vr.context.FramebufferHeight
}
