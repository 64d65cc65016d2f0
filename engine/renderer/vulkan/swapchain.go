package vulkan

import (
	"fmt"
	stdmath "math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	// framebuffers used for on-screen rendering.
	Framebuffers []*VulkanFramebuffer
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// chooseSurfaceFormat prefers an sRGB BGRA8 target, then a UNORM one, then the first reported.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	preferred := []vk.Format{vk.FormatB8g8r8a8Srgb, vk.FormatB8g8r8a8Unorm}
	for _, want := range preferred {
		for _, format := range formats {
			if format.Format == want && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return format
			}
		}
	}
	return formats[0]
}

// choosePresentMode returns FIFO under vsync, otherwise mailbox when offered.
func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	// FIFO is always available.
	return vk.PresentModeFifo
}

// chooseExtent uses the surface extent when fixed, else the framebuffer size clamped to the surface limits.
func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != stdmath.MaxUint32 {
		return capabilities.CurrentExtent
	}
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  math.Clamp(width, min.Width, max.Width),
		Height: math.Clamp(height, min.Height, max.Height),
	}
}

// chooseImageCount asks for one image above the minimum, capped by the maximum when there is one.
func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// swapchainStatus maps acquire and present results onto the frame loop's view.
func swapchainStatus(result vk.Result) (metadata.SwapchainStatus, error) {
	switch result {
	case vk.Success:
		return metadata.SwapchainStatusOptimal, nil
	case vk.Suboptimal:
		return metadata.SwapchainStatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return metadata.SwapchainStatusOutOfDate, nil
	}
	return metadata.SwapchainStatusOptimal, fmt.Errorf("swapchain operation failed with %s: %w", VulkanResultString(result, false), vk.Error(result))
}

func SwapchainCreate(context *VulkanContext, width, height uint32, vsync bool) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, support); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		err := fmt.Errorf("func SwapchainCreate - surface reports no formats or present modes: %w", core.ErrNoSuitableDevice)
		core.LogError(err.Error())
		return nil, err
	}

	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes, vsync),
		Extent:      chooseExtent(support.Capabilities, width, height),
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    chooseImageCount(support.Capabilities),
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		err := fmt.Errorf("func SwapchainCreate - failed to create swapchain: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = swapchainHandle

	// Images
	var imageCount uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &imageCount, nil); res != vk.Success {
		swapchain.Destroy(context)
		err := fmt.Errorf("func SwapchainCreate - failed to get swapchain images: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &imageCount, swapchain.Images); res != vk.Success {
		swapchain.Destroy(context)
		err := fmt.Errorf("func SwapchainCreate - failed to get swapchain images: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	// Views
	swapchain.Views = make([]vk.ImageView, 0, imageCount)
	for _, image := range swapchain.Images {
		view, err := createImageView(context, image, swapchain.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			swapchain.Destroy(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	// Depth resources
	if !DeviceDetectDepthFormat(context.Device) {
		swapchain.Destroy(context)
		err := fmt.Errorf("func SwapchainCreate - no supported depth format: %w", core.ErrNoSuitableDevice)
		core.LogError(err.Error())
		return nil, err
	}
	depthAttachment, err := ImageCreate(
		context,
		swapchain.Extent.Width,
		swapchain.Extent.Height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		swapchain.Destroy(context)
		return nil, err
	}
	swapchain.DepthAttachment = depthAttachment

	context.FramebufferWidth = swapchain.Extent.Width
	context.FramebufferHeight = swapchain.Extent.Height

	core.LogInfo("Swapchain created: %dx%d, %d images, present mode %d.",
		swapchain.Extent.Width, swapchain.Extent.Height, len(swapchain.Images), swapchain.PresentMode)
	return swapchain, nil
}

// RegenerateFramebuffers builds one framebuffer per swapchain image, sharing the depth attachment.
func (vs *VulkanSwapchain) RegenerateFramebuffers(context *VulkanContext, renderpass *VulkanRenderpass) error {
	vs.destroyFramebuffers(context)
	vs.Framebuffers = make([]*VulkanFramebuffer, 0, len(vs.Views))
	for _, view := range vs.Views {
		attachments := []vk.ImageView{view, vs.DepthAttachment.View}
		fb, err := FramebufferCreate(context, renderpass, vs.Extent.Width, vs.Extent.Height, attachments)
		if err != nil {
			return err
		}
		vs.Framebuffers = append(vs.Framebuffers, fb)
	}
	return nil
}

func (vs *VulkanSwapchain) AcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore) (uint32, metadata.SwapchainStatus, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNS, imageAvailableSemaphore, vk.NullFence, &imageIndex)
	status, err := swapchainStatus(result)
	if err != nil {
		return 0, status, fmt.Errorf("func AcquireNextImageIndex - %w", err)
	}
	return imageIndex, status, nil
}

func (vs *VulkanSwapchain) Present(presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) (metadata.SwapchainStatus, error) {
	// Return the image to the swapchain for presentation.
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}
	status, err := swapchainStatus(vk.QueuePresent(presentQueue, &presentInfo))
	if err != nil {
		return status, fmt.Errorf("func Present - %w", err)
	}
	return status, nil
}

func (vs *VulkanSwapchain) destroyFramebuffers(context *VulkanContext) {
	for _, fb := range vs.Framebuffers {
		fb.Destroy(context)
	}
	vs.Framebuffers = nil
}

// Destroy releases the framebuffers, the depth image, the views and the
// swapchain. The images are owned by the swapchain. Safe to call twice.
func (vs *VulkanSwapchain) Destroy(context *VulkanContext) {
	if vs == nil {
		return
	}
	vs.destroyFramebuffers(context)
	vs.DepthAttachment.Destroy(context)
	vs.DepthAttachment = nil

	for _, view := range vs.Views {
		if view != nil {
			vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
		}
	}
	vs.Views = nil
	vs.Images = nil

	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}
