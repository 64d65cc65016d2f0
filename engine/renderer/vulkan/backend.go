package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const engineName = "Lumen"

/**
 * @brief The Vulkan implementation of renderer.RendererBackend. All calls
 * come from the render thread.
 */
type VulkanRenderer struct {
	window  *platform.Window
	config  metadata.RendererConfig
	context *VulkanContext

	descriptors *VulkanDescriptors
	pipelines   vulkanPipelineSet
	frames      [metadata.MaxFramesInFlight]*vulkanFrameSlot
	// The fence of the slot that last rendered into each swapchain image.
	imagesInFlight []*VulkanFence
	geometry       vulkanGeometryBuffers

	materialSampler    vk.Sampler
	fontSampler        vk.Sampler
	defaultMaterialSet vk.DescriptorSet
	fontImage          *VulkanImage
	fontSet            vk.DescriptorSet

	validation  bool
	initialized bool
}

func New(window *platform.Window) *VulkanRenderer {
	return &VulkanRenderer{
		window:  window,
		context: &VulkanContext{},
	}
}

/**
 * @brief Brings up the instance, surface, device, swapchain, render pass,
 * frame slots, descriptors and pipelines in dependency order. A failure
 * leaves the created objects in place for Shutdown.
 */
func (vr *VulkanRenderer) Initialize(config *metadata.RendererConfig) error {
	if vr.initialized {
		return nil
	}
	vr.config = *config
	if vr.config.MaxMaterials == 0 || vr.config.MaxMaterials > VULKAN_MAX_MATERIAL_COUNT {
		vr.config.MaxMaterials = VULKAN_MAX_MATERIAL_COUNT
	}

	procAddr := platform.GetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("func Initialize - GetInstanceProcAddress is nil: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		err = fmt.Errorf("func Initialize - failed to initialize vk: %w", err)
		core.LogError(err.Error())
		return err
	}

	if err := vr.createInstance(); err != nil {
		return err
	}
	if vr.validation {
		if err := vr.createDebugCallback(); err != nil {
			return err
		}
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.window.CreateSurface(vr.context.Instance)
	if err != nil {
		return err
	}
	vr.context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	// Device creation
	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	// Swapchain, render pass and framebuffers.
	width, height := vr.window.FramebufferSize()
	sc, err := SwapchainCreate(vr.context, width, height, vr.config.VSync)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	vr.imagesInFlight = make([]*VulkanFence, len(sc.Images))

	rp, err := RenderpassCreate(vr.context, vr.config.ClearColour, 1.0, 0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	if err := vr.context.Swapchain.RegenerateFramebuffers(vr.context, vr.context.MainRenderpass); err != nil {
		return err
	}

	// Frame slots
	for i := range vr.frames {
		slot, err := newFrameSlot(vr.context)
		vr.frames[i] = slot
		if err != nil {
			return err
		}
	}

	// Descriptors
	descriptors, err := NewDescriptors(vr.context, vr.config.MaxMaterials)
	if err != nil {
		return err
	}
	vr.descriptors = descriptors
	for i, slot := range vr.frames {
		vr.descriptors.WriteGlobal(vr.context, uint32(i), slot.CameraBuffer, slot.LightBuffer)
	}

	if vr.materialSampler, err = NewSampler(vr.context, vk.SamplerAddressModeRepeat); err != nil {
		return err
	}
	if vr.fontSampler, err = NewSampler(vr.context, vk.SamplerAddressModeClampToEdge); err != nil {
		return err
	}

	// Pipelines
	pipelines, err := createPipelineSet(vr.context, vr.config.ShaderDir, vr.descriptors.GlobalLayout, vr.descriptors.MaterialLayout)
	if err != nil {
		return err
	}
	vr.pipelines = pipelines

	vr.initialized = true
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.ApplicationName),
		PEngineName:        VulkanSafeString(engineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := vr.window.RequiredInstanceExtensions()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	// Validation layers.
	var layers []string
	vr.validation = false
	if vr.config.EnableValidation {
		available, err := enumerateInstanceLayers()
		if err != nil {
			return err
		}
		if missing := missingExtensions(available, []string{VULKAN_VALIDATION_LAYER}); len(missing) > 0 {
			core.LogWarn("Validation requested but %s is missing, continuing without it.", VULKAN_VALIDATION_LAYER)
		} else {
			layers = []string{VULKAN_VALIDATION_LAYER}
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
			vr.validation = true
			core.LogInfo("Validation layer %s enabled.", VULKAN_VALIDATION_LAYER)
		}
	}

	core.LogDebug("Required instance extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		err := fmt.Errorf("func createInstance - failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		err = fmt.Errorf("func createInstance - %w", err)
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func enumerateInstanceLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		err := fmt.Errorf("func enumerateInstanceLayers - %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	properties := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, properties); res != vk.Success {
		err := fmt.Errorf("func enumerateInstanceLayers - %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		names = append(names, vk.ToString(properties[i].LayerName[:]))
	}
	return names, nil
}

func (vr *VulkanRenderer) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, vr.context.Allocator, &dbg)); err != nil {
		err = fmt.Errorf("func createDebugCallback - vk.CreateDebugReportCallback failed: %w", err)
		core.LogError(err.Error())
		return err
	}
	vr.context.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (vr *VulkanRenderer) WaitIdle() error {
	if vr.context.Device == nil || vr.context.Device.LogicalDevice == nil {
		return nil
	}
	if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); !VulkanResultIsSuccess(res) {
		err := fmt.Errorf("func WaitIdle - vkDeviceWaitIdle failed: '%s'", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	return nil
}

/**
 * @brief Rebuilds the swapchain and everything sized by it. While the
 * window is minimized this blocks on window events. On failure the context
 * has no swapchain and the next acquire reports it out of date.
 */
func (vr *VulkanRenderer) RecreateSwapchain() error {
	if !vr.initialized {
		err := fmt.Errorf("func RecreateSwapchain - %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return err
	}
	if err := vr.WaitIdle(); err != nil {
		return err
	}

	vr.context.Swapchain.Destroy(vr.context)
	vr.context.Swapchain = nil

	width, height := vr.window.FramebufferSize()
	for (width == 0 || height == 0) && !vr.window.ShouldClose() {
		vr.window.WaitEvents()
		width, height = vr.window.FramebufferSize()
	}
	if width == 0 || height == 0 {
		err := fmt.Errorf("func RecreateSwapchain - window closed while minimized: %w", core.ErrSwapchainOutOfDate)
		core.LogWarn(err.Error())
		return err
	}

	sc, err := SwapchainCreate(vr.context, width, height, vr.config.VSync)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	vr.imagesInFlight = make([]*VulkanFence, len(sc.Images))

	if err := sc.RegenerateFramebuffers(vr.context, vr.context.MainRenderpass); err != nil {
		sc.Destroy(vr.context)
		vr.context.Swapchain = nil
		return err
	}
	core.LogInfo("Swapchain recreated at %dx%d.", sc.Extent.Width, sc.Extent.Height)
	return nil
}

/**
 * @brief Rebuilds the three pipelines from the shader directory. The old
 * pipelines are kept if any of the new ones fails.
 */
func (vr *VulkanRenderer) ReloadPipelines() error {
	if !vr.initialized {
		err := fmt.Errorf("func ReloadPipelines - %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return err
	}
	if err := vr.WaitIdle(); err != nil {
		return err
	}
	pipelines, err := createPipelineSet(vr.context, vr.config.ShaderDir, vr.descriptors.GlobalLayout, vr.descriptors.MaterialLayout)
	if err != nil {
		return fmt.Errorf("func ReloadPipelines - keeping the previous pipelines: %w", err)
	}
	vr.pipelines.destroy(vr.context)
	vr.pipelines = pipelines
	core.LogInfo("Pipelines reloaded from %s.", vr.config.ShaderDir)
	return nil
}

// SetOverlayFont uploads the atlas and binds it to the overlay pass, replacing
// the previous one. If the new set cannot be allocated the overlay has no font.
func (vr *VulkanRenderer) SetOverlayFont(atlas *metadata.ImageData) error {
	if !vr.initialized {
		err := fmt.Errorf("func SetOverlayFont - %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return err
	}
	image, err := uploadImage(vr.context, atlas.Width, atlas.Height, atlas.Pixels)
	if err != nil {
		return err
	}
	set, err := swapSamplerSet(vr.releaseFont, func() (vk.DescriptorSet, error) {
		return vr.descriptors.AllocateSampler(vr.context, image.View, vr.fontSampler)
	})
	if err != nil {
		image.Destroy(vr.context)
		return err
	}
	vr.fontImage = image
	vr.fontSet = set
	return nil
}

// swapSamplerSet releases the current set before allocating its replacement,
// so a pool with no spare set can still swap one.
func swapSamplerSet(release func(), allocate func() (vk.DescriptorSet, error)) (vk.DescriptorSet, error) {
	release()
	return allocate()
}

func (vr *VulkanRenderer) releaseFont() {
	if vr.fontImage == nil && vr.fontSet == nil {
		return
	}
	vr.WaitIdle()
	vr.descriptors.FreeSampler(vr.context, vr.fontSet)
	vr.fontSet = nil
	vr.fontImage.Destroy(vr.context)
	vr.fontImage = nil
}

/**
 * @brief Destroys everything in reverse creation order. Safe after a
 * partial Initialize and when called twice.
 */
func (vr *VulkanRenderer) Shutdown() error {
	ctx := vr.context
	if ctx.Device != nil && ctx.Device.LogicalDevice != nil {
		vr.WaitIdle()

		if vr.descriptors != nil {
			vr.releaseFont()
		}
		vr.pipelines.destroy(ctx)
		if vr.fontSampler != nil {
			vk.DestroySampler(ctx.Device.LogicalDevice, vr.fontSampler, ctx.Allocator)
			vr.fontSampler = nil
		}
		if vr.materialSampler != nil {
			vk.DestroySampler(ctx.Device.LogicalDevice, vr.materialSampler, ctx.Allocator)
			vr.materialSampler = nil
		}
		vr.descriptors.Destroy(ctx)
		vr.descriptors = nil
		vr.defaultMaterialSet = nil

		vr.geometry.destroy(ctx)
		for i := range vr.frames {
			vr.frames[i].destroy(ctx)
			vr.frames[i] = nil
		}
		vr.imagesInFlight = nil

		ctx.Swapchain.Destroy(ctx)
		ctx.Swapchain = nil
		ctx.MainRenderpass.Destroy(ctx)
		ctx.MainRenderpass = nil

		core.LogDebug("Destroying Vulkan device...")
		DeviceDestroy(ctx)
	}
	ctx.Device = nil

	if ctx.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}
	if ctx.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugCallback, ctx.Allocator)
		ctx.debugCallback = vk.NullDebugReportCallback
	}
	if ctx.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}

	vr.initialized = false
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
