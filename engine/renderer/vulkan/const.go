package vulkan

/**
 * @brief Max number of material binding tables allocated from the material pool.
 */
const VULKAN_MAX_MATERIAL_COUNT uint32 = 64

/**
 * @brief Max number of overlay vertices written per frame slot.
 */
const VULKAN_MAX_UI_VERTEX_COUNT uint32 = 4096

/** @brief The validation layer enabled when RendererConfig.EnableValidation is set. */
const VULKAN_VALIDATION_LAYER = "VK_LAYER_KHRONOS_validation"

const (
	mainShaderName  = "main"
	debugShaderName = "debug"
	uiShaderName    = "ui"
)

const (
	// Set 0 of the scene pipelines.
	globalUBOBinding   uint32 = 0
	globalLightBinding uint32 = 1
	// Set 1 of every pipeline.
	materialSamplerBinding uint32 = 0
)
