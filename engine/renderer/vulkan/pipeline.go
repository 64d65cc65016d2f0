package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	/** @brief The renderpass to associate with the pipeline. */
	Renderpass *VulkanRenderpass
	/** @brief The stride of the vertex data to be used (ex: sizeof(Vertex3D)) */
	Stride uint32
	/** @brief An array of attributes. */
	Attributes []vk.VertexInputAttributeDescription
	/** @brief An array of descriptor set layouts. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	/** @brief An array of stages. */
	Stages []*VulkanShaderStage
	/** @brief Wireframe pipelines rasterize lines. */
	IsWireframe bool
	CullMode    vk.CullModeFlagBits
	DepthTest   bool
	DepthWrite  bool
	/** @brief Enables src-alpha over one-minus-src-alpha blending. */
	AlphaBlend bool
	/** @brief Push constant ranges, all visible to the vertex stage. */
	PushConstantRanges []metadata.MemoryRange
}

// vertex3DAttributes matches locations 0..3 of the scene and debug shaders.
func vertex3DAttributes() []vk.VertexInputAttributeDescription {
	var v math.Vertex3D
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Normal))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Colour))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.Texcoord))},
	}
}

// vertex2DAttributes matches locations 0..2 of the overlay shader.
func vertex2DAttributes() []vk.VertexInputAttributeDescription {
	var v math.Vertex2D
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.Texcoord))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: uint32(unsafe.Offsetof(v.Colour))},
	}
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{}

	// Viewport and scissor are dynamic; only the counts matter here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(config.CullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	if config.IsWireframe {
		rasterizerCreateInfo.PolygonMode = vk.PolygonModeLine
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		DepthCompareOp:    vk.CompareOpLess,
		StencilTestEnable: vk.False,
	}
	if config.DepthTest {
		depthStencil.DepthTestEnable = vk.True
	}
	if config.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if config.AlphaBlend {
		colorBlendAttachmentState.BlendEnable = vk.True
		colorBlendAttachmentState.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		colorBlendAttachmentState.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		colorBlendAttachmentState.ColorBlendOp = vk.BlendOpAdd
		colorBlendAttachmentState.SrcAlphaBlendFactor = vk.BlendFactorOne
		colorBlendAttachmentState.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		colorBlendAttachmentState.AlphaBlendOp = vk.BlendOpAdd
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    config.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Pipeline layout
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:    config.DescriptorSetLayouts,
	}

	// Push constants
	if len(config.PushConstantRanges) > 0 {
		// NOTE: 32 is the max number of ranges we can ever have, since only 128 bytes with 4-byte alignment are guaranteed.
		if len(config.PushConstantRanges) > 32 {
			err := fmt.Errorf("func NewGraphicsPipeline - cannot have more than 32 push constant ranges, got %d", len(config.PushConstantRanges))
			core.LogError(err.Error())
			return nil, err
		}
		ranges := make([]vk.PushConstantRange, len(config.PushConstantRanges))
		for i, r := range config.PushConstantRanges {
			ranges[i] = vk.PushConstantRange{
				StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
				Offset:     uint32(r.Offset),
				Size:       uint32(r.Size),
			}
		}
		pipelineLayoutCreateInfo.PushConstantRangeCount = uint32(len(ranges))
		pipelineLayoutCreateInfo.PPushConstantRanges = ranges
	}

	// Create the pipeline layout.
	var pPipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(context.Device.LogicalDevice, &pipelineLayoutCreateInfo, context.Allocator, &pPipelineLayout); res != vk.Success {
		err := fmt.Errorf("func NewGraphicsPipeline - vkCreatePipelineLayout failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	outPipeline.PipelineLayout = pPipelineLayout

	stages := make([]vk.PipelineShaderStageCreateInfo, len(config.Stages))
	for i, stage := range config.Stages {
		stages[i] = stage.ShaderStageCreateInfo
	}

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(context.Device.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, context.Allocator, pPipelines); res != vk.Success {
		outPipeline.Destroy(context)
		err := fmt.Errorf("func NewGraphicsPipeline - vkCreateGraphicsPipelines failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	outPipeline.Handle = pPipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) {
	if pipeline == nil {
		return
	}
	// Destroy pipeline
	if pipeline.Handle != vk.NullPipeline {
		vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
		pipeline.Handle = vk.NullPipeline
	}
	// Destroy layout
	if pipeline.PipelineLayout != nil {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.PipelineLayout, context.Allocator)
		pipeline.PipelineLayout = nil
	}
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, bindPoint vk.PipelineBindPoint) {
	vk.CmdBindPipeline(commandBuffer.Handle, bindPoint, pipeline.Handle)
}

/**
 * @brief The three pipelines of the render pass, rebuilt together on reload.
 */
type vulkanPipelineSet struct {
	Main  *VulkanPipeline
	Debug *VulkanPipeline
	UI    *VulkanPipeline
}

func (ps *vulkanPipelineSet) destroy(context *VulkanContext) {
	ps.Main.Destroy(context)
	ps.Debug.Destroy(context)
	ps.UI.Destroy(context)
	ps.Main, ps.Debug, ps.UI = nil, nil, nil
}

func createPipeline(context *VulkanContext, shaderDir, name string, config VulkanPipelineConfig) (*VulkanPipeline, error) {
	stages, err := LoadShaderStages(context, shaderDir, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, stage := range stages {
			stage.Destroy(context)
		}
	}()
	config.Stages = stages
	return NewGraphicsPipeline(context, &config)
}

/**
 * @brief Builds the scene (filled, depth tested), debug (wireframe) and UI
 * (alpha blended, no depth) pipelines. Nothing is kept on failure.
 */
func createPipelineSet(context *VulkanContext, shaderDir string, global, material vk.DescriptorSetLayout) (vulkanPipelineSet, error) {
	var set vulkanPipelineSet
	layouts := []vk.DescriptorSetLayout{global, material}
	modelRange := []metadata.MemoryRange{{Offset: 0, Size: uint64(unsafe.Sizeof(metadata.ModelPushConstant{}))}}

	scene := VulkanPipelineConfig{
		Renderpass:           context.MainRenderpass,
		Stride:               uint32(unsafe.Sizeof(math.Vertex3D{})),
		Attributes:           vertex3DAttributes(),
		DescriptorSetLayouts: layouts,
		CullMode:             vk.CullModeBackBit,
		DepthTest:            true,
		DepthWrite:           true,
		PushConstantRanges:   modelRange,
	}

	var err error
	if set.Main, err = createPipeline(context, shaderDir, mainShaderName, scene); err != nil {
		return set, err
	}

	debug := scene
	debug.IsWireframe = true
	debug.CullMode = vk.CullModeNone
	if set.Debug, err = createPipeline(context, shaderDir, debugShaderName, debug); err != nil {
		set.destroy(context)
		return set, err
	}

	ui := VulkanPipelineConfig{
		Renderpass:           context.MainRenderpass,
		Stride:               uint32(unsafe.Sizeof(math.Vertex2D{})),
		Attributes:           vertex2DAttributes(),
		DescriptorSetLayouts: layouts,
		CullMode:             vk.CullModeNone,
		AlphaBlend:           true,
		PushConstantRanges:   []metadata.MemoryRange{{Offset: 0, Size: uint64(unsafe.Sizeof(metadata.OverlayPushConstant{}))}},
	}
	if set.UI, err = createPipeline(context, shaderDir, uiShaderName, ui); err != nil {
		set.destroy(context)
		return set, err
	}
	return set, nil
}
