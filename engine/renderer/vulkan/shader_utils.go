package vulkan

import (
	"fmt"
	"path/filepath"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// shaderPath returns <dir>/<name>.<stage>.spv.
func shaderPath(dir, name, stage string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.spv", name, stage))
}

func NewShaderModule(context *VulkanContext, path string, shaderStageFlag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	code, err := loaders.LoadSPIRV(path)
	if err != nil {
		err = fmt.Errorf("func NewShaderModule - unable to read shader module %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}

	stage := &VulkanShaderStage{}
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &stage.Handle); res != vk.Success {
		err := fmt.Errorf("func NewShaderModule - failed to create shader module %s: %s", path, VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	// Shader stage info
	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  shaderStageFlag,
		Module: stage.Handle,
		PName:  VulkanSafeString("main"),
	}
	return stage, nil
}

func (ss *VulkanShaderStage) Destroy(context *VulkanContext) {
	if ss == nil {
		return
	}
	if ss.Handle != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, ss.Handle, context.Allocator)
		ss.Handle = nil
	}
}

/**
 * @brief Loads the vertex and fragment stages of the named shader from dir.
 * The modules can be destroyed once the pipeline is created.
 */
func LoadShaderStages(context *VulkanContext, dir, name string) ([]*VulkanShaderStage, error) {
	vert, err := NewShaderModule(context, shaderPath(dir, name, "vert"), vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	frag, err := NewShaderModule(context, shaderPath(dir, name, "frag"), vk.ShaderStageFragmentBit)
	if err != nil {
		vert.Destroy(context)
		return nil, err
	}
	return []*VulkanShaderStage{vert, frag}, nil
}
