package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief Descriptor layouts and pools of the renderer. Set 0 carries the
 * camera and light uniforms of a frame slot, set 1 one combined image
 * sampler per material or per overlay font.
 */
type VulkanDescriptors struct {
	GlobalLayout   vk.DescriptorSetLayout
	MaterialLayout vk.DescriptorSetLayout
	GlobalPool     vk.DescriptorPool
	MaterialPool   vk.DescriptorPool
	GlobalSets     [metadata.MaxFramesInFlight]vk.DescriptorSet
}

func createSetLayout(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("func createSetLayout - failed to create descriptor set layout: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return layout, nil
}

func createPool(context *VulkanContext, maxSets uint32, flags vk.DescriptorPoolCreateFlags, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         flags,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("func createPool - failed to create descriptor pool: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return pool, nil
}

/**
 * @brief Creates the two layouts and their pools. The material pool holds
 * materialCount sets plus one for the overlay font, and supports freeing
 * individual sets.
 */
func NewDescriptors(context *VulkanContext, materialCount uint32) (*VulkanDescriptors, error) {
	d := &VulkanDescriptors{}

	global, err := createSetLayout(context, []vk.DescriptorSetLayoutBinding{
		{
			Binding:         globalUBOBinding,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         globalLightBinding,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	})
	if err != nil {
		return nil, err
	}
	d.GlobalLayout = global

	material, err := createSetLayout(context, []vk.DescriptorSetLayoutBinding{
		{
			Binding:         materialSamplerBinding,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	})
	if err != nil {
		d.Destroy(context)
		return nil, err
	}
	d.MaterialLayout = material

	frames := metadata.MaxFramesInFlight
	globalPool, err := createPool(context, frames, 0, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: frames * 2},
	})
	if err != nil {
		d.Destroy(context)
		return nil, err
	}
	d.GlobalPool = globalPool

	samplers := materialCount + 1
	materialPool, err := createPool(context, samplers, vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit), []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: samplers},
	})
	if err != nil {
		d.Destroy(context)
		return nil, err
	}
	d.MaterialPool = materialPool

	for i := range d.GlobalSets {
		set, err := allocateSet(context, d.GlobalPool, d.GlobalLayout)
		if err != nil {
			d.Destroy(context)
			return nil, err
		}
		d.GlobalSets[i] = set
	}
	return d, nil
}

func allocateSet(context *VulkanContext, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set); res != vk.Success {
		err := fmt.Errorf("func allocateSet - failed to allocate descriptor set: %s", VulkanResultString(res, true))
		if res == vk.ErrorOutOfPoolMemory || res == vk.ErrorFragmentedPool {
			err = fmt.Errorf("%s: %w", err.Error(), core.ErrAllocation)
		}
		core.LogError(err.Error())
		return nil, err
	}
	return set, nil
}

// WriteGlobal points the set of a frame slot at its camera and light buffers.
func (d *VulkanDescriptors) WriteGlobal(context *VulkanContext, slot uint32, camera, lights *VulkanBuffer) {
	cameraInfo := vk.DescriptorBufferInfo{
		Buffer: camera.Handle,
		Offset: 0,
		Range:  vk.DeviceSize(unsafe.Sizeof(metadata.UniformBufferObject{})),
	}
	lightInfo := vk.DescriptorBufferInfo{
		Buffer: lights.Handle,
		Offset: 0,
		Range:  vk.DeviceSize(unsafe.Sizeof(metadata.LightUBO{})),
	}
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.GlobalSets[slot],
			DstBinding:      globalUBOBinding,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{cameraInfo},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.GlobalSets[slot],
			DstBinding:      globalLightBinding,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{lightInfo},
		},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

// AllocateSampler allocates a set 1 binding and writes the image and sampler into it.
func (d *VulkanDescriptors) AllocateSampler(context *VulkanContext, view vk.ImageView, sampler vk.Sampler) (vk.DescriptorSet, error) {
	set, err := allocateSet(context, d.MaterialPool, d.MaterialLayout)
	if err != nil {
		return nil, err
	}
	imageInfo := vk.DescriptorImageInfo{
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		ImageView:   view,
		Sampler:     sampler,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      materialSamplerBinding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return set, nil
}

func (d *VulkanDescriptors) FreeSampler(context *VulkanContext, set vk.DescriptorSet) {
	if set == nil || d.MaterialPool == nil {
		return
	}
	vk.FreeDescriptorSets(context.Device.LogicalDevice, d.MaterialPool, 1, &set)
}

// Destroy releases the pools, which frees every set, then the layouts.
func (d *VulkanDescriptors) Destroy(context *VulkanContext) {
	if d == nil {
		return
	}
	device := context.Device.LogicalDevice
	if d.MaterialPool != nil {
		vk.DestroyDescriptorPool(device, d.MaterialPool, context.Allocator)
		d.MaterialPool = nil
	}
	if d.GlobalPool != nil {
		vk.DestroyDescriptorPool(device, d.GlobalPool, context.Allocator)
		d.GlobalPool = nil
	}
	for i := range d.GlobalSets {
		d.GlobalSets[i] = nil
	}
	if d.MaterialLayout != nil {
		vk.DestroyDescriptorSetLayout(device, d.MaterialLayout, context.Allocator)
		d.MaterialLayout = nil
	}
	if d.GlobalLayout != nil {
		vk.DestroyDescriptorSetLayout(device, d.GlobalLayout, context.Allocator)
		d.GlobalLayout = nil
	}
}

/**
 * @brief Creates a linear sampler with the given address mode. Anisotropy is
 * used when the device enabled it.
 */
func NewSampler(context *VulkanContext, addressMode vk.SamplerAddressMode) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	if context.Device.Features.SamplerAnisotropy == vk.True {
		samplerInfo.AnisotropyEnable = vk.True
		samplerInfo.MaxAnisotropy = 16
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("func NewSampler - failed to create sampler: %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return sampler, nil
}
