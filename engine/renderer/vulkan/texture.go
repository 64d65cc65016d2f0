package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const textureFormat = vk.FormatR8g8b8a8Srgb

// vulkanMaterialState is the InternalData of a metadata.Material.
type vulkanMaterialState struct {
	Set vk.DescriptorSet
}

/**
 * @brief Uploads RGBA8 pixels into a sampled, device local image. The
 * staging copy and both layout transitions run in one single-use command
 * buffer.
 */
func uploadImage(context *VulkanContext, width, height uint32, pixels []uint8) (*VulkanImage, error) {
	expected := int(width) * int(height) * int(metadata.TextureChannelCount)
	if width == 0 || height == 0 || len(pixels) != expected {
		err := fmt.Errorf("func uploadImage - %dx%d image with %d bytes, want %d: %w", width, height, len(pixels), expected, core.ErrTextureDecode)
		core.LogError(err.Error())
		return nil, err
	}

	staging, err := NewBuffer(
		context,
		vk.DeviceSize(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		false)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, pixels); err != nil {
		return nil, err
	}

	image, err := ImageCreate(
		context,
		width, height,
		textureFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)|vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}

	err = context.WithSingleUseCommands(func(cb vk.CommandBuffer) error {
		if err := image.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		image.CopyFromBuffer(cb, staging.Handle)
		return image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		image.Destroy(context)
		return nil, err
	}
	return image, nil
}

func (vr *VulkanRenderer) TextureCreate(texture *metadata.Texture, pixels []uint8) error {
	image, err := uploadImage(vr.context, texture.Width, texture.Height, pixels)
	if err != nil {
		return fmt.Errorf("func TextureCreate - texture %q: %w", texture.Name, err)
	}
	texture.ChannelCount = metadata.TextureChannelCount
	texture.InternalData = image
	return nil
}

func (vr *VulkanRenderer) TextureDestroy(texture *metadata.Texture) {
	if texture == nil {
		return
	}
	image, ok := texture.InternalData.(*VulkanImage)
	if !ok {
		return
	}
	// The texture may still be sampled by a frame in flight.
	vr.WaitIdle()
	image.Destroy(vr.context)
	texture.InternalData = nil
}

/**
 * @brief Allocates the material binding and writes its texture into it.
 */
func (vr *VulkanRenderer) MaterialAcquireResources(material *metadata.Material) error {
	if material.Texture == nil {
		err := fmt.Errorf("func MaterialAcquireResources - material %d has no texture: %w", material.ID, core.ErrNotInitialized)
		core.LogError(err.Error())
		return err
	}
	image, ok := material.Texture.InternalData.(*VulkanImage)
	if !ok {
		err := fmt.Errorf("func MaterialAcquireResources - texture %q of material %d is not uploaded: %w", material.Texture.Name, material.ID, core.ErrNotInitialized)
		core.LogError(err.Error())
		return err
	}
	set, err := vr.descriptors.AllocateSampler(vr.context, image.View, vr.materialSampler)
	if err != nil {
		return fmt.Errorf("func MaterialAcquireResources - material %d: %w", material.ID, err)
	}
	material.InternalData = &vulkanMaterialState{Set: set}
	if material.ID == metadata.DefaultMaterialID {
		vr.defaultMaterialSet = set
	}
	return nil
}

func (vr *VulkanRenderer) MaterialReleaseResources(material *metadata.Material) {
	if material == nil {
		return
	}
	state, ok := material.InternalData.(*vulkanMaterialState)
	if !ok {
		return
	}
	vr.WaitIdle()
	vr.descriptors.FreeSampler(vr.context, state.Set)
	if state.Set == vr.defaultMaterialSet {
		vr.defaultMaterialSet = nil
	}
	material.InternalData = nil
}

// materialSet returns the binding of m, falling back to the default material.
func (vr *VulkanRenderer) materialSet(m *metadata.Material) vk.DescriptorSet {
	if m != nil {
		if state, ok := m.InternalData.(*vulkanMaterialState); ok {
			return state.Set
		}
	}
	return vr.defaultMaterialSet
}
