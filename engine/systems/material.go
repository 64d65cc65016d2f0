package systems

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// TextureBackend creates GPU textures and the binding tables that sample them.
type TextureBackend interface {
	TextureCreate(texture *metadata.Texture, pixels []uint8) error
	TextureDestroy(texture *metadata.Texture)
	// MaterialAcquireResources allocates the binding table of material and
	// writes its texture binding.
	MaterialAcquireResources(material *metadata.Material) error
	MaterialReleaseResources(material *metadata.Material)
}

// ImageDecoder turns encoded image bytes into RGBA8 pixels.
type ImageDecoder func(data []byte) (*metadata.ImageData, error)

// MaterialRegistry is a fixed capacity, append-only list of materials.
// Material 0 samples a shared 1x1 white texture that the registry creates
// in Initialize and destroys once in Shutdown.
type MaterialRegistry struct {
	backend   TextureBackend
	decode    ImageDecoder
	capacity  uint32
	materials []*metadata.Material

	defaultTexture *metadata.Texture
}

func NewMaterialRegistry(backend TextureBackend, decode ImageDecoder, capacity uint32) *MaterialRegistry {
	if capacity == 0 || capacity > metadata.MaxMaterials {
		capacity = metadata.MaxMaterials
	}
	return &MaterialRegistry{
		backend:  backend,
		decode:   decode,
		capacity: capacity,
	}
}

/**
 * @brief Creates the default texture and registers it as material 0.
 */
func (mr *MaterialRegistry) Initialize() error {
	if mr.defaultTexture != nil {
		return nil
	}
	texture := &metadata.Texture{
		Name:         "default",
		Width:        1,
		Height:       1,
		ChannelCount: metadata.TextureChannelCount,
	}
	if err := mr.backend.TextureCreate(texture, metadata.DefaultTexturePixels); err != nil {
		err = fmt.Errorf("func Initialize - failed to create default texture: %w", err)
		core.LogError(err.Error())
		return err
	}
	mr.defaultTexture = texture

	if _, err := mr.CreateMaterial(texture); err != nil {
		mr.backend.TextureDestroy(texture)
		mr.defaultTexture = nil
		return err
	}
	return nil
}

/**
 * @brief Registers a material sampling texture. The registry does not take
 * ownership of the texture.
 *
 * @return The material id, or InvalidID with ErrMaterialPoolFull when the
 * registry is at capacity.
 */
func (mr *MaterialRegistry) CreateMaterial(texture *metadata.Texture) (uint32, error) {
	if uint32(len(mr.materials)) >= mr.capacity {
		err := fmt.Errorf("func CreateMaterial - %w (capacity %d)", core.ErrMaterialPoolFull, mr.capacity)
		core.LogError(err.Error())
		return metadata.InvalidID, err
	}

	material := &metadata.Material{
		ID:      uint32(len(mr.materials)),
		Texture: texture,
	}
	if err := mr.backend.MaterialAcquireResources(material); err != nil {
		err = fmt.Errorf("func CreateMaterial - %w: %w", core.ErrAllocation, err)
		core.LogError(err.Error())
		return metadata.InvalidID, err
	}
	mr.materials = append(mr.materials, material)
	return material.ID, nil
}

/**
 * @brief Decodes an encoded image, uploads it and registers a material that
 * owns the new texture.
 *
 * @param data Encoded image bytes.
 * @return The new material id. Undecodable data yields DefaultMaterialID
 * and no error. Upload and capacity failures are returned.
 */
func (mr *MaterialRegistry) LoadTextureFromMemory(name string, data []byte) (uint32, error) {
	img, err := mr.decode(data)
	if err != nil {
		core.LogWarn("func LoadTextureFromMemory - %s: %v, using default material", name, fmt.Errorf("%w: %w", core.ErrTextureDecode, err))
		return metadata.DefaultMaterialID, nil
	}

	if uint32(len(mr.materials)) >= mr.capacity {
		err := fmt.Errorf("func LoadTextureFromMemory - %w (capacity %d)", core.ErrMaterialPoolFull, mr.capacity)
		core.LogError(err.Error())
		return metadata.InvalidID, err
	}

	texture := &metadata.Texture{
		Name:         name,
		Width:        img.Width,
		Height:       img.Height,
		ChannelCount: metadata.TextureChannelCount,
	}
	if err := mr.backend.TextureCreate(texture, img.Pixels); err != nil {
		err = fmt.Errorf("func LoadTextureFromMemory - failed to upload %s: %w", name, err)
		core.LogError(err.Error())
		return metadata.InvalidID, err
	}

	id, err := mr.CreateMaterial(texture)
	if err != nil {
		mr.backend.TextureDestroy(texture)
		return metadata.InvalidID, err
	}
	mr.materials[id].OwnsTexture = true
	core.LogDebug("texture %s loaded as material %d (%dx%d)", name, id, img.Width, img.Height)
	return id, nil
}

// Material returns the material with the given id, falling back to the
// default material for unknown ids.
func (mr *MaterialRegistry) Material(id uint32) *metadata.Material {
	if id < uint32(len(mr.materials)) {
		return mr.materials[id]
	}
	if len(mr.materials) > 0 {
		return mr.materials[metadata.DefaultMaterialID]
	}
	return nil
}

func (mr *MaterialRegistry) Len() int {
	return len(mr.materials)
}

func (mr *MaterialRegistry) Capacity() uint32 {
	return mr.capacity
}

// DefaultTexture is the shared white texture, nil before Initialize.
func (mr *MaterialRegistry) DefaultTexture() *metadata.Texture {
	return mr.defaultTexture
}

/**
 * @brief Releases every binding table, destroys owned textures, then the
 * default texture.
 */
func (mr *MaterialRegistry) Shutdown() {
	for _, m := range mr.materials {
		mr.backend.MaterialReleaseResources(m)
		if m.OwnsTexture && m.Texture != nil {
			mr.backend.TextureDestroy(m.Texture)
		}
		m.Texture = nil
	}
	mr.materials = nil

	if mr.defaultTexture != nil {
		mr.backend.TextureDestroy(mr.defaultTexture)
		mr.defaultTexture = nil
	}
}
