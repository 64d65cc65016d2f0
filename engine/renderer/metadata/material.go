package metadata

const (
	/** @brief The fixed capacity of the material registry and its binding table pool. */
	MaxMaterials uint32 = 64
	/** @brief The material bound to the default 1x1 white texture. */
	DefaultMaterialID uint32 = 0
)

/**
 * @brief A texture bound to a per-material binding table.
 */
type Material struct {
	/** @brief Index in the registry. */
	ID uint32
	/** @brief The texture sampled by this material. */
	Texture *Texture
	/** @brief True when the registry created the texture and must destroy it. */
	OwnsTexture bool
	/** @brief Backend binding table (descriptor set). */
	InternalData interface{}
}
