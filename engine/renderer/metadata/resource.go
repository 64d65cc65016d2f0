package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or ignored file. */
	ResourceTypeNone ResourceType = iota
	/** @brief Compiled SPIR-V shader module. */
	ResourceTypeShader
	/** @brief Encoded image (png, jpeg, bmp, tiff, webp). */
	ResourceTypeImage
	/** @brief glTF or GLB mesh. */
	ResourceTypeMesh
	/** @brief AngelCode bitmap font descriptor. */
	ResourceTypeBitmapFont
	/** @brief TrueType or OpenType font. */
	ResourceTypeSystemFont
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMesh:
		return "mesh"
	case ResourceTypeBitmapFont:
		return "bitmap_font"
	case ResourceTypeSystemFont:
		return "system_font"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. Loaders document the concrete type they store. */
	Data interface{}
}
