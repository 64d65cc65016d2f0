package metadata

/** @brief The number of channels in every texture uploaded by the renderer (RGBA8). */
const TextureChannelCount uint8 = 4

/** @brief Pixels of the default 1x1 white texture. */
var DefaultTexturePixels = []uint8{255, 255, 255, 255}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)

type TextureRepeat int

const (
	TextureRepeatRepeat      TextureRepeat = 0x1
	TextureRepeatClampToEdge TextureRepeat = 0x3
)

/**
 * @brief Represents a texture.
 */
type Texture struct {
	/** @brief The texture Name, used in logs. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Backend image, view and memory. Nil until uploaded. */
	InternalData interface{}
}

/**
 * @brief Decoded RGBA8 pixels ready for upload.
 */
type ImageData struct {
	Width  uint32
	Height uint32
	Pixels []uint8
}
