package metadata

import (
	"github.com/spaghettifunk/lumen/engine/math"
)

/** @brief The number of frame slots pipelined between the CPU and the GPU. */
const MaxFramesInFlight uint32 = 2

/** @brief The capacity of each per-slot overlay vertex buffer. */
const MaxOverlayVertices uint32 = 4096

const (
	CameraNearClip float32 = 0.1
	CameraFarClip  float32 = 100.0
)

type RendererConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief Enables the Khronos validation layer and its debug callback. */
	EnableValidation bool
	/** @brief Clear colour of the scene pass. */
	ClearColour math.Vec4
	/** @brief Directory holding the compiled SPIR-V modules. */
	ShaderDir string
	/** @brief Upper bound of the material registry, at most MaxMaterials. */
	MaxMaterials uint32
	/** @brief Prefer FIFO presentation over mailbox. */
	VSync bool
}

/**
 * @brief Result of acquire and present, reduced to what the frame loop acts on.
 */
type SwapchainStatus int

const (
	SwapchainStatusOptimal SwapchainStatus = iota
	SwapchainStatusSuboptimal
	SwapchainStatusOutOfDate
)

func (s SwapchainStatus) String() string {
	switch s {
	case SwapchainStatusOptimal:
		return "optimal"
	case SwapchainStatusSuboptimal:
		return "suboptimal"
	case SwapchainStatusOutOfDate:
		return "out_of_date"
	}
	return "unknown"
}

/**
 * @brief Camera uniform block bound at set 0, binding 0.
 */
type UniformBufferObject struct {
	View       math.Mat4
	Projection math.Mat4
}

/** @brief Vertex stage push constant of the scene and debug pipelines. */
type ModelPushConstant struct {
	Model math.Mat4
}

/** @brief Vertex stage push constant of the overlay pipeline. */
type OverlayPushConstant struct {
	ScreenSize math.Vec2
}

/**
 * @brief One indexed draw of the scene or debug pass.
 */
type DrawCommand struct {
	Model        math.Mat4
	IndexCount   uint32
	IndexOffset  uint32
	VertexOffset int32
	Material     *Material
}

/**
 * @brief Everything the backend needs to fill one frame slot.
 */
type FrameData struct {
	Camera  UniformBufferObject
	Lights  LightUBO
	Scene   []DrawCommand
	Debug   []DrawCommand
	Overlay []math.Vertex2D
	// DrawDebug enables the wireframe pass over Debug.
	DrawDebug bool
}

// Reset empties the draw lists and keeps their capacity.
func (fd *FrameData) Reset() {
	fd.Scene = fd.Scene[:0]
	fd.Debug = fd.Debug[:0]
	fd.Overlay = fd.Overlay[:0]
	fd.DrawDebug = false
}

/** @brief A byte range, used for push constant ranges. */
type MemoryRange struct {
	/** @brief The offset in bytes. */
	Offset uint64
	/** @brief The size in bytes. */
	Size uint64
}
