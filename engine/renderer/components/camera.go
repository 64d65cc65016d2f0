package components

import (
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief A look-at camera. The view matrix is rebuilt lazily whenever one
 * of its inputs changes.
 */
type Camera struct {
	/** @brief The eye position of this camera. */
	Eye math.Vec3
	/** @brief The point the camera looks at. */
	Target math.Vec3
	/** @brief The up direction. */
	Up math.Vec3
	/** @brief Vertical field of view in degrees. */
	FovDegrees float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/** @brief The cached view matrix. Use GetView. */
	ViewMatrix math.Mat4
}

/** @brief Default camera placement. */
var (
	DefaultCameraEye    = math.NewVec3(0, 0, 3)
	DefaultCameraTarget = math.NewVec3Zero()
	DefaultCameraUp     = math.NewVec3Up()
)

const DefaultCameraFov float32 = 45.0

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Set(DefaultCameraEye, DefaultCameraTarget, DefaultCameraUp, DefaultCameraFov)
}

func (c *Camera) Set(eye, target, up math.Vec3, fovDegrees float32) {
	c.Eye = eye
	c.Target = target
	c.Up = up
	c.FovDegrees = fovDegrees
	c.IsDirty = true
}

func (c *Camera) SetPosition(eye math.Vec3) {
	c.Eye = eye
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.Eye, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection returns a Vulkan clip space projection for the given drawable size.
func (c *Camera) GetProjection(width, height uint32) math.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return math.NewMat4PerspectiveVulkan(math.DegToRad(c.FovDegrees), aspect, metadata.CameraNearClip, metadata.CameraFarClip)
}

// Uniforms fills the camera uniform block.
func (c *Camera) Uniforms(width, height uint32) metadata.UniformBufferObject {
	return metadata.UniformBufferObject{
		View:       c.GetView(),
		Projection: c.GetProjection(width, height),
	}
}
