package renderer

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type FrameState int

const (
	FrameStateIdle FrameState = iota
	FrameStateFenceWait
	FrameStateAcquire
	FrameStateRecord
	FrameStateSubmit
	FrameStatePresent
)

func (fs FrameState) String() string {
	switch fs {
	case FrameStateIdle:
		return "idle"
	case FrameStateFenceWait:
		return "fence_wait"
	case FrameStateAcquire:
		return "acquire"
	case FrameStateRecord:
		return "record"
	case FrameStateSubmit:
		return "submit"
	case FrameStatePresent:
		return "present"
	}
	return "unknown"
}

// OverlayBuilder appends the screen space quads of one frame to dst.
type OverlayBuilder interface {
	Build(dst []math.Vertex2D, width, height uint32) []math.Vertex2D
}

// FramePipeline drives one logical frame per RenderFrame call. Up to
// MaxFramesInFlight frames may be queued on the GPU; a slot is reused only
// after its fence signalled.
type FramePipeline struct {
	backend   FrameBackend
	geometry  *systems.GeometryPool
	scene     *systems.EntityPool
	debug     *systems.EntityPool
	materials *systems.MaterialRegistry
	camera    *components.Camera
	lights    *systems.LightSet
	overlay   OverlayBuilder

	debugEnabled       bool
	framebufferResized bool
	currentFrame       uint32
	state              FrameState
	frame              metadata.FrameData
}

func NewFramePipeline(
	backend FrameBackend,
	geometry *systems.GeometryPool,
	scene, debug *systems.EntityPool,
	materials *systems.MaterialRegistry,
	camera *components.Camera,
	lights *systems.LightSet,
) *FramePipeline {
	return &FramePipeline{
		backend:   backend,
		geometry:  geometry,
		scene:     scene,
		debug:     debug,
		materials: materials,
		camera:    camera,
		lights:    lights,
	}
}

func (fp *FramePipeline) SetOverlay(overlay OverlayBuilder) {
	fp.overlay = overlay
}

func (fp *FramePipeline) SetDebugEnabled(enabled bool) {
	fp.debugEnabled = enabled
}

func (fp *FramePipeline) DebugEnabled() bool {
	return fp.debugEnabled
}

// FlagResize requests a swapchain recreation after the next present.
func (fp *FramePipeline) FlagResize() {
	fp.framebufferResized = true
}

func (fp *FramePipeline) CurrentFrame() uint32 {
	return fp.currentFrame
}

func (fp *FramePipeline) State() FrameState {
	return fp.state
}

/**
 * @brief Renders one frame. Returns nil without touching the GPU when there
 * is nothing to draw. A stale swapchain is recreated and is not an error.
 */
func (fp *FramePipeline) RenderFrame() error {
	if fp.scene.ActiveCount() == 0 {
		return nil
	}
	if fp.geometry.IsDirty() {
		if err := fp.geometry.Rebuild(fp.backend); err != nil {
			return err
		}
	}
	if !fp.geometry.HasBuffers() {
		return nil
	}

	slot := fp.currentFrame
	defer func() { fp.state = FrameStateIdle }()

	fp.state = FrameStateFenceWait
	if err := fp.backend.WaitForFrame(slot); err != nil {
		return fp.fail("wait for frame fence", err)
	}

	fp.state = FrameStateAcquire
	imageIndex, status, err := fp.backend.AcquireNextImage(slot)
	if err != nil {
		return fp.fail("acquire swapchain image", err)
	}
	if status == metadata.SwapchainStatusOutOfDate {
		core.LogDebug("swapchain out of date on acquire, recreating")
		return fp.recreate()
	}
	recreateAfter := status == metadata.SwapchainStatusSuboptimal

	if err := fp.backend.ResetFrame(slot); err != nil {
		return fp.abort(slot, "reset frame", err)
	}

	width, height := fp.backend.FramebufferExtent()
	fp.buildFrame(width, height)
	if err := fp.backend.UpdateFrame(slot, &fp.frame); err != nil {
		return fp.abort(slot, "update frame uniforms", err)
	}

	fp.state = FrameStateRecord
	if err := fp.backend.RecordFrame(slot, imageIndex, &fp.frame); err != nil {
		return fp.abort(slot, "record command buffer", err)
	}

	fp.state = FrameStateSubmit
	if err := fp.backend.SubmitFrame(slot); err != nil {
		return fp.abort(slot, "submit command buffer", err)
	}

	fp.state = FrameStatePresent
	status, err = fp.backend.PresentFrame(slot, imageIndex)
	if err != nil {
		return fp.fail("present swapchain image", err)
	}
	if status != metadata.SwapchainStatusOptimal || recreateAfter || fp.framebufferResized {
		fp.framebufferResized = false
		if err := fp.recreate(); err != nil {
			return err
		}
	}

	fp.currentFrame = (fp.currentFrame + 1) % metadata.MaxFramesInFlight
	return nil
}

func (fp *FramePipeline) recreate() error {
	if err := fp.backend.RecreateSwapchain(); err != nil {
		return fp.fail("recreate swapchain", err)
	}
	return nil
}

// abort fails a frame that holds an acquired image, so the slot can be
// waited on again.
func (fp *FramePipeline) abort(slot uint32, step string, err error) error {
	err = fp.fail(step, err)
	if abortErr := fp.backend.AbortFrame(slot); abortErr != nil {
		core.LogError("func RenderFrame - release frame %d: %v", slot, abortErr)
	}
	return err
}

func (fp *FramePipeline) fail(step string, err error) error {
	err = fmt.Errorf("func RenderFrame - %s (frame %d, state %s): %w", step, fp.currentFrame, fp.state, err)
	core.LogError(err.Error())
	return err
}

// buildFrame fills the uniforms and draw lists of the current frame.
func (fp *FramePipeline) buildFrame(width, height uint32) {
	fp.frame.Reset()
	fp.frame.Camera = fp.camera.Uniforms(width, height)
	fp.lights.Fill(&fp.frame.Lights, fp.camera.Eye)

	fp.frame.Scene = fp.appendDraws(fp.frame.Scene, fp.scene)
	if fp.debugEnabled {
		fp.frame.Debug = fp.appendDraws(fp.frame.Debug, fp.debug)
		fp.frame.DrawDebug = len(fp.frame.Debug) > 0
		if fp.overlay != nil {
			fp.frame.Overlay = fp.overlay.Build(fp.frame.Overlay, width, height)
		}
	}
}

func (fp *FramePipeline) appendDraws(dst []metadata.DrawCommand, pool *systems.EntityPool) []metadata.DrawCommand {
	pool.Each(func(_ metadata.EntityID, e *metadata.Entity) {
		mesh, ok := fp.geometry.Mesh(e.MeshID)
		if !ok {
			return
		}
		dst = append(dst, metadata.DrawCommand{
			Model:        e.Transform,
			IndexCount:   mesh.IndexCount,
			IndexOffset:  mesh.IndexOffset,
			VertexOffset: mesh.VertexOffset,
			Material:     fp.materials.Material(mesh.MaterialID),
		})
	})
	return dst
}
