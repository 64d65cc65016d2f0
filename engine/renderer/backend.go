package renderer

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

// FrameBackend is the part of the GPU backend driven by FramePipeline. All
// slot arguments are in [0, MaxFramesInFlight).
type FrameBackend interface {
	systems.GeometryUploader

	// WaitForFrame blocks until the GPU released the slot.
	WaitForFrame(slot uint32) error
	AcquireNextImage(slot uint32) (uint32, metadata.SwapchainStatus, error)
	// ResetFrame readies the slot for recording. The slot's fence stays
	// signaled until SubmitFrame.
	ResetFrame(slot uint32) error
	// UpdateFrame writes uniforms and overlay vertices into the slot's mapped memory.
	UpdateFrame(slot uint32, frame *metadata.FrameData) error
	RecordFrame(slot, imageIndex uint32, frame *metadata.FrameData) error
	SubmitFrame(slot uint32) error
	PresentFrame(slot, imageIndex uint32) (metadata.SwapchainStatus, error)
	// AbortFrame releases a slot whose frame failed between acquire and
	// submit, leaving its fence signaled.
	AbortFrame(slot uint32) error

	RecreateSwapchain() error
	FramebufferExtent() (uint32, uint32)
}

type RendererBackend interface {
	FrameBackend
	systems.TextureBackend

	Initialize(config *metadata.RendererConfig) error
	Shutdown() error
	WaitIdle() error
	ReloadPipelines() error
	// SetOverlayFont uploads the atlas sampled by the overlay pass.
	SetOverlayFont(atlas *metadata.ImageData) error
}
