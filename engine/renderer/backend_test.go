package renderer

import (
	"errors"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

var (
	errUpload     = errors.New("upload failed")
	errStep       = errors.New("frame step failed")
	errFenceStuck = errors.New("fence never signaled")
)

// fakeBackend records the calls made by the renderer and lets a test
// script acquire and present results.
type fakeBackend struct {
	calls []string

	acquireStatus []metadata.SwapchainStatus
	presentStatus []metadata.SwapchainStatus
	uploadErr     error
	initErr       error
	// failStep makes the named frame call fail once.
	failStep string

	// unsignaled marks slots whose fence was reset without a batch that
	// signals it. Waiting on such a slot would block forever.
	unsignaled [metadata.MaxFramesInFlight]bool

	width, height uint32
	uploads       int
	uploadedVerts int
	frames        []metadata.FrameData
	slots         []uint32
	textures      int
	destroyed     int
	bindings      int
	released      int
	fontAtlas     *metadata.ImageData
	shutdown      int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{width: 800, height: 600}
}

func (fb *fakeBackend) record(call string) {
	fb.calls = append(fb.calls, call)
}

func (fb *fakeBackend) reset() {
	fb.calls = nil
	fb.frames = nil
	fb.slots = nil
}

func (fb *fakeBackend) count(call string) int {
	n := 0
	for _, c := range fb.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (fb *fakeBackend) UploadGeometry(vertices []math.Vertex3D, indices []uint32) error {
	fb.record("upload")
	if fb.uploadErr != nil {
		return fb.uploadErr
	}
	fb.uploads++
	fb.uploadedVerts = len(vertices)
	return nil
}

func (fb *fakeBackend) fail(call string) error {
	if fb.failStep == call {
		fb.failStep = ""
		return errStep
	}
	return nil
}

func (fb *fakeBackend) WaitForFrame(slot uint32) error {
	fb.record("wait")
	fb.slots = append(fb.slots, slot)
	if fb.unsignaled[slot] {
		return errFenceStuck
	}
	return nil
}

func (fb *fakeBackend) AcquireNextImage(slot uint32) (uint32, metadata.SwapchainStatus, error) {
	fb.record("acquire")
	status := metadata.SwapchainStatusOptimal
	if len(fb.acquireStatus) > 0 {
		status, fb.acquireStatus = fb.acquireStatus[0], fb.acquireStatus[1:]
	}
	return slot, status, nil
}

func (fb *fakeBackend) ResetFrame(slot uint32) error {
	fb.record("reset")
	return fb.fail("reset")
}

func (fb *fakeBackend) UpdateFrame(slot uint32, frame *metadata.FrameData) error {
	fb.record("update")
	if err := fb.fail("update"); err != nil {
		return err
	}
	copied := *frame
	copied.Scene = append([]metadata.DrawCommand(nil), frame.Scene...)
	copied.Debug = append([]metadata.DrawCommand(nil), frame.Debug...)
	copied.Overlay = append([]math.Vertex2D(nil), frame.Overlay...)
	fb.frames = append(fb.frames, copied)
	return nil
}

func (fb *fakeBackend) RecordFrame(slot, imageIndex uint32, frame *metadata.FrameData) error {
	fb.record("record")
	return fb.fail("record")
}

func (fb *fakeBackend) SubmitFrame(slot uint32) error {
	fb.record("submit")
	// The fence is reset before the batch goes to the queue.
	if err := fb.fail("submit"); err != nil {
		fb.unsignaled[slot] = true
		return err
	}
	return nil
}

func (fb *fakeBackend) AbortFrame(slot uint32) error {
	fb.record("abort")
	fb.unsignaled[slot] = false
	return nil
}

func (fb *fakeBackend) PresentFrame(slot, imageIndex uint32) (metadata.SwapchainStatus, error) {
	fb.record("present")
	status := metadata.SwapchainStatusOptimal
	if len(fb.presentStatus) > 0 {
		status, fb.presentStatus = fb.presentStatus[0], fb.presentStatus[1:]
	}
	return status, nil
}

func (fb *fakeBackend) RecreateSwapchain() error {
	fb.record("recreate")
	return fb.fail("recreate")
}

func (fb *fakeBackend) FramebufferExtent() (uint32, uint32) {
	return fb.width, fb.height
}

func (fb *fakeBackend) TextureCreate(texture *metadata.Texture, pixels []uint8) error {
	fb.textures++
	texture.InternalData = fb.textures
	return nil
}

func (fb *fakeBackend) TextureDestroy(texture *metadata.Texture) {
	fb.destroyed++
}

func (fb *fakeBackend) MaterialAcquireResources(material *metadata.Material) error {
	fb.bindings++
	material.InternalData = fb.bindings
	return nil
}

func (fb *fakeBackend) MaterialReleaseResources(material *metadata.Material) {
	fb.released++
}

func (fb *fakeBackend) Initialize(config *metadata.RendererConfig) error {
	fb.record("initialize")
	return fb.initErr
}

func (fb *fakeBackend) Shutdown() error {
	fb.record("shutdown")
	fb.shutdown++
	return nil
}

func (fb *fakeBackend) WaitIdle() error {
	fb.record("idle")
	return nil
}

func (fb *fakeBackend) ReloadPipelines() error {
	fb.record("reload")
	return nil
}

func (fb *fakeBackend) SetOverlayFont(atlas *metadata.ImageData) error {
	fb.fontAtlas = atlas
	return nil
}
