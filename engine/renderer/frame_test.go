package renderer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type framePipelineFixture struct {
	backend  *fakeBackend
	geometry *systems.GeometryPool
	scene    *systems.EntityPool
	debug    *systems.EntityPool
	pipeline *FramePipeline
}

func newFramePipelineFixture(t *testing.T) *framePipelineFixture {
	t.Helper()
	fb := newFakeBackend()
	geometry := systems.NewGeometryPool()
	materials := systems.NewMaterialRegistry(fb, nil, 0)
	if err := materials.Initialize(); err != nil {
		t.Fatalf("materials: %v", err)
	}
	scene := systems.NewEntityPool("scene", geometry)
	debug := systems.NewEntityPool("debug", geometry)
	fp := NewFramePipeline(fb, geometry, scene, debug, materials, components.NewCamera(), systems.NewLightSet())
	return &framePipelineFixture{backend: fb, geometry: geometry, scene: scene, debug: debug, pipeline: fp}
}

func (f *framePipelineFixture) addBox(t *testing.T) uint32 {
	t.Helper()
	vertices, indices := math.GenerateBox(1, 1, 1, math.NewVec3One())
	id, err := f.geometry.AddMesh(vertices, indices)
	if err != nil {
		t.Fatalf("add mesh: %v", err)
	}
	return id
}

var fullFrame = []string{"wait", "acquire", "reset", "update", "record", "submit", "present"}

type fakeOverlay struct {
	built int
}

func (fo *fakeOverlay) Build(dst []math.Vertex2D, width, height uint32) []math.Vertex2D {
	fo.built++
	return append(dst, math.Vertex2D{}, math.Vertex2D{}, math.Vertex2D{})
}

func TestRenderFrameWithoutEntities(t *testing.T) {
	f := newFramePipelineFixture(t)
	f.addBox(t)
	if err := f.pipeline.RenderFrame(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(f.backend.calls) != 0 {
		t.Fatalf("calls:\nhave %v\nwant none", f.backend.calls)
	}
	if !f.geometry.IsDirty() {
		t.Fatalf("geometry uploaded without entities")
	}
}

func TestRenderFrameRebuildsBeforeWaiting(t *testing.T) {
	f := newFramePipelineFixture(t)
	mesh := f.addBox(t)
	f.scene.Create(mesh)

	if err := f.pipeline.RenderFrame(); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := append([]string{"upload"}, fullFrame...)
	if !reflect.DeepEqual(f.backend.calls, want) {
		t.Fatalf("calls:\nhave %v\nwant %v", f.backend.calls, want)
	}

	f.backend.reset()
	f.pipeline.RenderFrame()
	if !reflect.DeepEqual(f.backend.calls, fullFrame) {
		t.Fatalf("second frame:\nhave %v\nwant %v", f.backend.calls, fullFrame)
	}
}

func TestRenderFrameAdvancesSlots(t *testing.T) {
	f := newFramePipelineFixture(t)
	f.scene.Create(f.addBox(t))

	for i := 0; i < 3; i++ {
		if err := f.pipeline.RenderFrame(); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	if want := []uint32{0, 1, 0}; !reflect.DeepEqual(f.backend.slots, want) {
		t.Fatalf("slots:\nhave %v\nwant %v", f.backend.slots, want)
	}
	if f.pipeline.CurrentFrame() != 1 {
		t.Fatalf("current frame:\nhave %d\nwant 1", f.pipeline.CurrentFrame())
	}
	if f.pipeline.State() != FrameStateIdle {
		t.Fatalf("state:\nhave %v\nwant %v", f.pipeline.State(), FrameStateIdle)
	}
}

func TestRenderFrameOutOfDateAcquire(t *testing.T) {
	f := newFramePipelineFixture(t)
	f.scene.Create(f.addBox(t))
	f.pipeline.RenderFrame()
	f.backend.reset()

	f.backend.acquireStatus = []metadata.SwapchainStatus{metadata.SwapchainStatusOutOfDate}
	if err := f.pipeline.RenderFrame(); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []string{"wait", "acquire", "recreate"}
	if !reflect.DeepEqual(f.backend.calls, want) {
		t.Fatalf("calls:\nhave %v\nwant %v", f.backend.calls, want)
	}
	if f.pipeline.CurrentFrame() != 1 {
		t.Fatalf("slot advanced on a skipped frame: %d", f.pipeline.CurrentFrame())
	}
}

func TestRenderFrameSuboptimalRecreatesAfterPresent(t *testing.T) {
	tests := []struct {
		name    string
		acquire []metadata.SwapchainStatus
		present []metadata.SwapchainStatus
	}{
		{"acquire", []metadata.SwapchainStatus{metadata.SwapchainStatusSuboptimal}, nil},
		{"present suboptimal", nil, []metadata.SwapchainStatus{metadata.SwapchainStatusSuboptimal}},
		{"present out of date", nil, []metadata.SwapchainStatus{metadata.SwapchainStatusOutOfDate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFramePipelineFixture(t)
			f.scene.Create(f.addBox(t))
			f.pipeline.RenderFrame()
			f.backend.reset()

			f.backend.acquireStatus = tt.acquire
			f.backend.presentStatus = tt.present
			if err := f.pipeline.RenderFrame(); err != nil {
				t.Fatalf("render: %v", err)
			}
			want := append(append([]string(nil), fullFrame...), "recreate")
			if !reflect.DeepEqual(f.backend.calls, want) {
				t.Fatalf("calls:\nhave %v\nwant %v", f.backend.calls, want)
			}
			if f.pipeline.CurrentFrame() != 0 {
				t.Fatalf("current frame:\nhave %d\nwant 0", f.pipeline.CurrentFrame())
			}
		})
	}
}

func TestRenderFrameResizeFlag(t *testing.T) {
	f := newFramePipelineFixture(t)
	f.scene.Create(f.addBox(t))
	f.pipeline.FlagResize()

	f.pipeline.RenderFrame()
	if f.backend.count("recreate") != 1 {
		t.Fatalf("recreate count:\nhave %d\nwant 1", f.backend.count("recreate"))
	}
	f.pipeline.RenderFrame()
	if f.backend.count("recreate") != 1 {
		t.Fatalf("resize flag not cleared")
	}
}

func TestRenderFrameDrawLists(t *testing.T) {
	f := newFramePipelineFixture(t)
	box := f.addBox(t)
	vertices, indices := math.GeneratePlane(2, 2, math.NewVec3One())
	plane, _ := f.geometry.AddMesh(vertices, indices)

	f.scene.Create(box)
	planeID, _ := f.scene.Create(plane)
	f.scene.SetTransform(planeID, math.NewMat4Translation(math.NewVec3(1, 2, 3)))
	f.debug.Create(box)

	overlay := &fakeOverlay{}
	f.pipeline.SetOverlay(overlay)
	f.pipeline.RenderFrame()

	frame := f.backend.frames[0]
	if len(frame.Scene) != 2 || len(frame.Debug) != 0 || frame.DrawDebug || len(frame.Overlay) != 0 {
		t.Fatalf("frame without debug:\nhave scene=%d debug=%d drawDebug=%v overlay=%d\nwant 2, 0, false, 0",
			len(frame.Scene), len(frame.Debug), frame.DrawDebug, len(frame.Overlay))
	}
	second := frame.Scene[1]
	if second.IndexCount != 6 || second.IndexOffset != 36 || second.VertexOffset != 24 {
		t.Fatalf("plane draw:\nhave count=%d first=%d base=%d\nwant 6, 36, 24", second.IndexCount, second.IndexOffset, second.VertexOffset)
	}
	if second.Model.Data[12] != 1 || second.Model.Data[13] != 2 || second.Model.Data[14] != 3 {
		t.Fatalf("plane model translation:\nhave %v", second.Model.Data[12:15])
	}
	if second.Material == nil || second.Material.ID != metadata.DefaultMaterialID {
		t.Fatalf("plane material:\nhave %+v\nwant default", second.Material)
	}
	if frame.Lights.CameraPosition.W != 1 {
		t.Fatalf("camera position w:\nhave %v\nwant 1", frame.Lights.CameraPosition.W)
	}

	f.pipeline.SetDebugEnabled(true)
	f.pipeline.RenderFrame()
	frame = f.backend.frames[1]
	if len(frame.Debug) != 1 || !frame.DrawDebug || len(frame.Overlay) != 3 || overlay.built != 1 {
		t.Fatalf("frame with debug:\nhave debug=%d drawDebug=%v overlay=%d built=%d\nwant 1, true, 3, 1",
			len(frame.Debug), frame.DrawDebug, len(frame.Overlay), overlay.built)
	}

	f.debug.Clear()
	f.pipeline.RenderFrame()
	if f.backend.frames[2].DrawDebug {
		t.Fatalf("debug pass enabled without debug entities")
	}
}

func TestRenderFrameUploadFailure(t *testing.T) {
	f := newFramePipelineFixture(t)
	f.scene.Create(f.addBox(t))
	f.backend.uploadErr = errUpload

	if err := f.pipeline.RenderFrame(); err == nil {
		t.Fatalf("render succeeded with a failing upload")
	}
	if f.backend.count("wait") != 0 {
		t.Fatalf("frame started without geometry")
	}
	f.backend.uploadErr = nil
	if err := f.pipeline.RenderFrame(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.backend.uploads != 1 || f.geometry.IsDirty() {
		t.Fatalf("retry did not rebuild the arena")
	}
}

func TestRenderFrameFailedStepReleasesSlot(t *testing.T) {
	tests := []struct {
		step  string
		calls []string
	}{
		{"reset", []string{"wait", "acquire", "reset", "abort"}},
		{"update", []string{"wait", "acquire", "reset", "update", "abort"}},
		{"record", []string{"wait", "acquire", "reset", "update", "record", "abort"}},
		{"submit", []string{"wait", "acquire", "reset", "update", "record", "submit", "abort"}},
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			f := newFramePipelineFixture(t)
			f.scene.Create(f.addBox(t))
			f.pipeline.RenderFrame()
			f.backend.reset()

			f.backend.failStep = tt.step
			if err := f.pipeline.RenderFrame(); !errors.Is(err, errStep) {
				t.Fatalf("failed frame:\nhave %v\nwant %v", err, errStep)
			}
			if !reflect.DeepEqual(f.backend.calls, tt.calls) {
				t.Fatalf("calls:\nhave %v\nwant %v", f.backend.calls, tt.calls)
			}
			if f.pipeline.CurrentFrame() != 1 {
				t.Fatalf("slot advanced on a failed frame: %d", f.pipeline.CurrentFrame())
			}

			f.backend.reset()
			if err := f.pipeline.RenderFrame(); err != nil {
				t.Fatalf("frame after failure: %v", err)
			}
			if !reflect.DeepEqual(f.backend.calls, fullFrame) {
				t.Fatalf("frame after failure:\nhave %v\nwant %v", f.backend.calls, fullFrame)
			}
			if want := []uint32{1}; !reflect.DeepEqual(f.backend.slots, want) {
				t.Fatalf("slots:\nhave %v\nwant %v", f.backend.slots, want)
			}
		})
	}
}

func TestRenderFrameRetriesFailedRecreate(t *testing.T) {
	f := newFramePipelineFixture(t)
	f.scene.Create(f.addBox(t))
	f.pipeline.RenderFrame()
	f.backend.reset()

	f.backend.acquireStatus = []metadata.SwapchainStatus{metadata.SwapchainStatusOutOfDate, metadata.SwapchainStatusOutOfDate}
	f.backend.failStep = "recreate"
	if err := f.pipeline.RenderFrame(); !errors.Is(err, errStep) {
		t.Fatalf("failed recreate:\nhave %v\nwant %v", err, errStep)
	}
	if err := f.pipeline.RenderFrame(); err != nil {
		t.Fatalf("second recreate: %v", err)
	}
	if err := f.pipeline.RenderFrame(); err != nil {
		t.Fatalf("frame after recreate: %v", err)
	}
	if f.backend.count("recreate") != 2 || f.backend.count("present") != 1 {
		t.Fatalf("calls:\nhave %v\nwant two recreates and one present", f.backend.calls)
	}
}
