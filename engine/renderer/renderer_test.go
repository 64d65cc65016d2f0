package renderer

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

func newTestRenderer(t *testing.T) (*Renderer, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend()
	r := New(fb, &metadata.RendererConfig{ApplicationName: "test"})
	if !r.Initialize() {
		t.Fatalf("initialize failed")
	}
	fb.reset()
	return r, fb
}

// writeTexturedTriangle writes a glTF triangle with an embedded png base colour.
func writeTexturedTriangle(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&buf, binary.LittleEndian, f)
	}
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	doc := fmt.Sprintf(`{
	"asset": {"version": "2.0"},
	"buffers": [{"byteLength": 36, "uri": "data:application/octet-stream;base64,%s"}],
	"bufferViews": [{"buffer": 0, "byteLength": 36}],
	"accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
	"images": [{"uri": "data:image/png;base64,%s"}],
	"textures": [{"source": 0}],
	"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
	"meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}]
}`, base64.StdEncoding.EncodeToString(buf.Bytes()), base64.StdEncoding.EncodeToString(img.Bytes()))

	path := filepath.Join(t.TempDir(), "triangle.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRendererInitialize(t *testing.T) {
	fb := newFakeBackend()
	r := New(fb, nil)
	if r.RenderFrame() {
		t.Fatalf("render succeeded before initialize")
	}
	if len(fb.calls) != 0 {
		t.Fatalf("calls before initialize:\nhave %v", fb.calls)
	}
	if !r.Initialize() {
		t.Fatalf("initialize failed")
	}
	if r.MaterialCount() != 1 || fb.textures != 1 {
		t.Fatalf("default material:\nhave %d materials, %d textures\nwant 1, 1", r.MaterialCount(), fb.textures)
	}
	if fb.fontAtlas == nil || fb.fontAtlas.Width != metadata.FontAtlasSize {
		t.Fatalf("overlay font not uploaded")
	}
}

func TestRendererInitializeFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.initErr = errors.New("no device")
	r := New(fb, nil)
	if r.Initialize() {
		t.Fatalf("initialize succeeded with a failing backend")
	}
	r.Cleanup()
	r.Cleanup()
	if fb.shutdown != 1 {
		t.Fatalf("shutdown calls:\nhave %d\nwant 1", fb.shutdown)
	}
}

func TestRendererMeshes(t *testing.T) {
	r, _ := newTestRenderer(t)
	box := r.CreateBoxMesh(1, 1, 1, math.NewVec3One())
	plane := r.CreatePlaneMesh(1, 1, math.NewVec3One())
	if box != 0 || plane != 1 {
		t.Fatalf("mesh ids:\nhave %d, %d\nwant 0, 1", box, plane)
	}
	if id := r.AddMesh(nil, []uint32{0}); id != metadata.InvalidID {
		t.Fatalf("empty mesh:\nhave %d\nwant InvalidID", id)
	}
	if r.MeshCount() != 2 {
		t.Fatalf("mesh count:\nhave %d\nwant 2", r.MeshCount())
	}
	if id := r.CreateEntity(7); id != metadata.InvalidEntityID {
		t.Fatalf("entity on unknown mesh:\nhave %v\nwant invalid", id)
	}
}

func TestRendererEntityReuse(t *testing.T) {
	r, _ := newTestRenderer(t)
	mesh := r.CreateBoxMesh(1, 1, 1, math.NewVec3One())
	first := r.CreateEntity(mesh)
	r.SetEntityTransform(first, math.NewMat4Translation(math.NewVec3(1, 1, 1)))
	r.RemoveEntity(first)

	second := r.CreateEntity(mesh)
	if second != first {
		t.Fatalf("reused id:\nhave %v\nwant %v", second, first)
	}
	e, ok := r.Entity(second)
	if !ok || e.Transform != math.NewMat4Identity() {
		t.Fatalf("reused entity:\nhave %+v, %v\nwant identity transform", e, ok)
	}
}

func TestRendererEmptySceneDoesNotSubmit(t *testing.T) {
	r, fb := newTestRenderer(t)
	r.CreateBoxMesh(1, 1, 1, math.NewVec3One())
	if !r.RenderFrame() {
		t.Fatalf("render of an empty scene failed")
	}
	if fb.count("submit") != 0 {
		t.Fatalf("submitted without entities")
	}
}

func TestRendererMalformedTexture(t *testing.T) {
	r, _ := newTestRenderer(t)
	before := r.MaterialCount()
	if id := r.LoadTextureFromMemory("junk", []byte("junk")); id != metadata.DefaultMaterialID {
		t.Fatalf("malformed texture:\nhave %d\nwant %d", id, metadata.DefaultMaterialID)
	}
	if r.MaterialCount() != before {
		t.Fatalf("material count:\nhave %d\nwant %d", r.MaterialCount(), before)
	}
}

func TestRendererLoadModel(t *testing.T) {
	r, fb := newTestRenderer(t)
	if r.LoadMesh(filepath.Join(t.TempDir(), "missing.glb")) != metadata.InvalidID {
		t.Fatalf("missing file produced a mesh")
	}

	path := writeTexturedTriangle(t)
	if !r.LoadModel(path) {
		t.Fatalf("load model failed")
	}
	if r.MaterialCount() != 2 {
		t.Fatalf("materials:\nhave %d\nwant 2", r.MaterialCount())
	}
	r.SetRotation(0, 90, 0)
	if !r.RenderFrame() {
		t.Fatalf("render failed")
	}
	frame := fb.frames[0]
	if len(frame.Scene) != 1 || frame.Scene[0].Material.ID != 1 || frame.Scene[0].IndexCount != 3 {
		t.Fatalf("draw:\nhave %+v", frame.Scene)
	}
	want := math.NewMat4EulerY(math.DegToRad(90))
	if !frame.Scene[0].Model.Compare(want, 1e-6) {
		t.Fatalf("legacy rotation:\nhave %v\nwant %v", frame.Scene[0].Model, want)
	}

	if !r.LoadModel(path) || r.ActiveEntityCount() != 1 {
		t.Fatalf("second legacy model:\nhave %d entities\nwant 1", r.ActiveEntityCount())
	}
}

func TestRendererLightsAndCamera(t *testing.T) {
	r, fb := newTestRenderer(t)
	r.SetLight(metadata.MaxLights, systems.LightConfig{Intensity: 1})
	r.SetLight(-1, systems.LightConfig{Intensity: 1})
	r.SetLight(2, systems.LightConfig{Type: metadata.LightTypePoint, Colour: math.NewVec3One(), Intensity: 0})
	r.SetAmbientIntensity(0.3)
	r.SetCamera(math.NewVec3(0, 2, 5), math.NewVec3Zero(), math.NewVec3Up(), 60)

	r.CreateEntity(r.CreateBoxMesh(1, 1, 1, math.NewVec3One()))
	r.RenderFrame()
	lights := fb.frames[0].Lights
	if lights.NumLights != 3 || lights.AmbientIntensity != 0.3 {
		t.Fatalf("lights:\nhave num=%d ambient=%v\nwant 3, 0.3", lights.NumLights, lights.AmbientIntensity)
	}
	if lights.CameraPosition != math.NewVec4(0, 2, 5, 1) {
		t.Fatalf("camera position:\nhave %v\nwant {0 2 5 1}", lights.CameraPosition)
	}

	r.ClearLight(2)
	if r.Lights().Count() != 0 {
		t.Fatalf("light count after clear:\nhave %d\nwant 0", r.Lights().Count())
	}
}

func TestRendererDebugOverlay(t *testing.T) {
	r, fb := newTestRenderer(t)
	mesh := r.CreateBoxMesh(1, 1, 1, math.NewVec3One())
	r.CreateEntity(mesh)
	r.CreateDebugEntity(mesh)
	r.SetDebugOverlay(true)

	r.RenderFrame()
	frame := fb.frames[0]
	if !frame.DrawDebug || len(frame.Debug) != 1 || len(frame.Overlay) == 0 {
		t.Fatalf("debug frame:\nhave drawDebug=%v debug=%d overlay=%d", frame.DrawDebug, len(frame.Debug), len(frame.Overlay))
	}

	r.ClearDebugEntities()
	r.SetDebugOverlay(false)
	r.RenderFrame()
	if frame = fb.frames[1]; frame.DrawDebug || len(frame.Overlay) != 0 {
		t.Fatalf("overlay drawn after disabling it")
	}
}

func TestRendererReloadAndCleanup(t *testing.T) {
	r, fb := newTestRenderer(t)
	if !r.ReloadPipelines() || fb.count("reload") != 1 {
		t.Fatalf("reload pipelines:\nhave calls %v", fb.calls)
	}
	r.OnResized()
	r.CreateEntity(r.CreateBoxMesh(1, 1, 1, math.NewVec3One()))
	r.RenderFrame()
	if fb.count("recreate") != 1 {
		t.Fatalf("resize did not recreate the swapchain")
	}

	r.Cleanup()
	r.Cleanup()
	if fb.shutdown != 1 || fb.destroyed != 1 || fb.released != 1 {
		t.Fatalf("cleanup:\nhave shutdown=%d destroyed=%d released=%d\nwant 1, 1, 1", fb.shutdown, fb.destroyed, fb.released)
	}
	if r.RenderFrame() {
		t.Fatalf("render succeeded after cleanup")
	}
}
