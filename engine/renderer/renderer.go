package renderer

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/overlay"
	"github.com/spaghettifunk/lumen/engine/systems"
)

/**
 * @brief The host facing render context. It owns the geometry arena, the
 * scene and debug entity pools, the material registry, lights, camera and
 * the frame pipeline. Every entry point logs failures and returns a
 * sentinel; none of them panics.
 */
type Renderer struct {
	id      core.Identifier
	config  *metadata.RendererConfig
	backend RendererBackend

	geometry  *systems.GeometryPool
	scene     *systems.EntityPool
	debug     *systems.EntityPool
	materials *systems.MaterialRegistry
	lights    *systems.LightSet
	camera    *components.Camera
	frames    *FramePipeline
	clock     *core.FrameClock
	stats     *overlay.StatsPanel
	font      *metadata.FontData

	legacyEntity metadata.EntityID

	backendStarted bool
	initialized    bool
}

func New(backend RendererBackend, config *metadata.RendererConfig) *Renderer {
	if config == nil {
		config = &metadata.RendererConfig{ApplicationName: "lumen"}
	}
	geometry := systems.NewGeometryPool()
	r := &Renderer{
		id:           core.NewIdentifier("renderer"),
		config:       config,
		backend:      backend,
		geometry:     geometry,
		scene:        systems.NewEntityPool("scene", geometry),
		debug:        systems.NewEntityPool("debug", geometry),
		materials:    systems.NewMaterialRegistry(backend, loaders.DecodeImage, config.MaxMaterials),
		lights:       systems.NewLightSet(),
		camera:       components.NewCamera(),
		clock:        core.NewFrameClock(),
		stats:        overlay.NewStatsPanel(nil),
		legacyEntity: metadata.InvalidEntityID,
	}
	r.frames = NewFramePipeline(backend, r.geometry, r.scene, r.debug, r.materials, r.camera, r.lights)
	r.frames.SetOverlay(r.stats)
	return r
}

func (r *Renderer) notInitialized(op string) {
	core.LogError(fmt.Errorf("func %s - renderer %s: %w", op, r.id, core.ErrNotInitialized).Error())
}

/**
 * @brief Brings up the backend, the default material and the overlay font.
 * @return False if any step failed. Call Cleanup to release partial state.
 */
func (r *Renderer) Initialize() bool {
	if r.initialized {
		return true
	}
	if r.backend == nil {
		r.notInitialized("Initialize")
		return false
	}

	r.backendStarted = true
	if err := r.backend.Initialize(r.config); err != nil {
		core.LogError("func Initialize - failed to initialize the renderer backend: %v", err)
		return false
	}
	if err := r.materials.Initialize(); err != nil {
		return false
	}

	if r.font == nil {
		r.font = loaders.DefaultFont()
	}
	if err := r.backend.SetOverlayFont(r.font.Atlas); err != nil {
		core.LogError("func Initialize - failed to upload overlay font: %v", err)
		return false
	}
	r.stats.SetFont(r.font)

	r.initialized = true
	core.LogInfo("renderer %s initialized (%s)", r.id, r.config.ApplicationName)
	return true
}

func (r *Renderer) IsInitialized() bool {
	return r.initialized
}

// SetOverlayFont replaces the debug overlay font. Before Initialize it only
// selects the font to upload.
func (r *Renderer) SetOverlayFont(font *metadata.FontData) bool {
	if font == nil || font.Atlas == nil {
		core.LogWarn("func SetOverlayFont - font without atlas ignored")
		return false
	}
	if r.initialized {
		if err := r.backend.SetOverlayFont(font.Atlas); err != nil {
			core.LogError("func SetOverlayFont - %v", err)
			return false
		}
		r.stats.SetFont(font)
	}
	r.font = font
	return true
}

// AddMesh appends a mesh bound to the default material.
func (r *Renderer) AddMesh(vertices []math.Vertex3D, indices []uint32) uint32 {
	return r.AddMeshWithMaterial(vertices, indices, metadata.DefaultMaterialID)
}

func (r *Renderer) AddMeshWithMaterial(vertices []math.Vertex3D, indices []uint32, materialID uint32) uint32 {
	id, err := r.geometry.AddMeshWithMaterial(vertices, indices, materialID)
	if err != nil {
		core.LogError(err.Error())
		return metadata.InvalidID
	}
	return id
}

func (r *Renderer) CreateBoxMesh(width, height, length float32, colour math.Vec3) uint32 {
	return r.AddMesh(math.GenerateBox(width, height, length, colour))
}

func (r *Renderer) CreatePlaneMesh(width, height float32, colour math.Vec3) uint32 {
	return r.AddMesh(math.GeneratePlane(width, height, colour))
}

func (r *Renderer) CreateSphereMesh(radius float32, segments, rings int, colour math.Vec3) uint32 {
	return r.AddMesh(math.GenerateSphere(radius, segments, rings, colour))
}

func (r *Renderer) CreateCylinderMesh(radius, height float32, segments int, colour math.Vec3) uint32 {
	return r.AddMesh(math.GenerateCylinder(radius, height, segments, colour))
}

func (r *Renderer) CreateCapsuleMesh(radius, height float32, segments, rings int, colour math.Vec3) uint32 {
	return r.AddMesh(math.GenerateCapsule(radius, height, segments, rings, colour))
}

func (r *Renderer) MeshCount() uint32 {
	return r.geometry.MeshCount()
}

/**
 * @brief Loads a glTF or GLB file as one mesh. The first base colour
 * texture becomes the mesh material.
 * @return The mesh id, or InvalidID if the file could not be parsed.
 */
func (r *Renderer) LoadMesh(path string) uint32 {
	if !r.initialized {
		r.notInitialized("LoadMesh")
		return metadata.InvalidID
	}
	mesh, err := loaders.LoadModel(path)
	if err != nil {
		core.LogError("func LoadMesh - %v", err)
		return metadata.InvalidID
	}

	materialID := metadata.DefaultMaterialID
	if len(mesh.BaseColourImage) > 0 {
		id, err := r.materials.LoadTextureFromMemory(mesh.Name, mesh.BaseColourImage)
		if err != nil {
			core.LogWarn("func LoadMesh - %s keeps the default material: %v", path, err)
		} else {
			materialID = id
		}
	}

	id := r.AddMeshWithMaterial(mesh.Vertices, mesh.Indices, materialID)
	if id != metadata.InvalidID {
		core.LogDebug("mesh %d loaded from %s: %d vertices, material %d", id, path, len(mesh.Vertices), materialID)
	}
	return id
}

/**
 * @brief Decodes and uploads an encoded image as a new material.
 * @return The material id. Undecodable data yields DefaultMaterialID,
 * a full registry or an upload failure yields InvalidID.
 */
func (r *Renderer) LoadTextureFromMemory(name string, data []byte) uint32 {
	if !r.initialized {
		r.notInitialized("LoadTextureFromMemory")
		return metadata.InvalidID
	}
	id, err := r.materials.LoadTextureFromMemory(name, data)
	if err != nil {
		return metadata.InvalidID
	}
	return id
}

func (r *Renderer) MaterialCount() int {
	return r.materials.Len()
}

func (r *Renderer) CreateEntity(meshID uint32) metadata.EntityID {
	id, err := r.scene.Create(meshID)
	if err != nil {
		return metadata.InvalidEntityID
	}
	return id
}

func (r *Renderer) SetEntityTransform(id metadata.EntityID, transform math.Mat4) {
	r.scene.SetTransform(id, transform)
}

func (r *Renderer) RemoveEntity(id metadata.EntityID) {
	r.scene.Remove(id)
}

func (r *Renderer) Entity(id metadata.EntityID) (metadata.Entity, bool) {
	return r.scene.Get(id)
}

func (r *Renderer) ActiveEntityCount() int {
	return r.scene.ActiveCount()
}

// CreateDebugEntity adds an instance drawn by the wireframe pass.
func (r *Renderer) CreateDebugEntity(meshID uint32) metadata.EntityID {
	id, err := r.debug.Create(meshID)
	if err != nil {
		return metadata.InvalidEntityID
	}
	return id
}

func (r *Renderer) SetDebugEntityTransform(id metadata.EntityID, transform math.Mat4) {
	r.debug.SetTransform(id, transform)
}

func (r *Renderer) RemoveDebugEntity(id metadata.EntityID) {
	r.debug.Remove(id)
}

func (r *Renderer) ClearDebugEntities() {
	r.debug.Clear()
}

func (r *Renderer) DebugEntityCount() int {
	return r.debug.ActiveCount()
}

func (r *Renderer) SetCamera(eye, target, up math.Vec3, fovDegrees float32) {
	r.camera.Set(eye, target, up, fovDegrees)
}

func (r *Renderer) Camera() *components.Camera {
	return r.camera
}

// SetLight stores a light. Indices outside [0, MaxLights) are ignored.
func (r *Renderer) SetLight(index int, light systems.LightConfig) {
	if !r.lights.Set(index, light) {
		core.LogWarn("func SetLight - %v: %d", core.ErrLightIndex, index)
	}
}

func (r *Renderer) ClearLight(index int) {
	if !r.lights.Clear(index) {
		core.LogWarn("func ClearLight - %v: %d", core.ErrLightIndex, index)
	}
}

func (r *Renderer) SetAmbientIntensity(intensity float32) {
	r.lights.SetAmbient(intensity)
}

func (r *Renderer) Lights() *systems.LightSet {
	return r.lights
}

// SetDebugOverlay toggles the wireframe pass and the stats panel.
func (r *Renderer) SetDebugOverlay(enabled bool) {
	r.frames.SetDebugEnabled(enabled)
}

func (r *Renderer) DebugOverlay() bool {
	return r.frames.DebugEnabled()
}

// UpdateTime advances the frame clock. The first call only records the start.
func (r *Renderer) UpdateTime() {
	r.clock.Tick()
}

func (r *Renderer) DeltaTime() float64 {
	return r.clock.DeltaTime()
}

func (r *Renderer) TotalTime() float64 {
	return r.clock.TotalTime()
}

/**
 * @brief Loads a model and shows it as the single legacy entity, replacing
 * the previous one.
 */
func (r *Renderer) LoadModel(path string) bool {
	meshID := r.LoadMesh(path)
	if meshID == metadata.InvalidID {
		return false
	}
	if r.legacyEntity.IsValid() {
		r.scene.Remove(r.legacyEntity)
	}
	r.legacyEntity = r.CreateEntity(meshID)
	return r.legacyEntity.IsValid()
}

// SetRotation rotates the legacy entity by euler angles in degrees, X then Y then Z.
func (r *Renderer) SetRotation(x, y, z float32) {
	if !r.legacyEntity.IsValid() {
		return
	}
	rotation := math.NewMat4EulerXYZ(math.DegToRad(x), math.DegToRad(y), math.DegToRad(z))
	r.scene.SetTransform(r.legacyEntity, rotation)
}

/**
 * @brief Renders one frame.
 * @return False on a GPU failure or before Initialize. A frame skipped for
 * swapchain recreation or an empty scene is a success.
 */
func (r *Renderer) RenderFrame() bool {
	if !r.initialized {
		r.notInitialized("RenderFrame")
		return false
	}
	if r.frames.DebugEnabled() {
		r.stats.Update(r.clock.DeltaTime(), r.scene.ActiveCount())
	}
	return r.frames.RenderFrame() == nil
}

// OnResized requests a swapchain recreation after the next present.
func (r *Renderer) OnResized() {
	r.frames.FlagResize()
}

// ReloadPipelines rebuilds the pipelines from the shader directory.
func (r *Renderer) ReloadPipelines() bool {
	if !r.initialized {
		r.notInitialized("ReloadPipelines")
		return false
	}
	if err := r.backend.ReloadPipelines(); err != nil {
		core.LogError("func ReloadPipelines - keeping the previous pipelines: %v", err)
		return false
	}
	core.LogInfo("pipelines reloaded")
	return true
}

func (r *Renderer) FrameState() FrameState {
	return r.frames.State()
}

/**
 * @brief Waits for the GPU, then releases materials and the backend. Safe
 * to call after a failed Initialize and more than once.
 */
func (r *Renderer) Cleanup() {
	if !r.backendStarted {
		return
	}
	if r.initialized {
		if err := r.backend.WaitIdle(); err != nil {
			core.LogWarn("func Cleanup - %v", err)
		}
	}
	r.materials.Shutdown()
	r.geometry.Invalidate()
	if err := r.backend.Shutdown(); err != nil {
		core.LogError("func Cleanup - %v", err)
	}
	r.backendStarted = false
	r.initialized = false
	core.LogInfo("renderer %s shut down", r.id)
}
