package testbed

import (
	stdmath "math"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type TestGame struct {
	*engine.Game
}

type sceneObject struct {
	entity    metadata.EntityID
	transform *math.Transform
	spin      math.Vec3
}

type gameState struct {
	objects []*sceneObject
	gizmo   metadata.EntityID
	lamp    metadata.EntityID

	modelPath   string
	modelLoaded bool

	// Orbit camera around the origin.
	yaw      float32
	pitch    float32
	distance float32
	lastX    float64
	lastY    float64
	dragging bool
}

func NewTestGame(modelPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				modelPath: modelPath,
				yaw:       0,
				pitch:     20,
				distance:  8,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.state()
	r := g.Renderer

	box := r.CreateBoxMesh(1, 1, 1, math.NewVec3(0.8, 0.3, 0.2))
	plane := r.CreatePlaneMesh(20, 20, math.NewVec3(0.4, 0.4, 0.45))
	sphere := r.CreateSphereMesh(0.6, 32, 16, math.NewVec3(0.2, 0.5, 0.9))
	cylinder := r.CreateCylinderMesh(0.4, 1.2, 24, math.NewVec3(0.3, 0.8, 0.3))
	capsule := r.CreateCapsuleMesh(0.35, 1.0, 24, 8, math.NewVec3(0.9, 0.8, 0.2))

	place := func(mesh uint32, position, spin math.Vec3) {
		id := r.CreateEntity(mesh)
		if !id.IsValid() {
			return
		}
		t := math.TransformFromPosition(position)
		r.SetEntityTransform(id, t.GetLocal())
		state.objects = append(state.objects, &sceneObject{entity: id, transform: t, spin: spin})
	}
	place(plane, math.NewVec3(0, -1, 0), math.NewVec3Zero())
	place(box, math.NewVec3(-2.5, 0, 0), math.NewVec3(0, 45, 0))
	place(sphere, math.NewVec3(0, 0, 0), math.NewVec3Zero())
	place(cylinder, math.NewVec3(2.5, 0, 0), math.NewVec3(30, 0, 0))
	place(capsule, math.NewVec3(0, 0, -2.5), math.NewVec3(0, 0, 60))

	// Wireframe markers for the point light and the origin.
	state.lamp = r.CreateDebugEntity(sphere)
	state.gizmo = r.CreateDebugEntity(box)
	r.SetDebugEntityTransform(state.gizmo, math.NewMat4Scale(math.NewVec3(0.1, 0.1, 0.1)))

	r.SetLight(0, systems.LightConfig{
		Type:      metadata.LightTypeDirectional,
		Direction: math.NewVec3(-0.3, -1, -0.4),
		Colour:    math.NewVec3(1, 0.96, 0.9),
		Intensity: 0.8,
	})
	r.SetLight(1, systems.LightConfig{
		Type:      metadata.LightTypePoint,
		Position:  math.NewVec3(0, 2, 2),
		Colour:    math.NewVec3(1, 0.6, 0.3),
		Intensity: 1.5,
		Radius:    8,
	})
	r.SetLight(2, systems.LightConfig{
		Type:      metadata.LightTypeSpot,
		Position:  math.NewVec3(0, 5, 0),
		Direction: math.NewVec3(0, -1, 0),
		Colour:    math.NewVec3(0.6, 0.7, 1),
		Intensity: 2,
		Radius:    12,
		InnerCone: 15,
		OuterCone: 25,
	})

	if state.modelPath != "" {
		state.modelLoaded = r.LoadModel(state.modelPath)
		if !state.modelLoaded {
			core.LogWarn("model %s could not be loaded", state.modelPath)
		}
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	input := g.Input
	r := g.Renderer

	if input.IsKeyPressed(core.KEY_ESCAPE) {
		input.RequestClose()
		return nil
	}
	if input.IsKeyJustPressed(core.KEY_F1) {
		r.SetDebugOverlay(!r.DebugOverlay())
	}

	// Drag with the left button to orbit, scroll to zoom.
	x, y := input.CursorPos()
	if input.IsMouseButtonPressed(core.BUTTON_LEFT) {
		if state.dragging {
			state.yaw = math.Wrap(state.yaw+float32(x-state.lastX)*0.3, 0, 360)
			state.pitch = math.Clamp(state.pitch+float32(y-state.lastY)*0.3, -85, 85)
		}
		state.dragging = true
	} else {
		state.dragging = false
	}
	state.lastX, state.lastY = x, y

	_, scrollY := input.ScrollOffset()
	state.distance = math.Clamp(state.distance-float32(scrollY)*0.5, 2, 40)
	input.ResetScroll()

	dt := float32(deltaTime)
	for _, o := range state.objects {
		if o.spin == math.NewVec3Zero() {
			continue
		}
		o.transform.Rotate(o.spin.MulScalar(dt))
		r.SetEntityTransform(o.entity, o.transform.GetLocal())
	}
	if state.modelLoaded {
		angle := float32(r.TotalTime()) * 20
		r.SetRotation(0, angle, 0)
	}

	t := float32(r.TotalTime())
	lampPos := math.NewVec3(float32(stdmath.Cos(float64(t)))*3, 2, float32(stdmath.Sin(float64(t)))*3)
	r.SetLight(1, systems.LightConfig{
		Type:      metadata.LightTypePoint,
		Position:  lampPos,
		Colour:    math.NewVec3(1, 0.6, 0.3),
		Intensity: 1.5,
		Radius:    8,
	})
	r.SetDebugEntityTransform(state.lamp, math.NewMat4Translation(lampPos).Mul(math.NewMat4Scale(math.NewVec3(0.2, 0.2, 0.2))))
	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	state := g.state()
	yaw := math.DegToRad(state.yaw)
	pitch := math.DegToRad(state.pitch)
	eye := math.NewVec3(
		state.distance*float32(stdmath.Cos(float64(pitch))*stdmath.Sin(float64(yaw))),
		state.distance*float32(stdmath.Sin(float64(pitch))),
		state.distance*float32(stdmath.Cos(float64(pitch))*stdmath.Cos(float64(yaw))),
	)
	g.Renderer.SetCamera(eye, math.NewVec3Zero(), math.NewVec3Up(), g.Renderer.Camera().FovDegrees)
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	for _, o := range state.objects {
		g.Renderer.RemoveEntity(o.entity)
	}
	state.objects = nil
	g.Renderer.ClearDebugEntities()
	return nil
}
