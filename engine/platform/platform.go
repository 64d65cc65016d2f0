package platform

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
)

// Window owns the GLFW window and feeds its callbacks into an InputState.
// Every method must be called from the main OS thread.
type Window struct {
	handle *glfw.Window
	Input  *core.InputState

	onResize     func(width, height uint32)
	cursorLocked bool
	startTime    float64
}

func Startup(applicationName string, x, y, width, height uint32) (*Window, error) {
	if err := glfw.Init(); err != nil {
		err = fmt.Errorf("func Startup - failed to initialize glfw: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		err := fmt.Errorf("func Startup - glfw reports no vulkan loader")
		core.LogError(err.Error())
		return nil, err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	handle, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		err = fmt.Errorf("func Startup - failed to create window: %w", err)
		core.LogError(err.Error())
		return nil, err
	}

	w := &Window{
		handle: handle,
		Input:  core.NewInputState(),
	}

	handle.SetKeyCallback(w.keyCallback)
	handle.SetMouseButtonCallback(w.mouseButtonCallback)
	handle.SetCursorPosCallback(w.cursorPosCallback)
	handle.SetScrollCallback(w.scrollCallback)
	handle.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	handle.SetPos(int(x), int(y))
	handle.Show()

	w.startTime = glfw.GetTime()
	return w, nil
}

func (w *Window) Shutdown() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	glfw.Terminate()
}

// PollEvents rolls the input state over and dispatches pending callbacks.
func (w *Window) PollEvents() {
	w.Input.Update()
	glfw.PollEvents()
}

// WaitEvents blocks until at least one event arrived.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) ShouldClose() bool {
	return w.handle == nil || w.handle.ShouldClose()
}

func (w *Window) SetShouldClose(value bool) {
	if w.handle != nil {
		w.handle.SetShouldClose(value)
	}
}

func (w *Window) FramebufferSize() (uint32, uint32) {
	if w.handle == nil {
		return 0, 0
	}
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// SetResizeCallback registers fn for framebuffer size changes.
func (w *Window) SetResizeCallback(fn func(width, height uint32)) {
	w.onResize = fn
}

// SetCursorLocked hides the cursor and confines it to the window.
func (w *Window) SetCursorLocked(locked bool) {
	if w.handle == nil || w.cursorLocked == locked {
		return
	}
	w.cursorLocked = locked
	if locked {
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		if glfw.RawMouseMotionSupported() {
			w.handle.SetInputMode(glfw.RawMouseMotion, glfw.True)
		}
		return
	}
	w.handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
}

func (w *Window) CursorLocked() bool {
	return w.cursorLocked
}

// RequiredInstanceExtensions lists the instance extensions GLFW needs for a surface.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		err = fmt.Errorf("func CreateSurface - vulkan surface creation failed: %w", err)
		core.LogError(err.Error())
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(surface), nil
}

// GetInstanceProcAddress is the loader entry point handed to the vulkan bindings.
func GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// Time returns the seconds elapsed since Startup.
func (w *Window) Time() float64 {
	return glfw.GetTime() - w.startTime
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	w.Input.ProcessKey(int(key), action == glfw.Press)
}

func (w *Window) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	w.Input.ProcessButton(b, action == glfw.Press)
}

func (w *Window) cursorPosCallback(_ *glfw.Window, xpos, ypos float64) {
	w.Input.ProcessMouseMove(xpos, ypos)
}

func (w *Window) scrollCallback(_ *glfw.Window, xoff, yoff float64) {
	w.Input.ProcessScroll(xoff, yoff)
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	core.LogDebug("framebuffer resized to %dx%d", width, height)
	if w.onResize != nil {
		w.onResize(uint32(width), uint32(height))
	}
}
