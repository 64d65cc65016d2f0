package engine

import (
	"github.com/spaghettifunk/lumen/engine/core"
)

// Input is the window and device query surface handed to the game.
type Input interface {
	ShouldClose() bool
	RequestClose()
	IsKeyPressed(key int) bool
	IsKeyJustPressed(key int) bool
	IsMouseButtonPressed(button core.Button) bool
	CursorPos() (float64, float64)
	SetCursorLocked(locked bool)
	CursorLocked() bool
	ScrollOffset() (float64, float64)
	ResetScroll()
	FramebufferSize() (uint32, uint32)
}

func (e *Engine) ShouldClose() bool {
	return !e.isRunning.Load() || e.window == nil || e.window.ShouldClose()
}

// RequestClose ends the run loop after the current frame.
func (e *Engine) RequestClose() {
	e.isRunning.Store(false)
	if e.window != nil {
		e.window.SetShouldClose(true)
	}
}

// PollEvents dispatches pending window events. Run calls it once per frame.
func (e *Engine) PollEvents() {
	if e.window != nil {
		e.window.PollEvents()
	}
}

func (e *Engine) IsKeyPressed(key int) bool {
	return e.window != nil && e.window.Input.IsKeyDown(key)
}

// IsKeyJustPressed reports a key that went down since the previous frame.
func (e *Engine) IsKeyJustPressed(key int) bool {
	return e.window != nil && e.window.Input.IsKeyDown(key) && !e.window.Input.WasKeyDown(key)
}

func (e *Engine) IsMouseButtonPressed(button core.Button) bool {
	return e.window != nil && e.window.Input.IsButtonDown(button)
}

func (e *Engine) CursorPos() (float64, float64) {
	if e.window == nil {
		return 0, 0
	}
	return e.window.Input.MousePosition()
}

func (e *Engine) SetCursorLocked(locked bool) {
	if e.window != nil {
		e.window.SetCursorLocked(locked)
	}
}

func (e *Engine) CursorLocked() bool {
	return e.window != nil && e.window.CursorLocked()
}

// ScrollOffset is the scroll accumulated since the last ResetScroll.
func (e *Engine) ScrollOffset() (float64, float64) {
	if e.window == nil {
		return 0, 0
	}
	return e.window.Input.Scroll()
}

func (e *Engine) ResetScroll() {
	if e.window != nil {
		e.window.Input.ResetScroll()
	}
}

func (e *Engine) FramebufferSize() (uint32, uint32) {
	return e.width, e.height
}
