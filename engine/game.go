package engine

import (
	"github.com/spaghettifunk/lumen/engine/renderer"
)

// Game is the host side of the run loop. The engine sets Renderer and Input
// before FnInitialize runs.
type Game struct {
	Renderer *renderer.Renderer
	Input    Input
	State    interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
