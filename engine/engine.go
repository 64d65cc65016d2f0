package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every subsystem
	EngineStageShutdown
)

type Engine struct {
	currentStage Stage
	config       *config.Config
	gameInstance *Game
	window       *platform.Window
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	clock        *core.Clock
	metrics      *core.Metrics

	isRunning   atomic.Bool
	isSuspended bool
	width       uint32
	height      uint32
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		err = fmt.Errorf("func New - %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(cfg.LogLevel())

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		gameInstance: g,
		assetManager: am,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}, nil
}

/**
 * @brief Opens the window, indexes the assets, brings up the renderer and
 * hands it to the game.
 */
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	wc := e.config.Window

	window, err := platform.Startup(wc.Title, wc.X, wc.Y, wc.Width, wc.Height)
	if err != nil {
		return err
	}
	e.window = window
	e.window.SetResizeCallback(e.onResized)
	e.width, e.height = e.window.FramebufferSize()

	if err := e.assetManager.Initialize(e.config.Assets.Root, e.config.Assets.HotReload); err != nil {
		return err
	}

	e.renderer = renderer.New(vulkan.New(e.window), e.config.RendererMetadata())
	if font := e.loadOverlayFont(); font != nil {
		e.renderer.SetOverlayFont(font)
	}
	if !e.renderer.Initialize() {
		return fmt.Errorf("func Initialize - renderer initialization failed")
	}

	eye, target, up := e.config.Camera.Vectors()
	e.renderer.SetCamera(eye, target, up, e.config.Camera.FOV)
	e.renderer.SetAmbientIntensity(e.config.Renderer.Ambient)
	e.renderer.SetDebugOverlay(e.config.Renderer.DebugOverlay)

	e.gameInstance.Renderer = e.renderer
	e.gameInstance.Input = e
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.isRunning.Store(true)
	e.currentStage = EngineStageInitialized
	return nil
}

/**
 * @brief Opens a width x height window titled title and initializes the
 * engine in it. Errors are logged.
 * @return False if the size is invalid or any subsystem failed to start.
 */
func (e *Engine) Init(width, height uint32, title string) bool {
	if e.currentStage != EngineStageUninitialized {
		core.LogWarn("func Init - engine already initialized")
		return e.currentStage == EngineStageInitialized || e.currentStage == EngineStageRunning
	}
	cfg := *e.config
	cfg.Window.Width = width
	cfg.Window.Height = height
	cfg.Window.Title = title
	if err := cfg.Validate(); err != nil {
		core.LogError("func Init - %v", err)
		return false
	}
	*e.config = cfg
	e.width, e.height = width, height

	if err := e.Initialize(); err != nil {
		core.LogError("func Init - %v", err)
		return false
	}
	return true
}

// loadOverlayFont returns the configured font, or nil for the built-in face.
func (e *Engine) loadOverlayFont() *metadata.FontData {
	name := e.config.Assets.Font
	if name == "" {
		return nil
	}
	params := &loaders.SystemFontParams{PixelHeight: e.config.Assets.FontSize}
	res, err := e.assetManager.LoadAsset(name, params)
	if err != nil {
		core.LogWarn("overlay font %s not loaded, using the built-in face: %v", name, err)
		return nil
	}
	font, ok := res.Data.(*metadata.FontData)
	if !ok || font.Atlas == nil {
		core.LogWarn("overlay font %s has no atlas, using the built-in face", name)
		return nil
	}
	return font
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("func Run - %w", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning

	var targetFrameSeconds float64
	if e.config.Window.FrameLimit > 0 {
		targetFrameSeconds = 1.0 / float64(e.config.Window.FrameLimit)
	}
	var sinceReport float64

	e.clock.Start()
	for !e.ShouldClose() {
		e.PollEvents()

		if e.isSuspended {
			e.window.WaitEvents()
			continue
		}

		e.clock.Update()
		frameStartTime := e.clock.Elapsed()

		if e.assetManager.ShaderReloadRequested() {
			e.renderer.ReloadPipelines()
		}

		e.renderer.UpdateTime()
		delta := e.renderer.DeltaTime()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %v", err)
				e.isRunning.Store(false)
				break
			}
		}
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(delta); err != nil {
				core.LogError("game render failed, shutting down: %v", err)
				e.isRunning.Store(false)
				break
			}
		}

		if !e.renderer.RenderFrame() {
			core.LogError("frame failed in state %s, shutting down", e.renderer.FrameState())
			e.isRunning.Store(false)
			break
		}

		e.clock.Update()
		frameElapsedTime := e.clock.Elapsed() - frameStartTime
		if remaining := targetFrameSeconds - frameElapsedTime; remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}

		e.metrics.Update(delta)
		sinceReport += delta
		if sinceReport >= 1.0 {
			fps, ms := e.metrics.Frame()
			core.LogDebug("fps: %.0f, frame: %.2f ms, entities: %d", fps, ms, e.renderer.ActiveEntityCount())
			sinceReport = 0
		}
	}
	return nil
}

// Stop asks the run loop to exit. Safe from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var firstErr error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown: %v", err)
			firstErr = err
		}
	}
	if e.renderer != nil {
		e.renderer.Cleanup()
	}
	if err := e.assetManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if e.window != nil {
		e.window.Shutdown()
		e.window = nil
	}
	e.currentStage = EngineStageShutdown
	return firstErr
}

func (e *Engine) onResized(width, height uint32) {
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.renderer != nil {
		e.renderer.OnResized()
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
}
