/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/testbed"
)

func init() {
	// GLFW and the Vulkan surface must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "lumen.toml", "path to the TOML configuration")
	modelPath := flag.String("model", "", "optional glTF or GLB model shown in the scene")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Exit(1)
	}

	tb := testbed.NewTestGame(*modelPath)

	e, err := engine.New(tb.Game, cfg)
	if err != nil {
		os.Exit(1)
	}

	if !e.Init(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title) {
		core.LogError("engine initialization failed")
		_ = e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the loop exits on the next frame; cleanup stays on the main thread
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %v", err)
	}
	if runErr != nil {
		core.LogError("run: %v", runErr)
		os.Exit(1)
	}
}
