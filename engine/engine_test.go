package engine

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/config"
)

func TestInitRejectsInvalidSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
	}{
		{"zero width", 0, 720},
		{"zero height", 1280, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			e, err := New(&Game{}, cfg)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			defer e.Shutdown()

			if e.Init(tt.width, tt.height, "lumen test") {
				t.Fatalf("init %dx%d succeeded", tt.width, tt.height)
			}
			if cfg.Window.Width != 1280 || cfg.Window.Height != 720 || cfg.Window.Title != "Lumen" {
				t.Fatalf("window config changed by a rejected init:\nhave %+v", cfg.Window)
			}
			if e.currentStage != EngineStageUninitialized {
				t.Fatalf("stage:\nhave %v\nwant %v", e.currentStage, EngineStageUninitialized)
			}
		})
	}
}

func TestRunBeforeInit(t *testing.T) {
	e, err := New(&Game{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Shutdown()
	if err := e.Run(); err == nil {
		t.Fatalf("run before init succeeded")
	}
}
