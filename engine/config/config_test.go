package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config:\nhave %v\nwant nil", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg := Default()
	data := []byte(`
[window]
width = 800
title = "viewer"

[renderer]
clear_color = [0.0, 0.5, 1.0, 1.0]
max_materials = 16

[assets]
root = "/opt/lumen/assets"

[log]
level = "debug"
`)
	if err := Parse(data, cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 720 {
		t.Fatalf("window size:\nhave %dx%d\nwant 800x720", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Title != "viewer" {
		t.Fatalf("title:\nhave %q\nwant %q", cfg.Window.Title, "viewer")
	}
	if cfg.LogLevel() != core.DebugLevel {
		t.Fatalf("log level:\nhave %v\nwant %v", cfg.LogLevel(), core.DebugLevel)
	}
	if have, want := cfg.ShaderDir(), filepath.Join("/opt/lumen/assets", "shaders"); have != want {
		t.Fatalf("shader dir:\nhave %q\nwant %q", have, want)
	}

	rc := cfg.RendererMetadata()
	if rc.MaxMaterials != 16 || rc.ApplicationName != "viewer" || rc.ClearColour.Y != 0.5 {
		t.Fatalf("renderer metadata:\nhave %+v", rc)
	}
}

func TestParseSyntaxError(t *testing.T) {
	if err := Parse([]byte("[window\nwidth = 1"), Default()); err == nil {
		t.Fatalf("malformed toml:\nhave nil error\nwant error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"zero height", func(c *Config) { c.Window.Height = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"no materials", func(c *Config) { c.Renderer.MaxMaterials = 0 }},
		{"too many materials", func(c *Config) { c.Renderer.MaxMaterials = MaxMaterials + 1 }},
		{"three frames in flight", func(c *Config) { c.Renderer.FramesInFlight = 3 }},
		{"flat fov", func(c *Config) { c.Camera.FOV = 180 }},
		{"negative ambient", func(c *Config) { c.Renderer.Ambient = -1 }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s:\nhave %v\nwant %v", tt.name, err, ErrInvalidConfig)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg != *Default() {
		t.Fatalf("missing file:\nhave %+v\nwant defaults", cfg)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.toml")
	if err := os.WriteFile(path, []byte("[window]\nwidth = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero width file:\nhave %v\nwant %v", err, ErrInvalidConfig)
	}
}

func TestCameraVectors(t *testing.T) {
	eye, target, up := Default().Camera.Vectors()
	if eye.Z != 3 || target.X != 0 || up.Y != 1 {
		t.Fatalf("camera vectors:\nhave %v %v %v", eye, target, up)
	}
}
