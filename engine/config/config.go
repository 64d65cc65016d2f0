package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

var ErrInvalidConfig = errors.New("invalid configuration")

/** @brief Upper bound of [renderer] max_materials, the size of the material descriptor pool. */
const MaxMaterials uint32 = 64

type WindowConfig struct {
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
	// FrameLimit caps the engine loop in frames per second. Zero disables it.
	FrameLimit uint32 `toml:"frame_limit"`
}

type RendererConfig struct {
	Validation     bool       `toml:"validation"`
	ClearColor     [4]float32 `toml:"clear_color"`
	Ambient        float32    `toml:"ambient"`
	DebugOverlay   bool       `toml:"debug_overlay"`
	MaxMaterials   uint32     `toml:"max_materials"`
	FramesInFlight uint32     `toml:"frames_in_flight"`
}

type AssetsConfig struct {
	Root string `toml:"root"`
	// Shaders is relative to Root unless absolute.
	Shaders string `toml:"shaders"`
	// Font is a .ttf, .otf or .fnt path relative to Root. Empty selects the built-in face.
	Font      string  `toml:"font"`
	FontSize  float64 `toml:"font_size"`
	HotReload bool    `toml:"hot_reload"`
}

type CameraConfig struct {
	Eye    [3]float32 `toml:"eye"`
	Target [3]float32 `toml:"target"`
	Up     [3]float32 `toml:"up"`
	FOV    float32    `toml:"fov"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Camera   CameraConfig   `toml:"camera"`
	Log      LogConfig      `toml:"log"`
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
			Title:  "Lumen",
			VSync:  true,
		},
		Renderer: RendererConfig{
			ClearColor:     [4]float32{0.1, 0.1, 0.12, 1.0},
			Ambient:        0.15,
			DebugOverlay:   true,
			MaxMaterials:   MaxMaterials,
			FramesInFlight: metadata.MaxFramesInFlight,
		},
		Assets: AssetsConfig{
			Root:     "assets",
			Shaders:  "shaders",
			FontSize: 20,
		},
		Camera: CameraConfig{
			Eye:    [3]float32{0, 0, 3},
			Target: [3]float32{0, 0, 0},
			Up:     [3]float32{0, 1, 0},
			FOV:    45,
		},
		Log: LogConfig{Level: "info"},
	}
}

/**
 * @brief Reads a TOML file on top of the defaults. A missing file is not an
 * error: the defaults are returned and a warning logged. Unknown keys are
 * reported and ignored.
 */
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("config file %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		err = fmt.Errorf("func Load - failed to read %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := Parse(data, cfg); err != nil {
		err = fmt.Errorf("func Load - %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		err = fmt.Errorf("func Load - %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML into cfg, leaving absent keys untouched.
func Parse(data []byte, cfg *Config) error {
	err := toml.Unmarshal(data, cfg)
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Errorf("line %d column %d: %s", row, col, decodeErr.Error())
	}
	if err != nil {
		return err
	}

	// A second strict pass only to report typos.
	var strict Config
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	var missing *toml.StrictMissingError
	if err := dec.Decode(&strict); errors.As(err, &missing) {
		core.LogWarn("unknown config keys ignored:\n%s", missing.String())
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size %dx%d: %w", c.Window.Width, c.Window.Height, ErrInvalidConfig)
	}
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidConfig)
	}
	if c.Renderer.MaxMaterials < 1 || c.Renderer.MaxMaterials > MaxMaterials {
		return fmt.Errorf("max_materials %d outside 1..%d: %w", c.Renderer.MaxMaterials, MaxMaterials, ErrInvalidConfig)
	}
	if c.Renderer.FramesInFlight != metadata.MaxFramesInFlight {
		return fmt.Errorf("frames_in_flight %d, only %d is supported: %w", c.Renderer.FramesInFlight, metadata.MaxFramesInFlight, ErrInvalidConfig)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov %.1f outside (0, 180): %w", c.Camera.FOV, ErrInvalidConfig)
	}
	if c.Renderer.Ambient < 0 {
		return fmt.Errorf("negative ambient %.2f: %w", c.Renderer.Ambient, ErrInvalidConfig)
	}
	return nil
}

func (c *Config) LogLevel() core.LogLevel {
	level, _ := core.ParseLogLevel(c.Log.Level)
	return level
}

func (c *Config) ShaderDir() string {
	if filepath.IsAbs(c.Assets.Shaders) {
		return c.Assets.Shaders
	}
	return filepath.Join(c.Assets.Root, c.Assets.Shaders)
}

// RendererMetadata converts the [window] and [renderer] sections for the backend.
func (c *Config) RendererMetadata() *metadata.RendererConfig {
	cc := c.Renderer.ClearColor
	return &metadata.RendererConfig{
		ApplicationName:  c.Window.Title,
		EnableValidation: c.Renderer.Validation,
		ClearColour:      math.NewVec4(cc[0], cc[1], cc[2], cc[3]),
		ShaderDir:        c.ShaderDir(),
		MaxMaterials:     c.Renderer.MaxMaterials,
		VSync:            c.Window.VSync,
	}
}

func (cc CameraConfig) Vectors() (eye, target, up math.Vec3) {
	return math.NewVec3(cc.Eye[0], cc.Eye[1], cc.Eye[2]),
		math.NewVec3(cc.Target[0], cc.Target[1], cc.Target[2]),
		math.NewVec3(cc.Up[0], cc.Up[1], cc.Up[2])
}
