package systems

import (
	"math/bits"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// LightConfig describes one light as the host sets it.
type LightConfig struct {
	Type      metadata.LightType
	Position  math.Vec3
	Direction math.Vec3
	Colour    math.Vec3
	Intensity float32
	Radius    float32
	InnerCone float32
	OuterCone float32
}

// LightSet holds the fixed light array. Occupancy is tracked in a bitmask
// independent of intensity: a light set to zero intensity stays in the
// array, it simply contributes nothing.
type LightSet struct {
	lights   [metadata.MaxLights]metadata.GpuLight
	occupied uint8
	ambient  float32
}

func NewLightSet() *LightSet {
	return &LightSet{ambient: metadata.DefaultAmbientIntensity}
}

// Set stores a light at index. Out of range indices are ignored and
// reported as false.
func (ls *LightSet) Set(index int, cfg LightConfig) bool {
	if index < 0 || index >= metadata.MaxLights {
		return false
	}
	ls.lights[index] = metadata.GpuLight{
		Position:  cfg.Position.ToVec4(0),
		Direction: cfg.Direction.ToVec4(0),
		Colour:    cfg.Colour.ToVec4(cfg.Intensity),
		InnerCone: cfg.InnerCone,
		OuterCone: cfg.OuterCone,
		Radius:    cfg.Radius,
		Type:      cfg.Type,
	}
	ls.occupied |= 1 << uint(index)
	return true
}

// Clear zeroes the light at index and frees its slot.
func (ls *LightSet) Clear(index int) bool {
	if index < 0 || index >= metadata.MaxLights {
		return false
	}
	ls.lights[index] = metadata.GpuLight{}
	ls.occupied &^= 1 << uint(index)
	return true
}

func (ls *LightSet) IsSet(index int) bool {
	if index < 0 || index >= metadata.MaxLights {
		return false
	}
	return ls.occupied&(1<<uint(index)) != 0
}

// Count is the highest occupied index plus one, the loop bound the shader uses.
func (ls *LightSet) Count() int {
	return bits.Len8(ls.occupied)
}

func (ls *LightSet) SetAmbient(intensity float32) {
	ls.ambient = intensity
}

func (ls *LightSet) Ambient() float32 {
	return ls.ambient
}

// Fill writes the light uniform block for the given camera position.
func (ls *LightSet) Fill(ubo *metadata.LightUBO, cameraPos math.Vec3) {
	ubo.CameraPosition = cameraPos.ToVec4(1)
	ubo.NumLights = int32(ls.Count())
	ubo.AmbientIntensity = ls.ambient
	ubo.Lights = ls.lights
}
