package metadata

import "github.com/spaghettifunk/lumen/engine/math"

/** @brief The size of the light array in the light uniform block. */
const MaxLights = 8

/** @brief Ambient term used until the host sets one. */
const DefaultAmbientIntensity float32 = 0.15

type LightType int32

const (
	LightTypeDirectional LightType = iota
	LightTypePoint
	LightTypeSpot
)

/**
 * @brief One light as laid out in the light uniform block (std140, 64 bytes).
 * Position.W and Direction.W are unused. Colour.W holds the intensity.
 */
type GpuLight struct {
	Position  math.Vec4
	Direction math.Vec4
	Colour    math.Vec4
	InnerCone float32
	OuterCone float32
	Radius    float32
	Type      LightType
}

/**
 * @brief The light uniform block bound at set 0, binding 1 (544 bytes).
 */
type LightUBO struct {
	CameraPosition   math.Vec4
	NumLights        int32
	AmbientIntensity float32
	_                [2]float32
	Lights           [MaxLights]GpuLight
}
