package core

import (
	"errors"
)

var (
	ErrNotInitialized     = errors.New("renderer not initialized")
	ErrNoSuitableDevice   = errors.New("no suitable physical device")
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	ErrAllocation         = errors.New("gpu allocation failed")

	ErrEmptyMesh        = errors.New("mesh has no vertices or no indices")
	ErrInvalidMesh      = errors.New("invalid mesh")
	ErrInvalidEntity    = errors.New("entity id out of range or stale")
	ErrMaterialPoolFull = errors.New("material pool is full")
	ErrTextureDecode    = errors.New("texture decode failed")
	ErrLightIndex       = errors.New("light index out of range")

	ErrUnknown = errors.New("unknown")
)
