package overlay

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const (
	panelPadding = 10.0
	panelWidth   = 260.0
	panelLines   = 3
	fpsSmoothing = 0.95
)

var (
	PanelColour = math.NewVec4(0, 0, 0, 0.65)
	TextColour  = math.NewVec4(0, 1, 0, 1)
)

// StatsPanel draws frame time statistics in the top left corner.
type StatsPanel struct {
	font        *metadata.FontData
	deltaTime   float64
	smoothedFPS float64
	entities    int
}

func NewStatsPanel(font *metadata.FontData) *StatsPanel {
	return &StatsPanel{font: font}
}

func (sp *StatsPanel) SetFont(font *metadata.FontData) {
	sp.font = font
}

func (sp *StatsPanel) Font() *metadata.FontData {
	return sp.font
}

// Update feeds the last frame delta in seconds and the live entity count.
func (sp *StatsPanel) Update(deltaTime float64, entities int) {
	sp.deltaTime = deltaTime
	sp.entities = entities
	instant := 0.0
	if deltaTime > 0 {
		instant = 1.0 / deltaTime
	}
	sp.smoothedFPS = fpsSmoothing*sp.smoothedFPS + (1-fpsSmoothing)*instant
}

func (sp *StatsPanel) SmoothedFPS() float64 {
	return sp.smoothedFPS
}

func (sp *StatsPanel) Lines() []string {
	return []string{
		fmt.Sprintf("FPS: %.1f", sp.smoothedFPS),
		fmt.Sprintf("DT:  %.2f ms", sp.deltaTime*1000.0),
		fmt.Sprintf("Entities: %d", sp.entities),
	}
}

func (sp *StatsPanel) lineHeight() float32 {
	if sp.font == nil {
		return 4
	}
	return float32(sp.font.Size) + 4
}

// Build appends the panel background and its text lines to dst.
func (sp *StatsPanel) Build(dst []math.Vertex2D, width, height uint32) []math.Vertex2D {
	batch := NewBatch(dst, sp.font)
	lineHeight := sp.lineHeight()
	panelHeight := panelPadding*2 + lineHeight*panelLines

	batch.AddQuad(panelPadding, panelPadding, panelWidth, panelHeight, PanelColour)

	x := float32(panelPadding + 8)
	y := float32(panelPadding + 4)
	for _, line := range sp.Lines() {
		batch.AddText(line, x, y, TextColour)
		y += lineHeight
	}
	return batch.Vertices()
}
