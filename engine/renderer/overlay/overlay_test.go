package overlay

import (
	"strings"
	"testing"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func testFont() *metadata.FontData {
	glyphs := make(map[rune]*metadata.FontGlyph)
	for r := metadata.GlyphFirst; r < metadata.GlyphFirst+metadata.GlyphCount; r++ {
		glyphs[r] = &metadata.FontGlyph{Codepoint: r, X: 8, Y: 16, Width: 8, Height: 10, XOffset: 1, YOffset: 2, XAdvance: 9}
	}
	return &metadata.FontData{
		Size:       20,
		AtlasSizeX: 64,
		AtlasSizeY: 64,
		Glyphs:     glyphs,
	}
}

func TestQuadWinding(t *testing.T) {
	b := NewBatch(nil, nil)
	b.AddQuad(10, 20, 30, 40, math.NewVec4(1, 1, 1, 1))
	v := b.Vertices()
	if len(v) != VerticesPerQuad {
		t.Fatalf("vertices:\nhave %d\nwant %d", len(v), VerticesPerQuad)
	}
	want := []math.Vec2{{X: 10, Y: 20}, {X: 40, Y: 20}, {X: 40, Y: 60}, {X: 10, Y: 20}, {X: 40, Y: 60}, {X: 10, Y: 60}}
	for i := range want {
		if v[i].Position != want[i] {
			t.Fatalf("vertex %d:\nhave %v\nwant %v", i, v[i].Position, want[i])
		}
	}
}

func TestSolidQuadSamplesHashGlyph(t *testing.T) {
	b := NewBatch(nil, testFont())
	b.AddQuad(0, 0, 1, 1, math.NewVec4(1, 1, 1, 1))
	want := math.NewVec2(12.0/64.0, 21.0/64.0)
	for i, v := range b.Vertices() {
		if v.Texcoord != want {
			t.Fatalf("vertex %d uv:\nhave %v\nwant %v", i, v.Texcoord, want)
		}
	}
}

func TestTextLayout(t *testing.T) {
	b := NewBatch(nil, testFont())
	pen := b.AddText("ab\x01c", 100, 50, TextColour)
	if b.Len() != 3*VerticesPerQuad {
		t.Fatalf("vertices:\nhave %d\nwant %d", b.Len(), 3*VerticesPerQuad)
	}
	if want := float32(100 + 9 + 9 + 10 + 9); pen != want {
		t.Fatalf("pen:\nhave %v\nwant %v", pen, want)
	}
	first := b.Vertices()[0]
	if first.Position != math.NewVec2(101, 52) || first.Texcoord != math.NewVec2(8.0/64.0, 16.0/64.0) {
		t.Fatalf("first vertex:\nhave %+v", first)
	}
}

func TestBatchCapacity(t *testing.T) {
	b := NewBatch(nil, testFont())
	b.AddText(strings.Repeat("x", int(metadata.MaxOverlayVertices)), 0, 0, TextColour)
	if uint32(b.Len()) > metadata.MaxOverlayVertices {
		t.Fatalf("vertices:\nhave %d\nwant <= %d", b.Len(), metadata.MaxOverlayVertices)
	}
	if b.AddQuad(0, 0, 1, 1, PanelColour) {
		t.Fatalf("quad accepted by a full batch")
	}
}

func TestStatsPanel(t *testing.T) {
	sp := NewStatsPanel(testFont())
	sp.Update(0.5, 7)
	if got := sp.SmoothedFPS(); got < 0.0999 || got > 0.1001 {
		t.Fatalf("smoothed fps:\nhave %v\nwant 0.1", got)
	}
	lines := sp.Lines()
	want := []string{"FPS: 0.1", "DT:  500.00 ms", "Entities: 7"}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d:\nhave %q\nwant %q", i, lines[i], want[i])
		}
	}

	v := sp.Build(nil, 800, 600)
	chars := 0
	for _, line := range lines {
		chars += len(line)
	}
	if len(v) != VerticesPerQuad*(1+chars) {
		t.Fatalf("vertices:\nhave %d\nwant %d", len(v), VerticesPerQuad*(1+chars))
	}
	if v[0].Colour != PanelColour || v[VerticesPerQuad].Colour != TextColour {
		t.Fatalf("colours:\nhave %v, %v", v[0].Colour, v[VerticesPerQuad].Colour)
	}
	// Panel height is two paddings plus three lines of 24 pixels.
	if v[2].Position != math.NewVec2(270, 102) {
		t.Fatalf("panel corner:\nhave %v\nwant {270 102}", v[2].Position)
	}
}
