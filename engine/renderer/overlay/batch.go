package overlay

import (
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VerticesPerQuad is the number of vertices emitted for one quad, two
// triangles wound TL TR BR, TL BR BL.
const VerticesPerQuad = 6

// Batch appends screen space quads to a vertex slice, never growing it past
// MaxOverlayVertices. Texture coordinates are normalized to the font atlas.
type Batch struct {
	vertices []math.Vertex2D
	font     *metadata.FontData
	solidUV  math.Vec2
}

// NewBatch starts a batch on dst[:0]. A nil font still allows solid quads.
func NewBatch(dst []math.Vertex2D, font *metadata.FontData) *Batch {
	b := &Batch{vertices: dst[:0], font: font}
	g, ok := font.Glyph('#')
	if font != nil && font.Solid != nil {
		g, ok = font.Solid, true
	}
	if ok && font.AtlasSizeX > 0 && font.AtlasSizeY > 0 {
		// Without a solid region the centre of '#' is the covered texel.
		b.solidUV = math.NewVec2(
			(float32(g.X)+float32(g.Width)*0.5)/float32(font.AtlasSizeX),
			(float32(g.Y)+float32(g.Height)*0.5)/float32(font.AtlasSizeY),
		)
	}
	return b
}

func (b *Batch) Vertices() []math.Vertex2D {
	return b.vertices
}

func (b *Batch) Len() int {
	return len(b.vertices)
}

func (b *Batch) hasRoom() bool {
	return uint32(len(b.vertices)+VerticesPerQuad) <= metadata.MaxOverlayVertices
}

func (b *Batch) quad(x0, y0, x1, y1 float32, uv0, uv1 math.Vec2, colour math.Vec4) {
	tl := math.Vertex2D{Position: math.NewVec2(x0, y0), Texcoord: uv0, Colour: colour}
	tr := math.Vertex2D{Position: math.NewVec2(x1, y0), Texcoord: math.NewVec2(uv1.X, uv0.Y), Colour: colour}
	br := math.Vertex2D{Position: math.NewVec2(x1, y1), Texcoord: uv1, Colour: colour}
	bl := math.Vertex2D{Position: math.NewVec2(x0, y1), Texcoord: math.NewVec2(uv0.X, uv1.Y), Colour: colour}
	b.vertices = append(b.vertices, tl, tr, br, tl, br, bl)
}

/**
 * @brief Appends a solid rectangle.
 * @return False if the batch is full.
 */
func (b *Batch) AddQuad(x, y, width, height float32, colour math.Vec4) bool {
	if !b.hasRoom() {
		return false
	}
	b.quad(x, y, x+width, y+height, b.solidUV, b.solidUV, colour)
	return true
}

/**
 * @brief Lays out text starting at the top left corner (x, y). Characters
 * without a glyph advance the pen by half the font size. Layout stops
 * silently when the batch is full.
 * @return The pen position after the last character.
 */
func (b *Batch) AddText(text string, x, y float32, colour math.Vec4) float32 {
	if b.font == nil || b.font.AtlasSizeX == 0 || b.font.AtlasSizeY == 0 {
		return x
	}
	atlasW := float32(b.font.AtlasSizeX)
	atlasH := float32(b.font.AtlasSizeY)

	pen := x
	prev := rune(-1)
	for _, r := range text {
		g, ok := b.font.Glyph(r)
		if !ok {
			pen += float32(b.font.Size) * 0.5
			prev = -1
			continue
		}
		if !b.hasRoom() {
			return pen
		}
		pen += float32(b.kerning(prev, r))

		x0 := pen + float32(g.XOffset)
		y0 := y + float32(g.YOffset)
		if g.Width > 0 && g.Height > 0 {
			uv0 := math.NewVec2(float32(g.X)/atlasW, float32(g.Y)/atlasH)
			uv1 := math.NewVec2(float32(g.X+g.Width)/atlasW, float32(g.Y+g.Height)/atlasH)
			b.quad(x0, y0, x0+float32(g.Width), y0+float32(g.Height), uv0, uv1, colour)
		}
		pen += float32(g.XAdvance)
		prev = r
	}
	return pen
}

func (b *Batch) kerning(prev, next rune) int16 {
	if prev < 0 {
		return 0
	}
	for _, k := range b.font.Kernings {
		if k.Codepoint0 == prev && k.Codepoint1 == next {
			return k.Amount
		}
	}
	return 0
}
