package metadata

/** @brief First and count of the printable ASCII range baked into atlases. */
const (
	GlyphFirst rune = 32
	GlyphCount      = 95
)

/** @brief Width and height of the baked font atlas in pixels. */
const FontAtlasSize = 512

type FontType int

const (
	FONT_TYPE_BITMAP FontType = iota
	FONT_TYPE_SYSTEM
)

type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

/**
 * @brief Glyph metrics plus an RGBA atlas.
 * YOffset is measured from the top of the line, so a glyph is drawn at
 * (x + XOffset, y + YOffset).
 */
type FontData struct {
	FontType   FontType
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[rune]*FontGlyph
	Kernings   []*FontKerning
	// Atlas holds RGBA8 pixels, white with coverage in alpha.
	Atlas *ImageData
	// Solid, when set, is a fully covered atlas region used by solid quads.
	Solid *FontGlyph
}

// Glyph returns the metrics of r, if the font has them.
func (fd *FontData) Glyph(r rune) (*FontGlyph, bool) {
	if fd == nil || fd.Glyphs == nil {
		return nil, false
	}
	g, ok := fd.Glyphs[r]
	return g, ok
}
