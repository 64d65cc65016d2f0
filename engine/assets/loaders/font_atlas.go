package loaders

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// glyphPadding separates baked glyphs so linear filtering does not bleed.
const glyphPadding = 1

// solidSize is the edge of the opaque block baked into the atlas corner.
const solidSize = 4

/**
 * @brief Rasterizes the printable ASCII range of face into a square RGBA atlas.
 *
 * @param face The face to rasterize, already sized.
 * @param name The face name stored in the font data.
 * @param atlasSize Width and height of the atlas in pixels.
 * @return The font data with glyph metrics in atlas pixels.
 */
func BakeFontAtlas(face font.Face, name string, atlasSize int) (*metadata.FontData, error) {
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()

	coverage := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	drawer := &font.Drawer{Dst: coverage, Src: image.Opaque, Face: face}

	fd := &metadata.FontData{
		FontType:   metadata.FONT_TYPE_SYSTEM,
		Face:       name,
		Size:       uint32(ascent + metrics.Descent.Ceil()),
		LineHeight: int32(lineHeight),
		Baseline:   int32(ascent),
		AtlasSizeX: int32(atlasSize),
		AtlasSizeY: int32(atlasSize),
		Glyphs:     make(map[rune]*metadata.FontGlyph, metadata.GlyphCount),
	}

	x, y, rowHeight := glyphPadding, glyphPadding, 0
	for r := metadata.GlyphFirst; r < metadata.GlyphFirst+metadata.GlyphCount; r++ {
		bounds, advance, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
		w := bounds.Max.X.Ceil() - minX
		h := bounds.Max.Y.Ceil() - minY
		if w < 0 || h < 0 {
			w, h = 0, 0
		}

		if x+w+glyphPadding > atlasSize {
			x = glyphPadding
			y += rowHeight + glyphPadding
			rowHeight = 0
		}
		if y+h+glyphPadding > atlasSize {
			return nil, fmt.Errorf("font %s does not fit a %dx%d atlas", name, atlasSize, atlasSize)
		}

		if w > 0 && h > 0 {
			drawer.Dot = fixed.P(x-minX, y-minY)
			drawer.DrawString(string(r))
		}
		fd.Glyphs[r] = &metadata.FontGlyph{
			Codepoint: r,
			X:         uint16(x),
			Y:         uint16(y),
			Width:     uint16(w),
			Height:    uint16(h),
			XOffset:   int16(minX),
			YOffset:   int16(ascent + minY),
			XAdvance:  int16(advance.Round()),
		}

		x += w + glyphPadding
		rowHeight = max(rowHeight, h)
	}

	for r0 := range fd.Glyphs {
		for r1 := range fd.Glyphs {
			if k := face.Kern(r0, r1).Round(); k != 0 {
				fd.Kernings = append(fd.Kernings, &metadata.FontKerning{Codepoint0: r0, Codepoint1: r1, Amount: int16(k)})
			}
		}
	}

	if y+rowHeight+glyphPadding+solidSize > atlasSize {
		return nil, fmt.Errorf("font %s leaves no room for the solid region", name)
	}
	solid := image.Rect(atlasSize-solidSize, atlasSize-solidSize, atlasSize, atlasSize)
	draw.Draw(coverage, solid, image.Opaque, image.Point{}, draw.Src)
	fd.Solid = &metadata.FontGlyph{X: uint16(solid.Min.X), Y: uint16(solid.Min.Y), Width: solidSize, Height: solidSize}

	fd.Atlas = coverageToRGBA(coverage)
	return fd, nil
}

// DefaultFont bakes the built in 7x13 face. It never needs a file.
func DefaultFont() *metadata.FontData {
	fd, err := BakeFontAtlas(basicfont.Face7x13, "basicfont 7x13", metadata.FontAtlasSize)
	if err != nil {
		// 95 glyphs of 7x13 always fit.
		panic(err)
	}
	return fd
}

// coverageToRGBA expands an alpha mask into white RGBA8 pixels.
func coverageToRGBA(mask *image.Alpha) *metadata.ImageData {
	b := mask.Bounds()
	pixels := make([]uint8, 0, b.Dx()*b.Dy()*4)
	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			a := mask.AlphaAt(px, py).A
			pixels = append(pixels, 255, 255, 255, a)
		}
	}
	return &metadata.ImageData{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Pixels: pixels}
}

// coverageFromImage turns a font page into an atlas. Pages with an alpha
// channel keep it; opaque pages use their luminance as coverage.
func coverageFromImage(page image.Image) *metadata.ImageData {
	b := page.Bounds()
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	opaque := true
	for py := b.Min.Y; py < b.Max.Y && opaque; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			if _, _, _, a := page.At(px, py).RGBA(); a != 0xffff {
				opaque = false
				break
			}
		}
	}
	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			c := page.At(px, py)
			var a uint8
			if opaque {
				a = color.GrayModel.Convert(c).(color.Gray).Y
			} else {
				a = color.AlphaModel.Convert(c).(color.Alpha).A
			}
			mask.SetAlpha(px-b.Min.X, py-b.Min.Y, color.Alpha{A: a})
		}
	}
	return coverageToRGBA(mask)
}
