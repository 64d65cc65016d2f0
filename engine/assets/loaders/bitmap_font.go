package loaders

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// BitmapFontLoader imports AngelCode .fnt descriptors. Only the first page
// is used as the overlay atlas. The resource data is a *metadata.FontData.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	fd, err := LoadBitmapFont(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     fd.Face,
		FullPath: path,
		Type:     metadata.ResourceTypeBitmapFont,
		DataSize: uint64(len(fd.Glyphs)),
		Data:     fd,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *metadata.Resource) error {
	if fd, ok := resource.Data.(*metadata.FontData); ok {
		fd.Glyphs = nil
		fd.Kernings = nil
		fd.Atlas = nil
	}
	resource.Data = nil
	resource.DataSize = 0
	resource.FullPath = ""
	return nil
}

// LoadBitmapFont reads a .fnt descriptor and its first page image.
func LoadBitmapFont(path string) (*metadata.FontData, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("func LoadBitmapFont - %s: %w", path, err)
	}

	size := font.Descriptor.Info.Size
	if size < 0 {
		size = -size
	}
	fd := &metadata.FontData{
		FontType:   metadata.FONT_TYPE_BITMAP,
		Face:       font.Descriptor.Info.Face,
		Size:       uint32(size),
		LineHeight: int32(font.Descriptor.Common.LineHeight),
		Baseline:   int32(font.Descriptor.Common.Base),
		AtlasSizeX: int32(font.Descriptor.Common.ScaleW),
		AtlasSizeY: int32(font.Descriptor.Common.ScaleH),
		Glyphs:     make(map[rune]*metadata.FontGlyph, len(font.Descriptor.Chars)),
		Kernings:   make([]*metadata.FontKerning, 0, len(font.Descriptor.Kerning)),
	}

	pageFile := ""
	for _, p := range font.Descriptor.Pages {
		if p.ID == 0 {
			pageFile = p.File
		}
	}

	for _, g := range font.Descriptor.Chars {
		if g.Page != 0 {
			continue
		}
		fd.Glyphs[rune(g.ID)] = &metadata.FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		}
	}

	for p, k := range font.Descriptor.Kerning {
		fd.Kernings = append(fd.Kernings, &metadata.FontKerning{
			Codepoint0: rune(p.First),
			Codepoint1: rune(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	if pageFile == "" {
		return nil, fmt.Errorf("func LoadBitmapFont - %s has no page 0", path)
	}
	page, err := loadPage(filepath.Join(filepath.Dir(path), pageFile))
	if err != nil {
		return nil, fmt.Errorf("func LoadBitmapFont - %s: %w", path, err)
	}
	fd.Atlas = coverageFromImage(page)
	fd.AtlasSizeX = int32(fd.Atlas.Width)
	fd.AtlasSizeY = int32(fd.Atlas.Height)
	return fd, nil
}

func loadPage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
