package loaders

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// SystemFontParams selects the rasterized size of a TrueType or OpenType face.
type SystemFontParams struct {
	PixelHeight float64
	// FaceIndex picks a face of a .ttc collection.
	FaceIndex int
}

/** @brief Pixel height of the overlay font. */
const DefaultFontPixelHeight = 20.0

// SystemFontLoader rasterizes a .ttf, .otf or .ttc file into an atlas of
// metadata.FontAtlasSize. The resource data is a *metadata.FontData.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	p := SystemFontParams{PixelHeight: DefaultFontPixelHeight}
	if typed, ok := params.(*SystemFontParams); ok && typed != nil {
		p = *typed
	}
	fd, err := LoadSystemFont(path, p)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     fd.Face,
		FullPath: path,
		Type:     metadata.ResourceTypeSystemFont,
		DataSize: uint64(len(fd.Atlas.Pixels)),
		Data:     fd,
	}, nil
}

func (fl *SystemFontLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// LoadSystemFont parses a font file and bakes it.
func LoadSystemFont(path string, params SystemFontParams) (*metadata.FontData, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSystemFont(fontBytes, path, params)
}

func ParseSystemFont(fontBytes []byte, name string, params SystemFontParams) (*metadata.FontData, error) {
	collection, err := opentype.ParseCollection(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("func ParseSystemFont - %s: %w", name, err)
	}
	if params.FaceIndex < 0 || params.FaceIndex >= collection.NumFonts() {
		return nil, fmt.Errorf("func ParseSystemFont - %s has %d faces, want index %d", name, collection.NumFonts(), params.FaceIndex)
	}
	f, err := collection.Font(params.FaceIndex)
	if err != nil {
		return nil, err
	}
	if params.PixelHeight <= 0 {
		params.PixelHeight = DefaultFontPixelHeight
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    params.PixelHeight,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	fd, err := BakeFontAtlas(face, name, metadata.FontAtlasSize)
	if err != nil {
		return nil, err
	}
	fd.Size = uint32(params.PixelHeight)
	return fd, nil
}
