package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type fakeTextureBackend struct {
	created   int
	destroyed map[*metadata.Texture]int
	acquired  int
	released  int
}

func newFakeTextureBackend() *fakeTextureBackend {
	return &fakeTextureBackend{destroyed: make(map[*metadata.Texture]int)}
}

func (fb *fakeTextureBackend) TextureCreate(texture *metadata.Texture, pixels []uint8) error {
	fb.created++
	texture.InternalData = len(pixels)
	return nil
}

func (fb *fakeTextureBackend) TextureDestroy(texture *metadata.Texture) {
	fb.destroyed[texture]++
}

func (fb *fakeTextureBackend) MaterialAcquireResources(material *metadata.Material) error {
	fb.acquired++
	material.InternalData = fb.acquired
	return nil
}

func (fb *fakeTextureBackend) MaterialReleaseResources(material *metadata.Material) {
	fb.released++
}

var errBadImage = errors.New("bad image")

func fakeDecode(data []byte) (*metadata.ImageData, error) {
	if len(data) < 4 || string(data[:4]) != "RGBA" {
		return nil, errBadImage
	}
	return &metadata.ImageData{Width: 1, Height: 1, Pixels: []uint8{1, 2, 3, 4}}, nil
}

func newRegistry(t *testing.T, capacity uint32) (*MaterialRegistry, *fakeTextureBackend) {
	t.Helper()
	fb := newFakeTextureBackend()
	mr := NewMaterialRegistry(fb, fakeDecode, capacity)
	if err := mr.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return mr, fb
}

func TestDefaultMaterial(t *testing.T) {
	mr, _ := newRegistry(t, 0)
	if mr.Len() != 1 || mr.Capacity() != metadata.MaxMaterials {
		t.Fatalf("registry:\nhave len=%d cap=%d\nwant 1, %d", mr.Len(), mr.Capacity(), metadata.MaxMaterials)
	}
	m := mr.Material(metadata.DefaultMaterialID)
	if m.Texture != mr.DefaultTexture() || m.OwnsTexture {
		t.Fatalf("default material:\nhave %+v", m)
	}
	if mr.Material(99) != m {
		t.Fatalf("unknown id did not fall back to the default material")
	}
}

func TestMalformedTextureReturnsDefault(t *testing.T) {
	mr, fb := newRegistry(t, 0)
	before := mr.Len()
	id, err := mr.LoadTextureFromMemory("broken", []byte{0xde, 0xad})
	if err != nil || id != metadata.DefaultMaterialID {
		t.Fatalf("malformed texture:\nhave %d, %v\nwant %d, nil", id, err, metadata.DefaultMaterialID)
	}
	if mr.Len() != before || fb.created != 1 {
		t.Fatalf("registry changed: len=%d textures=%d", mr.Len(), fb.created)
	}
}

func TestLoadTextureOwnsTexture(t *testing.T) {
	mr, fb := newRegistry(t, 0)
	id, err := mr.LoadTextureFromMemory("albedo", []byte("RGBA"))
	if err != nil || id != 1 {
		t.Fatalf("load:\nhave %d, %v\nwant 1, nil", id, err)
	}
	m := mr.Material(id)
	if !m.OwnsTexture || m.InternalData == nil {
		t.Fatalf("material:\nhave %+v", m)
	}

	owned := m.Texture
	def := mr.DefaultTexture()
	mr.Shutdown()
	if fb.destroyed[owned] != 1 || fb.destroyed[def] != 1 {
		t.Fatalf("destroy counts:\nhave owned=%d default=%d\nwant 1, 1", fb.destroyed[owned], fb.destroyed[def])
	}
	if fb.released != 2 {
		t.Fatalf("released bindings:\nhave %d\nwant 2", fb.released)
	}
}

func TestSharedTextureDestroyedOnce(t *testing.T) {
	mr, fb := newRegistry(t, 0)
	def := mr.DefaultTexture()
	for i := 0; i < 3; i++ {
		if _, err := mr.CreateMaterial(def); err != nil {
			t.Fatalf("create material: %v", err)
		}
	}
	mr.Shutdown()
	if fb.destroyed[def] != 1 {
		t.Fatalf("default texture destroyed:\nhave %d times\nwant 1", fb.destroyed[def])
	}
}

func TestMaterialCapacity(t *testing.T) {
	mr, fb := newRegistry(t, 3)
	mr.LoadTextureFromMemory("a", []byte("RGBA"))
	mr.CreateMaterial(mr.DefaultTexture())

	id, err := mr.CreateMaterial(mr.DefaultTexture())
	if id != metadata.InvalidID || !errors.Is(err, core.ErrMaterialPoolFull) {
		t.Fatalf("create past capacity:\nhave %d, %v\nwant InvalidID, %v", id, err, core.ErrMaterialPoolFull)
	}
	created := fb.created
	id, err = mr.LoadTextureFromMemory("b", []byte("RGBA"))
	if id != metadata.InvalidID || !errors.Is(err, core.ErrMaterialPoolFull) {
		t.Fatalf("load past capacity:\nhave %d, %v\nwant InvalidID, %v", id, err, core.ErrMaterialPoolFull)
	}
	if fb.created != created {
		t.Fatalf("texture uploaded although the registry was full")
	}
	if mr.Len() != 3 {
		t.Fatalf("len:\nhave %d\nwant 3", mr.Len())
	}
}
