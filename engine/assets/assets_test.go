package assets

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newManager(t *testing.T, root string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	if err != nil {
		t.Fatalf("new asset manager: %v", err)
	}
	t.Cleanup(func() { am.Close() })
	if err := am.Initialize(root, false); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return am
}

func TestDetermineAssetType(t *testing.T) {
	tests := []struct {
		path string
		want metadata.ResourceType
	}{
		{"shaders/main.vert.spv", metadata.ResourceTypeShader},
		{"textures/crate.PNG", metadata.ResourceTypeImage},
		{"textures/crate.webp", metadata.ResourceTypeImage},
		{"models/duck.glb", metadata.ResourceTypeMesh},
		{"models/duck.gltf", metadata.ResourceTypeMesh},
		{"fonts/ui.fnt", metadata.ResourceTypeBitmapFont},
		{"fonts/ui.ttf", metadata.ResourceTypeSystemFont},
		{"shaders/main.vert", metadata.ResourceTypeNone},
		{"README", metadata.ResourceTypeNone},
	}
	for _, tt := range tests {
		if have := determineAssetType(tt.path); have != tt.want {
			t.Fatalf("%s:\nhave %v\nwant %v", tt.path, have, tt.want)
		}
	}
}

func TestIndexAndLoad(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 3))); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "textures", "white.png"), buf.Bytes())
	writeFile(t, filepath.Join(root, "shaders", "main.vert"), []byte("#version 450"))

	am := newManager(t, root)
	if am.Len() != 1 {
		t.Fatalf("indexed files:\nhave %d\nwant 1", am.Len())
	}
	info, ok := am.Lookup("textures/white.png")
	if !ok || info.Type != metadata.ResourceTypeImage {
		t.Fatalf("lookup:\nhave %+v, %v", info, ok)
	}

	res, err := am.LoadAsset("textures/white.png", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	img, ok := res.Data.(*metadata.ImageData)
	if !ok || img.Width != 2 || img.Height != 3 {
		t.Fatalf("image:\nhave %+v", res.Data)
	}
	if err := am.UnloadAsset(res); err != nil || res.Data != nil {
		t.Fatalf("unload: %v, data %v", err, res.Data)
	}

	if _, err := am.LoadAsset("textures/missing.png", nil); err == nil {
		t.Fatalf("missing asset loaded")
	}
}

func TestShaderChangeRaisesReload(t *testing.T) {
	root := t.TempDir()
	am := newManager(t, root)
	if am.ShaderReloadRequested() {
		t.Fatalf("reload requested before any change")
	}

	texture := filepath.Join(root, "a.png")
	writeFile(t, texture, []byte("png"))
	am.handleEvent(fsnotify.Event{Name: texture, Op: fsnotify.Create})
	if am.ShaderReloadRequested() {
		t.Fatalf("texture change requested a shader reload")
	}

	shader := filepath.Join(root, "main.frag.spv")
	writeFile(t, shader, []byte{3, 2, 35, 7})
	am.handleEvent(fsnotify.Event{Name: shader, Op: fsnotify.Write})
	if !am.ShaderReloadRequested() {
		t.Fatalf("shader change did not request a reload")
	}
	if am.ShaderReloadRequested() {
		t.Fatalf("reload flag not cleared")
	}

	os.Remove(shader)
	am.handleEvent(fsnotify.Event{Name: shader, Op: fsnotify.Remove})
	if _, ok := am.Lookup("main.frag.spv"); ok {
		t.Fatalf("removed shader still indexed")
	}
}
