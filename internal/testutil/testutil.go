package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/options"
)

// WebUI is a throwaway host layout: <Root>/models/{Lora,LyCORIS} and a
// settings store with the cover options registered.
type WebUI struct {
	Root     string
	Models   string
	Lora     string
	LyCORIS  string
	Settings *host.Store
}

// NewWebUI creates the layout under t.TempDir().
func NewWebUI(t *testing.T) *WebUI {
	t.Helper()

	root := t.TempDir()
	w := &WebUI{
		Root:    root,
		Models:  filepath.Join(root, "models"),
		Lora:    filepath.Join(root, "models", "Lora"),
		LyCORIS: filepath.Join(root, "models", "LyCORIS"),
	}
	for _, d := range []string{w.Lora, w.LyCORIS} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", d, err)
		}
	}
	s, err := host.LoadStore(filepath.Join(root, "config.json"))
	if err != nil {
		t.Fatalf("failed to open settings: %v", err)
	}
	options.Register(s, nil)
	w.Settings = s
	return w
}

// Env returns the host paths for this layout.
func (w *WebUI) Env() host.Env {
	return host.Env{ModelsRoot: w.Models}
}

// Enable turns the auto-update on and applies extra settings.
func (w *WebUI) Enable(kv map[string]any) {
	w.Settings.Set(options.KeyEnable, true)
	for k, v := range kv {
		w.Settings.Set(k, v)
	}
}

// AddModel creates a dummy model file at rel (slash-separated) below dir.
func AddModel(t *testing.T, dir, rel string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("dummy-weights"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Gradient returns a w x h image whose pixels encode their coordinates, with
// partial transparency so alpha handling is exercised.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 200})
		}
	}
	return img
}

// DecodePNG reads a PNG file and fails the test on error.
func DecodePNG(t *testing.T, path string) image.Image {
	t.Helper()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return img
}
