package host

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStoreJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"lora_dir": "/models/lora", "lora_cover_enable": true, "lora_cover_max_size": 512}`), 0o644))

	s, err := LoadStore(p)
	require.NoError(t, err)

	v, ok := s.Get("lora_dir")
	assert.True(t, ok)
	assert.Equal(t, "/models/lora", v)
	v, _ = s.Get("lora_cover_enable")
	assert.Equal(t, true, v)
	v, _ = s.Get("lora_cover_max_size")
	assert.Equal(t, json.Number("512"), v)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestLoadStoreKeepsHostJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	body := `{
    "lora_dir": "C:\/models\/Lora",
    "emoji": "\ud83d\ude00",
    "cfg_scale": 1.0,
    "dup": "first",
    "dup": "second"
}`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	s, err := LoadStore(p)
	require.NoError(t, err)
	v, _ := s.Get("lora_dir")
	assert.Equal(t, "C:/models/Lora", v)
	v, _ = s.Get("emoji")
	assert.Equal(t, "\U0001F600", v)
	v, _ = s.Get("dup")
	assert.Equal(t, "second", v)

	require.NoError(t, s.Save())
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"cfg_scale": 1.0`)

	var back map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "\U0001F600", back["emoji"])
}

func TestLoadStoreEmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte("  \n"), 0o644))
	s, err := LoadStore(p)
	require.NoError(t, err)
	_, ok := s.Get("anything")
	assert.False(t, ok)
}

func TestLoadStoreMissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope", "config.json")
	s, err := LoadStore(p)
	require.NoError(t, err)
	_, ok := s.Get("anything")
	assert.False(t, ok)

	s.Set("k", "v")
	require.NoError(t, s.Save())
	s2, err := LoadStore(p)
	require.NoError(t, err)
	v, _ := s2.Get("k")
	assert.Equal(t, "v", v)
}

func TestLoadStoreMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte("{not: [valid"), 0o644))
	_, err := LoadStore(p)
	assert.Error(t, err)
}

func TestAddOptionIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddSection("sec", "Section"))
	require.NoError(t, s.AddOption("a", Option{Default: false, Section: "sec"}))
	require.NoError(t, s.AddOption("b", Option{Default: 1, Section: "sec"}))
	require.NoError(t, s.AddOption("a", Option{Default: true, Section: "sec"}))

	opts := s.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, "a", opts[0].Key)
	assert.Equal(t, true, opts[0].Value)
	assert.False(t, opts[0].IsSet)

	// stored values win over defaults
	s.Set("b", 7)
	v, _ := s.Get("b")
	assert.Equal(t, 7, v)
}

func TestAddOptionUnknownSection(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.AddOption("a", Option{Section: "missing"}))
	assert.Error(t, s.AddOption("", Option{}))
}

func TestSaveWritesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	s, err := LoadStore(p)
	require.NoError(t, err)
	require.NoError(t, s.AddOption("lora_cover_target", Option{Default: "first"}))
	require.NoError(t, s.Save())

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lora_cover_target": "first"`)
}

func TestDispatcher(t *testing.T) {
	var d Dispatcher
	var got []string
	require.NoError(t, d.OnImageSaved(func(ev *ImageSavedEvent) { got = append(got, ev.Filename) }))
	require.NoError(t, d.OnUISettings(func() { got = append(got, "ui") }))
	assert.Error(t, d.OnImageSaved(nil))

	d.ImageSaved(&ImageSavedEvent{Filename: "a.png"})
	d.UISettings()
	assert.Equal(t, []string{"a.png", "ui"}, got)
}
