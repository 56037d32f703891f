package placer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxwalker/loracover/internal/host"
)

type mapSettings map[string]any

func (m mapSettings) Get(k string) (any, bool) {
	v, ok := m[k]
	return v, ok
}

func constEncode(b []byte) func() ([]byte, error) {
	return func() ([]byte, error) { return b, nil }
}

func TestCoverPath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "m.png"), CoverPath(filepath.Join("a", "b", "m.safetensors")))
	assert.Equal(t, "x.v2.png", CoverPath("x.v2.pt"))
}

func TestPlaceCoverWritesNextToModel(t *testing.T) {
	tmp := t.TempDir()
	model := filepath.Join(tmp, "Lora", "myStyle.safetensors")

	res, err := PlaceCover(model, true, constEncode([]byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Status)
	assert.Equal(t, filepath.Join(tmp, "Lora", "myStyle.png"), res.Path)
	assert.EqualValues(t, 9, res.Bytes)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(res.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPlaceCoverRespectsOverwrite(t *testing.T) {
	tmp := t.TempDir()
	model := filepath.Join(tmp, "m.pt")
	cover := filepath.Join(tmp, "m.png")
	require.NoError(t, os.WriteFile(cover, []byte("old"), 0o644))

	called := false
	res, err := PlaceCover(model, false, func() ([]byte, error) {
		called = true
		return []byte("new"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, SkippedExists, res.Status)
	assert.False(t, called)
	b, _ := os.ReadFile(cover)
	assert.Equal(t, "old", string(b))

	res, err = PlaceCover(model, true, constEncode([]byte("new")))
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Status)
	b, _ = os.ReadFile(cover)
	assert.Equal(t, "new", string(b))
}

func TestPlaceCoverUnchanged(t *testing.T) {
	tmp := t.TempDir()
	model := filepath.Join(tmp, "m.ckpt")
	cover := filepath.Join(tmp, "m.png")
	require.NoError(t, os.WriteFile(cover, []byte("same"), 0o600))

	res, err := PlaceCover(model, true, constEncode([]byte("same")))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, res.Status)
	fi, err := os.Stat(cover)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestPlaceCoverErrors(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := PlaceCover(filepath.Join(blocker, "sub", "m.safetensors"), true, constEncode([]byte("p")))
	assert.Error(t, err)

	_, err = PlaceCover(filepath.Join(tmp, "m.pt"), true, func() ([]byte, error) { return nil, errors.New("boom") })
	assert.EqualError(t, err, "boom")

	_, err = PlaceCover("", true, constEncode(nil))
	assert.Error(t, err)
}

func TestCandidateRootsPriorityAndDedup(t *testing.T) {
	tmp := t.TempDir()
	models := filepath.Join(tmp, "models")
	require.NoError(t, os.MkdirAll(filepath.Join(models, "Lora"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(models, "lycoris"), 0o755))

	override := filepath.Join(tmp, "cli-lora")
	settingDir := filepath.Join(tmp, "not-created")
	s := mapSettings{
		"lora_dir":    settingDir,
		"lyco_dir":    filepath.Join(models, "Lora"),
		"lycoris_dir": "",
	}
	got := CandidateRoots(s, host.Env{ModelsRoot: models, LoraDirOverride: override})
	assert.Equal(t, []string{
		override,
		settingDir,
		filepath.Join(models, "Lora"),
		filepath.Join(models, "lycoris"),
	}, got)
}

func TestCandidateRootsRelativeAndMissing(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got := CandidateRoots(mapSettings{"lora_dir": "rel/lora"}, host.Env{ModelsRoot: filepath.Join(t.TempDir(), "none")})
	assert.Equal(t, []string{filepath.Join(wd, "rel", "lora")}, got)

	assert.Empty(t, CandidateRoots(nil, host.Env{}))
}
