package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxwalker/loracover/internal/config"
	"github.com/jxwalker/loracover/internal/cover"
	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/options"
	"github.com/jxwalker/loracover/internal/testutil"
	"github.com/jxwalker/loracover/internal/updater"
)

// writeGenerated saves a PNG the way the host does, with its infotext.
func writeGenerated(t *testing.T, dir, infotext string) string {
	t.Helper()
	p := filepath.Join(dir, "00001-1234.png")
	var buf bytes.Buffer
	require.NoError(t, cover.EncodePNG(&buf, testutil.Gradient(40, 30), infotext))
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestApplyFromImageParameters(t *testing.T) {
	t.Setenv(config.EnvVar, filepath.Join(t.TempDir(), "missing.yml"))
	w := testutil.NewWebUI(t)
	testutil.AddModel(t, w.Lora, "inkStyle.safetensors")
	settings := w.Settings.Path()
	ctx := context.Background()

	require.NoError(t, run(ctx, []string{"options", "--settings", settings, "--set", options.KeyEnable + "=true", "--set", options.KeyMaxSize + "=32"}))

	b, err := os.ReadFile(settings)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(b, &saved))
	assert.Equal(t, true, saved[options.KeyEnable])
	assert.Equal(t, "first", saved[options.KeyTarget])

	info := "portrait, <lora:inkStyle:0.8>\nNegative prompt: blurry\nSteps: 20, Sampler: Euler a"
	img := writeGenerated(t, t.TempDir(), info)
	require.NoError(t, run(ctx, []string{"apply", "--settings", settings, "--models-root", w.Models, "--image", img}))

	coverPath := filepath.Join(w.Lora, "inkStyle.png")
	got := testutil.DecodePNG(t, coverPath)
	assert.Equal(t, 32, got.Bounds().Dx())
	assert.Equal(t, 24, got.Bounds().Dy())

	f, err := os.Open(coverPath)
	require.NoError(t, err)
	defer f.Close()
	text, err := cover.ReadPNGText(f)
	require.NoError(t, err)
	assert.Equal(t, info, text[cover.ParametersKey])
}

func TestApplyPromptFlagKeepsNegativeFromImage(t *testing.T) {
	t.Setenv(config.EnvVar, filepath.Join(t.TempDir(), "missing.yml"))
	w := testutil.NewWebUI(t)
	testutil.AddModel(t, w.Lora, "fromFlag.safetensors")
	testutil.AddModel(t, w.Lora, "fromImage.safetensors")
	settings := w.Settings.Path()
	ctx := context.Background()
	require.NoError(t, run(ctx, []string{"options", "--settings", settings, "--set", options.KeyEnable + "=true", "--set", options.KeyTarget + "=all"}))

	img := writeGenerated(t, t.TempDir(), "<lora:other>\nNegative prompt: <lora:fromImage>\nSteps: 20")
	require.NoError(t, run(ctx, []string{"apply", "--settings", settings, "--models-root", w.Models, "--image", img, "--prompt", "<lora:fromFlag>"}))

	for _, name := range []string{"fromFlag", "fromImage"} {
		_, err := os.Stat(filepath.Join(w.Lora, name+".png"))
		assert.NoError(t, err, name)
	}
}

func TestOverrideRequest(t *testing.T) {
	r := &host.Request{Prompt: "p", NegativePrompt: "n"}
	overrideRequest(r, "", "")
	assert.Equal(t, host.Request{Prompt: "p", NegativePrompt: "n"}, *r)
	overrideRequest(r, "P", "")
	assert.Equal(t, host.Request{Prompt: "P", NegativePrompt: "n"}, *r)
	overrideRequest(r, "", "N")
	assert.Equal(t, host.Request{Prompt: "P", NegativePrompt: "N"}, *r)
}

func TestLoadEvent(t *testing.T) {
	img := writeGenerated(t, t.TempDir(), "a <lora:x>\nNegative prompt: <lyco:y>\nSteps: 4")
	ev, err := loadEvent(img)
	require.NoError(t, err)
	assert.Equal(t, "a <lora:x>", ev.Request.Prompt)
	assert.Equal(t, "<lyco:y>", ev.Request.NegativePrompt)
	assert.Equal(t, img, ev.Filename)
	assert.Equal(t, 40, ev.Image.Bounds().Dx())

	bad := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = loadEvent(bad)
	assert.ErrorContains(t, err, "Cannot decode image")
}

func TestResolve(t *testing.T) {
	w := testutil.NewWebUI(t)
	model := testutil.AddModel(t, w.LyCORIS, "chars/hero_v3.safetensors")
	roots := []string{w.Lora, w.LyCORIS}

	r := resolve("hero_v3", roots, time.Now())
	assert.Equal(t, model, r.Model)
	assert.Equal(t, filepath.Join(w.LyCORIS, "chars", "hero_v3.png"), r.Cover)
	assert.False(t, r.CoverExists)

	require.NoError(t, os.WriteFile(r.Cover, []byte("png"), 0o644))
	r = resolve("chars/hero_v3", roots, time.Now().Add(time.Hour))
	assert.True(t, r.CoverExists)
	assert.Contains(t, r.CoverAge, "ago")

	r = resolve("hero", roots, time.Now())
	assert.Empty(t, r.Model)
	assert.Equal(t, []string{"hero_v3"}, r.Suggestions)

	var buf bytes.Buffer
	require.NoError(t, printResolutions(&buf, []resolution{r}, roots, true))
	assert.Contains(t, buf.String(), `"suggestions"`)
}

func TestParseSet(t *testing.T) {
	k, v, err := parseSet("lora_cover_enable=true")
	require.NoError(t, err)
	assert.Equal(t, "lora_cover_enable", k)
	assert.Equal(t, true, v)

	_, v, err = parseSet("lora_cover_max_size=512")
	require.NoError(t, err)
	assert.Equal(t, 512, v)

	_, v, err = parseSet("lora_cover_target=all")
	require.NoError(t, err)
	assert.Equal(t, "all", v)

	_, _, err = parseSet("novalue")
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	rep := updater.Report{
		State:   updater.Processed,
		Names:   []string{"a", "b"},
		Targets: []string{"a", "b"},
		Outcomes: []updater.Outcome{
			{Name: "a", Status: updater.Updated, CoverPath: "/m/a.png", Bytes: 2048},
			{Name: "b", Status: updater.NotFound, Suggestions: []string{"b2"}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, rep, false))
	out := buf.String()
	assert.Contains(t, out, "a.png (2.0 kB)")
	assert.Contains(t, out, "closest: b2")

	buf.Reset()
	require.NoError(t, printReport(&buf, updater.Report{State: updater.Disabled}, false))
	assert.Contains(t, buf.String(), "disabled")
}

func TestRunErrors(t *testing.T) {
	t.Setenv(config.EnvVar, filepath.Join(t.TempDir(), "missing.yml"))
	ctx := context.Background()

	assert.Error(t, run(ctx, nil))
	assert.ErrorContains(t, run(ctx, []string{"bogus"}), "unknown command")
	assert.ErrorContains(t, run(ctx, []string{"apply"}), "--image is required")
	assert.ErrorContains(t, run(ctx, []string{"resolve"}), "usage")
	err := run(ctx, []string{"resolve", "x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "settings_file"), err.Error())
	assert.ErrorContains(t, run(ctx, []string{"config", "validate", "--config", filepath.Join(t.TempDir(), "nope.yml")}), "config file not found")
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	require.NoError(t, os.MkdirAll(models, 0o755))
	cfgPath := filepath.Join(dir, "config.yml")
	cfg := strings.Join([]string{
		"version: 1",
		"host:",
		"  models_root: \"" + models + "\"",
		"  settings_file: \"" + filepath.Join(dir, "config.json") + "\"",
	}, "\n")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	assert.NoError(t, run(context.Background(), []string{"config", "validate", "--config", cfgPath}))
	assert.NoError(t, run(context.Background(), []string{"config", "print", "--config", cfgPath}))
}
