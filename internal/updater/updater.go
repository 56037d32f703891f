// Package updater reacts to the host's image-saved events and refreshes the
// cover image of every LoRA/LyCORIS model the prompt referenced.
package updater

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jxwalker/loracover/internal/cover"
	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/logging"
	"github.com/jxwalker/loracover/internal/metrics"
	"github.com/jxwalker/loracover/internal/options"
	"github.com/jxwalker/loracover/internal/placer"
	"github.com/jxwalker/loracover/internal/scanner"
	"github.com/jxwalker/loracover/internal/tags"
)

// State is where an event ended up.
type State string

const (
	NoRequest    State = "no_request"
	Disabled     State = "disabled"
	NoReferences State = "no_references"
	Processed    State = "processed"
)

// Status is the per-target outcome.
type Status string

const (
	Updated       Status = Status(placer.Updated)
	SkippedExists Status = Status(placer.SkippedExists)
	Unchanged     Status = Status(placer.Unchanged)
	NotFound      Status = "not_found"
	Failed        Status = "failed"
)

// Outcome describes what happened to one targeted model.
type Outcome struct {
	Name        string
	ModelPath   string
	CoverPath   string
	Status      Status
	Bytes       int64
	Err         error
	Suggestions []string
}

// Report summarizes one event.
type Report struct {
	State    State
	Names    []string
	Targets  []string
	Outcomes []Outcome
}

// suggestionLimit caps the "did you mean" list in not-found diagnostics.
const suggestionLimit = 3

// Updater holds the host collaborators. It keeps no state between events;
// settings are read fresh on every call.
type Updater struct {
	settings host.Settings
	registry host.Registry
	env      host.Env
	log      *logging.Logger
	metrics  *metrics.Manager
	observe  func(Report)
}

// New builds an Updater. registry and m may be nil.
func New(settings host.Settings, registry host.Registry, env host.Env, log *logging.Logger, m *metrics.Manager) *Updater {
	return &Updater{settings: settings, registry: registry, env: env, log: log, metrics: m}
}

// Observe sets a function that receives the report of every event handled
// through OnImageSaved. Call it before Install.
func (u *Updater) Observe(fn func(Report)) {
	u.observe = fn
}

// Install registers the settings schema and both event handlers, the way an
// extension does when the host loads it. Every failure is logged, none is
// returned.
func (u *Updater) Install(cb host.Callbacks) {
	u.OnUISettings()
	if cb == nil {
		return
	}
	safeRegister(u.log, "on_image_saved", func() error { return cb.OnImageSaved(u.OnImageSaved) })
	safeRegister(u.log, "on_ui_settings", func() error { return cb.OnUISettings(u.OnUISettings) })
}

func safeRegister(log *logging.Logger, what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("failed to register %s: %v", what, r)
		}
	}()
	if err := fn(); err != nil {
		log.Errorf("failed to register %s: %v", what, err)
	}
}

// OnUISettings (re)registers the settings schema.
func (u *Updater) OnUISettings() {
	options.Register(u.registry, u.log)
}

// OnImageSaved is the host callback. It never panics and never reports an
// error to the host; problems are logged.
func (u *Updater) OnImageSaved(ev *host.ImageSavedEvent) {
	defer func() {
		if r := recover(); r != nil {
			u.log.Errorf("on_image_saved error: %v", r)
		}
	}()
	rep := u.Apply(ev)
	if rep.State == Processed {
		if err := u.metrics.Write(); err != nil {
			u.log.Warnf("write metrics: %v", err)
		}
	}
	if u.observe != nil {
		u.observe(rep)
	}
}

// Apply handles one event and reports per-target outcomes.
func (u *Updater) Apply(ev *host.ImageSavedEvent) Report {
	if ev == nil || ev.Request == nil {
		return Report{State: NoRequest}
	}
	opts := options.Read(u.settings)
	if !opts.Enable {
		return Report{State: Disabled}
	}

	names := tags.Extract(ev.Request.Prompt, ev.Request.NegativePrompt)
	if len(names) == 0 {
		return Report{State: NoReferences}
	}
	targets := opts.Target.Select(names)
	u.log.Debugf("references %v, target=%s -> %v (prompt: %s)", names, opts.Target, targets, logging.Clip(ev.Request.Prompt, 80))

	rep := Report{State: Processed, Names: names, Targets: targets}
	roots := placer.CandidateRoots(u.settings, u.env)
	encode := u.encoder(ev, opts)

	for _, name := range targets {
		rep.Outcomes = append(rep.Outcomes, u.updateOne(name, roots, opts, encode))
	}
	return rep
}

func (u *Updater) updateOne(name string, roots []string, opts options.Options, encode func() ([]byte, error)) Outcome {
	out := Outcome{Name: name}
	modelPath, ok := scanner.FindModel(name, roots)
	if !ok {
		out.Status = NotFound
		out.Suggestions = scanner.Suggest(name, roots, suggestionLimit)
		u.metrics.IncNotFound()
		if len(out.Suggestions) > 0 {
			u.log.Infof("model not found for '%s' (closest: %s)", name, strings.Join(out.Suggestions, ", "))
		} else {
			u.log.Infof("model not found for '%s'", name)
		}
		return out
	}
	out.ModelPath = modelPath

	res, err := placer.PlaceCover(modelPath, opts.Overwrite, encode)
	out.CoverPath = res.Path
	out.Bytes = res.Bytes
	if err != nil {
		out.Status = Failed
		out.Err = err
		u.metrics.IncFailures()
		u.log.Errorf("failed to save cover for '%s': %v", name, err)
		return out
	}
	out.Status = Status(res.Status)
	switch res.Status {
	case placer.Updated:
		u.metrics.IncUpdated(res.Bytes)
		u.log.Infof("updated cover: %s (%s)", filepath.Base(res.Path), humanize.Bytes(uint64(res.Bytes)))
	case placer.Unchanged:
		u.metrics.IncSkipped()
		u.log.Debugf("cover unchanged: %s", filepath.Base(res.Path))
	case placer.SkippedExists:
		u.metrics.IncSkipped()
		u.log.Debugf("cover exists, overwrite disabled: %s", filepath.Base(res.Path))
	}
	return out
}

// encoder returns a memoized cover encoder: every target of an event gets the
// same transformed image, so it is prepared at most once and only when a
// cover is actually written.
func (u *Updater) encoder(ev *host.ImageSavedEvent, opts options.Options) func() ([]byte, error) {
	var (
		data []byte
		err  error
		done bool
	)
	return func() ([]byte, error) {
		if done {
			return data, err
		}
		done = true
		data, err = encodeCover(ev, opts)
		return data, err
	}
}

func encodeCover(ev *host.ImageSavedEvent, opts options.Options) (data []byte, err error) {
	if ev.Image == nil {
		return nil, errors.New("event carries no image")
	}
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("prepare cover: %v", r)
		}
	}()
	img := cover.Prepare(ev.Image, opts.SquareCrop, opts.MaxSize)
	var buf bytes.Buffer
	if err := cover.EncodePNG(&buf, img, Parameters(ev)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parameters picks the text embedded in the cover: the saved image's
// "parameters" chunk, else its "prompt" chunk, else the host infotext.
func Parameters(ev *host.ImageSavedEvent) string {
	if ev == nil {
		return ""
	}
	for _, k := range []string{cover.ParametersKey, "prompt"} {
		if v := ev.PNGInfo[k]; v != "" {
			return v
		}
	}
	return ev.Infotext
}
