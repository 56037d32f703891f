package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/jxwalker/loracover/internal/cover"
	friendlyerrors "github.com/jxwalker/loracover/internal/errors"
	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/tags"
	"github.com/jxwalker/loracover/internal/updater"
)

func handleApply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	c := addCommon(fs)
	imagePath := fs.String("image", "", "generated image (png, jpeg, webp, gif, bmp)")
	prompt := fs.String("prompt", "", "positive prompt (default: read from the image's parameters)")
	negative := fs.String("negative", "", "negative prompt (default: read from the image's parameters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *imagePath == "" {
		return errors.New("--image is required")
	}
	s, err := c.open()
	if err != nil {
		return err
	}

	ev, err := loadEvent(*imagePath)
	if err != nil {
		return err
	}
	overrideRequest(ev.Request, *prompt, *negative)

	u := updater.New(s.store, s.store, s.env, s.log, s.m)
	var rep updater.Report
	u.Observe(func(r updater.Report) { rep = r })
	var d host.Dispatcher
	u.Install(&d)
	d.ImageSaved(ev)
	return printReport(os.Stdout, rep, *c.jsonOut)
}

// overrideRequest replaces only the prompt parts given on the command line;
// the rest stays as recovered from the image.
func overrideRequest(r *host.Request, prompt, negative string) {
	if prompt != "" {
		r.Prompt = prompt
	}
	if negative != "" {
		r.NegativePrompt = negative
	}
}

// loadEvent builds the event a host would deliver after saving path: the
// decoded image plus whatever generation text the file carries.
func loadEvent(path string) (*host.ImageSavedEvent, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, friendlyerrors.ImageError(path, err)
	}
	ev := &host.ImageSavedEvent{Image: img, Filename: path, Request: &host.Request{}}

	if strings.EqualFold(filepath.Ext(path), ".png") {
		f, err := os.Open(path)
		if err != nil {
			return nil, friendlyerrors.PathError(path, err)
		}
		defer f.Close()
		if text, err := cover.ReadPNGText(f); err == nil {
			ev.PNGInfo = text
		}
	}
	ev.Infotext = ev.PNGInfo[cover.ParametersKey]
	ev.Request.Prompt, ev.Request.NegativePrompt = tags.SplitInfotext(ev.Infotext)
	return ev, nil
}
