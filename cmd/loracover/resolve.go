package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jxwalker/loracover/internal/placer"
	"github.com/jxwalker/loracover/internal/scanner"
)

type resolution struct {
	Name        string   `json:"name"`
	Model       string   `json:"model,omitempty"`
	Cover       string   `json:"cover,omitempty"`
	CoverExists bool     `json:"cover_exists"`
	CoverAge    string   `json:"cover_age,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func handleResolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	c := addCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: loracover resolve NAME...")
	}
	s, err := c.open()
	if err != nil {
		return err
	}
	roots := placer.CandidateRoots(s.store, s.env)
	s.log.Debugf("search roots: %s", strings.Join(roots, ", "))

	var out []resolution
	for _, name := range fs.Args() {
		out = append(out, resolve(name, roots, time.Now()))
	}
	return printResolutions(os.Stdout, out, roots, *c.jsonOut)
}

func resolve(name string, roots []string, now time.Time) resolution {
	r := resolution{Name: name}
	p, ok := scanner.FindModel(name, roots)
	if !ok {
		r.Suggestions = scanner.Suggest(name, roots, 3)
		return r
	}
	r.Model = p
	r.Cover = placer.CoverPath(p)
	if fi, err := os.Stat(r.Cover); err == nil {
		r.CoverExists = true
		r.CoverAge = humanize.RelTime(fi.ModTime(), now, "ago", "from now")
	}
	return r
}

func printResolutions(w io.Writer, rs []resolution, roots []string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rs)
	}
	st := defaultStyles()
	if len(roots) == 0 {
		fmt.Fprintln(w, st.warn.Render("no LoRA directories found; set --models-root or --lora-dir"))
	}
	var rows [][]string
	for _, r := range rs {
		switch {
		case r.Model == "" && len(r.Suggestions) > 0:
			rows = append(rows, []string{r.Name, st.warn.Render("not found"), "closest: " + strings.Join(r.Suggestions, ", ")})
		case r.Model == "":
			rows = append(rows, []string{r.Name, st.bad.Render("not found"), ""})
		case r.CoverExists:
			rows = append(rows, []string{r.Name, r.Model, st.ok.Render("cover updated " + r.CoverAge)})
		default:
			rows = append(rows, []string{r.Name, r.Model, st.faint.Render("no cover yet")})
		}
	}
	table(w, st, []string{"LORA", "MODEL", "COVER"}, rows)
	return nil
}
