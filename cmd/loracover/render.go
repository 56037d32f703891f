package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jxwalker/loracover/internal/updater"
)

type styles struct {
	head  lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	faint lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		head:  lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		bad:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		faint: lipgloss.NewStyle().Faint(true),
	}
}

// table renders rows as left-aligned columns. Cells may already be styled;
// widths are measured with lipgloss so escape sequences don't skew them.
func table(w io.Writer, st styles, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	line := func(cells []string, style func(string) string) {
		var sb strings.Builder
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(style(cell))
			if i < len(cells)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
			}
		}
		fmt.Fprintln(w, sb.String())
	}
	line(header, func(s string) string { return st.head.Render(s) })
	for _, r := range rows {
		line(r, func(s string) string { return s })
	}
}

func (st styles) status(s updater.Status) string {
	switch s {
	case updater.Updated:
		return st.ok.Render(string(s))
	case updater.SkippedExists, updater.Unchanged:
		return st.faint.Render(string(s))
	case updater.NotFound:
		return st.warn.Render(string(s))
	default:
		return st.bad.Render(string(s))
	}
}

type outcomeJSON struct {
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Model       string   `json:"model,omitempty"`
	Cover       string   `json:"cover,omitempty"`
	Bytes       int64    `json:"bytes,omitempty"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func printReport(w io.Writer, rep updater.Report, asJSON bool) error {
	if asJSON {
		out := struct {
			State    string        `json:"state"`
			Names    []string      `json:"names"`
			Targets  []string      `json:"targets"`
			Outcomes []outcomeJSON `json:"outcomes"`
		}{State: string(rep.State), Names: rep.Names, Targets: rep.Targets}
		for _, o := range rep.Outcomes {
			oj := outcomeJSON{Name: o.Name, Status: string(o.Status), Model: o.ModelPath, Cover: o.CoverPath, Bytes: o.Bytes, Suggestions: o.Suggestions}
			if o.Err != nil {
				oj.Error = o.Err.Error()
			}
			out.Outcomes = append(out.Outcomes, oj)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	st := defaultStyles()
	switch rep.State {
	case updater.NoRequest:
		fmt.Fprintln(w, st.faint.Render("nothing to do: no generation request"))
		return nil
	case updater.Disabled:
		fmt.Fprintln(w, st.faint.Render("auto-update is disabled (set lora_cover_enable=true with 'loracover options --set')"))
		return nil
	case updater.NoReferences:
		fmt.Fprintln(w, st.faint.Render("no <lora:...> or <lyco:...> references in the prompt"))
		return nil
	}

	var rows [][]string
	for _, o := range rep.Outcomes {
		detail := ""
		switch {
		case o.Err != nil:
			detail = o.Err.Error()
		case o.Status == updater.NotFound && len(o.Suggestions) > 0:
			detail = "closest: " + strings.Join(o.Suggestions, ", ")
		case o.CoverPath != "":
			detail = filepath.Base(o.CoverPath)
			if o.Bytes > 0 {
				detail += " (" + humanize.Bytes(uint64(o.Bytes)) + ")"
			}
		}
		rows = append(rows, []string{o.Name, st.status(o.Status), detail})
	}
	table(w, st, []string{"LORA", "STATUS", "COVER"}, rows)
	return nil
}
