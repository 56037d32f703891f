package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	friendlyerrors "github.com/jxwalker/loracover/internal/errors"
	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/lockfile"
	"github.com/jxwalker/loracover/internal/options"
)

// setFlags collects repeated --set key=value pairs.
type setFlags []string

func (s *setFlags) String() string     { return strings.Join(*s, ",") }
func (s *setFlags) Set(v string) error { *s = append(*s, v); return nil }

// parseSet splits key=value and decodes value as a YAML scalar, so "true",
// "512" and "all" arrive as bool, int and string like the host would store them.
func parseSet(kv string) (string, any, error) {
	k, v, ok := strings.Cut(kv, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", nil, fmt.Errorf("invalid --set %q: want key=value", kv)
	}
	var val any
	if err := yaml.Unmarshal([]byte(v), &val); err != nil || val == nil {
		val = v
	}
	return k, val, nil
}

func handleOptions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	c := addCommon(fs)
	var sets setFlags
	fs.Var(&sets, "set", "set an option, key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := c.open()
	if err != nil {
		return err
	}
	// the host or another loracover run may be rewriting the same file
	path := s.store.Path()
	lk, err := lockfile.Acquire(path)
	if err != nil {
		return fmt.Errorf("lock settings: %w", err)
	}
	defer lk.Release()
	if s.store, err = host.LoadStore(path); err != nil {
		return friendlyerrors.PathError(path, err)
	}

	if !options.Register(s.store, s.log) {
		return fmt.Errorf("could not register settings in %s", s.store.Path())
	}
	for _, kv := range sets {
		k, v, err := parseSet(kv)
		if err != nil {
			return err
		}
		s.store.Set(k, v)
	}
	if err := s.store.Save(); err != nil {
		return fmt.Errorf("save %s: %w", s.store.Path(), err)
	}
	return printOptions(os.Stdout, s.store, *c.jsonOut)
}

func printOptions(w io.Writer, store *host.Store, asJSON bool) error {
	entries := store.Options()
	if asJSON {
		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			out = append(out, map[string]any{"key": e.Key, "value": e.Value, "default": e.Option.Default, "label": e.Option.Label})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	st := defaultStyles()
	if label, ok := store.Section(options.SectionKey); ok {
		fmt.Fprintln(w, st.head.Render(label))
	}
	var rows [][]string
	for _, e := range entries {
		val := fmt.Sprint(e.Value)
		if e.IsSet && fmt.Sprint(e.Value) != fmt.Sprint(e.Option.Default) {
			val = st.ok.Render(val)
		}
		rows = append(rows, []string{e.Key, val, st.faint.Render(e.Option.Label)})
	}
	table(w, st, []string{"KEY", "VALUE", "DESCRIPTION"}, rows)
	return nil
}
