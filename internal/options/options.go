// Package options owns the loracover settings schema: registering it with the
// host and reading current values back with defaults applied.
package options

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/logging"
)

const (
	SectionKey   = "lora_cover"
	SectionLabel = "LoRA Cover Auto-Update"

	KeyEnable     = "lora_cover_enable"
	KeyTarget     = "lora_cover_target"
	KeyOverwrite  = "lora_cover_overwrite"
	KeySquareCrop = "lora_cover_square_crop"
	KeyMaxSize    = "lora_cover_max_size"

	MaxSizeLimit = 2048
)

// Target selects which referenced models receive the cover.
type Target string

const (
	TargetFirst Target = "first"
	TargetLast  Target = "last"
	TargetAll   Target = "all"
)

// ParseTarget is lenient: anything unrecognized means TargetFirst.
func ParseTarget(s string) Target {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case TargetLast:
		return TargetLast
	case TargetAll:
		return TargetAll
	default:
		return TargetFirst
	}
}

// Select applies the policy to names in reference order.
func (t Target) Select(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	switch t {
	case TargetLast:
		return names[len(names)-1:]
	case TargetAll:
		return names
	default:
		return names[:1]
	}
}

// Options is a snapshot of the settings for one event.
type Options struct {
	Enable     bool
	Target     Target
	Overwrite  bool
	SquareCrop bool
	MaxSize    int
}

func Defaults() Options {
	return Options{Target: TargetFirst, Overwrite: true}
}

// Schema lists the option definitions in registration order.
func Schema() []Definition {
	d := Defaults()
	return []Definition{
		{KeyEnable, host.Option{Default: d.Enable, Label: "Auto-update LoRA cover with the generated image", Component: host.Checkbox, Section: SectionKey}},
		{KeyTarget, host.Option{Default: string(d.Target), Label: "Target LoRA (first/last/all)", Component: host.Dropdown,
			Choices: []string{string(TargetFirst), string(TargetLast), string(TargetAll)}, Section: SectionKey}},
		{KeyOverwrite, host.Option{Default: d.Overwrite, Label: "Overwrite an existing cover", Component: host.Checkbox, Section: SectionKey}},
		{KeySquareCrop, host.Option{Default: d.SquareCrop, Label: "Center-crop the cover to a square", Component: host.Checkbox, Section: SectionKey}},
		{KeyMaxSize, host.Option{Default: d.MaxSize, Label: "Max side length (0 disables)", Component: host.Slider,
			Min: 0, Max: MaxSizeLimit, Step: 1, Section: SectionKey}},
	}
}

// Definition is a keyed host option.
type Definition struct {
	Key    string
	Option host.Option
}

// Register adds the section and every option to reg. It is safe to call
// repeatedly; the registry replaces entries by key. Failures are logged and
// swallowed so a host without a settings API still runs with defaults.
func Register(reg host.Registry, log *logging.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("failed to register settings: %v", r)
			ok = false
		}
	}()
	if reg == nil {
		log.Debugf("no settings registry; using defaults")
		return false
	}
	if err := reg.AddSection(SectionKey, SectionLabel); err != nil {
		// the options still register without a section in hosts that lack one
		log.Debugf("add section: %v", err)
	}
	for _, d := range Schema() {
		opt := d.Option
		if err := reg.AddOption(d.Key, opt); err != nil {
			opt.Section = ""
			if err2 := reg.AddOption(d.Key, opt); err2 != nil {
				log.Errorf("failed to register settings: %s: %v", d.Key, err)
				return false
			}
		}
	}
	log.Debugf("settings registered")
	return true
}

// Read returns the current options. Missing, unreadable or mistyped values
// fall back to defaults; MaxSize is clamped to [0, MaxSizeLimit].
func Read(s host.Settings) (o Options) {
	o = Defaults()
	if s == nil {
		return o
	}
	defer func() {
		if r := recover(); r != nil {
			o = Defaults()
		}
	}()
	if v, ok := get(s, KeyEnable); ok {
		o.Enable = toBool(v, o.Enable)
	}
	if v, ok := get(s, KeyTarget); ok {
		o.Target = ParseTarget(toString(v))
	}
	if v, ok := get(s, KeyOverwrite); ok {
		o.Overwrite = toBool(v, o.Overwrite)
	}
	if v, ok := get(s, KeySquareCrop); ok {
		o.SquareCrop = toBool(v, o.SquareCrop)
	}
	if v, ok := get(s, KeyMaxSize); ok {
		o.MaxSize = toInt(v, o.MaxSize)
	}
	if o.MaxSize < 0 {
		o.MaxSize = 0
	}
	if o.MaxSize > MaxSizeLimit {
		o.MaxSize = MaxSizeLimit
	}
	return o
}

// String reads a string setting, reporting false when absent or empty.
func String(s host.Settings, key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := get(s, key)
	if !ok {
		return "", false
	}
	str := strings.TrimSpace(toString(v))
	return str, str != ""
}

func get(s host.Settings, key string) (v any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v, ok = nil, false
		}
	}()
	v, ok = s.Get(key)
	if v == nil {
		return nil, false
	}
	return v, ok
}

func toBool(v any, def bool) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f != 0
		}
	}
	return def
}

func toInt(v any, def int) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		if f, err := x.Float64(); err == nil {
			return int(f)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	}
	return def
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
