package placer

import (
	"os"
	"path/filepath"

	"github.com/jxwalker/loracover/internal/host"
	"github.com/jxwalker/loracover/internal/options"
)

// DirSettingKeys are the host settings that may name a LoRA directory,
// queried in this order.
var DirSettingKeys = []string{"lora_dir", "lyco_dir", "lycoris_dir"}

// ConventionalSubdirs are looked up under the host's models root.
var ConventionalSubdirs = []string{"Lora", "LyCORIS", "LoRA", "lycoris"}

// CandidateRoots returns the directories to search for LoRA/LyCORIS files,
// highest priority first: the command-line override, then the directory
// settings, then conventional subdirectories of the models root that exist.
// Entries are made absolute and de-duplicated. Explicitly configured
// directories are kept even when they do not exist.
func CandidateRoots(s host.Settings, env host.Env) []string {
	var dirs []string
	if env.LoraDirOverride != "" {
		dirs = append(dirs, env.LoraDirOverride)
	}
	for _, k := range DirSettingKeys {
		if d, ok := options.String(s, k); ok {
			dirs = append(dirs, d)
		}
	}
	if env.ModelsRoot != "" {
		for _, sub := range ConventionalSubdirs {
			d := filepath.Join(env.ModelsRoot, sub)
			if isDir(d) {
				dirs = append(dirs, d)
			}
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			abs = filepath.Clean(d)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
