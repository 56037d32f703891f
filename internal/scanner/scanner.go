package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ModelFileExtensions are the LoRA/LyCORIS file extensions we recognize, in
// the order they are tried when a name has no extension.
var ModelFileExtensions = []string{
	".safetensors",
	".pt",
	".ckpt",
}

// IsModelFile reports whether path has a recognized extension (any case).
func IsModelFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, modelExt := range ModelFileExtensions {
		if ext == modelExt {
			return true
		}
	}
	return false
}

// errFound stops a walk early.
var errFound = errors.New("found")

// FindModel locates the model file for name under roots. Roots are tried in
// order and the first match wins. Per root, a name containing a path
// separator is first tried as a relative path; then the whole tree is walked
// for a model file whose extension-stripped base name equals the base of name,
// ignoring case. Missing or unreadable directories are skipped.
func FindModel(name string, roots []string) (string, bool) {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	if name == "" {
		return "", false
	}
	base := strings.ToLower(filepath.Base(filepath.FromSlash(name)))
	rel := ""
	if strings.Contains(name, "/") {
		rel = filepath.FromSlash(name)
	}

	for _, root := range roots {
		if root == "" {
			continue
		}
		if rel != "" {
			if p, ok := findRelative(root, rel); ok {
				return p, true
			}
		}
		if p, ok := findByBase(root, base); ok {
			return p, true
		}
	}
	return "", false
}

func findRelative(root, rel string) (string, bool) {
	if IsModelFile(rel) {
		p := filepath.Join(root, rel)
		return p, isFile(p)
	}
	for _, ext := range ModelFileExtensions {
		p := filepath.Join(root, rel+ext)
		if isFile(p) {
			return p, true
		}
	}
	return "", false
}

func findByBase(root, base string) (string, bool) {
	var hit string
	_ = walkModels(root, func(path string) error {
		fn := filepath.Base(path)
		if strings.ToLower(strings.TrimSuffix(fn, filepath.Ext(fn))) == base {
			hit = path
			return errFound
		}
		return nil
	})
	return hit, hit != ""
}

// walkModels calls fn for every model file under root in lexical walk order.
// Permission errors skip the affected directory; a missing root is not an error.
func walkModels(root string, fn func(path string) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !IsModelFile(path) {
			return nil
		}
		if !d.Type().IsRegular() {
			// symlinked models are common; follow them
			if !isFile(path) {
				return nil
			}
		}
		return fn(path)
	})
	if errors.Is(err, errFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Suggest returns up to limit model names under roots that resemble name,
// closest first. It is meant for "model not found" diagnostics.
func Suggest(name string, roots []string, limit int) []string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	target := strings.ToLower(filepath.Base(filepath.FromSlash(name)))
	if target == "" || limit <= 0 {
		return nil
	}

	type cand struct {
		name string
		dist int
	}
	seen := map[string]bool{}
	var cands []cand
	maxDist := len(target) / 3
	if maxDist < 2 {
		maxDist = 2
	}
	for _, root := range roots {
		_ = walkModels(root, func(path string) error {
			fn := filepath.Base(path)
			stem := strings.TrimSuffix(fn, filepath.Ext(fn))
			key := strings.ToLower(stem)
			if seen[key] {
				return nil
			}
			seen[key] = true
			dist := fuzzy.LevenshteinDistance(target, key)
			if fuzzy.MatchNormalizedFold(target, key) || fuzzy.MatchNormalizedFold(key, target) || dist <= maxDist {
				cands = append(cands, cand{name: stem, dist: dist})
			}
			return nil
		})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}
