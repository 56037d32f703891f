package placer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Status describes what PlaceCover did with a cover.
type Status string

const (
	Updated       Status = "updated"
	SkippedExists Status = "skipped_exists"
	Unchanged     Status = "unchanged"
)

// Result reports the outcome of placing one cover.
type Result struct {
	Path   string
	Status Status
	Bytes  int64
}

// CoverPath returns the cover location for a model file: the same path with
// the extension replaced by ".png".
func CoverPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".png"
}

// PlaceCover writes the encoded PNG next to modelPath. With overwrite false an
// existing cover is left alone. An existing cover with identical bytes is not
// rewritten. encode is only called when a write may happen.
func PlaceCover(modelPath string, overwrite bool, encode func() ([]byte, error)) (Result, error) {
	if modelPath == "" {
		return Result{}, errors.New("empty model path")
	}
	dst := CoverPath(modelPath)
	res := Result{Path: dst}

	if exists(dst) && !overwrite {
		res.Status = SkippedExists
		return res, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return res, err
	}
	data, err := encode()
	if err != nil {
		return res, err
	}
	res.Bytes = int64(len(data))
	if same, _ := sameContent(dst, data); same {
		res.Status = Unchanged
		return res, nil
	}
	if err := writeFileAtomic(dst, data); err != nil {
		return res, fmt.Errorf("write %s: %w", dst, err)
	}
	res.Status = Updated
	return res, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func sameContent(p string, want []byte) (bool, error) {
	fi, err := os.Stat(p)
	if err != nil || fi.Size() != int64(len(want)) {
		return false, err
	}
	have, err := os.ReadFile(p)
	if err != nil {
		return false, err
	}
	return bytes.Equal(have, want), nil
}

func writeFileAtomic(dst string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(dst), ".cover.tmp.*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), dst)
}
