package host

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a settings store backed by the host's settings file (config.json
// for A1111-style hosts). It implements Settings and Registry and stands in for
// the real host in the CLI adapter and in tests.
//
// Get returns the stored value when present, otherwise the default of a
// registered option.
type Store struct {
	mu       sync.RWMutex
	path     string
	data     map[string]any
	options  map[string]Option
	order    []string
	sections map[string]string
}

// NewStore returns an empty store with no file backing.
func NewStore() *Store {
	return &Store{
		data:     map[string]any{},
		options:  map[string]Option{},
		sections: map[string]string{},
	}
}

// LoadStore reads a JSON settings file. Numbers are kept as json.Number so a
// Save writes them back exactly as the host wrote them. A missing or empty
// file yields an empty store that will be created on Save.
func LoadStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("settings path is empty")
	}
	s := NewStore()
	s.path = path
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&s.data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.data == nil {
		s.data = map[string]any{}
	}
	return s, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v, true
	}
	if o, ok := s.options[key]; ok && o.Default != nil {
		return o.Default, true
	}
	return nil, false
}

// Set stores a value, replacing any previous one.
func (s *Store) Set(key string, v any) {
	s.mu.Lock()
	s.data[key] = v
	s.mu.Unlock()
}

func (s *Store) AddSection(key, label string) error {
	if key == "" {
		return errors.New("section key is empty")
	}
	s.mu.Lock()
	s.sections[key] = label
	s.mu.Unlock()
	return nil
}

// AddOption registers or replaces an option definition. Registering the same
// key twice keeps a single entry in its original position.
func (s *Store) AddOption(key string, opt Option) error {
	if key == "" {
		return errors.New("option key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if opt.Section != "" {
		if _, ok := s.sections[opt.Section]; !ok {
			return fmt.Errorf("option %s: unknown section %q", key, opt.Section)
		}
	}
	if _, ok := s.options[key]; !ok {
		s.order = append(s.order, key)
	}
	s.options[key] = opt
	return nil
}

// OptionEntry pairs a registered option with its key and effective value.
type OptionEntry struct {
	Key    string
	Option Option
	Value  any
	IsSet  bool
}

// Options lists registered options in registration order.
func (s *Store) Options() []OptionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OptionEntry, 0, len(s.order))
	for _, k := range s.order {
		e := OptionEntry{Key: k, Option: s.options[k], Value: s.options[k].Default}
		if v, ok := s.data[k]; ok {
			e.Value = v
			e.IsSet = true
		}
		out = append(out, e)
	}
	return out
}

// Section returns the label of a registered section.
func (s *Store) Section(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.sections[key]
	return l, ok
}

// Save writes stored values back to the settings file atomically. Registered
// defaults that were never set are written too, so the host sees them.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("store has no backing file")
	}
	s.mu.RLock()
	out := make(map[string]any, len(s.data)+len(s.options))
	for k, v := range s.data {
		out[k] = v
	}
	for k, o := range s.options {
		if _, ok := out[k]; !ok && o.Default != nil {
			out[k] = o.Default
		}
	}
	s.mu.RUnlock()

	b, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), ".settings.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), s.path)
}
