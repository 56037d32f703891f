package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jxwalker/loracover/internal/config"
)

// Manager accumulates cover counters and writes them as a Prometheus textfile.
// A nil *Manager is valid and does nothing.
type Manager struct {
	path string
	mu   sync.Mutex
	// counters
	updated        int64
	skipped        int64
	notFound       int64
	failures       int64
	lastCoverBytes int64
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return &Manager{path: p}
}

func (m *Manager) IncUpdated(bytes int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.updated++
	m.lastCoverBytes = bytes
	m.mu.Unlock()
}

func (m *Manager) IncSkipped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.skipped++
	m.mu.Unlock()
}

func (m *Manager) IncNotFound() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.notFound++
	m.mu.Unlock()
}

func (m *Manager) IncFailures() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	metric(f, "loracover_covers_updated_total", "counter", "Covers written or rewritten.", m.updated)
	metric(f, "loracover_covers_skipped_total", "counter", "Covers left alone because one existed or was identical.", m.skipped)
	metric(f, "loracover_models_not_found_total", "counter", "Referenced models that could not be resolved to a file.", m.notFound)
	metric(f, "loracover_cover_failures_total", "counter", "Cover writes that failed.", m.failures)
	metric(f, "loracover_last_cover_bytes", "gauge", "Size of the last cover written in bytes.", m.lastCoverBytes)
	metric(f, "loracover_metrics_timestamp_seconds", "gauge", "UNIX timestamp when this file was written.", time.Now().Unix())
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), m.path)
}

func metric(f *os.File, name, typ, help string, v int64) {
	fmt.Fprintf(f, "# HELP %s %s\n", name, help)
	fmt.Fprintf(f, "# TYPE %s %s\n", name, typ)
	fmt.Fprintf(f, "%s %d\n", name, v)
}
