package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML schema of the command-line adapter. It describes
// where the host keeps its files; the cover options themselves live in the
// host's settings file.
type Config struct {
	Version int      `yaml:"version"`
	Host    HostConf `yaml:"host"`
	Logging Logging  `yaml:"logging"`
	Metrics Metrics  `yaml:"metrics"`
}

type HostConf struct {
	// ModelsRoot is the host's models directory; Lora, LyCORIS, ... are looked up below it.
	ModelsRoot string `yaml:"models_root"`
	// LoraDir mirrors the host's --lora-dir command-line override.
	LoraDir string `yaml:"lora_dir"`
	// SettingsFile is the host's settings store (config.json for A1111-style hosts).
	SettingsFile string `yaml:"settings_file"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // human|json
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnvVar names the environment variable that points at the config file.
const EnvVar = "LORACOVER_CONFIG"

// DefaultPath returns $LORACOVER_CONFIG or ~/.config/loracover/config.yml.
func DefaultPath() string {
	if env := os.Getenv(EnvVar); env != "" {
		return env
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".config", "loracover", "config.yml")
	}
	return ""
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnvalidated is Load without Validate, for callers that still apply
// overrides before validating.
func LoadUnvalidated(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Host.ModelsRoot, err = expandTilde(c.Host.ModelsRoot); err != nil {
		return err
	}
	if c.Host.LoraDir, err = expandTilde(c.Host.LoraDir); err != nil {
		return err
	}
	if c.Host.SettingsFile, err = expandTilde(c.Host.SettingsFile); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.Host.SettingsFile == "" {
		return errors.New("host.settings_file is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
		// ok
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		return errors.New("metrics.prometheus_textfile.path is required when enabled")
	}
	return nil
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}
