package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	friendlyerrors "github.com/jxwalker/loracover/internal/errors"
)

// ValidationError represents a detailed config validation error
type ValidationError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Config validation error in '%s': %s", e.Field, e.Message)
}

// ValidateDetailed checks the host paths on disk. Problems found here do not
// stop the adapter; they explain why no model will be found.
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if c.Host.ModelsRoot == "" && c.Host.LoraDir == "" {
		errs = append(errs, ValidationError{
			Field:      "host.models_root",
			Message:    "Neither models_root nor lora_dir is set",
			Suggestion: "Point models_root at the host's models directory:\n  models_root: ~/stable-diffusion-webui/models",
		})
	}

	if c.Host.ModelsRoot != "" {
		if fi, err := os.Stat(c.Host.ModelsRoot); err != nil || !fi.IsDir() {
			errs = append(errs, ValidationError{
				Field:      "host.models_root",
				Value:      c.Host.ModelsRoot,
				Message:    "Directory does not exist",
				Suggestion: "Check the path; it should contain a Lora or LyCORIS folder",
			})
		}
	}

	if c.Host.LoraDir != "" {
		if fi, err := os.Stat(c.Host.LoraDir); err != nil || !fi.IsDir() {
			errs = append(errs, ValidationError{
				Field:      "host.lora_dir",
				Value:      c.Host.LoraDir,
				Message:    "Directory does not exist",
				Suggestion: "Remove lora_dir to fall back to models_root/Lora",
			})
		}
	}

	if c.Host.SettingsFile != "" {
		if _, err := os.Stat(filepath.Dir(c.Host.SettingsFile)); err != nil {
			errs = append(errs, ValidationError{
				Field:      "host.settings_file",
				Value:      c.Host.SettingsFile,
				Message:    "Parent directory does not exist",
				Suggestion: "Use the host's config.json, e.g.:\n  settings_file: ~/stable-diffusion-webui/config.json",
			})
		}
	}

	return errs
}

// ValidateWithFriendlyErrors returns a user-friendly validation error
func (c *Config) ValidateWithFriendlyErrors() error {
	// Run standard validation first
	if err := c.Validate(); err != nil {
		return friendlyerrors.ConfigError("config", err.Error()).WithDetails(err)
	}

	errs := c.ValidateDetailed()
	if len(errs) == 0 {
		return nil
	}

	var msg strings.Builder
	for i, err := range errs {
		msg.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
		if err.Value != nil {
			msg.WriteString(fmt.Sprintf("   Current value: %v\n", err.Value))
		}
		if err.Suggestion != "" {
			for _, line := range strings.Split(err.Suggestion, "\n") {
				msg.WriteString(fmt.Sprintf("   → %s\n", line))
			}
		}
	}

	return friendlyerrors.NewFriendlyError(
		"Config validation failed",
		strings.TrimRight(msg.String(), "\n"),
	)
}
