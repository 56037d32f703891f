// Package host describes the narrow surface loracover needs from the image
// generation application it runs inside: a settings store, an option
// registry, callback registration and the image-saved event payload.
package host

import "image"

// Settings is a read-only view of the host's key/value settings.
// A missing key reports ok=false; implementations must not panic.
type Settings interface {
	Get(key string) (value any, ok bool)
}

// Registry accepts option definitions so the host can show and edit them.
type Registry interface {
	AddSection(key, label string) error
	AddOption(key string, opt Option) error
}

// Callbacks registers handlers with the host's event dispatch.
type Callbacks interface {
	OnImageSaved(fn func(*ImageSavedEvent)) error
	OnUISettings(fn func()) error
}

// Component hints which UI widget the host should render for an option.
type Component string

const (
	Checkbox Component = "checkbox"
	Dropdown Component = "dropdown"
	Slider   Component = "slider"
)

// Option is one host-visible setting.
type Option struct {
	Default   any
	Label     string
	Component Component
	Choices   []string // Dropdown
	Min, Max  int      // Slider
	Step      int      // Slider
	Section   string
}

// Env carries host paths that are not part of the settings store.
type Env struct {
	// ModelsRoot is the host's models directory (e.g. webui/models).
	ModelsRoot string
	// LoraDirOverride is the command-line override for the LoRA directory.
	LoraDirOverride string
}

// Request holds the generation parameters that produced an image.
type Request struct {
	Prompt         string
	NegativePrompt string
}

// ImageSavedEvent is delivered after the host wrote a generated image.
type ImageSavedEvent struct {
	Image    image.Image
	Request  *Request
	Filename string
	// PNGInfo holds the text chunks the host embedded in the saved file.
	PNGInfo map[string]string
	// Infotext is the host's generation-parameters summary.
	Infotext string
}
