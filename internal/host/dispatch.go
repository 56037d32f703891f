package host

import "errors"

// Dispatcher is a minimal in-process Callbacks implementation used when
// loracover is driven from the command line instead of a live host.
type Dispatcher struct {
	imageSaved []func(*ImageSavedEvent)
	uiSettings []func()
}

func (d *Dispatcher) OnImageSaved(fn func(*ImageSavedEvent)) error {
	if fn == nil {
		return errors.New("nil image-saved callback")
	}
	d.imageSaved = append(d.imageSaved, fn)
	return nil
}

func (d *Dispatcher) OnUISettings(fn func()) error {
	if fn == nil {
		return errors.New("nil ui-settings callback")
	}
	d.uiSettings = append(d.uiSettings, fn)
	return nil
}

// ImageSaved delivers ev to every registered handler in registration order.
func (d *Dispatcher) ImageSaved(ev *ImageSavedEvent) {
	for _, fn := range d.imageSaved {
		fn(ev)
	}
}

// UISettings notifies every registered settings handler.
func (d *Dispatcher) UISettings() {
	for _, fn := range d.uiSettings {
		fn()
	}
}
