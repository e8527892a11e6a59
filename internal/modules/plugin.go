package modules

import (
	"context"

	"muzzman/internal/value"
)

// Job is the element-side handle a plugin works through. Implementations
// are safe for concurrent use.
type Job interface {
	// Name is the element's current name.
	Name() string
	// Dir is the filesystem path of the element's location.
	Dir() string
	ElementData() value.Data
	// Options holds the run-scoped settings passed when the element was
	// enabled. It is empty during Init.
	Options() value.Data
	ModuleData() value.Data
	SetModuleData(value.Data)
	SetOutput(value.Data)
	// SetProgress records completion in [0, 1].
	SetProgress(float64)
	SetStatus(string)
}

// Plugin is a module capability.
type Plugin interface {
	Kind() string
	DefaultName() string
	DefaultDesc() string
	// Accepts reports whether the plugin can handle an element with data.
	Accepts(data value.Data) bool
	// Normalize returns the data the element should carry once bound. It
	// may replace the store wholesale.
	Normalize(data value.Data) value.Data
	Init(ctx context.Context, job Job) error
	// Run executes the element until done or until ctx is cancelled.
	Run(ctx context.Context, job Job) error
}

// Factory builds a fresh plugin instance for one loaded module.
type Factory func() Plugin
