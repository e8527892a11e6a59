package logging

const (
	// FieldComponent is the standardized key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log record for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldElementID tags records about one element.
	FieldElementID = "element_id"
	// FieldLocationID tags records about one location.
	FieldLocationID = "location_id"
	// FieldModuleID tags records about one module.
	FieldModuleID = "module_id"
	// FieldModuleKind is the plugin kind backing a module.
	FieldModuleKind = "module_kind"
)
