package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType identifies the kind of event a line records.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID tags every daemon line with the run identifier.
	FieldRunID = "run_id"
	FieldState = "state"
	FieldCycle = "cycle"
	FieldType  = "countdown_type"
)
