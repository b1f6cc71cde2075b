package ir

// Version constants for the content schema and engine.
const (
	// SchemaVersion is the content and save schema version.
	SchemaVersion = "1"

	// EngineVersion is the Lodestar engine version.
	EngineVersion = "0.3.0"
)
