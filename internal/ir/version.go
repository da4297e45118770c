package ir

// Version constants for persisted records and the engine.
const (
	// SchemaVersion is the record schema version written alongside stored rows.
	SchemaVersion = "1"

	// EngineVersion is the canvas engine version.
	EngineVersion = "0.1.0"
)
