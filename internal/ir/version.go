package ir

// Version constants for the IR schema and engine.
const (
	// SchemaVersion is the bundle exchange schema version the importer
	// accepts. Any other version is rejected outright.
	SchemaVersion = 1

	// EngineVersion is the veil engine version.
	EngineVersion = "0.1.0"
)
