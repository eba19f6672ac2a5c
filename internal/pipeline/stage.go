package pipeline

// Stage is the pipeline state machine position. Stages advance strictly
// forward and are never re-entered; a fatal error aborts the run at the
// current stage.
type Stage string

const (
	StageImported      Stage = "Imported"
	StageResolved      Stage = "Resolved"
	StageDesugared     Stage = "Desugared"
	StageSpecExtracted Stage = "SpecExtracted"
	StageElaborated    Stage = "Elaborated"
	StageOrdered       Stage = "Ordered"
	StageEmitted       Stage = "Emitted"
)
