package conversion

// Stage is one step in the fixed conversion sequence. Stages only move
// forward; the order below is the order jobs execute in.
type Stage int

const (
	StageExtract Stage = iota
	StageGenerateSpec
	StageGenerateInstruments
	StageGenerateValves
	StageRenderDrawing

	stageCount
)

var stageNames = [...]string{
	StageExtract:             "extract",
	StageGenerateSpec:        "generate_spec",
	StageGenerateInstruments: "generate_instruments",
	StageGenerateValves:      "generate_valves",
	StageRenderDrawing:       "render_drawing",
}

// stageArtifacts maps each stage to the artifact kind it produces, or ""
// when the stage produces none.
var stageArtifacts = [...]string{
	StageExtract:             "",
	StageGenerateSpec:        ArtifactAssumptionsReport,
	StageGenerateInstruments: ArtifactInstrumentList,
	StageGenerateValves:      ArtifactValveList,
	StageRenderDrawing:       ArtifactDrawing,
}

// StageCount returns the number of stages in the conversion sequence.
func StageCount() int {
	return int(stageCount)
}

// LastStage returns the final stage of the sequence.
func LastStage() Stage {
	return stageCount - 1
}

func (s Stage) Valid() bool {
	return s >= 0 && s < stageCount
}

func (s Stage) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stageNames[s]
}

// ArtifactKind returns the artifact kind this stage produces, or "" if none.
func (s Stage) ArtifactKind() string {
	if !s.Valid() {
		return ""
	}
	return stageArtifacts[s]
}

// PercentAfter returns the progress percentage once this stage has completed.
func (s Stage) PercentAfter() int {
	if !s.Valid() {
		return 0
	}
	return (int(s) + 1) * 100 / int(stageCount)
}
