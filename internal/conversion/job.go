package conversion

import "time"

// Job status constants
const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// Artifact kinds
const (
	ArtifactDrawing           = "drawing"
	ArtifactAssumptionsReport = "assumptions-report"
	ArtifactInstrumentList    = "instrument-list"
	ArtifactValveList         = "valve-list"
)

// IsTerminal reports whether a job status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusSucceeded || status == StatusFailed
}

// ValidArtifactKind reports whether kind names a known artifact kind.
func ValidArtifactKind(kind string) bool {
	switch kind {
	case ArtifactDrawing, ArtifactAssumptionsReport, ArtifactInstrumentList, ArtifactValveList:
		return true
	}
	return false
}

// Document is an uploaded PFD awaiting or undergoing conversion.
type Document struct {
	ID             string
	FileName       string
	FileType       string
	FileSize       int64
	Title          string
	DocumentNumber string
	ProjectName    string
	StorageKey     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Job is a single conversion attempt over a document. It moves forward
// through the stage sequence until it reaches a terminal status.
type Job struct {
	ID              string
	DocumentID      string
	Stage           Stage
	Status          string
	Progress        int
	ErrorMessage    string
	WorkerID        string
	EquipmentCount  int
	InstrumentCount int
	ValveCount      int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Artifact is a generated output file owned by a job. Immutable once
// created; removed only when the owning job is deleted.
type Artifact struct {
	ID          string
	JobID       string
	Kind        string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// ArtifactData is the in-memory form of an artifact before it is persisted.
type ArtifactData struct {
	Kind        string
	ContentType string
	Data        []byte
}

// StageResult is what a completed stage hands to the tracker: the stage it
// belongs to, an optional produced artifact, and summary count deltas.
type StageResult struct {
	Stage           Stage
	Artifact        *ArtifactData
	EquipmentCount  int
	InstrumentCount int
	ValveCount      int
}

// JobState is the poller-visible view of a job and its artifacts.
type JobState struct {
	Job       Job
	Artifacts []Artifact
}
