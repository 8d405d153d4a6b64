package llm

import "encoding/json"

// PFDAnalysis is the structured extraction of a Process Flow Diagram
// returned by the vision model.
type PFDAnalysis struct {
	Equipment      []Equipment `json:"equipment"`
	ProcessStreams []Stream    `json:"process_streams"`
	DrawingInfo    DrawingInfo `json:"drawing_info"`
	MissingData    []string    `json:"missing_data,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Equipment is one tagged equipment item on the diagram.
type Equipment struct {
	Tag     string `json:"tag"`
	Type    string `json:"type"`
	Service string `json:"service,omitempty"`
}

// Stream is one process stream between two equipment items.
type Stream struct {
	StreamID      string `json:"stream_id"`
	Description   string `json:"description,omitempty"`
	FromEquipment string `json:"from_equipment"`
	ToEquipment   string `json:"to_equipment"`
	Phase         string `json:"phase,omitempty"`
}

// DrawingInfo is the title-block information visible on a drawing.
type DrawingInfo struct {
	Title         string `json:"title,omitempty"`
	DrawingNumber string `json:"drawing_number,omitempty"`
	Revision      string `json:"revision,omitempty"`
	Project       string `json:"project,omitempty"`
}

// PIDSpec is the generated P&ID specification: equipment and lines carried
// over from the PFD plus the assumptions and gaps the model flagged.
type PIDSpec struct {
	TitleBlock      DrawingInfo      `json:"title_block"`
	Equipment       []Equipment      `json:"equipment"`
	Lines           []Line           `json:"lines"`
	Assumptions     []string         `json:"assumptions,omitempty"`
	MissingElements []MissingElement `json:"missing_elements,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Line is a piping line on the generated P&ID.
type Line struct {
	LineNumber    string `json:"line_number"`
	FromEquipment string `json:"from_equipment"`
	ToEquipment   string `json:"to_equipment"`
	Service       string `json:"service,omitempty"`
	Size          string `json:"size,omitempty"`
}

// MissingElement is an engineering detail the model could not resolve and
// that needs engineer input before the drawing can be issued.
type MissingElement struct {
	Item           string `json:"item"`
	Severity       string `json:"severity,omitempty"`
	EngineerAction string `json:"engineer_action,omitempty"`
}

// Instrument is one suggested instrument for the P&ID.
type Instrument struct {
	Tag              string `json:"tag"`
	Type             string `json:"type"`
	Location         string `json:"location"`
	SignalType       string `json:"signal_type,omitempty"`
	Mandatory        bool   `json:"mandatory"`
	StandardPractice string `json:"standard_practice,omitempty"`
}

// Valve is one suggested valve for the P&ID.
type Valve struct {
	Tag              string `json:"tag"`
	Type             string `json:"type"`
	Location         string `json:"location"`
	Size             string `json:"size,omitempty"`
	Mandatory        bool   `json:"mandatory"`
	StandardPractice string `json:"standard_practice,omitempty"`
}
