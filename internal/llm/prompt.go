package llm

import (
	"encoding/json"
	"strings"
)

const extractionSystemPrompt = "You are a Senior Process Design Engineer with 15+ years EPC experience. " +
	"You analyze Process Flow Diagrams (PFDs) with extreme accuracy and flag missing information clearly."

const pidSystemPrompt = "You are an expert P&ID designer with 20+ years experience in oil & gas engineering. " +
	"You create detailed, compliant P&ID specifications following API and ISA standards."

const instrumentationSystemPrompt = "You are an instrumentation and control engineer. " +
	"You suggest instruments and valves for P&IDs following ISA-5.1 tagging conventions and standard practice."

func buildExtractionPrompt() string {
	parts := []string{
		"Analyze this Process Flow Diagram and extract ALL visible information as structured JSON.",
		"Include every tagged equipment item (tag, type, service), every process stream",
		"(stream_id, from_equipment, to_equipment, phase), the drawing title block,",
		"and a missing_data list naming engineering details that are NOT visible or unclear.",
		"Do NOT invent data that is not visible in the drawing; mark unknowns as MISSING.",
		"Return ONLY JSON that matches the provided schema.",
	}
	return strings.Join(parts, " ")
}

func buildPIDSpecPrompt(analysis *PFDAnalysis) string {
	var b strings.Builder
	b.WriteString("Generate a P&ID specification from the following extracted PFD data.\n")
	b.WriteString("Carry over all equipment, assign line numbers to every stream,")
	b.WriteString(" list every assumption you make, flag missing elements that need engineer input")
	b.WriteString(" (with severity and engineer_action), and add recommendations.\n")
	b.WriteString("Return ONLY JSON that matches the provided schema.\n\nPFD data:\n")
	b.Write(rawOrMarshal(analysis.Raw, analysis))
	return b.String()
}

func buildInstrumentsPrompt(spec *PIDSpec) string {
	var b strings.Builder
	b.WriteString("Suggest instrumentation for the following P&ID specification.\n")
	b.WriteString("For each instrument give an ISA-5.1 tag, type (FT/PT/TT/LT/...), location")
	b.WriteString(" (equipment tag or line number), signal_type, whether it is mandatory,")
	b.WriteString(" and the standard_practice reference.\n")
	b.WriteString("Return ONLY JSON that matches the provided schema.\n\nP&ID specification:\n")
	b.Write(rawOrMarshal(spec.Raw, spec))
	return b.String()
}

func buildValvesPrompt(spec *PIDSpec) string {
	var b strings.Builder
	b.WriteString("Suggest valves for the following P&ID specification.\n")
	b.WriteString("For each valve give a tag, type (gate/globe/check/control/PSV/...), location")
	b.WriteString(" (equipment tag or line number), size if determinable (else TBD),")
	b.WriteString(" whether it is mandatory, and the standard_practice reference.\n")
	b.WriteString("Return ONLY JSON that matches the provided schema.\n\nP&ID specification:\n")
	b.Write(rawOrMarshal(spec.Raw, spec))
	return b.String()
}

// rawOrMarshal prefers the raw provider JSON when we still have it, so the
// next stage sees everything the model said, not just the fields we parse.
func rawOrMarshal(raw json.RawMessage, v any) []byte {
	if len(raw) > 0 {
		return raw
	}
	b, _ := json.Marshal(v)
	return b
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
