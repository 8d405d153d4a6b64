package artifact

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/radai/aiflow/internal/conversion"
	"github.com/radai/aiflow/internal/llm"
)

func testSpec() *llm.PIDSpec {
	return &llm.PIDSpec{
		TitleBlock: llm.DrawingInfo{
			Title:         "Feed Gas Separation",
			DrawingNumber: "PID-001",
			Revision:      "A",
			Project:       "Plant Expansion",
		},
		Equipment: []llm.Equipment{
			{Tag: "P-101", Type: "pump"},
			{Tag: "V-201", Type: "vessel"},
		},
		Lines: []llm.Line{
			{LineNumber: `2"-PG-101`, FromEquipment: "P-101", ToEquipment: "V-201"},
		},
		MissingElements: []llm.MissingElement{
			{Item: "Relief valve on V-201", Severity: "high", EngineerAction: "Size per API 520"},
		},
		Assumptions:     []string{"Pump discharge pressure assumed 10 barg"},
		Recommendations: []string{"Confirm line sizing with hydraulics"},
	}
}

func TestGenerator_InstrumentList(t *testing.T) {
	g := NewGenerator(nil)

	data, err := g.InstrumentList([]llm.Instrument{
		{Tag: "PT-101", Type: "pressure transmitter", Location: "P-101 discharge", SignalType: "4-20mA", Mandatory: true, StandardPractice: "ISA-5.1"},
		{Tag: "LI-201", Type: "level indicator", Location: "V-201", SignalType: "local", Mandatory: false, StandardPractice: "ISA-5.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, conversion.ArtifactInstrumentList, data.Kind)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(data.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Instruments")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Tag", "Type", "Location", "Signal", "Mandatory", "Standard", "Status"}, rows[0])
	assert.Equal(t, "PT-101", rows[1][0])
	assert.Equal(t, "4-20mA", rows[1][3])
	assert.Equal(t, "TRUE", rows[1][4])
	assert.Equal(t, suggestedStatus, rows[1][6])
	assert.Equal(t, "LI-201", rows[2][0])
	assert.Equal(t, "FALSE", rows[2][4])
}

func TestGenerator_ValveList(t *testing.T) {
	g := NewGenerator(nil)

	data, err := g.ValveList([]llm.Valve{
		{Tag: "XV-101", Type: "gate", Location: "P-101 suction", Size: `2"`, Mandatory: true, StandardPractice: "API 600"},
		{Tag: "CV-201", Type: "check", Location: "P-101 discharge", Mandatory: true, StandardPractice: "API 594"},
	})
	require.NoError(t, err)
	assert.Equal(t, conversion.ArtifactValveList, data.Kind)

	f, err := excelize.OpenReader(bytes.NewReader(data.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Valves")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Tag", "Type", "Location", "Size", "Mandatory", "Standard", "Status"}, rows[0])
	assert.Equal(t, `2"`, rows[1][3])
	// missing size is flagged rather than left blank
	assert.Equal(t, "TBD", rows[2][3])
	assert.Equal(t, suggestedStatus, rows[2][6])
}

func TestGenerator_InstrumentList_Empty(t *testing.T) {
	g := NewGenerator(nil)

	data, err := g.InstrumentList(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Instruments")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGenerator_AssumptionsReport(t *testing.T) {
	g := NewGenerator(nil)
	g.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

	data := g.AssumptionsReport(testSpec())
	assert.Equal(t, conversion.ArtifactAssumptionsReport, data.Kind)
	assert.Equal(t, "text/plain; charset=utf-8", data.ContentType)

	report := string(data.Data)
	assert.Contains(t, report, "Generated: 2025-03-14 09:30:00")
	assert.Contains(t, report, "DRAWING INFORMATION:")
	assert.Contains(t, report, "- Drawing Number: PID-001")
	assert.Contains(t, report, "- Status: NOT FOR CONSTRUCTION")
	assert.Contains(t, report, "VALIDATION SUMMARY:")
	assert.Contains(t, report, "- Equipment: 2")
	assert.Contains(t, report, "- Process lines: 1")
	assert.Contains(t, report, "MISSING ELEMENTS REQUIRING ENGINEER INPUT:")
	assert.Contains(t, report, "- [high] Relief valve on V-201")
	assert.Contains(t, report, "Action: Size per API 520")
	assert.Contains(t, report, "ASSUMPTIONS MADE:")
	assert.Contains(t, report, "- Pump discharge pressure assumed 10 barg")
	assert.Contains(t, report, "RECOMMENDATIONS:")
	assert.Contains(t, report, "- Confirm line sizing with hydraulics")
	assert.Contains(t, report, "reviewed and approved by a qualified process engineer")
}

func TestGenerator_AssumptionsReport_FillsDefaults(t *testing.T) {
	g := NewGenerator(nil)

	spec := testSpec()
	spec.TitleBlock.DrawingNumber = ""
	spec.MissingElements = []llm.MissingElement{{Item: "Drain valve"}}

	report := string(g.AssumptionsReport(spec).Data)
	assert.Contains(t, report, "- Drawing Number: N/A")
	assert.Contains(t, report, "- [unknown] Drain valve")
	assert.Contains(t, report, "Action: Review required")
}

func TestGenerator_DrawingSVG(t *testing.T) {
	g := NewGenerator(nil)

	data, err := g.DrawingSVG(testSpec())
	require.NoError(t, err)
	assert.Equal(t, conversion.ArtifactDrawing, data.Kind)
	assert.Equal(t, "image/svg+xml", data.ContentType)

	svg := string(data.Data)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, ">P-101</text>")
	assert.Contains(t, svg, ">V-201</text>")
	assert.Contains(t, svg, "Feed Gas Separation")
	assert.Contains(t, svg, "<line ")
	// line numbers pass through the XML escaper
	assert.Contains(t, svg, "2&quot;-PG-101")
	assert.Contains(t, svg, "NOT FOR CONSTRUCTION")
}

func TestGenerator_DrawingSVG_SkipsDanglingLines(t *testing.T) {
	g := NewGenerator(nil)

	spec := testSpec()
	spec.Lines = append(spec.Lines, llm.Line{LineNumber: "3-PG-999", FromEquipment: "P-101", ToEquipment: "T-999"})

	data, err := g.DrawingSVG(spec)
	require.NoError(t, err)
	assert.NotContains(t, string(data.Data), "3-PG-999")
}

func TestGenerator_DrawingSVG_NoEquipment(t *testing.T) {
	g := NewGenerator(nil)

	_, err := g.DrawingSVG(&llm.PIDSpec{})
	var verr *conversion.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "spec", verr.Field)

	_, err = g.DrawingSVG(nil)
	assert.Error(t, err)
}

func TestGenerator_DrawingSVG_EscapesTags(t *testing.T) {
	g := NewGenerator(nil)

	spec := testSpec()
	spec.Equipment[0].Tag = "P<101>"
	spec.Lines = nil

	data, err := g.DrawingSVG(spec)
	require.NoError(t, err)
	assert.Contains(t, string(data.Data), "P&lt;101&gt;")
	assert.NotContains(t, string(data.Data), "<101>")
}
