package artifact

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/radai/aiflow/internal/conversion"
	"github.com/radai/aiflow/internal/llm"
)

const suggestedStatus = "AI-SUGGESTED - ENGINEER APPROVAL REQUIRED"

// Generator turns structured AI output into downloadable documents.
type Generator struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger, now: time.Now}
}

// InstrumentList renders the suggested instruments as an XLSX workbook.
func (g *Generator) InstrumentList(instruments []llm.Instrument) (*conversion.ArtifactData, error) {
	headers := []string{"Tag", "Type", "Location", "Signal", "Mandatory", "Standard", "Status"}
	rows := make([][]any, 0, len(instruments))
	for _, inst := range instruments {
		rows = append(rows, []any{
			inst.Tag, inst.Type, inst.Location, inst.SignalType,
			inst.Mandatory, inst.StandardPractice, suggestedStatus,
		})
	}

	data, err := g.writeSheet("Instruments", headers, rows)
	if err != nil {
		return nil, fmt.Errorf("instrument list: %w", err)
	}
	return &conversion.ArtifactData{
		Kind:        conversion.ArtifactInstrumentList,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

// ValveList renders the suggested valves as an XLSX workbook.
func (g *Generator) ValveList(valves []llm.Valve) (*conversion.ArtifactData, error) {
	headers := []string{"Tag", "Type", "Location", "Size", "Mandatory", "Standard", "Status"}
	rows := make([][]any, 0, len(valves))
	for _, v := range valves {
		size := v.Size
		if size == "" {
			size = "TBD"
		}
		rows = append(rows, []any{
			v.Tag, v.Type, v.Location, size,
			v.Mandatory, v.StandardPractice, suggestedStatus,
		})
	}

	data, err := g.writeSheet("Valves", headers, rows)
	if err != nil {
		return nil, fmt.Errorf("valve list: %w", err)
	}
	return &conversion.ArtifactData{
		Kind:        conversion.ArtifactValveList,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

func (g *Generator) writeSheet(sheet string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		for cIdx, v := range row {
			cell, _ := excelize.CoordinatesToCellName(cIdx+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 18)
	_ = f.SetColWidth(sheet, "D", "F", 14)
	_ = f.SetColWidth(sheet, "G", "G", 42)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	g.logger.Debug("artifact.xlsx.ok", "sheet", sheet, "rows", len(rows))
	return buf.Bytes(), nil
}

// AssumptionsReport renders the assumptions-and-flags text report for a
// generated specification.
func (g *Generator) AssumptionsReport(spec *llm.PIDSpec) *conversion.ArtifactData {
	var b strings.Builder
	sep := strings.Repeat("=", 80)

	b.WriteString("PID ASSUMPTIONS AND FLAGS\n")
	b.WriteString("Generated: " + g.now().UTC().Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(sep + "\n\n")

	b.WriteString("DRAWING INFORMATION:\n")
	b.WriteString("- Drawing Number: " + orNA(spec.TitleBlock.DrawingNumber) + "\n")
	b.WriteString("- Project: " + orNA(spec.TitleBlock.Project) + "\n")
	b.WriteString("- Status: NOT FOR CONSTRUCTION\n")

	b.WriteString("\nVALIDATION SUMMARY:\n")
	b.WriteString(fmt.Sprintf("- Equipment: %d\n", len(spec.Equipment)))
	b.WriteString(fmt.Sprintf("- Process lines: %d\n", len(spec.Lines)))
	b.WriteString(fmt.Sprintf("- Items flagged for engineer review: %d\n", len(spec.MissingElements)))

	b.WriteString("\nMISSING ELEMENTS REQUIRING ENGINEER INPUT:\n")
	for _, item := range spec.MissingElements {
		severity := item.Severity
		if severity == "" {
			severity = "unknown"
		}
		action := item.EngineerAction
		if action == "" {
			action = "Review required"
		}
		b.WriteString(fmt.Sprintf("- [%s] %s\n  Action: %s\n", severity, item.Item, action))
	}

	b.WriteString("\nASSUMPTIONS MADE:\n")
	for _, a := range spec.Assumptions {
		b.WriteString("- " + a + "\n")
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	for _, r := range spec.Recommendations {
		b.WriteString("- " + r + "\n")
	}

	b.WriteString("\n" + sep + "\n")
	b.WriteString("This document must be reviewed and approved by a qualified process engineer.\n")

	return &conversion.ArtifactData{
		Kind:        conversion.ArtifactAssumptionsReport,
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(b.String()),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
