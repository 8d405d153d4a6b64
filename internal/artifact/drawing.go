package artifact

import (
	"fmt"
	"strings"

	"github.com/radai/aiflow/internal/conversion"
	"github.com/radai/aiflow/internal/llm"
)

// Drawing layout constants (SVG user units).
const (
	boxWidth   = 140
	boxHeight  = 70
	hGap       = 80
	vGap       = 60
	marginX    = 60
	marginY    = 80
	perRow     = 4
	titleBarH  = 50
	footerH    = 40
	fontFamily = "monospace"
)

// DrawingSVG renders the generated specification as a draft block drawing:
// equipment boxes in a grid with tags, connecting lines labeled by line
// number, and a title bar. The output is a review draft, not an issued
// engineering drawing.
func (g *Generator) DrawingSVG(spec *llm.PIDSpec) (*conversion.ArtifactData, error) {
	if spec == nil || len(spec.Equipment) == 0 {
		return nil, conversion.NewValidationError("spec", "must contain equipment")
	}

	rowCount := (len(spec.Equipment) + perRow - 1) / perRow
	width := marginX*2 + perRow*boxWidth + (perRow-1)*hGap
	height := marginY + titleBarH + rowCount*(boxHeight+vGap) + footerH

	centers := make(map[string][2]int, len(spec.Equipment))

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	title := spec.TitleBlock.Title
	if title == "" {
		title = "Draft P&ID"
	}
	fmt.Fprintf(&b, `<text x="%d" y="36" font-family="%s" font-size="20">%s</text>`+"\n",
		marginX, fontFamily, escape(title))
	fmt.Fprintf(&b, `<text x="%d" y="58" font-family="%s" font-size="12">Drawing: %s  Rev: %s  Project: %s</text>`+"\n",
		marginX, fontFamily,
		escape(orNA(spec.TitleBlock.DrawingNumber)),
		escape(orNA(spec.TitleBlock.Revision)),
		escape(orNA(spec.TitleBlock.Project)))

	for i, eq := range spec.Equipment {
		col := i % perRow
		row := i / perRow
		x := marginX + col*(boxWidth+hGap)
		y := marginY + titleBarH + row*(boxHeight+vGap)
		centers[eq.Tag] = [2]int{x + boxWidth/2, y + boxHeight/2}

		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="black" stroke-width="1.5"/>`+"\n",
			x, y, boxWidth, boxHeight)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="%s" font-size="14" text-anchor="middle">%s</text>`+"\n",
			x+boxWidth/2, y+boxHeight/2-4, fontFamily, escape(eq.Tag))
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="%s" font-size="10" text-anchor="middle">%s</text>`+"\n",
			x+boxWidth/2, y+boxHeight/2+14, fontFamily, escape(eq.Type))
	}

	for _, line := range spec.Lines {
		from, okFrom := centers[line.FromEquipment]
		to, okTo := centers[line.ToEquipment]
		if !okFrom || !okTo {
			g.logger.Warn("artifact.drawing.dangling_line",
				"line", line.LineNumber,
				"from", line.FromEquipment,
				"to", line.ToEquipment,
			)
			continue
		}
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black" stroke-width="1"/>`+"\n",
			from[0], from[1], to[0], to[1])
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="%s" font-size="10" text-anchor="middle">%s</text>`+"\n",
			(from[0]+to[0])/2, (from[1]+to[1])/2-6, fontFamily, escape(line.LineNumber))
	}

	fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="%s" font-size="11">NOT FOR CONSTRUCTION - AI-generated draft, engineer review required</text>`+"\n",
		marginX, height-16, fontFamily)
	b.WriteString("</svg>\n")

	return &conversion.ArtifactData{
		Kind:        conversion.ArtifactDrawing,
		ContentType: "image/svg+xml",
		Data:        []byte(b.String()),
	}, nil
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
