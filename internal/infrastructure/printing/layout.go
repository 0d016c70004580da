package printing

import (
	"fmt"
	"math"

	"github.com/returnmail/backend/internal/domain/returns"
)

// Sheet and label box dimensions in PDF points (72 per inch)
const (
	PageWidth    = 612.0
	PageHeight   = 792.0
	TargetWidth  = 420.0
	TargetHeight = 600.0
)

// FitLabel scales a label page uniformly into the target box and centers it
// on a US Letter sheet. X and Y are measured from the bottom-left corner.
func FitLabel(labelWidth, labelHeight float64) (returns.Placement, error) {
	if !(labelWidth > 0) || !(labelHeight > 0) || math.IsInf(labelWidth, 0) || math.IsInf(labelHeight, 0) {
		return returns.Placement{}, fmt.Errorf("invalid label page size %.2fx%.2f", labelWidth, labelHeight)
	}

	s := math.Min(TargetWidth/labelWidth, TargetHeight/labelHeight)
	drawW := labelWidth * s
	drawH := labelHeight * s

	return returns.Placement{
		Scale:  s,
		Width:  drawW,
		Height: drawH,
		X:      (PageWidth - drawW) / 2,
		Y:      (PageHeight - drawH) / 2,
	}, nil
}

// top converts the bottom-left Y of a placement into the top-left Y used when drawing
func top(p returns.Placement) float64 {
	return PageHeight - p.Y - p.Height
}
