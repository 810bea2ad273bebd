// Package classify turns raw readings into stones by comparing each cell with
// its empty-board reference.
package classify

import "github.com/coreman2200/funtimes-stoneboard/model"

// Thresholds are the deviations, in ADC counts, a reading must exceed to
// count as a stone. A black stone reads above the baseline, a white stone
// below it.
type Thresholds struct {
	Black int32 `yaml:"black" json:"black"`
	White int32 `yaml:"white" json:"white"`
}

var DefaultThresholds = Thresholds{Black: 10, White: 10}

// Reference is the per-cell baseline. *calib.Baseline satisfies it.
type Reference interface {
	At(row, col int) int32
}

// Cell classifies one deviation. Comparisons are strict: a delta equal to a
// threshold is empty.
func Cell(delta int32, th Thresholds) model.Stone {
	switch {
	case delta > th.Black:
		return model.Black
	case delta < -th.White:
		return model.White
	default:
		return model.Empty
	}
}

// Classify compares every cell of raw with the baseline.
func Classify(raw *model.RawGrid, baseline Reference, th Thresholds) model.StoneGrid {
	var out model.StoneGrid
	raw.Each(func(row, col int, v int32) {
		out.Set(row, col, Cell(v-baseline.At(row, col), th))
	})
	return out
}
