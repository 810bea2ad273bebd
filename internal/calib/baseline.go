// Package calib captures the empty-board reference readings.
package calib

import (
	"fmt"

	"github.com/coreman2200/funtimes-stoneboard/model"
)

// Snapshotter produces one full sweep of raw readings.
type Snapshotter interface {
	Scan() (model.RawGrid, error)
}

// Baseline is the per-cell no-stone reference. It is set once by Calibrate
// and cannot be modified afterwards.
type Baseline struct {
	grid model.RawGrid
}

// Calibrate takes one snapshot and keeps it verbatim as the baseline. The
// board must be empty while it runs; nothing here can tell otherwise.
func Calibrate(s Snapshotter) (*Baseline, error) {
	g, err := s.Scan()
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	return &Baseline{grid: g}, nil
}

// At returns the reference reading for (row, col).
func (b *Baseline) At(row, col int) int32 {
	return b.grid.At(row, col)
}

// Grid returns a copy of the reference readings.
func (b *Baseline) Grid() model.RawGrid {
	return b.grid
}
