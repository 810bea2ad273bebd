// Package scan sweeps the sensor matrix and returns one raw reading per cell.
package scan

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/analog"

	"github.com/coreman2200/funtimes-stoneboard/internal/mux"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// DefaultSettle covers digital-line propagation and multiplexer switching.
const DefaultSettle = 10 * time.Microsecond

// Sampler reads the shared analog input. analog.PinADC satisfies it.
type Sampler interface {
	Read() (analog.Sample, error)
}

// Scanner addresses every (row, col) pair through the two banks and samples
// the analog input once per cell.
type Scanner struct {
	rows   *mux.Bank
	cols   *mux.Bank
	adc    Sampler
	settle time.Duration

	// Sleep waits out the settle delay. Replaced in tests.
	Sleep func(time.Duration)
}

func New(rows, cols *mux.Bank, adc Sampler, settle time.Duration) *Scanner {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Scanner{
		rows:   rows,
		cols:   cols,
		adc:    adc,
		settle: settle,
		Sleep:  time.Sleep,
	}
}

// Settle returns the delay between an address change and its sample.
func (s *Scanner) Settle() time.Duration { return s.settle }

// Scan performs one full sweep, rows outer and columns inner. Every sample is
// taken only after both banks have been addressed and the settle delay has
// elapsed. A failed GPIO write or ADC read aborts the sweep; the partial grid
// is never returned.
func (s *Scanner) Scan() (model.RawGrid, error) {
	var g model.RawGrid
	for i := 0; i < model.Size; i++ {
		if err := s.rows.Select(i); err != nil {
			return model.RawGrid{}, fmt.Errorf("scan row %d: %w", i, err)
		}
		for j := 0; j < model.Size; j++ {
			if err := s.cols.Select(j); err != nil {
				return model.RawGrid{}, fmt.Errorf("scan (%d,%d): %w", i, j, err)
			}
			s.Sleep(s.settle)
			v, err := s.adc.Read()
			if err != nil {
				return model.RawGrid{}, fmt.Errorf("scan (%d,%d): read: %w", i, j, err)
			}
			g.Set(i, j, v.Raw)
		}
	}
	return g, nil
}
