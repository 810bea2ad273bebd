package board

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-stoneboard/internal/mux"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// Sim is a simulated sensing surface. Its ADC answers for whichever cell the
// two banks currently address, so a Scanner driving it behaves as it would on
// the real board.
type Sim struct {
	mu      sync.Mutex
	rowPins [mux.Lines]*gpiotest.Pin
	colPins [mux.Lines]*gpiotest.Pin
	base    model.RawGrid
	stones  model.StoneGrid

	// Contrast is how far a stone moves a reading from its baseline.
	Contrast int32
}

// NewSim builds an empty board whose cells idle around mid-scale with a small
// fixed per-cell spread.
func NewSim() *Sim {
	s := &Sim{Contrast: 40}
	for k := 0; k < mux.Lines; k++ {
		s.rowPins[k] = &gpiotest.Pin{N: fmt.Sprintf("SIM_S%d", k), Num: 10 + k}
		s.colPins[k] = &gpiotest.Pin{N: fmt.Sprintf("SIM_M%d", k), Num: 4 + k}
	}
	s.base.Each(func(row, col int, _ int32) {
		s.base.Set(row, col, 512+int32((row*7+col*3)%9)-4)
	})
	return s
}

// Place puts a stone on (row, col); Empty removes it.
func (s *Sim) Place(row, col int, st model.Stone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stones.Lookup(row, col); err != nil {
		return err
	}
	s.stones.Set(row, col, st)
	return nil
}

// Clear removes every stone.
func (s *Sim) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stones = model.StoneGrid{}
}

// Read samples the addressed cell. Address 15 on either bank reads the
// floating input, which sits at zero.
func (s *Sim) Read() (analog.Sample, error) {
	row, col := mux.Decode(levels(s.rowPins)), mux.Decode(levels(s.colPins))

	s.mu.Lock()
	defer s.mu.Unlock()
	if !model.InBounds(row, col) {
		return analog.Sample{}, nil
	}
	v := s.base.At(row, col)
	switch s.stones.At(row, col) {
	case model.Black:
		v += s.Contrast
	case model.White:
		v -= s.Contrast
	}
	return analog.Sample{
		V:   physic.ElectricPotential(v) * 3300 * physic.MilliVolt / 1023,
		Raw: v,
	}, nil
}

// Board wires the simulated pins into a Board.
func (s *Sim) Board() (*Board, error) {
	rows, err := mux.NewBank("row", lines(s.rowPins)...)
	if err != nil {
		return nil, err
	}
	cols, err := mux.NewBank("col", lines(s.colPins)...)
	if err != nil {
		return nil, err
	}
	return &Board{Rows: rows, Cols: cols, ADC: s}, nil
}

// HandlePlace places or removes a stone: POST /sim/place?row=3&col=7&stone=B.
func (s *Sim) HandlePlace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	row, err1 := strconv.Atoi(q.Get("row"))
	col, err2 := strconv.Atoi(q.Get("col"))
	st, ok := model.ParseStone(q.Get("stone"))
	if err1 != nil || err2 != nil || !ok {
		http.Error(w, "want row, col and stone (B, W or empty)", http.StatusBadRequest)
		return
	}
	if err := s.Place(row, col, st); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func levels(pins [mux.Lines]*gpiotest.Pin) [mux.Lines]gpio.Level {
	var out [mux.Lines]gpio.Level
	for k, p := range pins {
		out[k] = p.Read()
	}
	return out
}

func lines(pins [mux.Lines]*gpiotest.Pin) []mux.Line {
	out := make([]mux.Line, len(pins))
	for k, p := range pins {
		out[k] = p
	}
	return out
}
