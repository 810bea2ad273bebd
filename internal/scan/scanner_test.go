package scan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-stoneboard/internal/mux"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// rig is a fake sensing surface: it watches the address lines, the settle
// sleeps and the ADC reads of one Scanner.
type rig struct {
	rowL, colL [mux.Lines]gpio.Level
	settled    bool
	sleeps     []time.Duration
	samples    [][2]int
	failAt     int
}

type rigLine struct {
	r   *rig
	lvl *gpio.Level
}

func (l rigLine) Out(v gpio.Level) error {
	*l.lvl = v
	l.r.settled = false
	return nil
}

func (r *rig) Read() (analog.Sample, error) {
	if !r.settled {
		return analog.Sample{}, errors.New("sampled before settle")
	}
	if r.failAt > 0 && len(r.samples) == r.failAt {
		return analog.Sample{}, errors.New("i2c: nack")
	}
	row, col := mux.Decode(r.rowL), mux.Decode(r.colL)
	r.samples = append(r.samples, [2]int{row, col})
	return analog.Sample{Raw: int32(row*100 + col)}, nil
}

func (r *rig) sleep(d time.Duration) {
	r.sleeps = append(r.sleeps, d)
	r.settled = true
}

func newRig(t *testing.T) (*rig, *Scanner) {
	r := &rig{}
	var rl, cl []mux.Line
	for k := 0; k < mux.Lines; k++ {
		rl = append(rl, rigLine{r: r, lvl: &r.rowL[k]})
		cl = append(cl, rigLine{r: r, lvl: &r.colL[k]})
	}
	rows, err := mux.NewBank("row", rl...)
	require.NoError(t, err)
	cols, err := mux.NewBank("col", cl...)
	require.NoError(t, err)

	s := New(rows, cols, r, 0)
	s.Sleep = r.sleep
	return r, s
}

func TestScanSweepsRowMajorOnce(t *testing.T) {
	r, s := newRig(t)
	g, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, r.samples, model.Cells)
	for n, rc := range r.samples {
		assert.Equal(t, [2]int{n / model.Size, n % model.Size}, rc, "sample %d", n)
	}
	g.Each(func(row, col int, v int32) {
		assert.Equal(t, int32(row*100+col), v)
	})
}

func TestScanWaitsSettlePerCell(t *testing.T) {
	r, s := newRig(t)
	_, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, r.sleeps, model.Cells)
	for _, d := range r.sleeps {
		assert.Equal(t, DefaultSettle, d)
	}
	assert.Equal(t, DefaultSettle, s.Settle())
}

func TestScanReadErrorDiscardsGrid(t *testing.T) {
	r, s := newRig(t)
	r.failAt = 40
	g, err := s.Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan (2,10)")
	assert.Equal(t, model.RawGrid{}, g)
}
