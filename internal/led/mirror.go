// Package led mirrors the classified board on an addressable LED strip, one
// pixel per cell.
package led

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-stoneboard/internal/layout"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// DefaultFreq suits WS2812 strips driven over SPI.
const DefaultFreq = 2500 * physic.KiloHertz

type Options struct {
	Port         string
	Freq         physic.Frequency
	FlipEveryRow bool
	Palette      model.Palette
}

// Mirror is a report.Reporter that paints each frame on a display.Drawer.
type Mirror struct {
	mu      sync.Mutex
	layout  layout.Layout
	palette model.Palette
	drawer  display.Drawer
	img     *image.NRGBA

	// Spi is false when the mirror fell back to the console.
	Spi bool
}

var _ report.Reporter = (*Mirror)(nil)

func NewMirror(d display.Drawer, l layout.Layout, p model.Palette) *Mirror {
	return &Mirror{
		layout:  l,
		palette: p,
		drawer:  d,
		img:     image.NewNRGBA(image.Rect(0, 0, l.Count(), 1)),
	}
}

// Open drives an nrzled strip on the SPI port named in opts. Without an SPI
// port the board is printed to the console instead.
func Open(opts Options) (*Mirror, error) {
	l := layout.Layout{Size: model.Size, Order: layout.Serpentine{FlipEveryRow: opts.FlipEveryRow}}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("led: host init: %w", err)
	}
	p, err := spireg.Open(opts.Port)
	if err != nil {
		log.Warn().Err(err).Str("port", opts.Port).Msg("no SPI port for LED mirror; printing at the console")
		return NewMirror(screen.New(l.Count()), l, opts.Palette), nil
	}

	freq := opts.Freq
	if freq == 0 {
		freq = DefaultFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: l.Count(),
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("led: nrzled: %w", err)
	}
	_ = d.Halt()

	m := NewMirror(d, l, opts.Palette)
	m.Spi = true
	return m, nil
}

func (m *Mirror) Report(_ context.Context, f report.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Stones.Each(func(row, col int, s model.Stone) {
		c := m.palette.Of(s)
		m.img.SetNRGBA(m.layout.Index(row, col), 0, c.ToRGB())
	})
	if err := m.drawer.Draw(m.drawer.Bounds(), m.img, image.Point{}); err != nil {
		return fmt.Errorf("led: draw: %w", err)
	}
	return nil
}

// Close turns the strip off.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawer.Halt()
}
