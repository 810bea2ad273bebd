package led

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/funtimes-stoneboard/internal/layout"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// captureDrawer keeps the last image drawn.
type captureDrawer struct {
	w      int
	last   *image.NRGBA
	halted bool
}

func (c *captureDrawer) String() string          { return "capture" }
func (c *captureDrawer) Halt() error             { c.halted = true; return nil }
func (c *captureDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (c *captureDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, c.w, 1) }
func (c *captureDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	img := image.NewNRGBA(r)
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, 0, src.At(x+sp.X, sp.Y))
	}
	c.last = img
	return nil
}

func stones() report.Frame {
	var g model.StoneGrid
	g.Set(0, 0, model.Black)
	g.Set(1, 0, model.White)
	return report.Frame{Stones: g}
}

func TestMirrorPaintsStones(t *testing.T) {
	l := layout.Layout{Size: model.Size, Order: layout.Serpentine{FlipEveryRow: true}}
	d := &captureDrawer{w: l.Count()}
	m := NewMirror(d, l, model.DefaultPalette)

	require.NoError(t, m.Report(context.Background(), stones()))
	require.NotNil(t, d.last)

	black := model.DefaultPalette.Of(model.Black)
	white := model.DefaultPalette.Of(model.White)
	assert.Equal(t, black.ToRGB(), d.last.NRGBAAt(0, 0))
	// Row 1 runs backwards on a serpentine strip.
	assert.Equal(t, white.ToRGB(), d.last.NRGBAAt(2*model.Size-1, 0))
	assert.Equal(t, uint8(0), d.last.NRGBAAt(1, 0).R)

	require.NoError(t, m.Close())
	assert.True(t, d.halted)
}

func TestMirrorOverNRZ(t *testing.T) {
	buf := bytes.Buffer{}
	l := layout.Layout{Size: model.Size}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &nrzled.Opts{
		NumPixels: l.Count(),
		Channels:  3,
		Freq:      DefaultFreq,
	})
	require.NoError(t, err)
	buf.Reset()

	m := NewMirror(d, l, model.DefaultPalette)
	require.NoError(t, m.Report(context.Background(), stones()))
	assert.NotZero(t, buf.Len())
}
