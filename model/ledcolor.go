package model

import (
	"image/color"
)

const MAX_BRIGHTNESS uint8 = 200

// Channel offsets within a packed ColorVal (AGRB, the WS2812 wire order).
const (
	ALPHA_OFFSET uint8 = 0x18
	GREEN_OFFSET uint8 = 0x10
	RED_OFFSET   uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

type ColorVal struct {
	val uint32
}

func NewColor(c uint32) ColorVal {
	return ColorVal{val: c}
}

// ToRGB premultiplies alpha as brightness, capped at MAX_BRIGHTNESS.
func (c *ColorVal) ToRGB() color.NRGBA {
	aa := float64(c.GetA())
	if aa > float64(MAX_BRIGHTNESS) {
		aa = float64(MAX_BRIGHTNESS)
	}
	aa /= 255.0

	return color.NRGBA{
		R: uint8(float64(c.GetR()) * aa),
		G: uint8(float64(c.GetG()) * aa),
		B: uint8(float64(c.GetB()) * aa),
		A: 255,
	}
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

// SetA sets the alpha channel, which ToRGB uses as brightness.
func (c *ColorVal) SetA(a uint8) {
	c.val = setcolor(c.val, a, ALPHA_OFFSET)
}

func (c *ColorVal) GetR() uint8 {
	return getcolor(c.val, RED_OFFSET)
}
func (c *ColorVal) GetG() uint8 {
	return getcolor(c.val, GREEN_OFFSET)
}
func (c *ColorVal) GetB() uint8 {
	return getcolor(c.val, BLUE_OFFSET)
}
func (c *ColorVal) GetA() uint8 {
	return getcolor(c.val, ALPHA_OFFSET)
}

// Palette assigns a display color to each stone.
type Palette struct {
	Black ColorVal
	White ColorVal
	Empty ColorVal
}

// DefaultPalette shows black stones as blue, white stones as warm white and
// leaves empty cells dark.
var DefaultPalette = Palette{
	Black: NewColor(0xFF0000FF),
	White: NewColor(0xC8FFFFC8),
	Empty: NewColor(0x00000000),
}

// WithBrightness returns p with every lit color set to brightness a. Empty
// stays as it is.
func (p Palette) WithBrightness(a uint8) Palette {
	p.Black.SetA(a)
	p.White.SetA(a)
	return p
}

func (p Palette) Of(s Stone) ColorVal {
	switch s {
	case Black:
		return p.Black
	case White:
		return p.White
	default:
		return p.Empty
	}
}
