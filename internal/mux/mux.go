// Package mux drives the two 4-bit multiplexer banks that select a sensor row
// and a sensor column on the board.
package mux

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-stoneboard/model"
)

// Lines is the width of a bank address.
const Lines = 4

// Line is one digital address output. gpio.PinOut satisfies it.
type Line interface {
	Out(l gpio.Level) error
}

// AddressError is returned for an index the board does not wire up.
type AddressError struct {
	Bank  string
	Index int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("mux %s: index %d is out of range(0-%d)", e.Bank, e.Index, model.Size-1)
}

// Encode returns the line levels for index i, least-significant bit on line 0.
func Encode(i int) [Lines]gpio.Level {
	var out [Lines]gpio.Level
	for k := 0; k < Lines; k++ {
		out[k] = gpio.Level(i&(1<<k) != 0)
	}
	return out
}

// Decode reassembles an index from line levels.
func Decode(levels [Lines]gpio.Level) int {
	i := 0
	for k, l := range levels {
		if l == gpio.High {
			i |= 1 << k
		}
	}
	return i
}

// Bank is one multiplexer and its four address lines.
type Bank struct {
	name  string
	lines [Lines]Line
}

func NewBank(name string, lines ...Line) (*Bank, error) {
	if len(lines) != Lines {
		return nil, fmt.Errorf("mux %s: need %d address lines, got %d", name, Lines, len(lines))
	}
	b := &Bank{name: name}
	for k, l := range lines {
		if l == nil {
			return nil, fmt.Errorf("mux %s: address line %d is nil", name, k)
		}
		b.lines[k] = l
	}
	return b, nil
}

func (b *Bank) String() string { return b.name }

// Select drives the address lines to index i. The caller must wait for the
// settle delay before sampling through the bank.
func (b *Bank) Select(i int) error {
	if i < 0 || i >= model.Size {
		return &AddressError{Bank: b.name, Index: i}
	}
	for k, l := range Encode(i) {
		if err := b.lines[k].Out(l); err != nil {
			return fmt.Errorf("mux %s: line %d: %w", b.name, k, err)
		}
	}
	return nil
}
