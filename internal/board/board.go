// Package board brings up the sensing hardware: the two multiplexer address
// banks and the analog input they share.
package board

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-stoneboard/internal/mux"
	"github.com/coreman2200/funtimes-stoneboard/internal/scan"
)

// Options name the pins and the ADC. Pin names are resolved with gpioreg, so
// both "GPIO10" and "10" work on a Raspberry Pi.
type Options struct {
	RowPins    [mux.Lines]string
	ColPins    [mux.Lines]string
	I2CBus     string
	ADCAddr    uint16
	Channel    int
	MaxVoltage physic.ElectricPotential
	SampleRate physic.Frequency
}

// DefaultOptions matches the reference wiring: the row bank on BCM 10-13, the
// column bank on BCM 4-7 and an ADS1115 at 0x48 reading channel 0.
var DefaultOptions = Options{
	RowPins:    [mux.Lines]string{"GPIO10", "GPIO11", "GPIO12", "GPIO13"},
	ColPins:    [mux.Lines]string{"GPIO4", "GPIO5", "GPIO6", "GPIO7"},
	ADCAddr:    0x48,
	Channel:    0,
	MaxVoltage: 3300 * physic.MilliVolt,
	SampleRate: 860 * physic.Hertz,
}

// Board is what the scanner needs from the hardware.
type Board struct {
	Rows *mux.Bank
	Cols *mux.Bank
	ADC  scan.Sampler

	closers []func() error
}

// Close releases the ADC and parks the address lines low.
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var channels = []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// Open initialises periph, claims the address pins and the ADC channel.
func Open(opts Options) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("board: host init: %w", err)
	}
	if opts.Channel < 0 || opts.Channel >= len(channels) {
		return nil, fmt.Errorf("board: adc channel %d is out of range(0-%d)", opts.Channel, len(channels)-1)
	}

	b := &Board{}
	rowLines, err := outputs(opts.RowPins)
	if err != nil {
		return nil, err
	}
	colLines, err := outputs(opts.ColPins)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() error { return park(append(rowLines, colLines...)) })
	if b.Rows, err = mux.NewBank("row", rowLines...); err != nil {
		return nil, b.abort(err)
	}
	if b.Cols, err = mux.NewBank("col", colLines...); err != nil {
		return nil, b.abort(err)
	}

	bus, err := i2creg.Open(opts.I2CBus)
	if err != nil {
		return nil, b.abort(fmt.Errorf("board: open i2c %q: %w", opts.I2CBus, err))
	}
	b.closers = append(b.closers, bus.Close)

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: opts.ADCAddr})
	if err != nil {
		return nil, b.abort(fmt.Errorf("board: ads1115: %w", err))
	}
	pin, err := dev.PinForChannel(channels[opts.Channel], opts.MaxVoltage, opts.SampleRate, ads1x15.BestQuality)
	if err != nil {
		return nil, b.abort(fmt.Errorf("board: adc channel %d: %w", opts.Channel, err))
	}
	b.closers = append(b.closers, pin.Halt)
	b.ADC = pin
	return b, nil
}

// abort releases whatever Open claimed so far and returns err joined with any
// release failure.
func (b *Board) abort(err error) error {
	return errors.Join(err, b.Close())
}

func outputs(names [mux.Lines]string) ([]mux.Line, error) {
	lines := make([]mux.Line, 0, len(names))
	for _, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("board: no gpio pin named %q", n)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("board: pin %s: %w", n, err)
		}
		lines = append(lines, p)
	}
	return lines, nil
}

func park(lines []mux.Line) error {
	var errs []error
	for _, l := range lines {
		errs = append(errs, l.Out(gpio.Low))
	}
	return errors.Join(errs...)
}
