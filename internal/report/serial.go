package report

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// PortOptions describes the serial link the text board is written to. The
// frame is always 8 data bits and one stop bit.
type PortOptions struct {
	BaudRate int    `yaml:"baud_rate" json:"baud_rate"`
	Parity   string `yaml:"parity,omitempty" json:"parity,omitempty"` // N, E or O
}

var parities = map[string]serial.Parity{
	"": serial.NoParity, "N": serial.NoParity, "NONE": serial.NoParity,
	"E": serial.EvenParity, "EVEN": serial.EvenParity,
	"O": serial.OddParity, "ODD": serial.OddParity,
}

// SerialMode converts the options into a go.bug.st/serial mode. The baud rate
// defaults to 115200.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	parity, ok := parities[strings.ToUpper(strings.TrimSpace(o.Parity))]
	if !ok {
		return nil, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	baud := o.BaudRate
	if baud <= 0 {
		baud = 115200
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   parity,
	}, nil
}

// OpenSerial opens path and returns a TextWriter bound to it. Close the
// writer to release the port.
func OpenSerial(path string, opts PortOptions) (*TextWriter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return NewTextWriter(port), nil
}
