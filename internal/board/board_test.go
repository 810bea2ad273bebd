package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/funtimes-stoneboard/internal/mux"
)

func TestAbortParksPinsAndJoinsErrors(t *testing.T) {
	pins := []*gpiotest.Pin{{N: "GPIO10", L: gpio.High}, {N: "GPIO4", L: gpio.High}}
	lines := []mux.Line{pins[0], pins[1]}

	var order []string
	b := &Board{}
	b.closers = append(b.closers,
		func() error { order = append(order, "park"); return park(lines) },
		func() error { order = append(order, "bus"); return errors.New("bus busy") },
	)

	err := b.abort(errors.New("board: ads1115: no ack"))
	assert.ErrorContains(t, err, "board: ads1115: no ack")
	assert.ErrorContains(t, err, "bus busy")
	assert.Equal(t, []string{"bus", "park"}, order)
	for _, p := range pins {
		assert.Equal(t, gpio.Low, p.Read(), p.N)
	}
}

func TestCloseWithNothingClaimed(t *testing.T) {
	assert.NoError(t, (&Board{}).Close())
}
