package model

import (
	"fmt"
	"strings"
)

// Stone is the classification of a single cell.
type Stone uint8

const (
	Empty Stone = iota
	Black
	White
)

func ParseStone(s string) (Stone, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empty", "none":
		return Empty, true
	case "b", "black":
		return Black, true
	case "w", "white":
		return White, true
	default:
		return Empty, false
	}
}

func (s Stone) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "Invalid"
	}
}

// Rune is the single character used on the serial and websocket outputs.
func (s Stone) Rune() rune {
	switch s {
	case Black:
		return 'B'
	case White:
		return 'W'
	default:
		return ' '
	}
}

func (s Stone) MarshalText() ([]byte, error) {
	return []byte(string(s.Rune())), nil
}

func (s *Stone) UnmarshalText(text []byte) error {
	v, ok := ParseStone(string(text))
	if !ok {
		return &UnknownStoneError{s: string(text)}
	}
	*s = v
	return nil
}

type UnknownStoneError struct {
	s string
}

func (e *UnknownStoneError) Error() string {
	return fmt.Sprintf("stone %q is unknown", e.s)
}

// Count returns the number of black and white stones on g.
func Count(g *StoneGrid) (black, white int) {
	g.Each(func(_, _ int, s Stone) {
		switch s {
		case Black:
			black++
		case White:
			white++
		}
	})
	return black, white
}
