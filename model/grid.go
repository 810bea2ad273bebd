package model

import (
	"encoding/json"
	"fmt"
)

// Size is the board dimension. The multiplexer banks address 16 lines; the
// 16th is unused.
const Size = 15

// Cells is the number of sensor positions on the board.
const Cells = Size * Size

// Grid is a fixed Size×Size container indexed by (row, col). It is a value
// type: assigning or returning a Grid copies it.
type Grid[T any] struct {
	cells [Size][Size]T
}

// RawGrid holds one sampled intensity per cell.
type RawGrid = Grid[int32]

// StoneGrid holds one classification per cell.
type StoneGrid = Grid[Stone]

// OutOfRangeError reports a (row, col) outside the board.
type OutOfRangeError struct {
	Row, Col int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("position is out of range(0-%d), row: %d, col: %d", Size-1, e.Row, e.Col)
}

// InBounds reports whether (row, col) addresses a cell.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// At returns the value at (row, col). It panics when out of range.
func (g *Grid[T]) At(row, col int) T {
	return g.cells[row][col]
}

// Set stores v at (row, col). It panics when out of range.
func (g *Grid[T]) Set(row, col int, v T) {
	g.cells[row][col] = v
}

// Lookup is At for untrusted coordinates.
func (g *Grid[T]) Lookup(row, col int) (T, error) {
	if !InBounds(row, col) {
		var zero T
		return zero, &OutOfRangeError{Row: row, Col: col}
	}
	return g.cells[row][col], nil
}

// Each visits every cell in row-major order.
func (g *Grid[T]) Each(fn func(row, col int, v T)) {
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			fn(i, j, g.cells[i][j])
		}
	}
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		for j := range g.cells[i] {
			g.cells[i][j] = v
		}
	}
}

// Rows returns a copy of the grid as nested slices.
func (g *Grid[T]) Rows() [][]T {
	out := make([][]T, Size)
	for i := range g.cells {
		out[i] = append([]T(nil), g.cells[i][:]...)
	}
	return out
}

func (g Grid[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

func (g *Grid[T]) UnmarshalJSON(b []byte) error {
	var rows [][]T
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	if len(rows) != Size {
		return fmt.Errorf("grid has %d rows, want %d", len(rows), Size)
	}
	var out Grid[T]
	for i, r := range rows {
		if len(r) != Size {
			return fmt.Errorf("grid row %d has %d cells, want %d", i, len(r), Size)
		}
		copy(out.cells[i][:], r)
	}
	*g = out
	return nil
}
