package model

// Orientation maps sensor coordinates to the board as seen by the players.
// Rotation counts 90° clockwise turns; Flip mirrors each row after rotating.
type Orientation struct {
	Rotation int  `yaml:"rotation" json:"rotation"`
	Flip     bool `yaml:"flip" json:"flip"`
}

// Identity reports whether o leaves grids unchanged.
func (o Orientation) Identity() bool {
	return o.turns() == 0 && !o.Flip
}

func (o Orientation) turns() int {
	return ((o.Rotation % 4) + 4) % 4
}

// Orient returns a transformed copy of g.
func Orient[T any](g Grid[T], o Orientation) Grid[T] {
	out := g
	for n := o.turns(); n > 0; n-- {
		out = rotateCW(out)
	}
	if o.Flip {
		for i := 0; i < Size; i++ {
			for j := 0; j < Size/2; j++ {
				k := Size - 1 - j
				out.cells[i][j], out.cells[i][k] = out.cells[i][k], out.cells[i][j]
			}
		}
	}
	return out
}

func rotateCW[T any](g Grid[T]) Grid[T] {
	var out Grid[T]
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			out.cells[i][j] = g.cells[Size-1-j][i]
		}
	}
	return out
}
