package layout

// Serpentine describes how an LED strip is snaked across the board.
type Serpentine struct {
	FlipEveryRow bool
}

// Layout maps board cells to positions on a single LED strip laid out row by
// row.
type Layout struct {
	Size  int
	Order Serpentine
}

// Index maps row,col -> linear LED index (0..N-1)
func (l Layout) Index(row, col int) int {
	c := col
	if l.Order.FlipEveryRow && row%2 == 1 {
		c = l.Size - 1 - col
	}
	return row*l.Size + c
}

func (l Layout) Count() int {
	return l.Size * l.Size
}
