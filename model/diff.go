package model

// Change is one cell whose classification differs between two cycles.
type Change struct {
	Row  int   `json:"row"`
	Col  int   `json:"col"`
	From Stone `json:"from"`
	To   Stone `json:"stone"`
}

// Diff lists the cells that differ between prev and next in row-major order.
// A nil prev is treated as an empty board.
func Diff(prev, next *StoneGrid) []Change {
	var base StoneGrid
	if prev != nil {
		base = *prev
	}
	var out []Change
	next.Each(func(row, col int, s Stone) {
		if was := base.At(row, col); was != s {
			out = append(out, Change{Row: row, Col: col, From: was, To: s})
		}
	})
	return out
}
