package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexRaster(t *testing.T) {
	l := Layout{Size: 15}
	assert.Equal(t, 0, l.Index(0, 0))
	assert.Equal(t, 16, l.Index(1, 1))
	assert.Equal(t, 224, l.Index(14, 14))
	assert.Equal(t, 225, l.Count())
}

func TestIndexSerpentineIsBijective(t *testing.T) {
	l := Layout{Size: 15, Order: Serpentine{FlipEveryRow: true}}
	assert.Equal(t, 29, l.Index(1, 0))
	assert.Equal(t, 15, l.Index(1, 14))

	seen := map[int]bool{}
	for r := 0; r < l.Size; r++ {
		for c := 0; c < l.Size; c++ {
			i := l.Index(r, c)
			assert.False(t, seen[i], "index %d reused", i)
			seen[i] = true
		}
	}
	assert.Len(t, seen, l.Count())
}
