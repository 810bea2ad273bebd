package report

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/coreman2200/funtimes-stoneboard/model"
)

// WriteText renders g in the firmware's serial layout: every cell as a tab,
// its stone character and a space; one line per row; a blank line after the
// board.
func WriteText(w io.Writer, g *model.StoneGrid) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < model.Size; i++ {
		for j := 0; j < model.Size; j++ {
			bw.WriteByte('\t')
			bw.WriteRune(g.At(i, j).Rune())
			bw.WriteByte(' ')
		}
		bw.WriteString("\r\n")
	}
	bw.WriteString("\r\n")
	return bw.Flush()
}

// TextWriter is a Reporter writing WriteText output to an io.Writer.
type TextWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (t *TextWriter) Report(_ context.Context, f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return WriteText(t.w, &f.Stones)
}

// Close closes the underlying writer when it is an io.Closer.
func (t *TextWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
