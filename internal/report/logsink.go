package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-stoneboard/model"
)

// LogSink writes a one-line summary of every frame, useful when running
// headless.
type LogSink struct {
	Log zerolog.Logger
	// OnlyChanges skips frames whose board did not change.
	OnlyChanges bool
}

func (l *LogSink) Report(_ context.Context, f Frame) error {
	if l.OnlyChanges && len(f.Changes) == 0 {
		return nil
	}
	black, white := model.Count(&f.Stones)
	ev := l.Log.Info().
		Uint64("cycle", f.Seq).
		Int("black", black).
		Int("white", white).
		Int("changes", len(f.Changes)).
		Dur("scan", f.ScanDuration)
	for _, c := range f.Changes {
		ev = ev.Str(posName(c.Row, c.Col), c.To.String())
	}
	ev.Msg("board")
	return nil
}

// posName renders (row, col) in board notation: columns as letters A-O,
// rows counted from 1.
func posName(row, col int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row+1)
}
