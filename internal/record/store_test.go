package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

func TestStoreRecordsChanges(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "moves.db"))
	require.NoError(t, err)
	defer s.Close()

	var a, b model.StoneGrid
	a.Set(3, 7, model.Black)
	b = a
	b.Set(3, 7, model.Empty)
	b.Set(4, 4, model.White)

	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Report(ctx, report.Frame{Seq: 1, At: at, Stones: a, Changes: model.Diff(nil, &a)}))
	require.NoError(t, s.Report(ctx, report.Frame{Seq: 2, At: at, Stones: a}))
	require.NoError(t, s.Report(ctx, report.Frame{Seq: 3, At: at, Stones: b, Changes: model.Diff(&a, &b)}))

	moves, err := s.Moves(ctx, s.Session())
	require.NoError(t, err)
	require.Len(t, moves, 3)

	assert.Equal(t, uint64(1), moves[0].Cycle)
	assert.Equal(t, model.Black, moves[0].To)
	assert.Equal(t, Move{Session: s.Session(), Cycle: 3, Row: 3, Col: 7, From: model.Black, To: model.Empty, At: moves[1].At}, moves[1])
	assert.Equal(t, model.White, moves[2].To)
	assert.True(t, at.Equal(moves[2].At))
}

func TestSessionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "moves.db")
	s1, err := Open(path)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	assert.NotEqual(t, s1.Session(), s2.Session())

	var g model.StoneGrid
	g.Set(0, 0, model.Black)
	require.NoError(t, s1.Report(ctx, report.Frame{Seq: 1, Stones: g, Changes: model.Diff(nil, &g)}))

	moves, err := s2.Moves(ctx, s2.Session())
	require.NoError(t, err)
	assert.Empty(t, moves)
}
