// Package report defines the sink that receives one classified board per
// cycle, and the simple sinks that write it as text.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/coreman2200/funtimes-stoneboard/model"
)

// Frame is one cycle's output.
type Frame struct {
	Seq          uint64
	At           time.Time
	ScanDuration time.Duration
	Stones       model.StoneGrid
	// Changes lists cells that differ from the previous frame. The first
	// frame reports every stone on the board.
	Changes []model.Change
}

// Reporter consumes frames. Report must not retain f.Stones by reference
// beyond the call; Frame is a value and may be copied freely.
type Reporter interface {
	Report(ctx context.Context, f Frame) error
}

// Func adapts a function to a Reporter.
type Func func(ctx context.Context, f Frame) error

func (fn Func) Report(ctx context.Context, f Frame) error { return fn(ctx, f) }

// Fanout delivers every frame to each sink in order. A failing sink does not
// stop delivery to the others; all errors are joined.
type Fanout []Reporter

func (fo Fanout) Report(ctx context.Context, f Frame) error {
	var errs []error
	for _, r := range fo {
		if err := r.Report(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
