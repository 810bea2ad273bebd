package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-stoneboard/internal/calib"
	"github.com/coreman2200/funtimes-stoneboard/internal/classify"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// DefaultPause is the wait between the end of one cycle and the next scan.
const DefaultPause = 100 * time.Millisecond

// Scanner produces one full raw sweep. *scan.Scanner satisfies it.
type Scanner interface {
	Scan() (model.RawGrid, error)
}

type Settings struct {
	Thresholds  classify.Thresholds
	Orientation model.Orientation
	Pause       time.Duration
}

// Core owns the baseline and runs scan -> classify -> report.
type Core struct {
	scanner  Scanner
	baseline *calib.Baseline
	sink     report.Reporter
	settings Settings

	seq  uint64
	prev *model.StoneGrid

	// now is replaced in tests.
	now func() time.Time
}

// InitCore calibrates against the board as it is right now, which must be
// empty, and returns a Core ready to run. The baseline is never retaken.
func InitCore(s Scanner, sink report.Reporter, settings Settings) (*Core, error) {
	if settings.Pause <= 0 {
		settings.Pause = DefaultPause
	}
	start := time.Now()
	b, err := calib.Calibrate(s)
	if err != nil {
		return nil, err
	}
	log.Info().Dur("took", time.Since(start)).Msg("baseline captured")

	return &Core{
		scanner:  s,
		baseline: b,
		sink:     sink,
		settings: settings,
		now:      time.Now,
	}, nil
}

// Baseline returns the reference captured at startup.
func (c *Core) Baseline() *calib.Baseline { return c.baseline }

// Cycle scans once, classifies, orients and reports. A scan error skips the
// report; a sink error is returned after the frame has been recorded as the
// previous board.
func (c *Core) Cycle(ctx context.Context) (report.Frame, error) {
	start := c.now()
	raw, err := c.scanner.Scan()
	if err != nil {
		return report.Frame{}, err
	}
	took := c.now().Sub(start)

	stones := classify.Classify(&raw, c.baseline, c.settings.Thresholds)
	if !c.settings.Orientation.Identity() {
		stones = model.Orient(stones, c.settings.Orientation)
	}

	c.seq++
	f := report.Frame{
		Seq:          c.seq,
		At:           start,
		ScanDuration: took,
		Stones:       stones,
		Changes:      model.Diff(c.prev, &stones),
	}
	c.prev = &f.Stones

	if c.sink != nil {
		if err := c.sink.Report(ctx, f); err != nil {
			return f, fmt.Errorf("report cycle %d: %w", f.Seq, err)
		}
	}
	return f, nil
}

// Run cycles until ctx is cancelled. Cancellation is observed between cycles;
// a scan in progress always completes.
func (c *Core) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if _, err := c.Cycle(ctx); err != nil {
				log.Warn().Err(err).Uint64("cycle", c.seq).Msg("cycle failed")
			}
			timer.Reset(c.settings.Pause)
		}
	}
}
