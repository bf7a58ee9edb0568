// Package runner ticks a pattern onto a strip at a fixed frame rate.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledsync/model"
	"github.com/coreman2200/ledsync/monitor"
	"github.com/coreman2200/ledsync/pattern"
	"github.com/coreman2200/ledsync/strip"
)

const DFLT_FPS = 30

// Publisher sees every frame after it is shown.
type Publisher interface {
	Publish(f model.Frame)
	Report(d monitor.Diagnostic)
}

type Looper struct {
	Strip      strip.Strip
	Pattern    *pattern.Runner
	Publisher  Publisher // optional
	FPS        int
	Brightness float64
	WhiteCap   float64
	BudgetMA   float64 // 0 disables the current limiter

	frame model.Frame
	count uint64
}

func NewLooper(s strip.Strip, p *pattern.Runner, leds int) *Looper {
	return &Looper{
		Strip:      s,
		Pattern:    p,
		FPS:        DFLT_FPS,
		Brightness: 1,
		frame:      model.NewFrame(leds),
	}
}

// Frames is the number of frames shown so far.
func (l *Looper) Frames() uint64 { return l.count }

// Run shows frames until ctx is done, the pattern ends, or the strip fails.
// Only a strip failure is returned as an error.
func (l *Looper) Run(ctx context.Context) error {
	fps := l.FPS
	if fps <= 0 {
		fps = DFLT_FPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		if err := l.step(); err != nil {
			if err == errDone {
				log.Info().Uint64("frames", l.count).Msg("pattern complete")
				return nil
			}
			return err
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

var errDone = errors.New("runner: pattern done")

func (l *Looper) step() error {
	if !l.Pattern.Step(l.frame) {
		return errDone
	}
	pattern.Dim(l.frame, l.Brightness)
	pattern.ApplyWhiteCap(l.frame, l.WhiteCap)
	pattern.LimitCurrent(l.frame, pattern.DefaultChanMA, l.BudgetMA, 0)

	t := time.Now()
	if err := l.Strip.Show(l.frame); err != nil {
		if l.Publisher != nil {
			l.Publisher.Report(monitor.Diagnostic{
				Severity: monitor.Err,
				Code:     "STRIP.SHOW",
				Summary:  "frame not shown",
				Detail:   err.Error(),
				Evidence: map[string]any{"strip": l.Strip.String(), "frame": l.count},
			})
		}
		return fmt.Errorf("runner: show frame %d on %s: %w", l.count, l.Strip, err)
	}
	l.count++
	log.Trace().Uint64("frame", l.count).Dur("show", time.Since(t)).Msg("shown")

	if l.Publisher != nil {
		l.Publisher.Publish(l.frame)
	}
	return nil
}
