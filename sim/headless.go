package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mattn/go-tty"
	"gonum.org/v1/gonum/stat"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Hz          int
	Ticks       uint64
	Interactive bool
}

// RunHeadless drives the host frame loop without opening a window and
// reports the measured tick rate on exit. With Interactive set it feeds
// terminal input to the machine's UART.
func RunHeadless(ctx context.Context, s *Sim, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	if cfg.Interactive {
		t, err := tty.Open()
		if err != nil {
			s.log.WriteLineString("tty unavailable: " + err.Error())
		} else {
			defer t.Close()
			go feedTTY(t, s)
		}
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer ticker.Stop()

	var rates []float64
	lastTicks := s.k.Ticks()
	lastWall := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.reportTickRate(rates)
			return ctx.Err()
		case <-ticker.C:
			if err := s.step(); err != nil {
				return err
			}

			now := time.Now()
			ticks := s.k.Ticks()
			if dt := now.Sub(lastWall).Seconds(); dt > 0 && ticks > lastTicks {
				rates = append(rates, float64(ticks-lastTicks)/dt)
			}
			lastTicks = ticks
			lastWall = now

			if cfg.Ticks > 0 && ticks >= cfg.Ticks {
				s.reportTickRate(rates)
				return nil
			}
		}
	}
}

// reportTickRate summarizes the per-frame tick rate samples. Only
// meaningful on real-time boards, where the machine paces itself to the
// wall clock.
func (s *Sim) reportTickRate(rates []float64) {
	if len(rates) == 0 {
		return
	}
	mean := stat.Mean(rates, nil)
	sd := math.Sqrt(stat.Variance(rates, nil))
	s.log.WriteLineString(fmt.Sprintf(
		"tick rate: measured %.1f Hz (sd %.1f) over %d frames, nominal %d Hz",
		mean, sd, len(rates), s.k.TickRateHz()))
}

func feedTTY(t *tty.TTY, s *Sim) {
	for {
		r, err := t.ReadRune()
		if err != nil {
			return
		}
		s.FeedInput([]byte(string(r)))
	}
}
