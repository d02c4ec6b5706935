// Package scheduler fires the once-daily tick at a fixed local time.
package scheduler

import (
	"context"
	"time"

	"wordle-golf/internal/config"
	"wordle-golf/internal/service"

	"github.com/rs/zerolog"
)

type Scheduler struct {
	rounds   *service.RoundService
	hour     int
	location *time.Location
	logger   zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(rounds *service.RoundService, cfg *config.Config, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		rounds:   rounds,
		hour:     cfg.AnnounceHour,
		location: cfg.Location(),
		logger:   logger,
	}
}

// Start launches the tick loop. Stop waits for an in-flight tick to finish;
// there is no mid-operation abort.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		next := NextRun(time.Now().In(s.location), s.hour)
		wait := time.Until(next)
		s.logger.Info().Time("next_tick", next).Dur("in", wait).Msg("daily tick scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.rounds.DailyTick(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("daily tick failed")
		}
	}
}

// NextRun returns the next occurrence of hour o'clock strictly after now,
// in now's location.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
