package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiredSessionCloser completes sessions whose timer has run out.
type ExpiredSessionCloser interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweeper periodically auto-completes expired sessions.
type SessionSweeper struct {
	closer   ExpiredSessionCloser
	interval time.Duration
	log      zerolog.Logger
}

// NewSessionSweeper creates a new SessionSweeper.
func NewSessionSweeper(closer ExpiredSessionCloser, interval time.Duration, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		closer:   closer,
		interval: interval,
		log:      log.With().Str("component", "session_sweeper").Logger(),
	}
}

// Start sweeps every interval until ctx is cancelled. Call in a goroutine.
func (s *SessionSweeper) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("Sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) sweepOnce(ctx context.Context) {
	closed, err := s.closer.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("Sweep failed")
		}
		return
	}
	if closed > 0 {
		s.log.Info().Int("closed", closed).Msg("Completed expired sessions")
	}
}
