package services

import (
	"context"
	"log/slog"
	"time"

	portsrepo "github.com/anvko/shop_admin_app/internal/core/ports/repositories"
)

// SessionSweeper deletes expired and deactivated session rows on a schedule
// so validation never has to race a cleanup per request.
type SessionSweeper struct {
	sessions portsrepo.SessionRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionSweeper(sessions portsrepo.SessionRepository, interval time.Duration, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{sessions: sessions, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Meant to be
// started as a goroutine from main.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) sweepOnce(ctx context.Context) {
	count, err := s.sessions.SweepExpiredSessions(ctx, time.Now())
	if err != nil {
		s.logger.Error("Session sweep failed", slog.String("error", err.Error()))
		return
	}
	if count > 0 {
		s.logger.Info("Swept expired sessions", slog.Int64("count", count))
	}
}
