// Package sweeper периодически удаляет заброшенные ожидающие регистрации.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
)

// Store удаляет ожидающие регистрации старше заданного момента.
type Store interface {
	DeletePendingsBefore(ctx context.Context, before time.Time) (int64, error)
}

type Service struct {
	store     Store
	log       *slog.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(store Store, log *slog.Logger, retention, interval time.Duration) *Service {
	return &Service{
		store:     store,
		log:       log.With(slog.String("component", "sweeper")),
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Run удаляет устаревшие записи сразу и затем раз в interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context) {
	s.runSweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Service) runSweep(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("failed to delete stale pending registrations", sl.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("stale pending registrations deleted", slog.Int64("count", n))
	}
}

// Sweep удаляет ожидающие регистрации старше retention.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	const op = "sweeper.Sweep"
	n, err := s.store.DeletePendingsBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
