package usecase

import (
	"context"
	"log/slog"
	"time"
)

// IdempotencySweeper periodically deletes expired ledger rows. Expired rows
// are already unclaimable, so the sweep is pure housekeeping and safe to run
// on every instance.
type IdempotencySweeper struct {
	coordinator *IdempotencyCoordinator
	interval    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewIdempotencySweeper(coordinator *IdempotencyCoordinator, interval time.Duration) *IdempotencySweeper {
	return &IdempotencySweeper{
		coordinator: coordinator,
		interval:    interval,
	}
}

func (s *IdempotencySweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *IdempotencySweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *IdempotencySweeper) sweep(ctx context.Context) {
	deleted, err := s.coordinator.SweepExpired(ctx)
	if err != nil {
		slog.Error("idempotency sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("idempotency sweep completed", "deleted", deleted)
	}
}
