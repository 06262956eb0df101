package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/logging"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/redis"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

const statusPollerLockKey = "catpaymentbot:lock:status-poller"

// StatusPoller periodically reconciles every in-flight checkout session via
// SessionUseCase.ReconcilePass. A Redis lock keeps replicas from polling the
// same sessions concurrently.
type StatusPoller struct {
	interval  time.Duration
	sessionUC usecase.SessionUseCase
	locker    redis.Locker
	log       *zerolog.Logger
}

func NewStatusPoller(interval time.Duration, sessionUC usecase.SessionUseCase, locker redis.Locker, logger *zerolog.Logger) *StatusPoller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatusPoller{
		interval:  interval,
		sessionUC: sessionUC,
		locker:    locker,
		log:       logging.Component(logger, "StatusPoller"),
	}
}

func (w *StatusPoller) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting status poller")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping status poller")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *StatusPoller) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, statusPollerLockKey, w.interval)
	if err != nil {
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			w.log.Warn().Err(err).Msg("pass lock error")
		}
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, statusPollerLockKey, token); err != nil {
			w.log.Warn().Err(err).Msg("pass unlock error")
		}
	}()

	n, err := w.sessionUC.ReconcilePass(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile pass error")
		return
	}
	if n > 0 {
		w.log.Debug().Int("sessions", n).Msg("reconcile pass complete")
	}
}
