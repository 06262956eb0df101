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

const watchdogLockKey = "catpaymentbot:lock:subscription-watchdog"

// SubscriptionWatchdog periodically sweeps subscriptions: warns holders whose
// entitlement expires soon and revokes lapsed ones.
type SubscriptionWatchdog struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewSubscriptionWatchdog(interval time.Duration, subUC usecase.SubscriptionUseCase, locker redis.Locker, logger *zerolog.Logger) *SubscriptionWatchdog {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionWatchdog{
		interval: interval,
		subUC:    subUC,
		locker:   locker,
		log:      logging.Component(logger, "SubscriptionWatchdog"),
	}
}

func (w *SubscriptionWatchdog) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting subscription watchdog")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping subscription watchdog")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SubscriptionWatchdog) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, watchdogLockKey, w.interval)
	if err != nil {
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			w.log.Warn().Err(err).Msg("pass lock error")
		}
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, watchdogLockKey, token); err != nil {
			w.log.Warn().Err(err).Msg("pass unlock error")
		}
	}()

	notified, revoked, err := w.subUC.Sweep(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("watchdog sweep error")
		return
	}
	if notified > 0 || revoked > 0 {
		w.log.Info().Int("notified", notified).Int("revoked", revoked).Msg("watchdog sweep complete")
	}
}
