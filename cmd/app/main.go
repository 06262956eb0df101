// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Ran-Mewo/CatPaymentBot/internal/config"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
	discAdapters "github.com/Ran-Mewo/CatPaymentBot/internal/infra/adapters/discord"
	payAdapters "github.com/Ran-Mewo/CatPaymentBot/internal/infra/adapters/payment"
	pg "github.com/Ran-Mewo/CatPaymentBot/internal/infra/db/postgres"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/logging"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/metrics"
	red "github.com/Ran-Mewo/CatPaymentBot/internal/infra/redis"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/sched"
	"github.com/Ran-Mewo/CatPaymentBot/internal/infra/web"
	"github.com/Ran-Mewo/CatPaymentBot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs, noop chat adapter)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	logger.Info().
		Str("gateway", cfg.Gateway.BaseURL).
		Str("discord_token", logging.Redact(cfg.Discord.Token, cfg.Runtime.Dev)).
		Msg("starting CatPaymentBot")

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	settingsRepo := pg.NewGuildSettingsRepo(pool)
	profileRepo := pg.NewProfileRepoCacheDecorator(pg.NewProfileRepo(pool), redisClient, cfg.Redis.TTL)
	sessionRepo := pg.NewSessionRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)

	// ---- Adapters ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
	} else {
		gateway, err = payAdapters.NewAnonPayGateway(cfg.Gateway.BaseURL, cfg.Gateway.UserAgent, cfg.Gateway.Timeout, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway adapter failed")
		}
	}

	var chat adapter.ChatAdapter
	if cfg.Runtime.Dev {
		chat = discAdapters.NewNoopBotAdapter()
	} else {
		bot, err := discAdapters.NewRealBotAdapter(cfg.Discord.Token, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("discord adapter failed")
		}
		if err := bot.Open(); err != nil {
			logger.Fatal().Err(err).Msg("discord gateway connect failed")
		}
		defer bot.Close()
		chat = bot
	}

	// ---- Use cases ----
	settingsUC := usecase.NewGuildSettingsUseCase(settingsRepo, logger)
	profileUC := usecase.NewProfileUseCase(profileRepo, settingsRepo, subRepo, txm, chat, logger)
	notifUC := usecase.NewNotificationUseCase(gateway, chat, profileRepo, subRepo, logger)
	sessionUC := usecase.NewSessionUseCase(sessionRepo, gateway, notifUC, cfg.Engine.SessionTTL, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, chat, notifUC, cfg.Engine.ExpiringWindow, cfg.Engine.NotifyDebounce, logger)

	// ---- Workers ----
	var workers sync.WaitGroup

	poller := sched.NewStatusPoller(cfg.Engine.PollInterval, sessionUC, locker, logger)
	workers.Add(1)
	go func() {
		defer workers.Done()
		_ = poller.Run(ctx)
	}()

	watchdog := sched.NewSubscriptionWatchdog(cfg.Engine.SweepInterval, subUC, locker, logger)
	workers.Add(1)
	go func() {
		defer workers.Done()
		_ = watchdog.Run(ctx)
	}()

	// ---- Ops API ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret, !cfg.Runtime.Dev, cfg.Web.SessionTTL)
	srv := web.NewServer(&cfg.Web, settingsUC, profileUC, sessionUC, subUC, auth, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops API stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("ops API shutdown error")
	}
	// Workers must finish their in-flight pass before the deferred pool and
	// client closes run.
	workers.Wait()
}
