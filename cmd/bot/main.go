package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/relay_bot/internal/app"
	"github.com/Freeeeeet/relay_bot/internal/config"
	"github.com/Freeeeeet/relay_bot/internal/controller"
	"github.com/Freeeeeet/relay_bot/internal/controller/handlers"
	"github.com/Freeeeeet/relay_bot/internal/controller/httpapi"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/Freeeeeet/relay_bot/internal/translator"
	"github.com/go-telegram/bot"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("relay bot: %v", err)
	}
}

func run() error {
	var (
		envFile     string
		migrateOnly bool
	)

	flagSet := pflag.NewFlagSet("relay-bot", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", config.DefaultEnvFile, "path to .env file")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply migrations and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := app.NewPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if migrateOnly {
		logger.Info("Migrations applied, exiting")
		return nil
	}

	coord := base.NewCoordinator(pool, cfg.DBAcquireTimeout, logger)
	limits := config.NewLimitsStore(cfg.EnvFile, cfg.Limits)

	users := service.NewUserService(coord, logger)
	connections := service.NewConnectionService(coord, logger)
	usage := service.NewUsageService(coord, limits, logger)
	subscriptions := service.NewSubscriptionService(coord, logger)
	messages := service.NewMessageService(coord, logger)
	tasks := service.NewTaskService(coord, logger)
	admin := service.NewAdminService(coord, logger)
	relay := service.NewRelayService(users, connections, usage, subscriptions, messages, tasks, translator.Passthrough{}, logger)

	ctrl := controller.NewBotController(handlers.Services{
		Users:         users,
		Connections:   connections,
		Usage:         usage,
		Subscriptions: subscriptions,
		Tasks:         tasks,
		Admin:         admin,
		Relay:         relay,
		Limits:        limits,
	}, logger)

	b, err := bot.New(cfg.TelegramToken, ctrl.Options()...)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	if err := ctrl.RegisterHandlers(ctx, b); err != nil {
		// Меню команд не критично для работы
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	router := httpapi.NewRouter(httpapi.Deps{
		WebhookSecret: cfg.WebhookSecret,
		AdminToken:    cfg.AdminToken,
		Store:         coord,
		Billing:       subscriptions,
		Connections:   connections,
		Messages:      messages,
		Usage:         usage,
		Subscriptions: subscriptions,
		Overview:      admin,
		Limits:        limits,
		Logger:        logger,
	})
	server := httpapi.NewServer(cfg.HTTPAddr, router, logger)

	scheduler := app.NewScheduler(messages, limits, cfg.CleanupInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("Starting relay bot",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Start(gctx) })
	g.Go(func() error { return server.Serve(gctx) })
	g.Go(func() error {
		reloadLimitsOnHangup(gctx, limits, logger)
		return nil
	})

	return g.Wait()
}

// reloadLimitsOnHangup перечитывает лимиты по SIGHUP
func reloadLimitsOnHangup(ctx context.Context, limits *config.LimitsStore, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			l, err := limits.Reload()
			if err != nil {
				logger.Error("Failed to reload limits", zap.Error(err))
				continue
			}
			logger.Info("Limits reloaded",
				zap.Int64("free_message_limit", l.FreeMessageLimit),
				zap.Bool("enabled", l.Enabled),
				zap.Int("retention_days", l.RetentionDays),
				zap.Int("bypass_ids", len(l.BypassIDs)),
			)
		}
	}
}
