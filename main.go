package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/cache"
	"storefront/pkg/rabbitmq"
	"storefront/pkg/storage"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "storefront",
		Usage: "Storefront REST API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Migrate the database and start the HTTP server",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migration",
				Action: runMigrate,
			},
			{
				Name:  "create-admin",
				Usage: "Create a super admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "Super Admin", Usage: "display name"},
					&cli.StringFlag{Name: "email", Required: true, Usage: "login email"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "login password"},
				},
				Action: runCreateAdmin,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

func runMigrate(ctx context.Context, _ *cli.Command) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("migration complete")
	return nil
}

func runCreateAdmin(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	auth := services.NewAuthService(repositories.NewGORMUserRepository(db),
		cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, log)
	user, err := auth.CreateSuperAdmin(ctx, cmd.String("name"), cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	log.Info("super admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

func runServe(ctx context.Context, _ *cli.Command) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	uploader, err := storage.NewLocalUploader(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		return err
	}

	// Order events and caching are optional; the API runs without them.
	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
		} else {
			defer mq.Close()
			events = mq
			if err := mq.ConsumeOrderEvents(rabbitmq.LogOrderEvents(log)); err != nil {
				log.Warn("failed to start order event consumer", zap.Error(err))
			}
		}
	}

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c, err = cache.Connect(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, log)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer c.Close()
		}
	}

	server := app.New(app.Deps{
		Config:   cfg,
		DB:       db,
		Log:      log,
		Gateway:  app.NewGateway(cfg.Payment),
		Uploader: uploader,
		Cache:    c,
		Events:   events,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", cfg.App.Port),
			zap.String("env", cfg.App.Env),
			zap.String("payment_provider", cfg.Payment.Provider))
		errCh <- server.Listen(cfg.App.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return nil
}
