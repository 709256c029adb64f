package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/audito/internal/app"
	"github.com/atvirokodosprendimai/audito/internal/core/domain"
	"github.com/atvirokodosprendimai/audito/internal/platform/logger"
)

func main() {
	// A missing .env is fine; flags and the real environment still apply.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "audito",
		Usage: "Append-only audit trail for content mutations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("AUDITO_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./audito.sqlite",
				Sources: cli.EnvVars("AUDITO_DB_PATH"),
				Usage:   "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "content-types",
				Sources: cli.EnvVars("AUDITO_CONTENT_TYPES"),
				Usage:   "YAML file describing the host content types",
			},
			&cli.StringFlag{
				Name:    "audit-model",
				Value:   domain.AuditModelUID,
				Sources: cli.EnvVars("AUDITO_AUDIT_MODEL"),
				Usage:   "UID of the audit record model, never audited itself",
			},
			&cli.StringFlag{
				Name:    "watch-prefix",
				Value:   domain.AppModelPrefix,
				Sources: cli.EnvVars("AUDITO_WATCH_PREFIX"),
				Usage:   "Only content types with this UID prefix are audited",
			},
			&cli.StringFlag{
				Name:    "bootstrap-admin-key",
				Sources: cli.EnvVars("AUDITO_BOOTSTRAP_ADMIN_KEY"),
				Usage:   "Optional admin API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-ingest-key",
				Sources: cli.EnvVars("AUDITO_BOOTSTRAP_INGEST_KEY"),
				Usage:   "Optional ingest API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("AUDITO_WEBHOOK_URL"),
				Usage:   "Webhook receiving a notification for every stored audit record",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("AUDITO_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
			&cli.DurationFlag{
				Name:    "webhook-timeout",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("AUDITO_WEBHOOK_TIMEOUT"),
				Usage:   "Timeout for a single webhook request",
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Sources: cli.EnvVars("AUDITO_KAFKA_BROKERS"),
				Usage:   "Kafka seed brokers; enables publishing audit records",
			},
			&cli.StringFlag{
				Name:    "kafka-topic",
				Value:   "audito.records",
				Sources: cli.EnvVars("AUDITO_KAFKA_TOPIC"),
				Usage:   "Kafka topic for audit record notifications",
			},
			&cli.IntFlag{
				Name:    "capture-queue",
				Value:   1024,
				Sources: cli.EnvVars("AUDITO_CAPTURE_QUEUE"),
				Usage:   "Pending mutations buffered before new ones are dropped",
			},
			&cli.IntFlag{
				Name:    "capture-workers",
				Value:   4,
				Sources: cli.EnvVars("AUDITO_CAPTURE_WORKERS"),
				Usage:   "Concurrent audit record writers",
			},
			&cli.DurationFlag{
				Name:    "insert-timeout",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("AUDITO_INSERT_TIMEOUT"),
				Usage:   "Timeout for writing a single audit record",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("AUDITO_LOG_LEVEL"),
				Usage:   "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:    "log-dev",
				Sources: cli.EnvVars("AUDITO_LOG_DEV"),
				Usage:   "Human-readable console logs",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Sources: cli.EnvVars("AUDITO_LOG_FILE"),
				Usage:   "Also write JSON logs to this rotated file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log, err := logger.New(logger.Options{
				Level:       c.String("log-level"),
				Development: c.Bool("log-dev"),
				File:        c.String("log-file"),
				MaxBackups:  3,
				MaxAgeDays:  28,
			})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			zap.ReplaceGlobals(log)

			cfg := app.Config{
				Addr:               c.String("addr"),
				DBPath:             c.String("db-path"),
				ContentTypesPath:   c.String("content-types"),
				AuditModelUID:      c.String("audit-model"),
				WatchPrefix:        c.String("watch-prefix"),
				BootstrapAdminKey:  c.String("bootstrap-admin-key"),
				BootstrapIngestKey: c.String("bootstrap-ingest-key"),
				WebhookURL:         c.String("webhook-url"),
				WebhookSecret:      c.String("webhook-secret"),
				WebhookTimeout:     c.Duration("webhook-timeout"),
				KafkaBrokers:       c.StringSlice("kafka-brokers"),
				KafkaTopic:         c.String("kafka-topic"),
				CaptureQueueSize:   int(c.Int("capture-queue")),
				CaptureWorkers:     int(c.Int("capture-workers")),
				InsertTimeout:      c.Duration("insert-timeout"),
				Logger:             log,
			}

			srv, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Error("close resources", zap.Error(closeErr))
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", cfg.Addr))
				errCh <- srv.HTTP.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.HTTP.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Info("received signal", zap.String("signal", sig.String()))
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.HTTP.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
