package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/audito/internal/adapters/events"
	"github.com/atvirokodosprendimai/audito/internal/adapters/httpapi"
	sqliteadapter "github.com/atvirokodosprendimai/audito/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/audito/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/audito/internal/config"
	"github.com/atvirokodosprendimai/audito/internal/core/domain"
	"github.com/atvirokodosprendimai/audito/internal/core/ports"
	"github.com/atvirokodosprendimai/audito/internal/core/usecase"
	"github.com/atvirokodosprendimai/audito/internal/lifecycle"
	"github.com/atvirokodosprendimai/audito/migrations"
)

type Config struct {
	Addr             string
	DBPath           string
	ContentTypesPath string
	AuditModelUID    string
	WatchPrefix      string

	BootstrapAdminKey  string
	BootstrapIngestKey string

	WebhookURL     string
	WebhookSecret  string
	WebhookTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	CaptureQueueSize int
	CaptureWorkers   int
	InsertTimeout    time.Duration

	Logger *zap.Logger
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Server is the assembled service. Hub is exposed so an embedding host can
// dispatch mutations in-process instead of over HTTP.
type Server struct {
	HTTP    *http.Server
	Hub     *lifecycle.Hub
	Capture *usecase.Capture
}

func NewServer(ctx context.Context, cfg Config) (*Server, io.Closer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, err := loadRegistry(cfg.ContentTypesPath, logger)
	if err != nil {
		return nil, nil, err
	}

	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	auditRepo := sqliteadapter.NewAuditRepository(db)
	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)

	if err := bootstrapKeys(ctx, apiKeyRepo, cfg); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	notifiers := []ports.RecordNotifier{events.NewLogNotifier(logger)}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, events.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout))
	}
	var kafka *events.KafkaNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = events.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		notifiers = append(notifiers, kafka)
	}

	auditUID := cfg.AuditModelUID
	if auditUID == "" {
		auditUID = domain.AuditModelUID
	}
	prefix := cfg.WatchPrefix
	if prefix == "" {
		prefix = domain.AppModelPrefix
	}
	watched := registry.Watched(auditUID, prefix)
	logger.Info("audit capture configured",
		zap.Int("content_types", registry.Len()),
		zap.Strings("watched", watched.Models()),
	)

	capture := usecase.NewCapture(registry, watched, auditRepo, logger,
		usecase.WithQueueSize(cfg.CaptureQueueSize),
		usecase.WithWorkers(cfg.CaptureWorkers),
		usecase.WithInsertTimeout(cfg.InsertTimeout),
		usecase.WithNotifiers(notifiers...),
		usecase.WithCaptureMetrics(usecase.NewCaptureMetrics(metricsRegistry)),
	)
	capture.Start(context.Background())

	hub := lifecycle.NewHub(logger)
	capture.Register(hub)

	handler := httpapi.NewHandler(
		usecase.NewQueryService(auditRepo),
		usecase.NewAuthService(apiKeyRepo),
		hub,
		httpapi.WithLogger(logger),
		httpapi.WithGatherer(metricsRegistry),
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	closers := []io.Closer{capture}
	if kafka != nil {
		closers = append(closers, kafka)
	}
	closers = append(closers, db)
	return &Server{HTTP: server, Hub: hub, Capture: capture}, resourceCloser{closers: closers}, nil
}

func loadRegistry(path string, logger *zap.Logger) (*domain.Registry, error) {
	if path == "" {
		logger.Warn("no content types file configured; nothing will be audited")
		return domain.NewRegistry(nil), nil
	}
	return config.LoadRegistry(path)
}

func bootstrapKeys(ctx context.Context, repo *sqliteadapter.APIKeyRepository, cfg Config) error {
	keys := []struct {
		token string
		name  string
		role  domain.Role
	}{
		{cfg.BootstrapAdminKey, "bootstrap-admin", domain.RoleAdmin},
		{cfg.BootstrapIngestKey, "bootstrap-ingest", domain.RoleIngest},
	}
	for _, k := range keys {
		if k.token == "" {
			continue
		}
		bootstrapCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := repo.Upsert(bootstrapCtx, domain.APIKey{
			TokenHash: usecase.HashToken(k.token),
			Name:      k.name,
			Role:      k.role,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		})
		cancel()
		if err != nil {
			return fmt.Errorf("bootstrap %s api key: %w", k.role, err)
		}
	}
	return nil
}
