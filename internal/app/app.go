package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/godilite/perception-server/internal/config"
	handler "github.com/godilite/perception-server/internal/grpc"
	"github.com/godilite/perception-server/internal/jobs"
	"github.com/godilite/perception-server/internal/metrics"
	"github.com/godilite/perception-server/internal/repository"
	"github.com/godilite/perception-server/internal/service"
	"github.com/godilite/perception-server/pkg/cache"
	dbbuilder "github.com/godilite/perception-server/pkg/database"
	"github.com/godilite/perception-server/pkg/events"
	grpcsrv "github.com/godilite/perception-server/pkg/grpc/server"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

type App struct {
	logger          *zap.Logger
	dbPool          *sql.DB
	cache           *cache.Cache
	publisher       eventPublisher
	grpcServer      *grpcsrv.Server
	metricsServer   *http.Server
	metricsLis      net.Listener
	scheduler       *jobs.Scheduler
	shutdownTimeout time.Duration
}

type Option func(*appOptions)

type appOptions struct {
	grpcListener net.Listener
}

// WithGRPCListener serves gRPC on lis instead of the configured port.
func WithGRPCListener(lis net.Listener) Option {
	return func(o *appOptions) { o.grpcListener = lis }
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	var options appOptions
	for _, opt := range opts {
		opt(&options)
	}

	a := &App{logger: logger, shutdownTimeout: cfg.ShutdownTimeout}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	dsn := cfg.DBPath
	if cfg.DBDriver == "sqlite3" {
		if err = ensureDir(dsn); err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		dsn = dbbuilder.SQLiteDSN(dsn)
	}

	a.dbPool, err = dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(dsn),
		dbbuilder.WithMigrations(repository.Migrate),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	// Stays nil without Redis; handlers then fetch directly.
	var reportCache handler.Cacher
	if cfg.CacheEnabled() {
		a.cache, err = cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
		)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		reportCache = a.cache
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Report cache disabled")
	}

	if cfg.EventsEnabled() {
		a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, events.WithLogger(logger))
		logger.Info("Kafka publisher initialized",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		a.publisher = events.NopPublisher{}
	}

	feedbackRepo := repository.NewFeedbackRepository(a.dbPool)
	feedbackService := service.NewFeedbackService(feedbackRepo, a.publisher, logger.Named("feedback-service"))

	grpcHandlers := handler.NewGRPCHandlers(feedbackService, reportCache, logger, cfg.CacheTTL)

	serverOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithUnaryInterceptors(metrics.UnaryServerInterceptor()),
	}
	if options.grpcListener != nil {
		serverOpts = append(serverOpts, grpcsrv.WithListener(options.grpcListener))
	}

	a.grpcServer, err = grpcsrv.New(serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	a.grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterMarketPerceptionServer(s, grpcHandlers)
	})

	if cfg.MetricsPort > 0 {
		a.metricsLis, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.MetricsPort))
		if err != nil {
			return nil, fmt.Errorf("failed to listen on metrics port %d: %w", cfg.MetricsPort, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	a.scheduler = jobs.NewScheduler(logger)
	backlog := jobs.NewBacklogJob(feedbackService, metrics.ModerationBacklog, cfg.BacklogWarnThreshold, logger)
	if err = a.scheduler.Add("moderation-backlog", cfg.BacklogSchedule, backlog); err != nil {
		return nil, err
	}

	return a, nil
}

// GRPCAddr returns the address the gRPC server listens on.
func (a *App) GRPCAddr() net.Addr {
	return a.grpcServer.Addr()
}

// Start launches the gRPC server, the metrics endpoint and the scheduler without blocking.
func (a *App) Start() {
	a.logger.Info("application starting")

	a.grpcServer.Start()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Serve(a.metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		a.logger.Info("metrics server started", zap.String("addr", a.metricsLis.Addr().String()))
	}

	a.scheduler.Start()
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	err := a.Shutdown(ctx)
	_ = a.logger.Sync()
	return err
}

// Shutdown stops accepting work, drains in-flight calls and releases every resource.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("application shutting down")

	// Load balancers stop routing here before in-flight calls drain.
	a.grpcServer.SetServiceHealth(handler.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	var errs []error

	if err := a.grpcServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
	}

	a.closeResources()

	if ctx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else if len(errs) == 0 {
		a.logger.Info("graceful shutdown completed successfully")
	}

	return errors.Join(errs...)
}

func (a *App) closeResources() {
	if a.metricsLis != nil {
		_ = a.metricsLis.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("event publisher shutdown error", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
	}
}

func ensureDir(path string) error {
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
