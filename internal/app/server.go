// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"funkard-admin-service/internal/config"
	"funkard-admin-service/internal/db"
	notifyHandler "funkard-admin-service/internal/handlers/notification"
	ticketHandler "funkard-admin-service/internal/handlers/ticket"
	"funkard-admin-service/internal/middleware"
	"funkard-admin-service/internal/pkg/jwt"
	"funkard-admin-service/internal/pkg/metrics"
	"funkard-admin-service/internal/pkg/ratelimit"
	"funkard-admin-service/internal/pkg/tracing"
	notifyUsecase "funkard-admin-service/internal/service/notification"
	ticketUsecase "funkard-admin-service/internal/service/ticket"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	ServiceName = "funkard-admin"
	Version     = "1.0.0"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	storage  *Storage
	closers  []func()
	shutdown tracing.ShutdownFunc
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Build connects the backends and registers every route.
func (s *Server) Build(ctx context.Context) error {
	logger := s.logger

	// ----- Tracing -----
	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Endpoint:       s.cfg.OTLPEndpoint,
		Environment:    s.cfg.Env,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	s.shutdown = shutdown

	// ----- Storage -----
	storage, err := OpenStorage(ctx, s.cfg, logger)
	if err != nil {
		return err
	}
	s.storage = storage

	// ----- Rate Limiter -----
	limiter, err := s.ticketLimiter(ctx)
	if err != nil {
		return err
	}

	// ----- JWT Verifier -----
	var verifier *jwt.Verifier
	if s.cfg.JWT.PubPath != "" {
		verifier, err = jwt.LoadVerifier(s.cfg.JWT)
		if err != nil {
			return fmt.Errorf("failed to load JWT verifier: %w", err)
		}
	} else {
		logger.Warn("no JWT public key configured, admin actions are recorded as the default actor")
	}

	// ----- Services (Usecases) -----
	notifService := notifyUsecase.NewNotificationService(storage.Notifications, logger)
	ticketService := ticketUsecase.NewTicketService(storage.Tickets, notifService, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		NotifHandler:    notifyHandler.NewNotificationHandler(notifService, s.cfg.CleanupDefaultDays, logger),
		TicketHandler:   ticketHandler.NewTicketHandler(ticketService),
		AuthMiddleware:  middleware.NewAuthMiddleware(verifier, s.cfg.AuthRequired, s.cfg.CronSecret),
		TicketRateLimit: middleware.RateLimit(limiter, logger),
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
		metrics.Middleware(),
	)

	SetupRouter(s.engine, handlers)
	return nil
}

func (s *Server) ticketLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	if s.cfg.RedisAddr == "" {
		s.logger.Info("no Redis configured, ticket rate limit is per process")
		return ratelimit.NewMemoryLimiter(s.cfg.RateLimitTickets, s.cfg.RateLimitWindow), nil
	}

	client, err := db.NewRedisClient(ctx, db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { client.Close() })
	s.logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	return ratelimit.NewRedisLimiter(client, "support_ticket", s.cfg.RateLimitTickets, s.cfg.RateLimitWindow), nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(s.engine, ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Close releases backend connections and flushes traces.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	if s.storage != nil {
		s.storage.Close()
	}
	if s.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.shutdown(ctx); err != nil {
			s.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
}
