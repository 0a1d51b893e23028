package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/farconnect/attestation-service/internal/api/http"
	"github.com/farconnect/attestation-service/internal/api/http/handlers"
	"github.com/farconnect/attestation-service/internal/auth"
	"github.com/farconnect/attestation-service/internal/config"
	"github.com/farconnect/attestation-service/internal/domain"
	"github.com/farconnect/attestation-service/internal/events"
	"github.com/farconnect/attestation-service/internal/observability"
	"github.com/farconnect/attestation-service/internal/persistence"
	"github.com/farconnect/attestation-service/internal/ratelimit"
	"github.com/farconnect/attestation-service/internal/repository"
	"github.com/farconnect/attestation-service/internal/service"
	"github.com/farconnect/attestation-service/internal/zupass"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	verificationRepo := repository.NewVerificationRepository(pool)

	binding := domain.EventBinding{
		EventID:         cfg.Zupass.EventID,
		EventName:       cfg.Zupass.EventName,
		IssuerPublicKey: cfg.Zupass.IssuerPublicKey,
	}

	// The proof system is constructed once here and injected everywhere it
	// is needed; no package-level initialization state.
	proofSystem := zupass.NewProverClient(cfg.Zupass.ProverURL, logger)
	verifier := zupass.NewVerifier(proofSystem, binding, cfg.Zupass.VerifyTimeout(), logger, metrics)
	nonces := zupass.NewNonceRegistry(redis.Client, cfg.Zupass.NonceTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Realtime.WebhookURL)
	notificationService.RegisterHandlers()

	verificationService := service.NewVerificationService(binding, service.VerificationDependencies{
		Verifier:         verifier,
		ProofSystem:      proofSystem,
		NonceRegistry:    nonces,
		UserRepo:         userRepo,
		VerificationRepo: verificationRepo,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Realtime.JWTSecret, cfg.Realtime.Audience, cfg.Realtime.TokenTTL())
	tokenService := service.NewTokenService(userRepo, tokenManager, cfg.Realtime.Audience, dispatcher, logger)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	verifyLimiter := ratelimit.NewLimiter(redis.Client, "ratelimit:verify",
		cfg.RateLimit.VerifyLimit, cfg.RateLimit.VerifyWindow(), logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Zupass:         handlers.NewZupassHandler(verificationService),
		Realtime:       handlers.NewRealtimeHandler(tokenService),
		Users:          handlers.NewUsersHandler(userRepo),
		AuthMiddleware: authMiddleware,
		VerifyLimiter:  verifyLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
