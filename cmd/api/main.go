package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"counselhub/internal/adapter/api"
	"counselhub/internal/adapter/api/handler"
	apimiddleware "counselhub/internal/adapter/api/middleware"
	"counselhub/internal/adapter/api/router"
	"counselhub/internal/adapter/repository"
	domainrepo "counselhub/internal/domain/repository"
	"counselhub/internal/infrastructure/firebase"
	"counselhub/internal/infrastructure/ratelimit"
	"counselhub/internal/infrastructure/websocket"
	"counselhub/internal/usecase"
	"counselhub/pkg/config"
	"counselhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, accessor, cleanup, err := setupBackend(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize backend", zap.Error(err))
	}
	defer cleanup()

	cols := usecase.LeadCollections{
		DirectContact: cfg.Collections.IntakeLeads,
		MatchRequest:  cfg.Collections.Leads,
		Contacts:      cfg.Collections.LeadContacts,
		Conflicts:     cfg.Collections.LeadConflicts,
	}

	reviewStore := usecase.NewReviewStore(client, cfg.Collections.Reviews)
	leadAggregator := usecase.NewLeadAggregator(client, cols)
	matchRequestUseCase := usecase.NewMatchRequestUseCase(client, cols)
	intakeUseCase := usecase.NewIntakeUseCase(client, cols.DirectContact)

	if err := reviewStore.Start(ctx); err != nil {
		log.Fatal("Failed to subscribe to reviews", zap.Error(err))
	}
	defer reviewStore.Close()
	if err := leadAggregator.Start(ctx); err != nil {
		log.Fatal("Failed to subscribe to leads", zap.Error(err))
	}
	defer leadAggregator.Close()

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)
	unwire := handler.WireFeed(wsManager, reviewStore, leadAggregator)
	defer unwire()

	publicLimiter := ratelimit.NewStore(cfg.PublicRateLimit)
	publicLimiter.StartCleanupRoutine(ctx, 10*time.Minute)

	handlers := handler.New(handler.Deps{
		Reviews:       reviewStore,
		Leads:         leadAggregator,
		MatchRequests: matchRequestUseCase,
		Intake:        intakeUseCase,
		Feed:          wsManager,
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Named("http").Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(accessor)
	router.Setup(e, handlers, authMiddleware, publicLimiter)

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort), zap.String("backend", cfg.CollectionBackend))
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// setupBackend picks the collection store and the identity accessor. The memory
// backend needs no credentials and only accepts the configured dev tokens.
func setupBackend(ctx context.Context, cfg *config.Config) (domainrepo.CollectionClient, apimiddleware.IdentityAccessor, func(), error) {
	var devTokens *firebase.StaticTokens
	if cfg.DevAuthEnabled() && len(cfg.DevTokens) > 0 {
		devTokens = firebase.NewStaticTokens(cfg.DevTokens)
	}

	if cfg.CollectionBackend == config.BackendMemory {
		if devTokens == nil {
			return repository.NewMemoryCollectionClient(), firebase.NewChain(), func() {}, nil
		}
		return repository.NewMemoryCollectionClient(), firebase.NewChain(devTokens), func() {}, nil
	}

	var opt option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			return nil, nil, nil, err
		}
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		return nil, nil, nil, err
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { firestoreClient.Close() }

	client := repository.NewFirestoreCollectionClient(firestoreClient, cfg.SubscriptionMaxBackoff)
	firebaseAuth := firebase.NewFirebaseAuthClient(authClient)
	if devTokens == nil {
		return client, firebase.NewChain(firebaseAuth), cleanup, nil
	}
	return client, firebase.NewChain(devTokens, firebaseAuth), cleanup, nil
}
