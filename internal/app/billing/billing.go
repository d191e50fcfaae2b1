// Package billing собирает биллинговый сервис: хранилище, миграции, кеш,
// брокер аудита, клиент платёжного шлюза, бизнес-сервисы и HTTP-сервер.
package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/instatools/billing/internal/cache"
	"github.com/instatools/billing/internal/config"
	"github.com/instatools/billing/internal/lib/jwt"
	"github.com/instatools/billing/internal/lib/rabbitmq"
	"github.com/instatools/billing/internal/migrations"
	"github.com/instatools/billing/internal/paymentprovider"
	billingservice "github.com/instatools/billing/internal/services/billing"
	catalogservice "github.com/instatools/billing/internal/services/catalog"
	webhookservice "github.com/instatools/billing/internal/services/webhook"
	"github.com/instatools/billing/internal/storage/repository"
)

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.AmqpURI, cfg.ConnectRetries, cfg.ConnectDelay)
	if err != nil {
		return nil, err
	}
	ch, err := amqpConn.Channel()
	if err != nil {
		return nil, err
	}
	if err = rabbitmq.DeclareAuditQueues(ch); err != nil {
		return nil, err
	}
	auditPublisher := rabbitmq.NewAuditPublisher(ch)

	gatewayClient := paymentprovider.NewClient(
		cfg.Gateway.APIURL,
		cfg.Gateway.APIKey,
		cfg.Gateway.SuccessURL,
		cfg.Gateway.FailureURL,
		cfg.Gateway.RequestTimeout,
	)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	billingService := billingservice.New(db, gatewayClient, logger)
	webhookService := webhookservice.New(db, auditPublisher, cacheRedis, logger)
	catalogService := catalogservice.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, cfg.Gateway.CallbackToken,
		billingService, webhookService, catalogService, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		a.amqpConn.Close()
		return err
	}
}
