package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/metervision/meter-reading-service/internal/anomaly"
	"github.com/metervision/meter-reading-service/internal/config"
	"github.com/metervision/meter-reading-service/internal/db"
	"github.com/metervision/meter-reading-service/internal/httpapi"
	"github.com/metervision/meter-reading-service/internal/mq"
	"github.com/metervision/meter-reading-service/internal/ocr"
	"github.com/metervision/meter-reading-service/internal/repository"
	"github.com/metervision/meter-reading-service/internal/service"
	"github.com/metervision/meter-reading-service/internal/staging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	return db.RunMigrations(cfg.Database.URL, logger)
}

func startServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, server *httpapi.Server) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServicePort),
		Handler: server.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting http server", zap.Int("port", cfg.ServicePort))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("failed to shut down http server", zap.Error(err))
				return err
			}
			logger.Info("http server stopped gracefully")
			return nil
		},
	})
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL, int32(cfg.Database.MaxConns))
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideVisionGateway creates the Google Vision text detector
func ProvideVisionGateway(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*ocr.VisionGateway, error) {
	return ocr.NewVisionGateway(lc, logger, cfg.Vision.CredentialsFile, cfg.Vision.MaxResults)
}

// ProvideStager creates the staging area for OCR input files
func ProvideStager(cfg *config.Config, logger *zap.Logger) *staging.Stager {
	return staging.NewStager(cfg.Staging.Dir, logger)
}

// ProvideAnomalyDetector creates a new anomaly detector instance
func ProvideAnomalyDetector(cfg *config.Config) *anomaly.Detector {
	return anomaly.NewDetector(cfg.Anomaly.SpikeThreshold, cfg.Anomaly.MinDataPointsForDetection)
}

// ProvideMQConnection creates a RabbitMQ connection. Eventing is optional:
// when RABBITMQ_URL is unset the connection is nil and events are disabled.
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, event publishing disabled")
		return nil, nil
	}
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the event publisher when a broker is configured
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	if conn == nil {
		return nil, nil
	}
	return mq.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, logger)
}

// ProvideCaptureService creates the capture pipeline
func ProvideCaptureService(
	repo *repository.Repository,
	gateway *ocr.VisionGateway,
	stager *staging.Stager,
	spikes *anomaly.Detector,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.CaptureService {
	return service.NewCaptureService(repo, gateway, stager, spikes, asEventPublisher(publisher), cfg, logger)
}

// ProvideConfirmService creates the confirmation workflow
func ProvideConfirmService(
	repo *repository.Repository,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.ConfirmService {
	return service.NewConfirmService(repo, asEventPublisher(publisher), cfg, logger)
}

// ProvideListService creates the listing query service
func ProvideListService(repo *repository.Repository, cfg *config.Config, logger *zap.Logger) *service.ListService {
	return service.NewListService(repo, cfg, logger)
}

// ProvideHTTPServer creates the HTTP server facade
func ProvideHTTPServer(
	capture *service.CaptureService,
	confirm *service.ConfirmService,
	list *service.ListService,
	logger *zap.Logger,
) *httpapi.Server {
	return httpapi.NewServer(capture, confirm, list, logger)
}

// asEventPublisher keeps a nil *mq.Publisher nil as an interface value, so
// the services' nil checks work.
func asEventPublisher(publisher *mq.Publisher) service.EventPublisher {
	if publisher == nil {
		return nil
	}
	return publisher
}
