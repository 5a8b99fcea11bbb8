package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/metervision/meter-reading-service/internal/config"
	"github.com/metervision/meter-reading-service/internal/mq"
	"go.uber.org/zap"
)

// ConfirmService applies the captured->confirmed transition. A reading is
// confirmed at most once; there is no way back out of confirmed.
type ConfirmService struct {
	store     Store
	publisher EventPublisher
	cfg       *config.Config
	logger    *zap.Logger
}

// NewConfirmService creates a new confirm service. publisher may be nil when
// event publishing is disabled.
func NewConfirmService(store Store, publisher EventPublisher, cfg *config.Config, logger *zap.Logger) *ConfirmService {
	return &ConfirmService{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Confirm validates the identifier and applies the transition as a single
// conditional update. Zero rows affected resolves to not-found or
// already-confirmed via an existence probe, so concurrent confirmations
// cannot both succeed.
func (s *ConfirmService) Confirm(ctx context.Context, measureUUID string, confirmedValue int64) error {
	// Canonical 8-4-4-4-12 form only; uuid.Parse alone also accepts urn: and
	// braced variants.
	parsed, err := uuid.Parse(measureUUID)
	if err != nil || len(measureUUID) != 36 {
		return invalidData("measure_uuid is not a valid UUID")
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	updated, err := s.store.ConfirmMeasurement(queryCtx, parsed, confirmedValue)
	if err != nil {
		s.logger.Error("failed to confirm measurement", zap.Error(err))
		return internal(err)
	}

	if !updated {
		exists, err := s.store.MeasurementExists(queryCtx, parsed)
		if err != nil {
			s.logger.Error("failed to look up measurement", zap.Error(err))
			return internal(err)
		}
		if !exists {
			return notFound(CodeMeasureNotFound, "reading not found")
		}
		return conflict(CodeConfirmationDup, "reading already confirmed")
	}

	s.publishConfirmed(ctx, measureUUID, confirmedValue)

	s.logger.Info("reading confirmed",
		zap.String("measure_uuid", measureUUID),
		zap.Int64("confirmed_value", confirmedValue),
	)

	return nil
}

func (s *ConfirmService) publishConfirmed(ctx context.Context, measureUUID string, confirmedValue int64) {
	if s.publisher == nil {
		return
	}

	event := mq.MeasurementEvent{
		MeasureUUID:    measureUUID,
		ConfirmedValue: &confirmedValue,
	}

	if err := s.publisher.PublishMeasurementEvent(ctx, event, s.cfg.RabbitMQ.ConfirmedRoutingKey); err != nil {
		s.logger.Error("failed to publish confirmed event",
			zap.Error(err),
			zap.String("measure_uuid", measureUUID),
		)
	}
}
