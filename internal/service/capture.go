package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/metervision/meter-reading-service/internal/anomaly"
	"github.com/metervision/meter-reading-service/internal/config"
	"github.com/metervision/meter-reading-service/internal/db"
	"github.com/metervision/meter-reading-service/internal/imaging"
	"github.com/metervision/meter-reading-service/internal/logging"
	"github.com/metervision/meter-reading-service/internal/mq"
	"github.com/metervision/meter-reading-service/internal/ocr"
	"github.com/metervision/meter-reading-service/internal/repository"
	"github.com/metervision/meter-reading-service/internal/staging"
	"github.com/metervision/meter-reading-service/tools/timeparser"
	"go.uber.org/zap"
)

const recentValuesWindow = 10

// CaptureRequest carries the raw capture submission. Field validation is the
// pipeline's responsibility, so all fields arrive as strings.
type CaptureRequest struct {
	Image           string
	CustomerCode    string
	MeasureDatetime string
	MeasureType     string
}

// CaptureResult is returned after a reading is persisted.
type CaptureResult struct {
	ImageURL     string
	MeasureValue int64
	MeasureUUID  string
}

// CaptureService orchestrates the capture pipeline: decode, duplicate check,
// OCR, highlighted-value selection, persist, staged-artifact cleanup.
type CaptureService struct {
	store     Store
	detector  ocr.TextDetector
	stager    *staging.Stager
	spikes    *anomaly.Detector
	publisher EventPublisher
	cfg       *config.Config
	logger    *zap.Logger
}

// NewCaptureService creates a new capture service. publisher may be nil when
// event publishing is disabled.
func NewCaptureService(
	store Store,
	detector ocr.TextDetector,
	stager *staging.Stager,
	spikes *anomaly.Detector,
	publisher EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *CaptureService {
	return &CaptureService{
		store:     store,
		detector:  detector,
		stager:    stager,
		spikes:    spikes,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Capture runs the full pipeline for one submission. Validation failures and
// the duplicate check surface before any OCR work is done.
func (s *CaptureService) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	reqLogger := logging.WithCustomer(s.logger, req.CustomerCode)

	image, err := imaging.Decode(req.Image)
	if err != nil {
		return nil, invalidData("base64 image data is invalid")
	}

	measureDatetime, err := timeparser.ParseMeasureDatetime(req.MeasureDatetime)
	if err != nil {
		return nil, invalidData("invalid date format")
	}

	measureType, err := db.ParseMeasureType(req.MeasureType)
	if err != nil {
		return nil, invalidData("invalid measure type")
	}

	if err := s.registerCustomer(ctx, req.CustomerCode); err != nil {
		reqLogger.Error("failed to upsert customer", zap.Error(err))
		return nil, internal(err)
	}

	// Cheap duplicate pre-check so repeated submissions short-circuit before
	// the expensive OCR call. The unique index on insert stays authoritative.
	if err := s.checkBillingPeriod(ctx, req.CustomerCode, measureType, measureDatetime); err != nil {
		return nil, err
	}

	imagePath, err := s.stager.Stage(image.Bytes, image.Format)
	if err != nil {
		reqLogger.Error("failed to stage image", zap.Error(err))
		return nil, internal(err)
	}
	defer s.stager.Remove(imagePath)

	ocrCtx, cancel := context.WithTimeout(ctx, s.cfg.Vision.Timeout)
	defer cancel()

	fragments, err := s.detector.DetectText(ocrCtx, imagePath)
	if err != nil {
		reqLogger.Error("text detection failed", zap.Error(err))
		return nil, internal(err)
	}

	measureValue := ocr.SelectHighlighted(fragments, true)
	if measureValue == 0 {
		reqLogger.Warn("no highlighted value found, persisting zero",
			zap.String("image_path", imagePath),
			zap.Int("fragment_count", len(fragments)),
		)
	}

	s.warnOnSpike(ctx, req.CustomerCode, measureType, measureValue, reqLogger)

	measurement := &db.Measurement{
		ID:              uuid.New(),
		MeasureUUID:     uuid.New(),
		CustomerCode:    req.CustomerCode,
		MeasureDatetime: measureDatetime,
		MeasureType:     measureType,
		MeasureValue:    measureValue,
		ImageURL:        imagePath,
	}

	if err := s.insertMeasurement(ctx, measurement); err != nil {
		if errors.Is(err, repository.ErrDuplicateReading) {
			return nil, conflict(CodeDoubleReport, "reading for this month already exists")
		}
		reqLogger.Error("failed to persist measurement", zap.Error(err))
		return nil, internal(err)
	}

	s.publishCaptured(ctx, measurement)

	reqLogger.Info("reading captured",
		zap.String("measure_uuid", measurement.MeasureUUID.String()),
		zap.String("measure_type", string(measureType)),
		zap.Int64("measure_value", measureValue),
	)

	return &CaptureResult{
		ImageURL:     imagePath,
		MeasureValue: measureValue,
		MeasureUUID:  measurement.MeasureUUID.String(),
	}, nil
}

func (s *CaptureService) registerCustomer(ctx context.Context, code string) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()
	return s.store.UpsertCustomer(queryCtx, code)
}

func (s *CaptureService) checkBillingPeriod(ctx context.Context, customerCode string, measureType db.MeasureType, measureDatetime time.Time) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	count, err := s.store.CountReadingsForPeriod(queryCtx, customerCode, measureType, measureDatetime.Year(), measureDatetime.Month())
	if err != nil {
		s.logger.Error("failed to check billing period", zap.Error(err))
		return internal(err)
	}
	if count > 0 {
		return conflict(CodeDoubleReport, "reading for this month already exists")
	}
	return nil
}

func (s *CaptureService) insertMeasurement(ctx context.Context, m *db.Measurement) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()
	return s.store.InsertMeasurement(queryCtx, m)
}

// warnOnSpike compares the extracted value against the customer's recent
// history. Advisory only: the value is persisted and returned unchanged.
func (s *CaptureService) warnOnSpike(ctx context.Context, customerCode string, measureType db.MeasureType, value int64, logger *zap.Logger) {
	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	historicalValues, err := s.store.RecentValues(queryCtx, customerCode, measureType, recentValuesWindow)
	if err != nil {
		logger.Warn("failed to load recent values for spike detection", zap.Error(err))
		return
	}

	if flagged, reason := s.spikes.DetectSpike(float64(value), historicalValues); flagged {
		logger.Warn("extracted value looks anomalous",
			zap.Int64("measure_value", value),
			zap.String("reason", reason),
		)
	}
}

func (s *CaptureService) publishCaptured(ctx context.Context, m *db.Measurement) {
	if s.publisher == nil {
		return
	}

	event := mq.MeasurementEvent{
		MeasureUUID:     m.MeasureUUID.String(),
		CustomerCode:    m.CustomerCode,
		MeasureType:     string(m.MeasureType),
		MeasureValue:    m.MeasureValue,
		MeasureDatetime: m.MeasureDatetime.Format(time.RFC3339),
	}

	if err := s.publisher.PublishMeasurementEvent(ctx, event, s.cfg.RabbitMQ.CapturedRoutingKey); err != nil {
		// Log error but don't fail the request; the row is already committed.
		s.logger.Error("failed to publish captured event",
			zap.Error(err),
			zap.String("measure_uuid", event.MeasureUUID),
		)
	}
}
