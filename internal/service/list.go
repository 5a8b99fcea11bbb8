package service

import (
	"context"
	"time"

	"github.com/metervision/meter-reading-service/internal/config"
	"github.com/metervision/meter-reading-service/internal/db"
	"go.uber.org/zap"
)

// MeasureSummary is one reading in a customer listing.
type MeasureSummary struct {
	MeasureUUID     string
	MeasureDatetime time.Time
	MeasureType     db.MeasureType
	HasConfirmed    bool
	ImageURL        string
}

// ListResult is the customer's reading history, ordered by measurement time.
type ListResult struct {
	CustomerCode string
	Measures     []MeasureSummary
}

// ListService is the read-only query surface over a customer's readings.
type ListService struct {
	store  Store
	cfg    *config.Config
	logger *zap.Logger
}

// NewListService creates a new list service
func NewListService(store Store, cfg *config.Config, logger *zap.Logger) *ListService {
	return &ListService{store: store, cfg: cfg, logger: logger}
}

// List returns the customer's readings, optionally narrowed by meter type.
// The filter is case-insensitive; an unknown type is rejected before the
// store is touched, and an empty result is reported as not-found.
func (s *ListService) List(ctx context.Context, customerCode string, measureTypeFilter string) (*ListResult, error) {
	var filter *db.MeasureType
	if measureTypeFilter != "" {
		measureType, err := db.ParseMeasureType(measureTypeFilter)
		if err != nil {
			return nil, invalidType("measure type not permitted")
		}
		filter = &measureType
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.Database.QueryTimeout)
	defer cancel()

	measurements, err := s.store.ListByCustomer(queryCtx, customerCode, filter)
	if err != nil {
		s.logger.Error("failed to list measurements", zap.Error(err))
		return nil, internal(err)
	}

	if len(measurements) == 0 {
		return nil, notFound(CodeMeasuresNotFound, "no readings found")
	}

	result := &ListResult{
		CustomerCode: customerCode,
		Measures:     make([]MeasureSummary, 0, len(measurements)),
	}
	for _, m := range measurements {
		result.Measures = append(result.Measures, MeasureSummary{
			MeasureUUID:     m.MeasureUUID.String(),
			MeasureDatetime: m.MeasureDatetime,
			MeasureType:     m.MeasureType,
			HasConfirmed:    m.Confirmed,
			ImageURL:        m.ImageURL,
		})
	}

	return result, nil
}
