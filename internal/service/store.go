package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metervision/meter-reading-service/internal/db"
	"github.com/metervision/meter-reading-service/internal/mq"
)

// Store is the persistence boundary the use cases run against. It is
// implemented by repository.Repository.
type Store interface {
	UpsertCustomer(ctx context.Context, code string) error
	CountReadingsForPeriod(ctx context.Context, customerCode string, measureType db.MeasureType, year int, month time.Month) (int, error)
	InsertMeasurement(ctx context.Context, m *db.Measurement) error
	MeasurementExists(ctx context.Context, measureUUID uuid.UUID) (bool, error)
	ConfirmMeasurement(ctx context.Context, measureUUID uuid.UUID, confirmedValue int64) (bool, error)
	ListByCustomer(ctx context.Context, customerCode string, measureType *db.MeasureType) ([]db.Measurement, error)
	RecentValues(ctx context.Context, customerCode string, measureType db.MeasureType, limit int) ([]float64, error)
}

// EventPublisher publishes measurement lifecycle events after commit. A nil
// publisher disables eventing.
type EventPublisher interface {
	PublishMeasurementEvent(ctx context.Context, event mq.MeasurementEvent, routingKey string) error
}
