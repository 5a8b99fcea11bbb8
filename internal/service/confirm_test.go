package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metervision/meter-reading-service/internal/db"
	"github.com/metervision/meter-reading-service/internal/service"
	"go.uber.org/zap"
)

func newConfirmService(store service.Store, publisher service.EventPublisher) *service.ConfirmService {
	return service.NewConfirmService(store, publisher, testConfig(), zap.NewNop())
}

func seedUnconfirmed(store *fakeStore) uuid.UUID {
	measureUUID := uuid.New()
	store.measurements = append(store.measurements, db.Measurement{
		ID:              uuid.New(),
		MeasureUUID:     measureUUID,
		CustomerCode:    "CUST1234",
		MeasureDatetime: time.Date(2024, 8, 29, 14, 0, 0, 0, time.UTC),
		MeasureType:     db.MeasureTypeWater,
		MeasureValue:    200,
	})
	return measureUUID
}

func TestConfirm_Success(t *testing.T) {
	store := newFakeStore()
	measureUUID := seedUnconfirmed(store)
	svc := newConfirmService(store, nil)

	if err := svc.Confirm(context.Background(), measureUUID.String(), 123); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := store.measurements[0]
	if !m.Confirmed {
		t.Error("expected reading to be confirmed")
	}
	if m.ConfirmedValue == nil || *m.ConfirmedValue != 123 {
		t.Errorf("expected confirmed_value 123, got %v", m.ConfirmedValue)
	}
}

func TestConfirm_SecondConfirmationConflicts(t *testing.T) {
	store := newFakeStore()
	measureUUID := seedUnconfirmed(store)
	svc := newConfirmService(store, nil)

	if err := svc.Confirm(context.Background(), measureUUID.String(), 123); err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}

	err := svc.Confirm(context.Background(), measureUUID.String(), 456)
	assertServiceError(t, err, service.KindConflict, service.CodeConfirmationDup)

	// The original confirmation must be untouched.
	if *store.measurements[0].ConfirmedValue != 123 {
		t.Errorf("confirmed_value changed to %d", *store.measurements[0].ConfirmedValue)
	}
}

func TestConfirm_NotFound(t *testing.T) {
	svc := newConfirmService(newFakeStore(), nil)

	err := svc.Confirm(context.Background(), "00000000-0000-0000-0000-000000000000", 123)
	assertServiceError(t, err, service.KindNotFound, service.CodeMeasureNotFound)
}

func TestConfirm_InvalidUUID(t *testing.T) {
	store := newFakeStore()
	svc := newConfirmService(store, nil)

	for _, bad := range []string{
		"not-a-uuid",
		"",
		"urn:uuid:550e8400-e29b-41d4-a716-446655440000",
		"{550e8400-e29b-41d4-a716-446655440000}",
	} {
		err := svc.Confirm(context.Background(), bad, 123)
		assertServiceError(t, err, service.KindInvalid, service.CodeInvalidData)
	}
}

func TestConfirm_PublishesEvent(t *testing.T) {
	store := newFakeStore()
	measureUUID := seedUnconfirmed(store)
	publisher := &fakePublisher{}
	svc := newConfirmService(store, publisher)

	if err := svc.Confirm(context.Background(), measureUUID.String(), 321); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.routingKey != "meter.reading.confirmed" {
		t.Errorf("unexpected routing key %s", event.routingKey)
	}
	if event.event.ConfirmedValue == nil || *event.event.ConfirmedValue != 321 {
		t.Errorf("unexpected confirmed value in event: %v", event.event.ConfirmedValue)
	}
}
