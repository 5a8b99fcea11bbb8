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

func newListService(store service.Store) *service.ListService {
	return service.NewListService(store, testConfig(), zap.NewNop())
}

func seedReading(store *fakeStore, customerCode string, measureType db.MeasureType, at time.Time) uuid.UUID {
	measureUUID := uuid.New()
	store.measurements = append(store.measurements, db.Measurement{
		ID:              uuid.New(),
		MeasureUUID:     measureUUID,
		CustomerCode:    customerCode,
		MeasureDatetime: at,
		MeasureType:     measureType,
		MeasureValue:    100,
		ImageURL:        "/tmp/reading.png",
	})
	return measureUUID
}

func TestList_InvalidTypeFilter(t *testing.T) {
	svc := newListService(newFakeStore())

	_, err := svc.List(context.Background(), "CUST1234", "STEAM")
	assertServiceError(t, err, service.KindInvalid, service.CodeInvalidType)
}

func TestList_NoReadings(t *testing.T) {
	svc := newListService(newFakeStore())

	_, err := svc.List(context.Background(), "CUST-EMPTY", "")
	assertServiceError(t, err, service.KindNotFound, service.CodeMeasuresNotFound)
}

func TestList_OrderedByDatetime(t *testing.T) {
	store := newFakeStore()
	later := seedReading(store, "CUST1234", db.MeasureTypeWater, time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC))
	earlier := seedReading(store, "CUST1234", db.MeasureTypeWater, time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC))

	result, err := newListService(store).List(context.Background(), "CUST1234", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Measures) != 2 {
		t.Fatalf("expected 2 measures, got %d", len(result.Measures))
	}
	if result.Measures[0].MeasureUUID != earlier.String() {
		t.Error("expected ascending order by measure_datetime")
	}
	if result.Measures[1].MeasureUUID != later.String() {
		t.Error("expected later reading last")
	}
}

func TestList_FilterByType(t *testing.T) {
	store := newFakeStore()
	seedReading(store, "CUST1234", db.MeasureTypeWater, time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC))
	gas := seedReading(store, "CUST1234", db.MeasureTypeGas, time.Date(2024, 8, 11, 0, 0, 0, 0, time.UTC))

	// Filter is case-insensitive.
	result, err := newListService(store).List(context.Background(), "CUST1234", "gas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Measures) != 1 {
		t.Fatalf("expected 1 measure, got %d", len(result.Measures))
	}
	if result.Measures[0].MeasureUUID != gas.String() {
		t.Error("expected only the gas reading")
	}
	if result.Measures[0].MeasureType != db.MeasureTypeGas {
		t.Errorf("unexpected type %s", result.Measures[0].MeasureType)
	}
}

func TestList_RoundTripAfterCapture(t *testing.T) {
	store := newFakeStore()
	captureSvc := newCaptureService(t, store, &fakeDetector{fragments: meterFragments()}, nil)

	captured, err := captureSvc.Capture(context.Background(), captureRequest())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	result, err := newListService(store).List(context.Background(), "CUST1234", "WATER")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(result.Measures) != 1 {
		t.Fatalf("expected 1 measure, got %d", len(result.Measures))
	}
	m := result.Measures[0]
	if m.MeasureUUID != captured.MeasureUUID {
		t.Errorf("expected uuid %s, got %s", captured.MeasureUUID, m.MeasureUUID)
	}
	if m.MeasureType != db.MeasureTypeWater {
		t.Errorf("unexpected type %s", m.MeasureType)
	}
	if m.HasConfirmed {
		t.Error("freshly captured reading must not be confirmed")
	}
	if m.ImageURL != captured.ImageURL {
		t.Errorf("expected image url %s, got %s", captured.ImageURL, m.ImageURL)
	}
}
