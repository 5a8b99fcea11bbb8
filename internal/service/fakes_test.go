package service_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metervision/meter-reading-service/internal/anomaly"
	"github.com/metervision/meter-reading-service/internal/config"
	"github.com/metervision/meter-reading-service/internal/db"
	"github.com/metervision/meter-reading-service/internal/mq"
	"github.com/metervision/meter-reading-service/internal/ocr"
	"github.com/metervision/meter-reading-service/internal/repository"
	"github.com/metervision/meter-reading-service/internal/service"
	"github.com/metervision/meter-reading-service/internal/staging"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store that honors the billing-period and
// confirm-once invariants the same way the SQL schema does.
type fakeStore struct {
	customers    map[string]bool
	measurements []db.Measurement
	insertErr    error
	countErr     error
	listErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{customers: make(map[string]bool)}
}

func (f *fakeStore) UpsertCustomer(_ context.Context, code string) error {
	f.customers[code] = true
	return nil
}

func (f *fakeStore) CountReadingsForPeriod(_ context.Context, customerCode string, measureType db.MeasureType, year int, month time.Month) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, m := range f.measurements {
		dt := m.MeasureDatetime.UTC()
		if m.CustomerCode == customerCode && m.MeasureType == measureType && dt.Year() == year && dt.Month() == month {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) InsertMeasurement(_ context.Context, m *db.Measurement) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	dt := m.MeasureDatetime.UTC()
	for _, existing := range f.measurements {
		edt := existing.MeasureDatetime.UTC()
		if existing.CustomerCode == m.CustomerCode && existing.MeasureType == m.MeasureType &&
			edt.Year() == dt.Year() && edt.Month() == dt.Month() {
			return fmt.Errorf("%w: %s/%s", repository.ErrDuplicateReading, m.CustomerCode, m.MeasureType)
		}
	}
	f.measurements = append(f.measurements, *m)
	return nil
}

func (f *fakeStore) MeasurementExists(_ context.Context, measureUUID uuid.UUID) (bool, error) {
	for _, m := range f.measurements {
		if m.MeasureUUID == measureUUID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ConfirmMeasurement(_ context.Context, measureUUID uuid.UUID, confirmedValue int64) (bool, error) {
	for i := range f.measurements {
		if f.measurements[i].MeasureUUID == measureUUID && !f.measurements[i].Confirmed {
			f.measurements[i].Confirmed = true
			f.measurements[i].ConfirmedValue = &confirmedValue
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListByCustomer(_ context.Context, customerCode string, measureType *db.MeasureType) ([]db.Measurement, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []db.Measurement
	for _, m := range f.measurements {
		if m.CustomerCode != customerCode {
			continue
		}
		if measureType != nil && m.MeasureType != *measureType {
			continue
		}
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MeasureDatetime.Before(result[j].MeasureDatetime)
	})
	return result, nil
}

func (f *fakeStore) RecentValues(_ context.Context, customerCode string, measureType db.MeasureType, limit int) ([]float64, error) {
	var values []float64
	for _, m := range f.measurements {
		if m.CustomerCode == customerCode && m.MeasureType == measureType {
			values = append(values, float64(m.MeasureValue))
		}
	}
	if len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

type fakeDetector struct {
	fragments []ocr.Fragment
	err       error
	calls     int
}

func (f *fakeDetector) DetectText(_ context.Context, _ string) ([]ocr.Fragment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fragments, nil
}

type publishedEvent struct {
	event      mq.MeasurementEvent
	routingKey string
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishMeasurementEvent(_ context.Context, event mq.MeasurementEvent, routingKey string) error {
	f.events = append(f.events, publishedEvent{event: event, routingKey: routingKey})
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceName: "meter-reading-service-test",
		Database: config.DatabaseConfig{
			QueryTimeout: time.Second,
		},
		Vision: config.VisionConfig{
			MaxResults: 50,
			Timeout:    time.Second,
		},
		RabbitMQ: config.RabbitMQConfig{
			CapturedRoutingKey:  "meter.reading.captured",
			ConfirmedRoutingKey: "meter.reading.confirmed",
		},
		Anomaly: config.AnomalyConfig{
			SpikeThreshold:            3.0,
			MinDataPointsForDetection: 3,
		},
	}
}

func newCaptureService(t *testing.T, store service.Store, detector ocr.TextDetector, publisher service.EventPublisher) *service.CaptureService {
	t.Helper()
	logger := zap.NewNop()
	cfg := testConfig()
	stager := staging.NewStager(t.TempDir(), logger)
	spikes := anomaly.NewDetector(cfg.Anomaly.SpikeThreshold, cfg.Anomaly.MinDataPointsForDetection)
	return service.NewCaptureService(store, detector, stager, spikes, publisher, cfg, logger)
}

// box builds a rectangular bounding quadrilateral for detector fakes.
func box(width, height int32) []ocr.Vertex {
	return []ocr.Vertex{
		{X: 0, Y: 0},
		{X: width, Y: 0},
		{X: width, Y: height},
		{X: 0, Y: height},
	}
}

func pngPayload() string {
	body := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(body)
}

func assertServiceError(t *testing.T, err error, kind service.Kind, code string) *service.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *service.Error, got %T: %v", err, err)
	}
	if svcErr.Kind != kind {
		t.Errorf("expected kind %d, got %d", kind, svcErr.Kind)
	}
	if svcErr.Code != code {
		t.Errorf("expected code %s, got %s", code, svcErr.Code)
	}
	return svcErr
}
