package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/svattam/sewer-server/internal/alerting"
	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/pkg/config"
)

type fakeStore struct {
	readings   []*database.Reading
	alerts     []*database.Alert
	readingErr error
	alertErr   error
	nextID     int64
}

func (s *fakeStore) InsertReading(ctx context.Context, r *database.Reading) error {
	if s.readingErr != nil {
		return s.readingErr
	}
	s.nextID++
	r.ID = s.nextID
	s.readings = append(s.readings, r)
	return nil
}

func (s *fakeStore) InsertAlerts(ctx context.Context, alerts []*database.Alert) error {
	if s.alertErr != nil {
		return s.alertErr
	}
	s.alerts = append(s.alerts, alerts...)
	return nil
}

type fakePublisher struct {
	published [][]byte
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, value)
	return nil
}

func testEngine() *alerting.Engine {
	return alerting.NewEngine(config.ThresholdConfig{
		MQ4Warn: 500, MQ4Danger: 2000,
		MQ7Warn: 30, MQ7Danger: 100,
		MQ135Warn: 5, MQ135Danger: 20,
		WaterWarn: 70, WaterDanger: 90,
		HealthDanger: 50, HealthWarn: 70,
	})
}

func TestIngest_DangerousReadingPersistsReadingAndAlerts(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, testEngine(), nil)

	result, err := c.Ingest(context.Background(), map[string]interface{}{
		"node_id":      "N1",
		"mq4":          2500.0,
		"health_score": 40.0,
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(store.readings) != 1 {
		t.Fatalf("Expected 1 reading, got %d", len(store.readings))
	}
	r := store.readings[0]
	if r.MQ4 != 2500 || r.HealthScore != 40 {
		t.Errorf("Reading not normalized as expected: %+v", r)
	}
	if r.CreatedAt.IsZero() || r.CreatedAt.Location() != time.UTC {
		t.Errorf("Expected coordinator-assigned UTC timestamp, got %v", r.CreatedAt)
	}

	if len(store.alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(store.alerts))
	}
	if store.alerts[0].Type != database.AlertTypeCH4 || store.alerts[0].Severity != database.SeverityDanger {
		t.Errorf("Expected CH4 danger first, got %+v", store.alerts[0])
	}
	if store.alerts[1].Type != database.AlertTypeSafety || store.alerts[1].Severity != database.SeverityDanger {
		t.Errorf("Expected Safety danger second, got %+v", store.alerts[1])
	}

	if result.ReadingID != r.ID || result.AlertCount != 2 {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestIngest_DefaultsProduceNoAlerts(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, testEngine(), nil)

	result, err := c.Ingest(context.Background(), map[string]interface{}{"node_id": "N2"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(store.readings) != 1 {
		t.Fatalf("Expected 1 reading, got %d", len(store.readings))
	}
	r := store.readings[0]
	if r.MQ4 != 0 || r.MQ7 != 0 || r.MQ135 != 0 || r.WaterLevel != 0 || r.HealthScore != 100 {
		t.Errorf("Expected all-default reading, got %+v", r)
	}
	if len(store.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(store.alerts))
	}
	if result.AlertCount != 0 {
		t.Errorf("Expected alert count 0, got %d", result.AlertCount)
	}
}

func TestIngest_MalformedPayloadWritesNothing(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, testEngine(), nil)

	_, err := c.Ingest(context.Background(), nil)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Expected ErrMalformedPayload, got %v", err)
	}

	if len(store.readings) != 0 || len(store.alerts) != 0 {
		t.Errorf("Malformed payload must not persist anything: %d readings, %d alerts",
			len(store.readings), len(store.alerts))
	}
}

func TestIngest_ReadingInsertFailureSurfaces(t *testing.T) {
	store := &fakeStore{readingErr: errors.New("connection refused")}
	c := NewCoordinator(store, testEngine(), nil)

	if _, err := c.Ingest(context.Background(), map[string]interface{}{"node_id": "N1"}); err == nil {
		t.Fatal("Expected error when reading insert fails")
	}
}

// Alerts are derived data: once the reading is in, a failed alert write is
// logged but the submission still succeeds.
func TestIngest_AlertInsertFailureStillAcknowledges(t *testing.T) {
	store := &fakeStore{alertErr: errors.New("connection refused")}
	c := NewCoordinator(store, testEngine(), nil)

	result, err := c.Ingest(context.Background(), map[string]interface{}{
		"node_id": "N1",
		"mq4":     2500.0,
	})
	if err != nil {
		t.Fatalf("Expected success despite alert insert failure, got %v", err)
	}
	if len(store.readings) != 1 {
		t.Errorf("Expected reading to be persisted, got %d", len(store.readings))
	}
	if result.AlertCount != 1 {
		t.Errorf("Expected alert count 1, got %d", result.AlertCount)
	}
}

func TestIngest_PublishesPersistedAlerts(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{}
	c := NewCoordinator(store, testEngine(), publisher)

	if _, err := c.Ingest(context.Background(), map[string]interface{}{
		"node_id": "N1",
		"mq4":     2500.0,
	}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(publisher.published))
	}
}

func TestIngest_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	c := NewCoordinator(store, testEngine(), publisher)

	if _, err := c.Ingest(context.Background(), map[string]interface{}{
		"node_id": "N1",
		"mq4":     2500.0,
	}); err != nil {
		t.Fatalf("Expected success despite publish failure, got %v", err)
	}
}
