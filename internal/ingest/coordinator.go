package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/svattam/sewer-server/internal/alerting"
	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/internal/protocol"
)

// Store is the slice of the storage layer the coordinator writes to.
type Store interface {
	InsertReading(ctx context.Context, r *database.Reading) error
	InsertAlerts(ctx context.Context, alerts []*database.Alert) error
}

// Publisher fans persisted alerts out to the notification pipeline.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Result is the acknowledgment returned to the submitting node.
type Result struct {
	ReadingID  int64
	NodeID     string
	AlertCount int
}

// Coordinator runs one inbound payload through normalize, reading persist,
// rule evaluation and alert persist, in that order.
type Coordinator struct {
	store     Store
	engine    *alerting.Engine
	publisher Publisher // nil when the alert fan-out is disabled
	now       func() time.Time
}

// NewCoordinator creates a coordinator. publisher may be nil.
func NewCoordinator(store Store, engine *alerting.Engine, publisher Publisher) *Coordinator {
	return &Coordinator{
		store:     store,
		engine:    engine,
		publisher: publisher,
		now:       time.Now,
	}
}

// Ingest processes one raw payload. A malformed payload aborts before any
// write. Once the reading is persisted the request is considered accepted:
// alert persistence or publication failures are logged, not surfaced,
// because alerts are derived from the reading and can be regenerated.
func (c *Coordinator) Ingest(ctx context.Context, payload map[string]interface{}) (*Result, error) {
	reading, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	reading.CreatedAt = c.now().UTC()

	if err := c.store.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	alerts := c.engine.Evaluate(reading)
	if len(alerts) > 0 {
		if err := c.store.InsertAlerts(ctx, alerts); err != nil {
			log.Printf("Reading %d accepted but alert insert failed: %v", reading.ID, err)
		} else {
			c.publishAlerts(ctx, reading, alerts)
		}
	}

	return &Result{
		ReadingID:  reading.ID,
		NodeID:     reading.NodeID,
		AlertCount: len(alerts),
	}, nil
}

func (c *Coordinator) publishAlerts(ctx context.Context, reading *database.Reading, alerts []*database.Alert) {
	if c.publisher == nil {
		return
	}

	for _, alert := range alerts {
		event := &protocol.AlertEvent{
			AlertID:   alert.ID,
			ReadingID: reading.ID,
			NodeID:    alert.NodeID,
			Type:      alert.Type,
			Message:   alert.Message,
			Severity:  alert.Severity,
			CreatedAt: alert.CreatedAt,
		}

		data, err := protocol.EncodeAlertEvent(event)
		if err != nil {
			log.Printf("Failed to encode alert event: %v", err)
			continue
		}

		if err := c.publisher.Publish(ctx, alert.NodeID, data); err != nil {
			log.Printf("Failed to publish alert event: %v", err)
		}
	}
}
