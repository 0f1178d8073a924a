package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/pkg/config"
)

// Store is the slice of the storage layer the aggregator reads from.
type Store interface {
	LatestReading(ctx context.Context) (*database.Reading, error)
	RecentReadings(ctx context.Context, limit int) ([]*database.Reading, error)
	RecentAlerts(ctx context.Context, limit int) ([]*database.Alert, error)
	NodesLastSeen(ctx context.Context) ([]*database.NodeLastSeen, error)
}

// ReadingView is one reading as serialized for the dashboard client.
type ReadingView struct {
	ID          int64     `json:"id"`
	NodeID      string    `json:"node_id"`
	CreatedAt   time.Time `json:"created_at"`
	HealthScore int       `json:"health_score"`
	MQ4         float64   `json:"mq4"`
	MQ7         float64   `json:"mq7"`
	MQ135       float64   `json:"mq135"`
	WaterLevel  float64   `json:"water_level"`
}

// AlertView is one alert as serialized for the dashboard client.
type AlertView struct {
	ID           int64     `json:"id"`
	NodeID       string    `json:"node_id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Severity     string    `json:"severity"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// NodeView is one derived node entry. Location is always null; there is no
// location tracking.
type NodeView struct {
	NodeID   string    `json:"node_id"`
	Location *string   `json:"location"`
	LastSeen time.Time `json:"last_seen"`
	Status   string    `json:"status"`
}

// Snapshot is the aggregated read model served to the dashboard. Field
// names are part of the client contract.
type Snapshot struct {
	Latest    *ReadingView  `json:"latest"`
	History   []ReadingView `json:"history"`
	Alerts    []AlertView   `json:"alerts"`
	Nodes     []NodeView    `json:"nodes"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Aggregator composes the four dashboard sub-queries into one snapshot.
// Each sub-query reads the storage layer's latest committed state
// independently; the snapshot is not atomic with concurrent ingestion.
type Aggregator struct {
	store Store
	cfg   config.DashboardConfig
	now   func() time.Time
}

// NewAggregator creates an aggregator bound to one store and limit config.
func NewAggregator(store Store, cfg config.DashboardConfig) *Aggregator {
	return &Aggregator{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Snapshot builds one read-model snapshot. Read-only, no side effects.
func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := a.now().UTC()

	latest, err := a.store.LatestReading(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}

	readings, err := a.store.RecentReadings(ctx, a.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading history: %w", err)
	}

	alerts, err := a.store.RecentAlerts(ctx, a.cfg.AlertsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}

	nodes, err := a.store.NodesLastSeen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	snapshot := &Snapshot{
		Latest:    readingView(latest),
		History:   historyView(readings, a.cfg.HistoryLimit),
		Alerts:    alertFeedView(alerts),
		Nodes:     nodesView(nodes, now, a.cfg.OfflineAfter),
		UpdatedAt: now,
	}

	return snapshot, nil
}

func readingView(r *database.Reading) *ReadingView {
	if r == nil {
		return nil
	}
	return &ReadingView{
		ID:          r.ID,
		NodeID:      r.NodeID,
		CreatedAt:   r.CreatedAt,
		HealthScore: r.HealthScore,
		MQ4:         r.MQ4,
		MQ7:         r.MQ7,
		MQ135:       r.MQ135,
		WaterLevel:  r.WaterLevel,
	}
}

// historyView orders readings newest-first and enforces the history cap.
func historyView(readings []*database.Reading, limit int) []ReadingView {
	history := make([]ReadingView, 0, len(readings))
	for _, r := range readings {
		history = append(history, *readingView(r))
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})

	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}

	return history
}

// alertFeedView orders alerts with unacknowledged ones first, newest first
// within each acknowledgment group.
func alertFeedView(alerts []*database.Alert) []AlertView {
	feed := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		feed = append(feed, AlertView{
			ID:           a.ID,
			NodeID:       a.NodeID,
			Type:         a.Type,
			Message:      a.Message,
			Severity:     a.Severity,
			Acknowledged: a.Acknowledged,
			CreatedAt:    a.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if feed[i].Acknowledged != feed[j].Acknowledged {
			return !feed[i].Acknowledged
		}
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})

	return feed
}

func nodesView(nodes []*database.NodeLastSeen, now time.Time, offlineAfter time.Duration) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NodeView{
			NodeID:   n.NodeID,
			LastSeen: n.LastSeen,
			Status:   Classify(n.LastSeen, now, offlineAfter),
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].NodeID < views[j].NodeID
	})

	return views
}
