package database

import (
	"time"
)

// Reading is one telemetry sample from a field node. Rows are append-only
// and never mutated after insert.
type Reading struct {
	ID          int64
	NodeID      string
	MQ4         float64
	MQ7         float64
	MQ135       float64
	WaterLevel  float64
	HealthScore int
	CreatedAt   time.Time
}

// Alert is an operator-facing notification derived from one reading.
// Acknowledged is the only field ever updated in place.
type Alert struct {
	ID           int64
	NodeID       string
	Type         string
	Message      string
	Severity     string
	Acknowledged bool
	CreatedAt    time.Time
}

// NodeLastSeen is one row of the derived node view: a node id and the
// timestamp of its most recent reading.
type NodeLastSeen struct {
	NodeID   string
	LastSeen time.Time
}

// Alert types, one per monitored metric plus the health-score tier.
const (
	AlertTypeCH4    = "CH4"
	AlertTypeCO     = "CO"
	AlertTypeH2S    = "H2S"
	AlertTypeWater  = "Water"
	AlertTypeSafety = "Safety"
)

const (
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)
