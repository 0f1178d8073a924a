package alerting

import (
	"fmt"

	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/pkg/config"
)

// Engine evaluates readings against tiered thresholds and produces alerts.
// It is a pure function of its input: no state, no side effects.
type Engine struct {
	thresholds config.ThresholdConfig
}

// NewEngine creates an engine bound to one set of thresholds.
func NewEngine(thresholds config.ThresholdConfig) *Engine {
	return &Engine{thresholds: thresholds}
}

// Evaluate returns the alerts a reading triggers, in a fixed order:
// CH4, CO, H2S, Water, Safety. For each metric the danger tier is checked
// first, so at most one alert per metric is ever emitted.
func (e *Engine) Evaluate(r *database.Reading) []*database.Alert {
	t := e.thresholds
	var alerts []*database.Alert

	if r.MQ4 >= t.MQ4Danger {
		alerts = append(alerts, newAlert(r, database.AlertTypeCH4, database.SeverityDanger,
			fmt.Sprintf("CH4 dangerous: %g", r.MQ4)))
	} else if r.MQ4 >= t.MQ4Warn {
		alerts = append(alerts, newAlert(r, database.AlertTypeCH4, database.SeverityWarning,
			fmt.Sprintf("CH4 high: %g", r.MQ4)))
	}

	if r.MQ7 >= t.MQ7Danger {
		alerts = append(alerts, newAlert(r, database.AlertTypeCO, database.SeverityDanger,
			fmt.Sprintf("CO dangerous: %g", r.MQ7)))
	} else if r.MQ7 >= t.MQ7Warn {
		alerts = append(alerts, newAlert(r, database.AlertTypeCO, database.SeverityWarning,
			fmt.Sprintf("CO high: %g", r.MQ7)))
	}

	if r.MQ135 >= t.MQ135Danger {
		alerts = append(alerts, newAlert(r, database.AlertTypeH2S, database.SeverityDanger,
			fmt.Sprintf("H2S dangerous: %g", r.MQ135)))
	} else if r.MQ135 >= t.MQ135Warn {
		alerts = append(alerts, newAlert(r, database.AlertTypeH2S, database.SeverityWarning,
			fmt.Sprintf("H2S high: %g", r.MQ135)))
	}

	if r.WaterLevel >= t.WaterDanger {
		alerts = append(alerts, newAlert(r, database.AlertTypeWater, database.SeverityDanger,
			fmt.Sprintf("Water level critical: %g%%", r.WaterLevel)))
	} else if r.WaterLevel >= t.WaterWarn {
		alerts = append(alerts, newAlert(r, database.AlertTypeWater, database.SeverityWarning,
			fmt.Sprintf("Water level high: %g%%", r.WaterLevel)))
	}

	if r.HealthScore < t.HealthDanger {
		alerts = append(alerts, newAlert(r, database.AlertTypeSafety, database.SeverityDanger,
			fmt.Sprintf("Safety score low: %d", r.HealthScore)))
	} else if r.HealthScore < t.HealthWarn {
		alerts = append(alerts, newAlert(r, database.AlertTypeSafety, database.SeverityWarning,
			fmt.Sprintf("Safety score warning: %d", r.HealthScore)))
	}

	return alerts
}

func newAlert(r *database.Reading, alertType, severity, message string) *database.Alert {
	return &database.Alert{
		NodeID:    r.NodeID,
		Type:      alertType,
		Message:   message,
		Severity:  severity,
		CreatedAt: r.CreatedAt,
	}
}
