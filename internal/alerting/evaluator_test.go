package alerting

import (
	"reflect"
	"testing"

	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/pkg/config"
)

func defaultThresholds() config.ThresholdConfig {
	return config.ThresholdConfig{
		MQ4Warn:      500,
		MQ4Danger:    2000,
		MQ7Warn:      30,
		MQ7Danger:    100,
		MQ135Warn:    5,
		MQ135Danger:  20,
		WaterWarn:    70,
		WaterDanger:  90,
		HealthDanger: 50,
		HealthWarn:   70,
	}
}

func quietReading() database.Reading {
	return database.Reading{NodeID: "N1", HealthScore: 100}
}

func TestEvaluate_QuietReadingProducesNoAlerts(t *testing.T) {
	e := NewEngine(defaultThresholds())

	r := quietReading()
	r.MQ4 = 499
	r.MQ7 = 29
	r.MQ135 = 4.9
	r.WaterLevel = 69.9
	r.HealthScore = 70

	if alerts := e.Evaluate(&r); len(alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(alerts))
	}
}

func TestEvaluate_TiersPerMetric(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*database.Reading)
		wantType     string
		wantSeverity string
	}{
		{"mq4 warning", func(r *database.Reading) { r.MQ4 = 500 }, database.AlertTypeCH4, database.SeverityWarning},
		{"mq4 danger", func(r *database.Reading) { r.MQ4 = 2000 }, database.AlertTypeCH4, database.SeverityDanger},
		{"mq4 far past danger", func(r *database.Reading) { r.MQ4 = 9999 }, database.AlertTypeCH4, database.SeverityDanger},
		{"mq7 warning", func(r *database.Reading) { r.MQ7 = 30 }, database.AlertTypeCO, database.SeverityWarning},
		{"mq7 danger", func(r *database.Reading) { r.MQ7 = 150 }, database.AlertTypeCO, database.SeverityDanger},
		{"mq135 warning", func(r *database.Reading) { r.MQ135 = 5 }, database.AlertTypeH2S, database.SeverityWarning},
		{"mq135 danger", func(r *database.Reading) { r.MQ135 = 20 }, database.AlertTypeH2S, database.SeverityDanger},
		{"water warning", func(r *database.Reading) { r.WaterLevel = 75 }, database.AlertTypeWater, database.SeverityWarning},
		{"water danger", func(r *database.Reading) { r.WaterLevel = 90 }, database.AlertTypeWater, database.SeverityDanger},
		{"health warning", func(r *database.Reading) { r.HealthScore = 69 }, database.AlertTypeSafety, database.SeverityWarning},
		{"health danger", func(r *database.Reading) { r.HealthScore = 49 }, database.AlertTypeSafety, database.SeverityDanger},
	}

	e := NewEngine(defaultThresholds())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := quietReading()
			tt.mutate(&r)

			alerts := e.Evaluate(&r)
			if len(alerts) != 1 {
				t.Fatalf("Expected exactly 1 alert, got %d", len(alerts))
			}
			if alerts[0].Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, alerts[0].Type)
			}
			if alerts[0].Severity != tt.wantSeverity {
				t.Errorf("Expected severity %s, got %s", tt.wantSeverity, alerts[0].Severity)
			}
			if alerts[0].NodeID != "N1" {
				t.Errorf("Expected node N1, got %s", alerts[0].NodeID)
			}
		})
	}
}

// Danger short-circuits the warning check, so a reading past both
// boundaries still yields a single alert for that metric.
func TestEvaluate_DangerSuppressesWarning(t *testing.T) {
	e := NewEngine(defaultThresholds())

	r := quietReading()
	r.MQ4 = 5000

	alerts := e.Evaluate(&r)
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Severity != database.SeverityDanger {
		t.Errorf("Expected danger, got %s", alerts[0].Severity)
	}
}

func TestEvaluate_EmissionOrder(t *testing.T) {
	e := NewEngine(defaultThresholds())

	r := database.Reading{
		NodeID:      "N1",
		MQ4:         3000,
		MQ7:         120,
		MQ135:       25,
		WaterLevel:  95,
		HealthScore: 40,
	}

	alerts := e.Evaluate(&r)
	wantOrder := []string{
		database.AlertTypeCH4,
		database.AlertTypeCO,
		database.AlertTypeH2S,
		database.AlertTypeWater,
		database.AlertTypeSafety,
	}

	if len(alerts) != len(wantOrder) {
		t.Fatalf("Expected %d alerts, got %d", len(wantOrder), len(alerts))
	}
	for i, want := range wantOrder {
		if alerts[i].Type != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, alerts[i].Type)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEngine(defaultThresholds())

	r := quietReading()
	r.MQ4 = 2500
	r.HealthScore = 40

	first := e.Evaluate(&r)
	second := e.Evaluate(&r)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Re-evaluation produced different alerts:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestEvaluate_MessageIncludesValue(t *testing.T) {
	e := NewEngine(defaultThresholds())

	r := quietReading()
	r.MQ4 = 2500

	alerts := e.Evaluate(&r)
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Message != "CH4 dangerous: 2500" {
		t.Errorf("Unexpected message: %q", alerts[0].Message)
	}
}

func TestEvaluate_ThresholdOverrides(t *testing.T) {
	thresholds := defaultThresholds()
	thresholds.MQ4Warn = 10
	thresholds.MQ4Danger = 20
	e := NewEngine(thresholds)

	r := quietReading()
	r.MQ4 = 15

	alerts := e.Evaluate(&r)
	if len(alerts) != 1 || alerts[0].Severity != database.SeverityWarning {
		t.Fatalf("Expected one warning under overridden thresholds, got %+v", alerts)
	}
}
