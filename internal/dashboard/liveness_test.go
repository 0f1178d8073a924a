package dashboard

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cutoff := 5 * time.Minute

	tests := []struct {
		name     string
		lastSeen time.Time
		want     string
	}{
		{"just now", now, StatusActive},
		{"4m59s ago", now.Add(-(5*time.Minute - time.Second)), StatusActive},
		{"exactly 5m ago", now.Add(-5 * time.Minute), StatusActive},
		{"5m01s ago", now.Add(-(5*time.Minute + time.Second)), StatusOffline},
		{"hours ago", now.Add(-3 * time.Hour), StatusOffline},
		{"missing timestamp", time.Time{}, StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.lastSeen, now, cutoff); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.lastSeen, got, tt.want)
			}
		})
	}
}

func TestClassify_CustomCutoff(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if got := Classify(now.Add(-30*time.Second), now, time.Minute); got != StatusActive {
		t.Errorf("Expected active within custom cutoff, got %s", got)
	}
	if got := Classify(now.Add(-2*time.Minute), now, time.Minute); got != StatusOffline {
		t.Errorf("Expected offline past custom cutoff, got %s", got)
	}
}
