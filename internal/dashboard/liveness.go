package dashboard

import (
	"time"
)

// Node status values derived from reading recency.
const (
	StatusActive  = "active"
	StatusOffline = "offline"
)

// Classify derives a node's liveness from its most recent reading
// timestamp. A zero lastSeen means the timestamp is missing or was not
// parseable and always classifies as offline.
func Classify(lastSeen, now time.Time, offlineAfter time.Duration) string {
	if lastSeen.IsZero() {
		return StatusOffline
	}
	if now.Sub(lastSeen) <= offlineAfter {
		return StatusActive
	}
	return StatusOffline
}
