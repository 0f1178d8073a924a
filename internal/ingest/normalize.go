package ingest

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/svattam/sewer-server/internal/database"
)

// ErrMalformedPayload is returned when the ingestion payload is absent or
// not parseable as a JSON object. Bad field values never produce it; they
// fall back to their defaults instead.
var ErrMalformedPayload = errors.New("malformed ingestion payload")

// DefaultNodeID is assigned when a payload carries no node identifier.
const DefaultNodeID = "NODE_1"

// DefaultHealthScore is assigned when the health score is missing or does
// not coerce to an integer.
const DefaultHealthScore = 100

// numericField maps one canonical reading field to its candidate payload
// keys, first present key wins. Legacy field firmware used short gas names
// (co, h2s, water); adding another alias is a data change here, not new
// lookup code.
type numericField struct {
	keys []string
	def  float64
}

var numericFields = map[string]numericField{
	"mq4":         {keys: []string{"mq4"}, def: 0},
	"mq7":         {keys: []string{"mq7", "co"}, def: 0},
	"mq135":       {keys: []string{"mq135", "h2s"}, def: 0},
	"water_level": {keys: []string{"water_level", "water"}, def: 0},
}

var nodeIDKeys = []string{"node_id", "NODE_ID"}

var healthScoreKeys = []string{"health_score", "safety_score"}

// Normalize maps an arbitrary inbound payload to a fully populated reading.
// Every field has a default, so the only failure mode is a structurally
// absent payload. CreatedAt is left zero for the coordinator to assign.
func Normalize(payload map[string]interface{}) (*database.Reading, error) {
	if payload == nil {
		return nil, ErrMalformedPayload
	}

	r := &database.Reading{
		NodeID:      resolveString(payload, nodeIDKeys, DefaultNodeID),
		HealthScore: resolveInt(payload, healthScoreKeys, DefaultHealthScore),
		MQ4:         resolveFloat(payload, numericFields["mq4"]),
		MQ7:         resolveFloat(payload, numericFields["mq7"]),
		MQ135:       resolveFloat(payload, numericFields["mq135"]),
		WaterLevel:  resolveFloat(payload, numericFields["water_level"]),
	}

	return r, nil
}

func resolveString(payload map[string]interface{}, keys []string, def string) string {
	for _, key := range keys {
		value, ok := payload[key]
		if !ok {
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func resolveFloat(payload map[string]interface{}, field numericField) float64 {
	for _, key := range field.keys {
		value, ok := payload[key]
		if !ok {
			continue
		}
		if f, ok := coerceFloat(value); ok {
			return f
		}
		// Present but unparseable: fall back, never fail the request
		return field.def
	}
	return field.def
}

func resolveInt(payload map[string]interface{}, keys []string, def int) int {
	for _, key := range keys {
		value, ok := payload[key]
		if !ok {
			continue
		}
		if f, ok := coerceFloat(value); ok {
			return int(f)
		}
		return def
	}
	return def
}

// coerceFloat accepts the value shapes JSON decoding and loose firmware
// produce: numbers, json.Number, and numeric strings.
func coerceFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
