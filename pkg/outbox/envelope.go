package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

// SchemaVersion is bumped when Envelope changes shape.
const SchemaVersion = 1

// Envelope is stored verbatim in outbox_events.payload and published as the
// Pub/Sub message body. EventID equals the outbox row ID.
type Envelope struct {
	SchemaVersion int                   `json:"schema_version"`
	EventID       uuid.UUID             `json:"event_id"`
	EventType     enums.OutboxEventType `json:"event_type"`
	AggregateID   uuid.UUID             `json:"aggregate_id"`
	Source        string                `json:"source,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
	Data          json.RawMessage       `json:"data"`
}

// DecodeEnvelope parses a stored payload and rejects envelopes this build
// cannot read.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.SchemaVersion < 1 || env.SchemaVersion > SchemaVersion {
		return Envelope{}, fmt.Errorf("unsupported envelope schema %d", env.SchemaVersion)
	}
	if env.EventID == uuid.Nil {
		return Envelope{}, fmt.Errorf("envelope has no event_id")
	}
	return env, nil
}

// Attributes are the Pub/Sub message attributes subscribers filter on.
func (e Envelope) Attributes() map[string]string {
	attrs := map[string]string{
		"event_id":       e.EventID.String(),
		"event_type":     string(e.EventType),
		"aggregate_id":   e.AggregateID.String(),
		"schema_version": fmt.Sprint(e.SchemaVersion),
		"occurred_at":    e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	return attrs
}
