package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/shirtforge-backend/pkg/db"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
)

const uniqueEventAggregate = "ux_outbox_events_event_aggregate"

// Event is a domain event waiting to be written to the outbox.
type Event struct {
	Type        enums.OutboxEventType
	AggregateID uuid.UUID
	Source      string
	OccurredAt  time.Time
	Data        any
}

// Emitter writes events into outbox_events inside the caller's transaction.
type Emitter struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewEmitter(repo *Repository, logg *logger.Logger) *Emitter {
	return &Emitter{repo: repo, logg: logg, now: time.Now}
}

// Queue stores the event unless one of the same type already exists for the
// aggregate. It reports whether a row was written. The row only becomes
// visible to the publisher once tx commits.
func (e *Emitter) Queue(ctx context.Context, tx *gorm.DB, event Event) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	aggregate := event.Type.Aggregate()
	if aggregate == "" {
		return false, fmt.Errorf("unknown outbox event type %q", event.Type)
	}
	if event.AggregateID == uuid.Nil {
		return false, errors.New("aggregate id required")
	}

	exists, err := e.repo.ExistsTx(tx, event.Type, aggregate, event.AggregateID)
	if err != nil || exists {
		return false, err
	}

	row, err := e.row(event, aggregate)
	if err != nil {
		return false, err
	}
	if err := e.repo.Insert(tx, row); err != nil {
		if dbpkg.IsUniqueViolation(err, uniqueEventAggregate) {
			return false, nil
		}
		return false, err
	}

	if e.logg != nil {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"event_id":     row.ID.String(),
			"event_type":   event.Type,
			"aggregate_id": event.AggregateID.String(),
		}), "outbox event queued")
	}
	return true, nil
}

func (e *Emitter) row(event Event, aggregate enums.OutboxAggregateType) (models.OutboxEvent, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("encode %s data: %w", event.Type, err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = e.now()
	}
	env := Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New(),
		EventType:     event.Type,
		AggregateID:   event.AggregateID,
		Source:        event.Source,
		OccurredAt:    occurred.UTC(),
		Data:          data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("encode envelope: %w", err)
	}
	return models.OutboxEvent{
		ID:            env.EventID,
		EventType:     event.Type,
		AggregateType: aggregate,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}, nil
}
