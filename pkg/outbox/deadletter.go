package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
)

const defaultDeadLetterPage = 50

// Parking describes why an outbox row is being taken out of rotation.
type Parking struct {
	Reason enums.OutboxDLQErrorReason
	Cause  error
	Topic  string
	// Attempts is written to the outbox row so FetchDueTx skips it.
	Attempts int
}

// DeadLetters manages outbox_dlq.
type DeadLetters struct {
	db *gorm.DB
}

func NewDeadLetters(db *gorm.DB) *DeadLetters {
	return &DeadLetters{db: db}
}

// ParkTx copies event into outbox_dlq and pins the outbox row at the
// attempt limit.
func (d *DeadLetters) ParkTx(tx *gorm.DB, event models.OutboxEvent, p Parking) error {
	if tx == nil {
		return errTxRequired
	}
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   p.Reason,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if p.Topic != "" {
		entry.Topic = &p.Topic
	}
	message := truncate(errText(p.Cause), maxErrorLen)
	if message != "" {
		entry.ErrorMessage = &message
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"last_error":      message,
			"attempt_count":   p.Attempts,
			"next_attempt_at": nil,
		}).Error
}

// Get returns the dead letter for an outbox event.
func (d *DeadLetters) Get(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := d.db.WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrapf(pkgerrors.CodeNotFound, err, "no dead letter for event %s", eventID)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the newest dead letters first, optionally for one reason.
func (d *DeadLetters) List(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error) {
	if limit <= 0 {
		limit = defaultDeadLetterPage
	}
	q := d.db.WithContext(ctx).Order("failed_at DESC").Limit(limit)
	if reason != "" {
		q = q.Where("error_reason = ?", reason)
	}
	var rows []models.OutboxDLQ
	err := q.Find(&rows).Error
	return rows, err
}

// Requeue drops the dead letter and resets the outbox row so the publisher
// picks it up on its next poll. Published rows are left alone.
func (d *DeadLetters) Requeue(ctx context.Context, eventID uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("event_id = ?", eventID).Delete(&models.OutboxDLQ{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "no dead letter for event %s", eventID)
		}
		res = tx.Model(&models.OutboxEvent{}).
			Where("id = ? AND published_at IS NULL", eventID).
			Updates(map[string]any{
				"attempt_count":   0,
				"next_attempt_at": nil,
				"last_error":      nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "event %s is already published or missing", eventID)
		}
		return nil
	})
}
