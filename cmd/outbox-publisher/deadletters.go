package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

type deadLetterAdmin interface {
	List(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error)
	Requeue(ctx context.Context, eventID uuid.UUID) error
}

// listDeadLetters writes one JSON object per parked event, newest first.
func listDeadLetters(ctx context.Context, admin deadLetterAdmin, w io.Writer, rawReason string, limit int) (int, error) {
	var reason enums.OutboxDLQErrorReason
	if rawReason != "" {
		parsed, err := enums.ParseOutboxDLQErrorReason(rawReason)
		if err != nil {
			return 0, err
		}
		reason = parsed
	}
	rows, err := admin.List(ctx, reason, limit)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// requeueDeadLetter hands a parked event back to the publisher.
func requeueDeadLetter(ctx context.Context, admin deadLetterAdmin, rawID string) (uuid.UUID, error) {
	eventID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid event id %q: %w", rawID, err)
	}
	return eventID, admin.Requeue(ctx, eventID)
}
