package enums

import "fmt"

// OutboxAggregateType names the record an outbox event is about.
type OutboxAggregateType string

const (
	AggregateDesignOrder OutboxAggregateType = "design_order"
)

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateDesignOrder
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	if a := OutboxAggregateType(value); a.IsValid() {
		return a, nil
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event queued through the outbox.
type OutboxEventType string

const (
	// EventDesignOrderFinalized fires once per design order, after checkout
	// re-validated and priced the selection.
	EventDesignOrderFinalized OutboxEventType = "design_order_finalized"
)

func (e OutboxEventType) IsValid() bool {
	return e == EventDesignOrderFinalized
}

// Aggregate returns the aggregate type every event of this type belongs to.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	switch e {
	case EventDesignOrderFinalized:
		return AggregateDesignOrder
	}
	return ""
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	if e := OutboxEventType(value); e.IsValid() {
		return e, nil
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
