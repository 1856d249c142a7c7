// Package registry routes outbox rows to Pub/Sub topics and checks their
// payloads against the schema registered for each event type.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/shirtforge-backend/pkg/config"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/outbox"
	"github.com/angelmondragon/shirtforge-backend/pkg/outbox/payloads"
)

// Route ties an event type to its topic and payload schema.
type Route struct {
	EventType enums.OutboxEventType
	Topic     string
	decode    func(json.RawMessage) (any, error)
}

// Dispatch is an outbox row that passed routing and is ready to publish.
type Dispatch struct {
	Route    Route
	Envelope outbox.Envelope
	Payload  any
	Message  *pubsub.Message
}

// UnroutableError means the row can never be published as stored.
type UnroutableError struct {
	EventID uuid.UUID
	Err     error
}

func (e *UnroutableError) Error() string {
	return fmt.Sprintf("event %s unroutable: %v", e.EventID, e.Err)
}

func (e *UnroutableError) Unwrap() error { return e.Err }

func IsUnroutable(err error) bool {
	var target *UnroutableError
	return errors.As(err, &target)
}

// Router holds one route per event type.
type Router struct {
	routes map[enums.OutboxEventType]Route
}

func NewRouter(cfg config.PubSubConfig) (*Router, error) {
	topic := strings.TrimSpace(cfg.DesignOrdersTopic)
	if topic == "" {
		return nil, errors.New("design orders topic is required")
	}
	r := &Router{routes: map[enums.OutboxEventType]Route{}}
	r.add(Route{
		EventType: enums.EventDesignOrderFinalized,
		Topic:     topic,
		decode:    schema[payloads.DesignOrderFinalizedEvent](),
	})
	return r, nil
}

func (r *Router) add(route Route) {
	r.routes[route.EventType] = route
}

// Topics lists the distinct topics in a stable order.
func (r *Router) Topics() []string {
	set := map[string]struct{}{}
	for _, route := range r.routes {
		set[route.Topic] = struct{}{}
	}
	topics := make([]string, 0, len(set))
	for topic := range set {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Route checks the row against its schema and builds the Pub/Sub message.
// Every error it returns is an *UnroutableError.
func (r *Router) Route(event models.OutboxEvent) (*Dispatch, error) {
	fail := func(format string, args ...any) (*Dispatch, error) {
		return nil, &UnroutableError{EventID: event.ID, Err: fmt.Errorf(format, args...)}
	}

	route, ok := r.routes[event.EventType]
	if !ok {
		return fail("no route for event type %s", event.EventType)
	}
	if want := event.EventType.Aggregate(); want != event.AggregateType {
		return fail("aggregate mismatch: expected %s got %s", want, event.AggregateType)
	}
	if event.AggregateID == uuid.Nil {
		return fail("missing aggregate_id")
	}

	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return fail("%w", err)
	}
	if env.EventID != event.ID || env.EventType != event.EventType || env.AggregateID != event.AggregateID {
		return fail("envelope does not match its outbox row")
	}
	payload, err := route.decode(env.Data)
	if err != nil {
		return fail("decode %s payload: %w", event.EventType, err)
	}

	attrs := env.Attributes()
	attrs["aggregate_type"] = string(event.AggregateType)
	return &Dispatch{
		Route:    route,
		Envelope: env,
		Payload:  payload,
		Message:  &pubsub.Message{Data: event.Payload, Attributes: attrs},
	}, nil
}

func schema[T any]() func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, errors.New("payload missing")
		}
		out := new(T)
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
