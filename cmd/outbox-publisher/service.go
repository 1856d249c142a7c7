package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/angelmondragon/shirtforge-backend/pkg/config"
	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	"github.com/angelmondragon/shirtforge-backend/pkg/metrics"
	"github.com/angelmondragon/shirtforge-backend/pkg/outbox"
	"github.com/angelmondragon/shirtforge-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultRetryBase      = time.Second
	defaultRetryMax       = 5 * time.Minute
	defaultPublishTimeout = 15 * time.Second
	maxIdleBackoff        = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type eventStore interface {
	FetchDueTx(tx *gorm.DB, now time.Time, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	ScheduleRetryTx(tx *gorm.DB, id uuid.UUID, cause error, retryAt time.Time) error
	CountPending(ctx context.Context, maxAttempts int) (int64, error)
}

type deadLetterStore interface {
	ParkTx(tx *gorm.DB, event models.OutboxEvent, p outbox.Parking) error
}

type router interface {
	Route(models.OutboxEvent) (*registry.Dispatch, error)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Events           eventStore
	DeadLetters      deadLetterStore
	Router           router
	PublisherFactory publisherFactory
	Metrics          *metrics.OutboxMetrics
	Now              func() time.Time
}

// Service drains outbox_events to Pub/Sub. A batch shares one transaction,
// so a row is only marked published after the broker acked it and a failed
// row is rescheduled with exponential delay until it is parked.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	pubsub       pubSubClient
	events       eventStore
	deadLetters  deadLetterStore
	router       router
	publishers   publisherFactory
	metrics      *metrics.OutboxMetrics
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	retryBase    time.Duration
	retryMax     time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Events == nil:
		return nil, errors.New("outbox event store is required")
	case params.DeadLetters == nil:
		return nil, errors.New("dead letter store is required")
	case params.Router == nil:
		return nil, errors.New("event router is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			return newGCPPublisher(params.PubSub.Publisher(topic))
		}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	cfg := params.Config.Outbox
	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		events:       params.Events,
		deadLetters:  params.DeadLetters,
		router:       params.Router,
		publishers:   factory,
		metrics:      params.Metrics,
		now:          now,
		batchSize:    positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts:  positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		pollInterval: time.Duration(positiveOr(cfg.PollIntervalMS, defaultPollMs)) * time.Millisecond,
		retryBase:    msOr(cfg.RetryBaseMS, defaultRetryBase),
		retryMax:     msOr(cfg.RetryMaxMS, defaultRetryMax),
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func msOr(ms int, fallback time.Duration) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		s.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}
	return nil
}

// Run polls until ctx is canceled. Batch errors back off exponentially; an
// empty poll samples the backlog gauge and waits one interval.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		processed, err := s.processBatch(ctx)
		wait := s.pollInterval
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxIdleBackoff)
			wait = backoff
		case processed:
			backoff = s.pollInterval
			continue
		default:
			backoff = s.pollInterval
			s.samplePending(ctx)
		}

		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

func (s *Service) samplePending(ctx context.Context) {
	n, err := s.events.CountPending(ctx, s.maxAttempts)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "count pending outbox events failed")
		return
	}
	s.metrics.SetPending(n)
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.events.FetchDueTx(tx, s.now(), s.batchSize, s.maxAttempts)
		if err != nil || len(rows) == 0 {
			return err
		}
		processed = true
		s.metrics.IncBatch()
		for _, row := range rows {
			if err := s.handle(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// handle publishes one row. Only bookkeeping failures are returned; publish
// failures end up on the row or in the dead letter table.
func (s *Service) handle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) error {
	fields := map[string]any{
		"event_id":      row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	}

	dispatch, err := s.router.Route(row)
	if err != nil {
		return s.park(ctx, tx, row, fields, outbox.Parking{Reason: enums.OutboxDLQReasonUnroutable, Cause: err})
	}
	topic := dispatch.Route.Topic
	fields["topic"] = topic

	err = s.publish(ctx, topic, dispatch.Message)
	if err == nil {
		if err := s.events.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		s.metrics.IncEvent(string(row.EventType), metrics.OutboxPublished)
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return nil
	}

	if permanent(err) {
		return s.park(ctx, tx, row, fields, outbox.Parking{Reason: enums.OutboxDLQReasonNonRetryable, Cause: err, Topic: topic})
	}
	attempt := row.AttemptCount + 1
	if attempt >= s.maxAttempts {
		return s.park(ctx, tx, row, fields, outbox.Parking{
			Reason: enums.OutboxDLQReasonMaxAttempts,
			Cause:  fmt.Errorf("gave up after %d attempts: %w", attempt, err),
			Topic:  topic,
		})
	}

	retryAt := s.now().Add(s.retryDelay(attempt))
	fields["attempt_count"] = attempt
	fields["retry_at"] = retryAt.UTC().Format(time.RFC3339)
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error()), "outbox publish failed")
	s.metrics.IncEvent(string(row.EventType), metrics.OutboxRetry)
	if err := s.events.ScheduleRetryTx(tx, row.ID, err, retryAt); err != nil {
		return fmt.Errorf("schedule retry %s: %w", row.ID, err)
	}
	return nil
}

func (s *Service) park(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, fields map[string]any, p outbox.Parking) error {
	p.Attempts = s.maxAttempts
	fields["error_reason"] = p.Reason
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", p.Cause.Error()), "outbox event parked")
	if err := s.deadLetters.ParkTx(tx, row, p); err != nil {
		return fmt.Errorf("park %s: %w", row.ID, err)
	}
	s.metrics.IncEvent(string(row.EventType), metrics.OutboxDeadLettered)
	return nil
}

func (s *Service) publish(ctx context.Context, topic string, msg *gcppubsub.Message) error {
	pub := s.publishers(topic)
	if pub == nil {
		return permanentError{fmt.Errorf("no publisher for topic %s", topic)}
	}
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return permanentError{fmt.Errorf("publisher for %s returned no result", topic)}
	}
	_, err := result.Get(publishCtx)
	return err
}

// retryDelay is retryBase doubled per prior attempt, capped at retryMax.
func (s *Service) retryDelay(attempt int) time.Duration {
	delay := s.retryBase
	for i := 1; i < attempt && delay < s.retryMax; i++ {
		delay *= 2
	}
	if delay > s.retryMax {
		return s.retryMax
	}
	return delay
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// permanent reports publish failures a retry cannot fix: a missing topic,
// denied credentials or a message the broker refuses.
func permanent(err error) bool {
	var pe permanentError
	if errors.As(err, &pe) {
		return true
	}
	switch status.Code(err) {
	case codes.NotFound, codes.PermissionDenied, codes.InvalidArgument, codes.FailedPrecondition:
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	if next := current * 2; next < max {
		return next
	}
	return max
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return gcpPublisher{p}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.p.Publish(ctx, msg)
}
