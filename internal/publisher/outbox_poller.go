// Package publisher drains the order outbox into Kafka. Events are
// written by the order ledger inside the commit transaction, so every
// placed order is eventually announced at least once; consumers dedupe
// by event id.
package publisher

import (
	"context"
	"time"

	"github.com/ceylonmart/checkout-service/internal/orders"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	defaultTopic = "order-placed"
	batchSize    = 100
)

// EventWriter is the slice of kafka.Writer the poller uses.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	tick    time.Duration
	timeout time.Duration
	repo    orders.Repository
	writer  EventWriter
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

func NewOutboxPoller(repo orders.Repository, logger *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  defaultTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newPoller(repo, w, logger)
}

func newPoller(repo orders.Repository, writer EventWriter, logger *zap.Logger) *OutboxPoller {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "order-placed-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &OutboxPoller{
		tick:    time.Second,
		timeout: 5 * time.Second,
		repo:    repo,
		writer:  writer,
		breaker: breaker,
		logger:  logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if errPublish := p.publish(ctx, event); errPublish != nil {
			p.logger.Error("failed to publish outbox event",
				zap.String("event_id", event.ID.String()),
				zap.Error(errPublish))
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			// The event will be re-published on the next tick;
			// consumers must tolerate duplicates.
			p.logger.Error("failed to mark outbox event processed",
				zap.String("event_id", event.ID.String()),
				zap.Error(errMark))
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event orders.OutboxEvent) error {
	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(writeCtx, kafka.Message{
			Key:   []byte(event.ID.String()),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		})
	})
	return err
}
