package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/healthtracker/healthtracker/pkg/cache"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

// EventPublisher is satisfied by *queue.KafkaProducer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// FeedCache is the subset of *cache.RedisClient used for feed pages.
type FeedCache interface {
	Get(ctx context.Context, key string) (string, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

func isCacheMiss(err error) bool {
	return errors.Is(err, cache.ErrCacheMiss)
}

const publishTimeout = 5 * time.Second

// publish is best effort: failures are logged and never reach the caller.
func publish(ctx context.Context, producer EventPublisher, log *logger.Logger, key uint, eventType queue.EventType, data interface{}) {
	if producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := queue.NewEvent(eventType, data)
	if err := producer.Publish(ctx, strconv.FormatUint(uint64(key), 10), event); err != nil {
		log.WithError(err).WithField("event_type", eventType).Error("Failed to publish event")
	}
}
