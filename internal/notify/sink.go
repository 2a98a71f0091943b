package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, n domain.Notification) error {
	s.logger.Info("notification",
		"user_ref", n.UserRef,
		"subject", n.Subject,
		"template", n.Template,
		"amount", n.Amount,
		"extra", n.Extra,
	)
	return nil
}

type message struct {
	domain.Notification
	QueuedAt time.Time `json:"queued_at"`
}

// RedisSink pushes JSON messages onto a Redis list for the mailer to pop.
type RedisSink struct {
	client *redis.Client
	key    string
}

func NewRedisSink(client *redis.Client, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisClient: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: ping: %w", err)
	}
	return client, nil
}

func (s *RedisSink) Send(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(message{Notification: n, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("RedisSink.Send: marshal: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("RedisSink.Send: %w", err)
	}
	return nil
}

type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// BreakerSink stops calling next for OpenTimeout once FailureThreshold
// consecutive sends have failed.
type BreakerSink struct {
	next Sink
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSink(next Sink, settings BreakerSettings, logger *slog.Logger) *BreakerSink {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-sink",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &BreakerSink{next: next, cb: cb}
}

func (b *BreakerSink) Send(ctx context.Context, n domain.Notification) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, n)
	})
	if err != nil {
		return fmt.Errorf("BreakerSink.Send: %w", err)
	}
	return nil
}
