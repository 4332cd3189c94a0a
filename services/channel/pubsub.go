package channel

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Broker is the topic-addressed pub/sub transport behind the consultation
// channel. Topics are opaque strings (the consultation id).
type Broker interface {
	// Publish delivers the payload to current subscribers of the topic.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe opens a subscription on the topic. The caller must Close it.
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription is one live attachment to a topic. Payloads arrive in publish
// order for that topic; the channel is closed when the subscription dies and
// the subscriber is expected to resubscribe.
type Subscription interface {
	Payloads() <-chan []byte
	Close() error
}

// RedisBroker implements Broker on Redis PubSub.
type RedisBroker struct {
	Client *redis.Client
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.Client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	pubsub := b.Client.Subscribe(ctx, topic)
	// Force the SUBSCRIBE round-trip so a dead broker fails here, not on
	// first receive.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		out:    make(chan []byte, 16),
	}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan []byte
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	for msg := range s.pubsub.Channel() {
		s.out <- []byte(msg.Payload)
	}
}

func (s *redisSubscription) Payloads() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
