// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes events on a Redis channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a sink publishing on channel.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Broadcast implements [Sink].
func (sink *RedisSink) Broadcast(ctx context.Context, eventType, message string) error {
	return sink.publish(ctx, newEvent(eventType, message, ""))
}

// SendTo publishes an event for the clients of one user.
func (sink *RedisSink) SendTo(ctx context.Context, username, eventType, message string) error {
	return sink.publish(ctx, newEvent(eventType, message, username))
}

func (sink *RedisSink) publish(ctx context.Context, event Event) error {
	frame, err := event.encode()
	if err != nil {
		return fmt.Errorf("notify: failed to encode event: %w", err)
	}
	if err := sink.client.Publish(ctx, sink.channel, frame).Err(); err != nil {
		return fmt.Errorf("notify: failed to publish on %s: %w", sink.channel, err)
	}
	return nil
}

// Deliverer receives relayed events. [*Hub] implements it.
type Deliverer interface {
	Deliver(event Event) error
}

// Relay feeds a Redis channel into a local [Deliverer].
type Relay struct {
	client  *redis.Client
	channel string
	target  Deliverer
	logger  *slog.Logger
}

// NewRelay creates a relay from channel to target.
func NewRelay(client *redis.Client, channel string, target Deliverer, logger *slog.Logger) *Relay {
	return &Relay{client: client, channel: channel, target: target, logger: logger}
}

/*
Run subscribes to the channel and delivers every event until ctx is done.

Returns:
  - error: nil on cancellation, the subscription error otherwise
*/
func (relay *Relay) Run(ctx context.Context) error {
	pubsub := relay.client.Subscribe(ctx, relay.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting readiness
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("notify: failed to subscribe to %s: %w", relay.channel, err)
	}
	relay.logger.Info("notify_relay_subscribed", slog.String("channel", relay.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case message, ok := <-messages:
			if !ok {
				return nil
			}

			var event Event
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				relay.logger.Warn("notify_relay_bad_payload", slog.Any("error", err))
				continue
			}
			if err := relay.target.Deliver(event); err != nil {
				relay.logger.Warn("notify_relay_deliver_failed", slog.Any("error", err))
			}
		}
	}
}
