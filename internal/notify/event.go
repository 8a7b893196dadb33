// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify pushes library events to live reader clients.

Delivery is best-effort: a client that is gone or too slow simply misses the
event, and publishers never block on readers.

Topology:

  - [Hub] keeps the websocket clients of this process.
  - [RedisSink] publishes events on a Redis channel instead, and every
    instance runs a [Relay] that feeds that channel into its own hub.
*/
package notify

import (
	"context"
	"encoding/json"
	"time"
)

// Sink publishes events. Errors are informational; callers are expected to
// log and continue.
type Sink interface {
	Broadcast(ctx context.Context, eventType, message string) error
}

// Event is the JSON frame sent to clients.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	// Username targets a single user; empty means every client.
	Username string `json:"username,omitempty"`

	Time time.Time `json:"time"`
}

func newEvent(eventType, message, username string) Event {
	return Event{Type: eventType, Message: message, Username: username, Time: time.Now().UTC()}
}

func (event Event) encode() ([]byte, error) {
	return json.Marshal(event)
}

// Discard is a [Sink] that drops every event.
type Discard struct{}

// Broadcast implements [Sink].
func (Discard) Broadcast(context.Context, string, string) error { return nil }
