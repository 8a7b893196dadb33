// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// sendBuffer is how many frames may queue for one client before it is dropped.
const sendBuffer = 32

// Hub fans events out to the websocket clients of this process.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Broadcast implements [Sink] by delivering to every local client.
func (hub *Hub) Broadcast(_ context.Context, eventType, message string) error {
	return hub.Deliver(newEvent(eventType, message, ""))
}

// SendTo delivers an event to the clients of one user only.
func (hub *Hub) SendTo(_ context.Context, username, eventType, message string) error {
	return hub.Deliver(newEvent(eventType, message, username))
}

// Deliver routes an already built event. A targeted event reaches only the
// clients of its user.
func (hub *Hub) Deliver(event Event) error {
	frame, err := event.encode()
	if err != nil {
		return fmt.Errorf("notify: failed to encode event: %w", err)
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	for client := range hub.clients {
		if event.Username != "" && client.username != event.Username {
			continue
		}

		select {
		case client.send <- frame:
		default:
			hub.logger.Warn("ws_client_too_slow", slog.String("username", client.username))
			hub.dropLocked(client)
		}
	}
	return nil
}

// Len returns the number of connected clients.
func (hub *Hub) Len() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}

// Close disconnects every client and refuses new ones.
func (hub *Hub) Close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.closed = true
	for client := range hub.clients {
		hub.dropLocked(client)
	}
}

func (hub *Hub) register(client *client) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hub.closed {
		return false
	}
	hub.clients[client] = struct{}{}
	hub.logger.Debug("ws_client_connected", slog.String("id", client.id), slog.String("username", client.username))
	return true
}

func (hub *Hub) unregister(client *client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if _, ok := hub.clients[client]; ok {
		hub.dropLocked(client)
		hub.logger.Debug("ws_client_disconnected", slog.String("id", client.id), slog.String("username", client.username))
	}
}

// dropLocked removes a client and closes its queue, which ends its write pump.
func (hub *Hub) dropLocked(client *client) {
	delete(hub.clients, client)
	close(client.send)
}
