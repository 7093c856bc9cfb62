/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package websocket

import (
	"sync"
	"time"
)

// Connection wraps one subscriber connection with its metadata and lifecycle
// state. A subscriber (gateway or console instance) may hold several
// connections under the same subscriber id when it runs clustered.
type Connection struct {
	// SubscriberID identifies the subscriber this connection belongs to.
	SubscriberID string

	// ConnectionID distinguishes multiple connections of one subscriber.
	ConnectionID string

	// ConnectedAt records when the connection was established.
	ConnectedAt time.Time

	// LastHeartbeat is the time of the most recent pong frame, updated by
	// the pong handler to track liveness.
	LastHeartbeat time.Time

	// Transport carries the protocol implementation for message delivery.
	Transport Transport

	// DeliveryStats tracks per-connection delivery counters.
	DeliveryStats *DeliveryStats

	mu     sync.RWMutex
	closed bool
}

// NewConnection creates a Connection ready for message delivery.
func NewConnection(subscriberID, connectionID string, transport Transport) *Connection {
	now := time.Now()
	return &Connection{
		SubscriberID:  subscriberID,
		ConnectionID:  connectionID,
		ConnectedAt:   now,
		LastHeartbeat: now,
		Transport:     transport,
		DeliveryStats: &DeliveryStats{},
	}
}

// Send delivers a message through the underlying transport. Thread-safe.
func (c *Connection) Send(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	return c.Transport.Send(message)
}

// Close terminates the connection with a close code and reason. Idempotent.
func (c *Connection) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.Transport.Close(code, reason)
}

// IsClosed reports whether the connection has been explicitly closed.
func (c *Connection) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// UpdateHeartbeat records now as the last heartbeat. Called from the pong
// handler.
func (c *Connection) UpdateHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastHeartbeat = time.Now()
}

// GetLastHeartbeat returns the most recent heartbeat timestamp.
func (c *Connection) GetLastHeartbeat() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastHeartbeat
}

// ConnectionStatus is the monitoring view of one connection.
type ConnectionStatus struct {
	SubscriberID  string    `json:"subscriberId"`
	ConnectionID  string    `json:"connectionId"`
	ConnectedAt   time.Time `json:"connectedAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Status        string    `json:"status"` // "connected", "stale", "closed"
}

// GetStatus classifies the connection as connected, stale (no heartbeat
// within the timeout) or closed.
func (c *Connection) GetStatus(heartbeatTimeout time.Duration) ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := "connected"
	if c.closed {
		status = "closed"
	} else if time.Since(c.LastHeartbeat) > heartbeatTimeout {
		status = "stale"
	}

	return ConnectionStatus{
		SubscriberID:  c.SubscriberID,
		ConnectionID:  c.ConnectionID,
		ConnectedAt:   c.ConnectedAt,
		LastHeartbeat: c.LastHeartbeat,
		Status:        status,
	}
}

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = &ConnectionError{Message: "connection is closed"}

// ConnectionError represents connection-specific errors
type ConnectionError struct {
	Message string
}

func (e *ConnectionError) Error() string {
	return e.Message
}
