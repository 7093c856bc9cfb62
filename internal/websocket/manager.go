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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"api-manager/src/internal/utils"
)

// Manager keeps the in-memory registry of subscriber connections, runs
// heartbeat monitoring and broadcasts hook events. sync.Map fits the
// read-heavy access pattern: broadcasts iterate far more often than
// subscribers connect or disconnect. One subscriber id may map to several
// connections when the subscriber runs clustered.
type Manager struct {
	// connections maps subscriberID -> []*Connection
	connections sync.Map

	// mu protects connectionCount
	mu              sync.RWMutex
	connectionCount int
	maxConnections  int

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
	wg          sync.WaitGroup
}

// ManagerConfig contains configuration parameters for the connection manager
type ManagerConfig struct {
	MaxConnections    int           // Maximum concurrent connections (default 1000)
	HeartbeatInterval time.Duration // Ping interval (default 20s)
	HeartbeatTimeout  time.Duration // Pong timeout (default 30s)
}

// DefaultManagerConfig returns sensible default configuration values
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxConnections:    1000,
		HeartbeatInterval: 20 * time.Second,
		HeartbeatTimeout:  30 * time.Second,
	}
}

// NewManager creates a new connection manager with the provided configuration
func NewManager(config ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		maxConnections:    config.MaxConnections,
		heartbeatInterval: config.HeartbeatInterval,
		heartbeatTimeout:  config.HeartbeatTimeout,
		shutdownCtx:       ctx,
		shutdownFn:        cancel,
	}
}

// Register adds a connection for the subscriber and starts heartbeat
// monitoring for it. Fails when the global connection limit is reached.
func (m *Manager) Register(subscriberID string, transport Transport) (*Connection, error) {
	m.mu.Lock()
	if m.connectionCount >= m.maxConnections {
		m.mu.Unlock()
		return nil, fmt.Errorf("maximum connection limit reached (%d)", m.maxConnections)
	}
	m.connectionCount++
	m.mu.Unlock()

	connectionID := uuid.New().String()
	conn := NewConnection(subscriberID, connectionID, transport)

	connsInterface, _ := m.connections.LoadOrStore(subscriberID, []*Connection{})
	conns := connsInterface.([]*Connection)
	conns = append(conns, conn)
	m.connections.Store(subscriberID, conns)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.monitorHeartbeat(conn)
	}()

	utils.LogInfo("Subscriber connected: subscriberID=%s connectionID=%s totalConnections=%d",
		subscriberID, connectionID, m.GetConnectionCount())
	return conn, nil
}

// Unregister removes a connection from the registry and closes it
// gracefully. Idempotent.
func (m *Manager) Unregister(subscriberID, connectionID string) {
	connsInterface, ok := m.connections.Load(subscriberID)
	if !ok {
		return
	}

	conns := connsInterface.([]*Connection)
	var updatedConns []*Connection
	var removed *Connection
	for _, conn := range conns {
		if conn.ConnectionID == connectionID {
			removed = conn
		} else {
			updatedConns = append(updatedConns, conn)
		}
	}
	if removed == nil {
		return
	}

	if len(updatedConns) == 0 {
		m.connections.Delete(subscriberID)
	} else {
		m.connections.Store(subscriberID, updatedConns)
	}

	if err := removed.Close(1000, "normal closure"); err != nil {
		utils.LogError(fmt.Sprintf("Failed to close connection %s of subscriber %s",
			connectionID, subscriberID), err)
	}

	m.mu.Lock()
	m.connectionCount--
	m.mu.Unlock()

	utils.LogInfo("Subscriber disconnected: subscriberID=%s connectionID=%s totalConnections=%d",
		subscriberID, connectionID, m.GetConnectionCount())
}

// GetConnections returns all connections of one subscriber, empty when none.
func (m *Manager) GetConnections(subscriberID string) []*Connection {
	connsInterface, ok := m.connections.Load(subscriberID)
	if !ok {
		return []*Connection{}
	}
	return connsInterface.([]*Connection)
}

// GetAllConnections returns every active connection keyed by subscriber id.
// Used by the stats endpoint.
func (m *Manager) GetAllConnections() map[string][]*Connection {
	result := make(map[string][]*Connection)
	m.connections.Range(func(key, value interface{}) bool {
		result[key.(string)] = value.([]*Connection)
		return true
	})
	return result
}

// GetConnectionCount returns the total number of active connections
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectionCount
}

// Broadcast sends the message to every active connection. Failed sends are
// counted per connection and logged; delivery is best-effort. Returns the
// number of successful deliveries.
func (m *Manager) Broadcast(message []byte) int {
	delivered := 0
	m.connections.Range(func(key, value interface{}) bool {
		for _, conn := range value.([]*Connection) {
			if err := conn.Send(message); err != nil {
				conn.DeliveryStats.IncrementFailed(fmt.Sprintf("send error: %v", err))
				utils.LogWarning("Failed to deliver event: subscriberID=%s connectionID=%s error=%v",
					conn.SubscriberID, conn.ConnectionID, err)
				continue
			}
			conn.DeliveryStats.IncrementTotalSent()
			delivered++
		}
		return true
	})
	return delivered
}

// monitorHeartbeat periodically pings the connection and unregisters it when
// no pong arrives within the timeout. Runs in its own goroutine per
// connection and exits on close, timeout or manager shutdown.
func (m *Manager) monitorHeartbeat(conn *Connection) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	conn.Transport.EnablePongHandler(func(appData string) error {
		conn.UpdateHeartbeat()
		return nil
	})

	for {
		select {
		case <-m.shutdownCtx.Done():
			return

		case <-ticker.C:
			if conn.IsClosed() {
				return
			}
			if time.Since(conn.GetLastHeartbeat()) > m.heartbeatTimeout {
				utils.LogWarning("Heartbeat timeout: subscriberID=%s connectionID=%s lastHeartbeat=%v",
					conn.SubscriberID, conn.ConnectionID, conn.GetLastHeartbeat())
				m.Unregister(conn.SubscriberID, conn.ConnectionID)
				return
			}
			if err := conn.Transport.SendPing(); err != nil {
				utils.LogError(fmt.Sprintf("Failed to ping connection %s of subscriber %s",
					conn.ConnectionID, conn.SubscriberID), err)
				m.Unregister(conn.SubscriberID, conn.ConnectionID)
				return
			}
		}
	}
}

// Shutdown closes every connection with a normal closure code and waits for
// monitoring goroutines to exit. Called during server shutdown.
func (m *Manager) Shutdown() {
	utils.LogInfo("Shutting down WebSocket manager")

	m.shutdownFn()

	m.connections.Range(func(key, value interface{}) bool {
		for _, conn := range value.([]*Connection) {
			if err := conn.Close(1000, "server shutdown"); err != nil {
				utils.LogError(fmt.Sprintf("Failed to close connection %s during shutdown",
					conn.ConnectionID), err)
			}
		}
		return true
	})

	m.wg.Wait()
	utils.LogInfo("WebSocket manager shutdown complete")
}
