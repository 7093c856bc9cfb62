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

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"api-manager/src/internal/utils"
	ws "api-manager/src/internal/websocket"
)

// connectionAck is sent to a subscriber right after a successful upgrade.
type connectionAck struct {
	Type         string `json:"type"`
	SubscriberID string `json:"subscriberId"`
	ConnectionID string `json:"connectionId"`
	Timestamp    string `json:"timestamp"`
}

// WebSocketHandler upgrades notification subscribers (gateways, consoles) to
// WebSocket and keeps their connections registered for hook broadcasts.
type WebSocketHandler struct {
	manager  *ws.Manager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(manager *ws.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Subscribers are internal components; origin is not checked.
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// RegisterRoutes registers the notification websocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/internal/v1/ws/notifications/connect", h.Connect)
	router.GET("/api/internal/v1/ws/notifications/stats", h.Stats)
}

// Connect handles WebSocket upgrade requests. A subscriber may pass its own
// id via the subscriberId query parameter; one is generated otherwise.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	subscriberID := c.Query("subscriberId")
	if subscriberID == "" {
		subscriberID = uuid.New().String()
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogError("WebSocket upgrade failed", err)
		// Upgrade error response is already written by the upgrader.
		return
	}

	transport := ws.NewWebSocketTransport(conn)
	connection, err := h.manager.Register(subscriberID, transport)
	if err != nil {
		utils.LogError("Connection registration failed", err)
		message, _ := json.Marshal(map[string]string{
			"type":    "error",
			"message": err.Error(),
		})
		conn.WriteMessage(websocket.TextMessage, message)
		conn.Close()
		return
	}

	ack := connectionAck{
		Type:         "connection.ack",
		SubscriberID: subscriberID,
		ConnectionID: connection.ConnectionID,
		Timestamp:    time.Now().Format(time.RFC3339),
	}
	if ackJSON, err := json.Marshal(ack); err == nil {
		if err := connection.Send(ackJSON); err != nil {
			utils.LogError("Failed to send connection ack", err)
		}
	}

	// Block reading until the connection closes; subscribers are not
	// expected to send application messages, the read loop exists to detect
	// disconnections and process control frames.
	h.readLoop(connection)

	h.manager.Unregister(subscriberID, connection.ConnectionID)
}

// Stats handles GET /api/internal/v1/ws/notifications/stats
func (h *WebSocketHandler) Stats(c *gin.Context) {
	type connectionStats struct {
		SubscriberID  string  `json:"subscriberId"`
		ConnectionID  string  `json:"connectionId"`
		ConnectedAt   string  `json:"connectedAt"`
		EventsSent    int64   `json:"eventsSent"`
		FailedEvents  int64   `json:"failedEvents"`
		SuccessRate   float64 `json:"successRate"`
		LastHeartbeat string  `json:"lastHeartbeat"`
	}

	var stats []connectionStats
	for subscriberID, conns := range h.manager.GetAllConnections() {
		for _, conn := range conns {
			stats = append(stats, connectionStats{
				SubscriberID:  subscriberID,
				ConnectionID:  conn.ConnectionID,
				ConnectedAt:   conn.ConnectedAt.Format(time.RFC3339),
				EventsSent:    conn.DeliveryStats.GetTotalSent(),
				FailedEvents:  conn.DeliveryStats.GetFailedCount(),
				SuccessRate:   conn.DeliveryStats.GetSuccessRate(),
				LastHeartbeat: conn.GetLastHeartbeat().Format(time.RFC3339),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalConnections": h.manager.GetConnectionCount(),
		"connections":      stats,
	})
}

func (h *WebSocketHandler) readLoop(conn *ws.Connection) {
	defer func() {
		if r := recover(); r != nil {
			utils.LogWarning("Panic in WebSocket read loop: subscriberID=%s connectionID=%s panic=%v",
				conn.SubscriberID, conn.ConnectionID, r)
		}
	}()

	for {
		if conn.IsClosed() {
			return
		}

		wsTransport, ok := conn.Transport.(*ws.WebSocketTransport)
		if !ok {
			utils.LogWarning("Invalid transport type for connection: subscriberID=%s connectionID=%s",
				conn.SubscriberID, conn.ConnectionID)
			return
		}

		if _, _, err := wsTransport.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.LogWarning("WebSocket read error: subscriberID=%s connectionID=%s error=%v",
					conn.SubscriberID, conn.ConnectionID, err)
			}
			return
		}
	}
}
