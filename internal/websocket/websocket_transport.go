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
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport implements Transport over gorilla/websocket.
type WebSocketTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport wraps an established gorilla/websocket connection.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	return &WebSocketTransport{
		conn: conn,
	}
}

// Send delivers the message as a text frame.
func (t *WebSocketTransport) Send(message []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, message)
}

// Close sends a close frame and closes the underlying connection.
func (t *WebSocketTransport) Close(code int, reason string) error {
	closeMessage := websocket.FormatCloseMessage(code, reason)
	if err := t.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		return err
	}
	return t.conn.Close()
}

// SetReadDeadline bounds read operations; used for heartbeat timeouts.
func (t *WebSocketTransport) SetReadDeadline(deadline time.Time) error {
	return t.conn.SetReadDeadline(deadline)
}

// SetWriteDeadline bounds write operations to protect against slow clients.
func (t *WebSocketTransport) SetWriteDeadline(deadline time.Time) error {
	return t.conn.SetWriteDeadline(deadline)
}

// EnablePongHandler installs the pong frame callback.
func (t *WebSocketTransport) EnablePongHandler(handler func(string) error) {
	t.conn.SetPongHandler(handler)
}

// SendPing sends a WebSocket ping frame.
func (t *WebSocketTransport) SendPing() error {
	return t.conn.WriteMessage(websocket.PingMessage, []byte{})
}

// ReadMessage reads the next frame; connection handlers use it to detect
// disconnections.
func (t *WebSocketTransport) ReadMessage() (messageType int, payload []byte, err error) {
	return t.conn.ReadMessage()
}
