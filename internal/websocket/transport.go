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
)

// Transport is a protocol-independent delivery channel for hook events.
// Isolating the protocol behind this interface keeps the connection manager
// free of WebSocket specifics and testable with in-memory fakes.
type Transport interface {
	// Send delivers a message to the connected subscriber. Returns an error
	// if the send fails (connection closed, timeout).
	Send(message []byte) error

	// Close terminates the transport gracefully with a protocol close code
	// and a human-readable reason.
	Close(code int, reason string) error

	// SetReadDeadline bounds read operations; a zero time disables it.
	SetReadDeadline(deadline time.Time) error

	// SetWriteDeadline bounds write operations; a zero time disables it.
	SetWriteDeadline(deadline time.Time) error

	// EnablePongHandler installs the callback invoked when a pong frame
	// arrives, used to track connection liveness.
	EnablePongHandler(handler func(string) error)

	// SendPing sends a ping frame to test connection liveness.
	SendPing() error
}
