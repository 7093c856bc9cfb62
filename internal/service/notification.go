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

package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"api-manager/src/internal/dto"
	"api-manager/src/internal/model"
	"api-manager/src/internal/utils"
	ws "api-manager/src/internal/websocket"
)

// MaxHookPayloadSize bounds broadcast hook payloads (1MB).
const MaxHookPayloadSize = 1024 * 1024

// NotifierService broadcasts lifecycle hook events to every connected
// subscriber (gateways, consoles). Delivery is best-effort: a hook that
// cannot be delivered is logged and forgotten, it never fails the operation
// that fired it.
type NotifierService struct {
	manager *ws.Manager
}

// NewNotifierService creates a new NotifierService instance
func NewNotifierService(manager *ws.Manager) *NotifierService {
	return &NotifierService{
		manager: manager,
	}
}

// Trigger fires one hook towards all connected subscribers.
func (s *NotifierService) Trigger(hook, apiID string, params map[string]string) {
	correlationID := uuid.New().String()

	event := model.HookEvent{
		Hook:   hook,
		ApiID:  apiID,
		Params: params,
	}
	envelope := dto.HookEventEnvelope{
		Type:          "hook",
		Payload:       event,
		Timestamp:     time.Now().Format(time.RFC3339),
		CorrelationID: correlationID,
	}

	message, err := json.Marshal(envelope)
	if err != nil {
		utils.LogError("Failed to serialize hook event, dropping it", err)
		return
	}
	if len(message) > MaxHookPayloadSize {
		utils.LogWarning("Hook payload exceeds maximum size, dropping it: hook=%s apiID=%s size=%d",
			hook, apiID, len(message))
		return
	}

	delivered := s.manager.Broadcast(message)
	utils.LogDebug("Hook broadcast: hook=%s apiID=%s correlationId=%s delivered=%d",
		hook, apiID, correlationID, delivered)
}

var _ Notifier = (*NotifierService)(nil)
