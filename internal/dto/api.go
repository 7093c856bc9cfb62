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

package dto

import (
	"time"

	"api-manager/src/internal/model"
)

// CreateAPIRequest is the request body to create an API
type CreateAPIRequest struct {
	Name        string            `json:"name" binding:"required" validate:"required,max=256"`
	Version     string            `json:"version" binding:"required" validate:"required,max=64"`
	Description string            `json:"description,omitempty" validate:"max=1024"`
	Definition  *model.Definition `json:"definition,omitempty"`
	Picture     string            `json:"picture,omitempty"`
}

// UpdateAPIRequest is the request body to update an API. Lifecycle state
// changes ride along with the definition update and are validated by the
// lifecycle state machine before anything is persisted.
type UpdateAPIRequest struct {
	Name    string `json:"name,omitempty" validate:"max=256"`
	Version string `json:"version,omitempty" validate:"max=64"`

	// Description and Picture are pointers so that an explicit empty string
	// clears the stored value while an absent field leaves it untouched.
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
	Picture     *string `json:"picture,omitempty"`

	Definition     *model.Definition `json:"definition,omitempty"`
	LifecycleState string            `json:"lifecycleState,omitempty"`
}

// LifecycleRequest is the request body for an explicit lifecycle transition
type LifecycleRequest struct {
	State string `json:"state" binding:"required"`
}

// DeployRequest is the request body for a deploy operation
type DeployRequest struct {
	// EventType defaults to PUBLISH_API when empty; UNPUBLISH_API records an
	// undeploy snapshot.
	EventType string `json:"eventType,omitempty"`

	// Label is attached to PUBLISH_API events when non-empty.
	Label string `json:"deploymentLabel,omitempty"`
}

// APIResponse is the response shape of one API record
type APIResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description,omitempty"`
	LifecycleState  string            `json:"lifecycleState"`
	DeploymentState string            `json:"deploymentState"`
	WorkflowState   string            `json:"workflowState,omitempty"`
	Definition      *model.Definition `json:"definition,omitempty"`
	DeployedAt      *time.Time        `json:"deployedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// APIListResponse wraps the API collection listing
type APIListResponse struct {
	Count int           `json:"count"`
	List  []APIResponse `json:"list"`
}

// SyncStatusResponse reports the synchronization verdict of an API
type SyncStatusResponse struct {
	ApiID        string `json:"apiId"`
	Synchronized bool   `json:"isSynchronized"`
}

// EventResponse is the response shape of one deploy event. The payload
// snapshot is omitted from listings to keep responses small.
type EventResponse struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	DeploymentNumber string    `json:"deploymentNumber,omitempty"`
	DeploymentLabel  string    `json:"deploymentLabel,omitempty"`
	User             string    `json:"user,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// EventListResponse wraps an API's deploy event history
type EventListResponse struct {
	Count int             `json:"count"`
	List  []EventResponse `json:"list"`
}

// AuditResponse is the response shape of one audit record
type AuditResponse struct {
	ID            string            `json:"id"`
	ReferenceType string            `json:"referenceType"`
	ReferenceID   string            `json:"referenceId"`
	Event         string            `json:"event"`
	User          string            `json:"user,omitempty"`
	Patch         string            `json:"patch,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// AuditListResponse wraps the audit trail listing
type AuditListResponse struct {
	Count int             `json:"count"`
	List  []AuditResponse `json:"list"`
}

// CreatePlanRequest is the request body to create a plan for an API
type CreatePlanRequest struct {
	Name        string `json:"name" binding:"required" validate:"required,max=256"`
	Description string `json:"description,omitempty" validate:"max=1024"`
	Security    string `json:"security,omitempty"`
}

// UpdatePlanRequest is the request body to update a plan
type UpdatePlanRequest struct {
	Name        string `json:"name,omitempty" validate:"max=256"`
	Description string `json:"description,omitempty" validate:"max=1024"`
	Security    string `json:"security,omitempty"`
	Status      string `json:"status,omitempty"`
}

// PlanResponse is the response shape of one plan
type PlanResponse struct {
	ID             string    `json:"id"`
	ApiID          string    `json:"apiId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status"`
	Security       string    `json:"security,omitempty"`
	NeedRedeployAt time.Time `json:"needRedeployAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PlanListResponse wraps an API's plan listing
type PlanListResponse struct {
	Count int            `json:"count"`
	List  []PlanResponse `json:"list"`
}

// HookEventEnvelope frames a hook event broadcast over the notification
// websocket.
type HookEventEnvelope struct {
	Type          string          `json:"type"`
	Payload       model.HookEvent `json:"payload"`
	Timestamp     string          `json:"timestamp"`
	CorrelationID string          `json:"correlationId"`
}
