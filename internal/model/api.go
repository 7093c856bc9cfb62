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

package model

import (
	"time"
)

// Api represents the mutable control-plane record of one API definition.
// The administrative lifecycle state and the runtime deployment state are
// orthogonal: an UNPUBLISHED API can still be STARTED on a gateway.
type Api struct {
	ID          string `json:"id" db:"uuid"`
	Name        string `json:"name" db:"name"`
	Version     string `json:"version" db:"version"`
	Description string `json:"description,omitempty" db:"description"`

	// LifecycleState is the administrative state:
	// CREATED, PUBLISHED, UNPUBLISHED, DEPRECATED or ARCHIVED.
	LifecycleState string `json:"lifecycleState" db:"lifecycle_state"`

	// DeploymentState is the runtime state: STOPPED or STARTED.
	DeploymentState string `json:"deploymentState" db:"deployment_state"`

	// WorkflowState tracks the review workflow; a CREATED API in IN_REVIEW
	// cannot change its lifecycle state until the review completes.
	WorkflowState string `json:"workflowState,omitempty" db:"workflow_state"`

	// Definition is the gateway-relevant configuration that deploy events
	// snapshot and the synchronization checker compares.
	Definition *Definition `json:"definition,omitempty"`

	// Picture is an ephemeral presentation blob (base64 data URL). It is
	// stripped from every event payload to bound history growth.
	Picture string `json:"picture,omitempty" db:"picture"`

	// DeployedAt is nil until the first deploy-class event is recorded.
	DeployedAt *time.Time `json:"deployedAt,omitempty" db:"deployed_at"`
	CreatedAt  time.Time  `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt,omitempty" db:"updated_at"`
}

// TableName returns the table name for the Api model
func (Api) TableName() string {
	return "apis"
}

// Definition holds the deployable configuration of an API.
type Definition struct {
	Proxy             *Proxy                      `json:"proxy,omitempty"`
	Paths             map[string][]Rule           `json:"paths,omitempty"`
	Plans             []PlanRef                   `json:"plans,omitempty"`
	Properties        map[string]string           `json:"properties,omitempty"`
	Resources         []Resource                  `json:"resources,omitempty"`
	Tags              []string                    `json:"tags,omitempty"`
	ResponseTemplates map[string]ResponseTemplate `json:"responseTemplates,omitempty"`
}

// Proxy represents the routing configuration between context path and backends.
type Proxy struct {
	ContextPath      string     `json:"contextPath"`
	StripContextPath bool       `json:"stripContextPath,omitempty"`
	PreserveHost     bool       `json:"preserveHost,omitempty"`
	Endpoints        []Endpoint `json:"endpoints,omitempty"`
}

// Endpoint represents a single backend target of the proxy.
type Endpoint struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Weight int    `json:"weight,omitempty"`
	Backup bool   `json:"backup,omitempty"`
}

// Rule is one policy attached to a path. Description is documentation-only
// and is ignored by the synchronization check.
type Rule struct {
	Policy        string                 `json:"policy"`
	Description   string                 `json:"description,omitempty"`
	Enabled       bool                   `json:"enabled"`
	Methods       []string               `json:"methods,omitempty"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
}

// PlanRef is the declarative reference to a plan inside the definition.
// Plan status and redeploy bookkeeping live on the Plan entity.
type PlanRef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Security string `json:"security,omitempty"`
}

// Resource is a named reusable configuration block (cache, oauth2 server, ...).
type Resource struct {
	Name          string                 `json:"name"`
	Type          string                 `json:"type"`
	Enabled       bool                   `json:"enabled"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
}

// ResponseTemplate customizes the gateway response for a given error key.
type ResponseTemplate struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
}
