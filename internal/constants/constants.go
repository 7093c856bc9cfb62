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

package constants

// Administrative lifecycle state constants
const (
	LifecycleCreated     = "CREATED"
	LifecyclePublished   = "PUBLISHED"
	LifecycleUnpublished = "UNPUBLISHED"
	LifecycleDeprecated  = "DEPRECATED"
	LifecycleArchived    = "ARCHIVED"
)

// ValidLifecycleStates Valid administrative lifecycle states
var ValidLifecycleStates = map[string]bool{
	LifecycleCreated:     true,
	LifecyclePublished:   true,
	LifecycleUnpublished: true,
	LifecycleDeprecated:  true,
	LifecycleArchived:    true,
}

// Runtime deployment state constants (orthogonal to the lifecycle state)
const (
	DeploymentStateStopped = "STOPPED"
	DeploymentStateStarted = "STARTED"
)

// Workflow state constants
const (
	WorkflowDraft             = "DRAFT"
	WorkflowInReview          = "IN_REVIEW"
	WorkflowRequestForChanges = "REQUEST_FOR_CHANGES"
	WorkflowReviewOK          = "REVIEW_OK"
)

// Deploy event type constants
const (
	EventPublishAPI   = "PUBLISH_API"
	EventUnpublishAPI = "UNPUBLISH_API"
	EventStartAPI     = "START_API"
	EventStopAPI      = "STOP_API"
)

// ValidEventTypes Valid deploy event types
var ValidEventTypes = map[string]bool{
	EventPublishAPI:   true,
	EventUnpublishAPI: true,
	EventStartAPI:     true,
	EventStopAPI:      true,
}

// Event property keys attached to deploy events
const (
	EventPropertyAPIID            = "api_id"
	EventPropertyUser             = "user"
	EventPropertyDeploymentNumber = "deployment_number"
	EventPropertyDeploymentLabel  = "deployment_label"
)

// Plan status constants
const (
	PlanStatusStaging    = "STAGING"
	PlanStatusPublished  = "PUBLISHED"
	PlanStatusDeprecated = "DEPRECATED"
	PlanStatusClosed     = "CLOSED"
)

// ValidPlanStatuses Valid plan statuses
var ValidPlanStatuses = map[string]bool{
	PlanStatusStaging:    true,
	PlanStatusPublished:  true,
	PlanStatusDeprecated: true,
	PlanStatusClosed:     true,
}

// Audit reference type constants
const (
	AuditReferenceAPI          = "API"
	AuditReferenceApplication  = "APPLICATION"
	AuditReferenceOrganization = "ORGANIZATION"
)

// Audit event name constants
const (
	AuditAPICreated     = "API_CREATED"
	AuditAPIUpdated     = "API_UPDATED"
	AuditAPIDeleted     = "API_DELETED"
	AuditAPIDeployed    = "API_DEPLOYED"
	AuditAPIStarted     = "API_STARTED"
	AuditAPIStopped     = "API_STOPPED"
	AuditAPIRollbacked  = "API_ROLLBACKED"
	AuditPlanCreated    = "PLAN_CREATED"
	AuditPlanUpdated    = "PLAN_UPDATED"
	AuditPlanDeprecated = "PLAN_DEPRECATED"
)

// Notification hook names fired towards connected gateway subscribers
const (
	HookAPIDeployed   = "API_DEPLOYED"
	HookAPIStarted    = "API_STARTED"
	HookAPIStopped    = "API_STOPPED"
	HookAPIUpdated    = "API_UPDATED"
	HookAPIDeprecated = "API_DEPRECATED"
)
