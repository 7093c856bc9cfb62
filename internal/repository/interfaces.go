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

package repository

import (
	"context"
	"time"

	"api-manager/src/internal/model"
)

// APIRepository is the definition store: the current mutable API record.
// Single-row getters return (nil, nil) when no row matches; callers convert
// that to a typed not-found error.
type APIRepository interface {
	Create(ctx context.Context, api *model.Api) error
	GetByUUID(ctx context.Context, apiID string) (*model.Api, error)
	List(ctx context.Context) ([]*model.Api, error)
	Update(ctx context.Context, api *model.Api) (*model.Api, error)
	Delete(ctx context.Context, apiID string) error
}

// EventRepository is the append-only deploy event log.
type EventRepository interface {
	Append(ctx context.Context, event *model.Event) error

	// FindLatestByTypes returns the most recent event among the given types
	// for the API, ordered by creation time with insertion order breaking
	// ties. Returns (nil, nil) when the API has no matching events.
	FindLatestByTypes(ctx context.Context, apiID string, types ...string) (*model.Event, error)

	// FindAllByType returns every event of the given type for the API,
	// oldest first.
	FindAllByType(ctx context.Context, apiID string, eventType string) ([]*model.Event, error)

	// FindAllByAPI returns every event of the API regardless of type,
	// oldest first.
	FindAllByAPI(ctx context.Context, apiID string) ([]*model.Event, error)

	// DeleteByAPI purges the API's events as part of whole-entity deletion.
	DeleteByAPI(ctx context.Context, apiID string) error
}

// AuditRepository persists immutable audit records.
type AuditRepository interface {
	Create(ctx context.Context, audit *model.Audit) error
	List(ctx context.Context, referenceType string, limit, offset int) ([]*model.Audit, error)
}

// PlanRepository stores per-API subscription plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	GetByUUID(ctx context.Context, planID string) (*model.Plan, error)
	FindByAPI(ctx context.Context, apiID string) ([]*model.Plan, error)
	Update(ctx context.Context, plan *model.Plan) (*model.Plan, error)

	// UpdateStatus moves a plan to the given status and advances its
	// need_redeploy_at timestamp.
	UpdateStatus(ctx context.Context, planID, status string, needRedeployAt time.Time) error

	DeleteByAPI(ctx context.Context, apiID string) error
}
