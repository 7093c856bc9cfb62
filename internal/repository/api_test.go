/*
 *  Copyright (c) 2026, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
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
	"errors"
	"testing"
	"time"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/model"
)

func testAPI(apiID string) *model.Api {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.Api{
		ID:              apiID,
		Name:            "orders",
		Version:         "1.0.0",
		LifecycleState:  "CREATED",
		DeploymentState: "STOPPED",
		WorkflowState:   "DRAFT",
		Definition: &model.Definition{
			Proxy: &model.Proxy{
				ContextPath: "/orders",
				Endpoints:   []model.Endpoint{{Name: "default", Target: "https://backend"}},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAPIRepoCreateGetUpdate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAPIRepo(db)

	api := testAPI("api-1")
	if err := repo.Create(context.Background(), api); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stored, err := repo.GetByUUID(context.Background(), "api-1")
	if err != nil {
		t.Fatalf("GetByUUID() error = %v", err)
	}
	if stored == nil || stored.Name != "orders" {
		t.Fatalf("stored = %v, want orders", stored)
	}
	if stored.Definition == nil || stored.Definition.Proxy.ContextPath != "/orders" {
		t.Fatalf("definition did not round-trip: %v", stored.Definition)
	}
	if stored.DeployedAt != nil {
		t.Fatalf("deployedAt = %v, want nil before any deploy", stored.DeployedAt)
	}

	stored.Description = "the orders api"
	deployedAt := stored.UpdatedAt.Add(time.Minute)
	stored.DeployedAt = &deployedAt
	updated, err := repo.Update(context.Background(), stored)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Description != "the orders api" {
		t.Fatalf("description = %q after update", updated.Description)
	}
	if updated.DeployedAt == nil || !updated.DeployedAt.Equal(deployedAt) {
		t.Fatalf("deployedAt = %v, want %v", updated.DeployedAt, deployedAt)
	}
}

func TestAPIRepoUpdateMissingRecord(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAPIRepo(db)

	_, err := repo.Update(context.Background(), testAPI("never-created"))
	if !errors.Is(err, constants.ErrAPINotFound) {
		t.Fatalf("Update() error = %v, want %v", err, constants.ErrAPINotFound)
	}
}

func TestAPIRepoGetMissingRecord(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewAPIRepo(db)

	api, err := repo.GetByUUID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByUUID() error = %v", err)
	}
	if api != nil {
		t.Fatalf("api = %v, want nil for a missing record", api)
	}
}
