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
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/database"
	"api-manager/src/internal/model"
)

// APIRepo implements APIRepository
type APIRepo struct {
	db *database.DB
}

// NewAPIRepo creates a new API repository
func NewAPIRepo(db *database.DB) APIRepository {
	return &APIRepo{db: db}
}

// Create inserts a new API record. The caller is responsible for generating
// the UUID and setting the initial states.
func (r *APIRepo) Create(ctx context.Context, api *model.Api) error {
	definitionJSON, err := serializeDefinition(api.Definition)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO apis (uuid, name, version, description, lifecycle_state,
			deployment_state, workflow_state, definition, picture, deployed_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), api.ID, api.Name, api.Version,
		api.Description, api.LifecycleState, api.DeploymentState, api.WorkflowState,
		definitionJSON, api.Picture, nullableTime(api.DeployedAt), api.CreatedAt, api.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert api: %w", err)
	}

	return nil
}

// GetByUUID retrieves a single API record; returns (nil, nil) when not found.
func (r *APIRepo) GetByUUID(ctx context.Context, apiID string) (*model.Api, error) {
	query := `
		SELECT uuid, name, version, description, lifecycle_state, deployment_state,
			workflow_state, definition, picture, deployed_at, created_at, updated_at
		FROM apis WHERE uuid = ?
	`

	row := r.db.QueryRowContext(ctx, r.db.Rebind(query), apiID)
	api, err := scanAPI(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api: %w", err)
	}
	return api, nil
}

// List retrieves all API records ordered by creation time.
func (r *APIRepo) List(ctx context.Context) ([]*model.Api, error) {
	query := `
		SELECT uuid, name, version, description, lifecycle_state, deployment_state,
			workflow_state, definition, picture, deployed_at, created_at, updated_at
		FROM apis ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	defer rows.Close()

	var apis []*model.Api
	for rows.Next() {
		api, err := scanAPI(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api: %w", err)
		}
		apis = append(apis, api)
	}
	return apis, rows.Err()
}

// Update overwrites the mutable fields of an existing API record and returns
// the stored state. Updating a record that no longer exists returns
// ErrAPINotFound rather than (nil, nil): callers use the result directly.
func (r *APIRepo) Update(ctx context.Context, api *model.Api) (*model.Api, error) {
	definitionJSON, err := serializeDefinition(api.Definition)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE apis SET name = ?, version = ?, description = ?, lifecycle_state = ?,
			deployment_state = ?, workflow_state = ?, definition = ?, picture = ?,
			deployed_at = ?, updated_at = ?
		WHERE uuid = ?
	`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), api.Name, api.Version,
		api.Description, api.LifecycleState, api.DeploymentState, api.WorkflowState,
		definitionJSON, api.Picture, nullableTime(api.DeployedAt), api.UpdatedAt, api.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update api: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, constants.ErrAPINotFound
	}

	return r.GetByUUID(ctx, api.ID)
}

// Delete removes an API record.
func (r *APIRepo) Delete(ctx context.Context, apiID string) error {
	query := `DELETE FROM apis WHERE uuid = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), apiID); err != nil {
		return fmt.Errorf("failed to delete api: %w", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAPI(row rowScanner) (*model.Api, error) {
	var api model.Api
	var description, workflowState, picture sql.NullString
	var definitionJSON sql.NullString
	var deployedAt sql.NullTime

	err := row.Scan(&api.ID, &api.Name, &api.Version, &description,
		&api.LifecycleState, &api.DeploymentState, &workflowState,
		&definitionJSON, &picture, &deployedAt, &api.CreatedAt, &api.UpdatedAt)
	if err != nil {
		return nil, err
	}

	api.Description = description.String
	api.WorkflowState = workflowState.String
	api.Picture = picture.String
	if deployedAt.Valid {
		t := deployedAt.Time
		api.DeployedAt = &t
	}

	definition, err := deserializeDefinition(definitionJSON)
	if err != nil {
		return nil, err
	}
	api.Definition = definition

	return &api, nil
}

func serializeDefinition(definition *model.Definition) (interface{}, error) {
	if definition == nil {
		return nil, nil
	}
	data, err := json.Marshal(definition)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize definition: %w", err)
	}
	return string(data), nil
}

func deserializeDefinition(definitionJSON sql.NullString) (*model.Definition, error) {
	if !definitionJSON.Valid || definitionJSON.String == "" {
		return nil, nil
	}
	var definition model.Definition
	if err := json.Unmarshal([]byte(definitionJSON.String), &definition); err != nil {
		return nil, fmt.Errorf("failed to deserialize definition: %w", err)
	}
	return &definition, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
