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
	"fmt"
	"time"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/database"
	"api-manager/src/internal/model"
)

// PlanRepo implements PlanRepository
type PlanRepo struct {
	db *database.DB
}

// NewPlanRepo creates a new plan repository
func NewPlanRepo(db *database.DB) PlanRepository {
	return &PlanRepo{db: db}
}

// Create inserts a new plan.
func (r *PlanRepo) Create(ctx context.Context, plan *model.Plan) error {
	query := `
		INSERT INTO plans (uuid, api_uuid, name, description, status, security,
			need_redeploy_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), plan.ID, plan.ApiID,
		plan.Name, plan.Description, plan.Status, plan.Security,
		plan.NeedRedeployAt, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	return nil
}

// GetByUUID retrieves a single plan; returns (nil, nil) when not found.
func (r *PlanRepo) GetByUUID(ctx context.Context, planID string) (*model.Plan, error) {
	query := `
		SELECT uuid, api_uuid, name, description, status, security,
			need_redeploy_at, created_at, updated_at
		FROM plans WHERE uuid = ?
	`

	row := r.db.QueryRowContext(ctx, r.db.Rebind(query), planID)
	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// FindByAPI returns all plans attached to an API.
func (r *PlanRepo) FindByAPI(ctx context.Context, apiID string) ([]*model.Plan, error) {
	query := `
		SELECT uuid, api_uuid, name, description, status, security,
			need_redeploy_at, created_at, updated_at
		FROM plans WHERE api_uuid = ? ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*model.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// Update overwrites the mutable fields of a plan and returns the stored state.
// Updating a plan that no longer exists returns ErrPlanNotFound.
func (r *PlanRepo) Update(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	query := `
		UPDATE plans SET name = ?, description = ?, status = ?, security = ?,
			need_redeploy_at = ?, updated_at = ?
		WHERE uuid = ?
	`

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), plan.Name,
		plan.Description, plan.Status, plan.Security, plan.NeedRedeployAt,
		plan.UpdatedAt, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, constants.ErrPlanNotFound
	}

	return r.GetByUUID(ctx, plan.ID)
}

// UpdateStatus moves a plan to the given status and advances need_redeploy_at.
func (r *PlanRepo) UpdateStatus(ctx context.Context, planID, status string, needRedeployAt time.Time) error {
	query := `
		UPDATE plans SET status = ?, need_redeploy_at = ?, updated_at = ?
		WHERE uuid = ?
	`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), status, needRedeployAt,
		time.Now(), planID)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	return nil
}

// DeleteByAPI purges all plans of an API as part of whole-API deletion.
func (r *PlanRepo) DeleteByAPI(ctx context.Context, apiID string) error {
	query := `DELETE FROM plans WHERE api_uuid = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), apiID); err != nil {
		return fmt.Errorf("failed to delete plans: %w", err)
	}
	return nil
}

func scanPlan(row rowScanner) (*model.Plan, error) {
	var plan model.Plan
	var description, security sql.NullString

	err := row.Scan(&plan.ID, &plan.ApiID, &plan.Name, &description, &plan.Status,
		&security, &plan.NeedRedeployAt, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}

	plan.Description = description.String
	plan.Security = security.String
	return &plan, nil
}
