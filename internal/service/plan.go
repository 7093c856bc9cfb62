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
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/dto"
	"api-manager/src/internal/model"
	"api-manager/src/internal/repository"
)

// PlanService manages the subscription plans of an API. Every
// gateway-relevant plan change advances needRedeployAt, which the
// synchronization checker compares against the API's deployedAt.
type PlanService struct {
	apiRepo  repository.APIRepository
	planRepo repository.PlanRepository
	auditor  Auditor
}

// NewPlanService creates a new PlanService instance
func NewPlanService(apiRepo repository.APIRepository, planRepo repository.PlanRepository,
	auditor Auditor) *PlanService {
	return &PlanService{
		apiRepo:  apiRepo,
		planRepo: planRepo,
		auditor:  auditor,
	}
}

// CreatePlan attaches a new plan to an API in STAGING status.
func (s *PlanService) CreatePlan(ctx context.Context, apiID string, req *dto.CreatePlanRequest, user string) (*model.Plan, error) {
	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}

	now := time.Now().UTC()
	plan := &model.Plan{
		ID:             uuid.New().String(),
		ApiID:          apiID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         constants.PlanStatusStaging,
		Security:       req.Security,
		NeedRedeployAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user, "plan": plan.ID},
		constants.AuditPlanCreated, now, nil, plan)
	return plan, nil
}

// GetPlan returns one plan by id
func (s *PlanService) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	plan, err := s.planRepo.GetByUUID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", planID, err)
	}
	if plan == nil {
		return nil, constants.ErrPlanNotFound
	}
	return plan, nil
}

// ListPlans returns every plan of an API
func (s *PlanService) ListPlans(ctx context.Context, apiID string) ([]*model.Plan, error) {
	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}
	plans, err := s.planRepo.FindByAPI(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans of api %s: %w", apiID, err)
	}
	return plans, nil
}

// UpdatePlan applies a partial update and advances needRedeployAt: any plan
// change requires a new deploy before the API counts as synchronized again.
func (s *PlanService) UpdatePlan(ctx context.Context, planID string, req *dto.UpdatePlanRequest, user string) (*model.Plan, error) {
	plan, err := s.planRepo.GetByUUID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", planID, err)
	}
	if plan == nil {
		return nil, constants.ErrPlanNotFound
	}

	if req.Status != "" && !constants.ValidPlanStatuses[req.Status] {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidPlanStatus, req.Status)
	}

	before := *plan
	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.Description != "" {
		plan.Description = req.Description
	}
	if req.Security != "" {
		plan.Security = req.Security
	}
	if req.Status != "" {
		plan.Status = req.Status
	}
	now := time.Now().UTC()
	plan.NeedRedeployAt = now
	plan.UpdatedAt = now

	updated, err := s.planRepo.Update(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan %s: %w", planID, err)
	}

	s.auditor.Record(constants.AuditReferenceAPI, plan.ApiID,
		map[string]string{"user": user, "plan": planID},
		constants.AuditPlanUpdated, now, &before, updated)
	return updated, nil
}

// DeprecatePlan forces a plan to DEPRECATED status.
func (s *PlanService) DeprecatePlan(ctx context.Context, planID, user string) (*model.Plan, error) {
	plan, err := s.planRepo.GetByUUID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", planID, err)
	}
	if plan == nil {
		return nil, constants.ErrPlanNotFound
	}

	now := time.Now().UTC()
	if err := s.planRepo.UpdateStatus(ctx, planID, constants.PlanStatusDeprecated, now); err != nil {
		return nil, fmt.Errorf("failed to deprecate plan %s: %w", planID, err)
	}

	after := *plan
	after.Status = constants.PlanStatusDeprecated
	after.NeedRedeployAt = now
	s.auditor.Record(constants.AuditReferenceAPI, plan.ApiID,
		map[string]string{"user": user, "plan": planID},
		constants.AuditPlanDeprecated, now, plan, &after)
	return &after, nil
}
