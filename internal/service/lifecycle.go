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

	"api-manager/src/internal/constants"
	"api-manager/src/internal/model"
	"api-manager/src/internal/repository"
	"api-manager/src/internal/utils"
)

// CheckLifecycleTransition validates whether an API's administrative
// lifecycle state may move from current to requested. Rules:
//   - DEPRECATED is terminal: every request fails, including a no-op
//     request to DEPRECATED itself.
//   - Requesting the current state is otherwise an idempotent no-op.
//   - ARCHIVED only allows remaining ARCHIVED.
//   - UNPUBLISHED cannot go back to CREATED.
//   - A CREATED API under review (workflow IN_REVIEW) cannot move at all.
func CheckLifecycleTransition(current, requested, workflow string) error {
	if !constants.ValidLifecycleStates[requested] {
		return fmt.Errorf("%w: %s", constants.ErrInvalidLifecycleState, requested)
	}

	if current == constants.LifecycleDeprecated {
		return fmt.Errorf("%w: api is deprecated", constants.ErrLifecycleTransitionNotAllowed)
	}
	if current == requested {
		return nil
	}
	switch current {
	case constants.LifecycleArchived:
		return fmt.Errorf("%w: api is archived", constants.ErrLifecycleTransitionNotAllowed)
	case constants.LifecycleUnpublished:
		if requested == constants.LifecycleCreated {
			return fmt.Errorf("%w: an unpublished api cannot go back to created",
				constants.ErrLifecycleTransitionNotAllowed)
		}
	case constants.LifecycleCreated:
		if workflow == constants.WorkflowInReview {
			return fmt.Errorf("%w: api is under review", constants.ErrLifecycleTransitionNotAllowed)
		}
	}
	return nil
}

// LifecycleService applies administrative lifecycle transitions, including
// the deprecation side effect on plans.
type LifecycleService struct {
	apiRepo  repository.APIRepository
	planRepo repository.PlanRepository
	auditor  Auditor
	notifier Notifier
	locks    *utils.KeyMutex
}

// NewLifecycleService creates a new LifecycleService instance
func NewLifecycleService(apiRepo repository.APIRepository, planRepo repository.PlanRepository,
	auditor Auditor, notifier Notifier, locks *utils.KeyMutex) *LifecycleService {
	return &LifecycleService{
		apiRepo:  apiRepo,
		planRepo: planRepo,
		auditor:  auditor,
		notifier: notifier,
		locks:    locks,
	}
}

// ApplyTransition validates and applies a lifecycle transition, serialized
// per API so that concurrent requests on the same API cannot lose updates.
// Moving to DEPRECATED forces every PUBLISHED or STAGING plan of the API to
// DEPRECATED and fires the API_DEPRECATED hook.
func (s *LifecycleService) ApplyTransition(ctx context.Context, apiID, requested, user string) (*model.Api, error) {
	s.locks.Lock(apiID)
	defer s.locks.Unlock(apiID)

	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}

	if err := CheckLifecycleTransition(api.LifecycleState, requested, api.WorkflowState); err != nil {
		return nil, err
	}
	if api.LifecycleState == requested {
		return api, nil
	}

	before := *api
	api.LifecycleState = requested
	api.UpdatedAt = time.Now().UTC()

	updated, err := s.apiRepo.Update(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("failed to update api %s: %w", apiID, err)
	}

	if requested == constants.LifecycleDeprecated {
		s.deprecateActivePlans(ctx, updated, user)
		s.notifier.Trigger(constants.HookAPIDeprecated, apiID, map[string]string{"user": user})
	}

	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user, "lifecycle_state": requested},
		constants.AuditAPIUpdated, updated.UpdatedAt, &before, updated)
	return updated, nil
}

// deprecateActivePlans forces every PUBLISHED or STAGING plan of the API to
// DEPRECATED. Plan failures are logged but do not roll back the transition:
// the API itself is already deprecated at this point.
func (s *LifecycleService) deprecateActivePlans(ctx context.Context, api *model.Api, user string) {
	plans, err := s.planRepo.FindByAPI(ctx, api.ID)
	if err != nil {
		utils.LogError(fmt.Sprintf("Failed to list plans of api %s for deprecation", api.ID), err)
		return
	}
	now := time.Now().UTC()
	for _, plan := range plans {
		if plan.Status != constants.PlanStatusPublished && plan.Status != constants.PlanStatusStaging {
			continue
		}
		if err := s.planRepo.UpdateStatus(ctx, plan.ID, constants.PlanStatusDeprecated, now); err != nil {
			utils.LogError(fmt.Sprintf("Failed to deprecate plan %s of api %s", plan.ID, api.ID), err)
			continue
		}
		after := *plan
		after.Status = constants.PlanStatusDeprecated
		after.NeedRedeployAt = now
		s.auditor.Record(constants.AuditReferenceAPI, api.ID,
			map[string]string{"user": user, "plan": plan.ID},
			constants.AuditPlanDeprecated, now, plan, &after)
	}
}
