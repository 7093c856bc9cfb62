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
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/dto"
	"api-manager/src/internal/model"
	"api-manager/src/internal/repository"
	"api-manager/src/internal/utils"
)

var (
	apiNamePattern    = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]{0,255}$`)
	apiVersionPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)
)

// ApiService owns the CRUD and runtime operations on API records, delegating
// transitions to the lifecycle machine and deploy-class events to the
// deployment service.
type ApiService struct {
	apiRepo    repository.APIRepository
	eventRepo  repository.EventRepository
	planRepo   repository.PlanRepository
	deployment *DeploymentService
	lifecycle  *LifecycleService
	auditor    Auditor
	notifier   Notifier
	locks      *utils.KeyMutex
}

// NewApiService creates a new ApiService instance
func NewApiService(apiRepo repository.APIRepository, eventRepo repository.EventRepository,
	planRepo repository.PlanRepository, deployment *DeploymentService, lifecycle *LifecycleService,
	auditor Auditor, notifier Notifier, locks *utils.KeyMutex) *ApiService {
	return &ApiService{
		apiRepo:    apiRepo,
		eventRepo:  eventRepo,
		planRepo:   planRepo,
		deployment: deployment,
		lifecycle:  lifecycle,
		auditor:    auditor,
		notifier:   notifier,
		locks:      locks,
	}
}

// CreateAPI creates a new API record in its initial states: lifecycle
// CREATED, runtime STOPPED, workflow DRAFT.
func (s *ApiService) CreateAPI(ctx context.Context, req *dto.CreateAPIRequest, user string) (*model.Api, error) {
	if !apiNamePattern.MatchString(req.Name) {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidAPIName, req.Name)
	}
	if !apiVersionPattern.MatchString(req.Version) {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidAPIVersion, req.Version)
	}

	existing, err := s.apiRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	for _, other := range existing {
		if strings.EqualFold(other.Name, req.Name) && other.Version == req.Version {
			return nil, fmt.Errorf("%w: %s %s", constants.ErrAPIAlreadyExists, req.Name, req.Version)
		}
	}

	now := time.Now().UTC()
	api := &model.Api{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Version:         req.Version,
		Description:     req.Description,
		LifecycleState:  constants.LifecycleCreated,
		DeploymentState: constants.DeploymentStateStopped,
		WorkflowState:   constants.WorkflowDraft,
		Definition:      req.Definition,
		Picture:         req.Picture,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.apiRepo.Create(ctx, api); err != nil {
		return nil, fmt.Errorf("failed to create api: %w", err)
	}

	s.auditor.Record(constants.AuditReferenceAPI, api.ID,
		map[string]string{"user": user},
		constants.AuditAPICreated, now, nil, api)
	return api, nil
}

// GetAPI returns one API record by id
func (s *ApiService) GetAPI(ctx context.Context, apiID string) (*model.Api, error) {
	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}
	return api, nil
}

// ListAPIs returns every API record
func (s *ApiService) ListAPIs(ctx context.Context) ([]*model.Api, error) {
	apis, err := s.apiRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	return apis, nil
}

// UpdateAPI applies a partial update to the record. A lifecycle state riding
// along with the update goes through the state machine first, so an illegal
// transition rejects the whole update before anything is persisted.
// createdAt and deployedAt always survive the update.
func (s *ApiService) UpdateAPI(ctx context.Context, apiID string, req *dto.UpdateAPIRequest, user string) (*model.Api, error) {
	s.locks.Lock(apiID)
	defer s.locks.Unlock(apiID)

	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}

	deprecating := false
	if req.LifecycleState != "" {
		if err := CheckLifecycleTransition(api.LifecycleState, req.LifecycleState, api.WorkflowState); err != nil {
			return nil, err
		}
		deprecating = req.LifecycleState == constants.LifecycleDeprecated &&
			api.LifecycleState != constants.LifecycleDeprecated
	}

	before := *api
	if req.Name != "" {
		if !apiNamePattern.MatchString(req.Name) {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidAPIName, req.Name)
		}
		api.Name = req.Name
	}
	if req.Version != "" {
		if !apiVersionPattern.MatchString(req.Version) {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidAPIVersion, req.Version)
		}
		api.Version = req.Version
	}
	if req.Description != nil {
		api.Description = *req.Description
	}
	if req.Definition != nil {
		api.Definition = req.Definition
	}
	if req.LifecycleState != "" {
		api.LifecycleState = req.LifecycleState
	}
	if req.Picture != nil {
		api.Picture = *req.Picture
	}
	api.UpdatedAt = time.Now().UTC()

	updated, err := s.apiRepo.Update(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("failed to update api %s: %w", apiID, err)
	}

	if deprecating {
		s.lifecycle.deprecateActivePlans(ctx, updated, user)
		s.notifier.Trigger(constants.HookAPIDeprecated, apiID, map[string]string{"user": user})
	}

	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user},
		constants.AuditAPIUpdated, updated.UpdatedAt, &before, updated)
	s.notifier.Trigger(constants.HookAPIUpdated, apiID, map[string]string{"user": user})
	return updated, nil
}

// DeleteAPI removes an API record together with its events and plans. A
// started API must be stopped first.
func (s *ApiService) DeleteAPI(ctx context.Context, apiID, user string) error {
	s.locks.Lock(apiID)
	defer s.locks.Unlock(apiID)

	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return constants.ErrAPINotFound
	}
	if api.DeploymentState == constants.DeploymentStateStarted {
		return constants.ErrAPIRunning
	}

	if err := s.planRepo.DeleteByAPI(ctx, apiID); err != nil {
		return fmt.Errorf("failed to delete plans of api %s: %w", apiID, err)
	}
	if err := s.eventRepo.DeleteByAPI(ctx, apiID); err != nil {
		return fmt.Errorf("failed to delete events of api %s: %w", apiID, err)
	}
	if err := s.apiRepo.Delete(ctx, apiID); err != nil {
		return fmt.Errorf("failed to delete api %s: %w", apiID, err)
	}

	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user},
		constants.AuditAPIDeleted, time.Now().UTC(), api, nil)
	return nil
}

// StartAPI moves the API's runtime state to STARTED by re-deploying its last
// published snapshot (or publishing the current record the first time).
func (s *ApiService) StartAPI(ctx context.Context, apiID, user string) (*model.Api, error) {
	before, err := s.GetAPI(ctx, apiID)
	if err != nil {
		return nil, err
	}

	view, err := s.deployment.DeployLastPublished(ctx, apiID, user, constants.EventStartAPI)
	if err != nil {
		return nil, err
	}
	if view == nil {
		if view, err = s.GetAPI(ctx, apiID); err != nil {
			return nil, err
		}
	}

	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user},
		constants.AuditAPIStarted, time.Now().UTC(), before, view)
	s.notifier.Trigger(constants.HookAPIStarted, apiID, map[string]string{"user": user})
	return view, nil
}

// StopAPI moves the API's runtime state to STOPPED, recording the stop as a
// deploy-class event.
func (s *ApiService) StopAPI(ctx context.Context, apiID, user string) (*model.Api, error) {
	before, err := s.GetAPI(ctx, apiID)
	if err != nil {
		return nil, err
	}

	view, err := s.deployment.DeployLastPublished(ctx, apiID, user, constants.EventStopAPI)
	if err != nil {
		return nil, err
	}
	if view == nil {
		if view, err = s.GetAPI(ctx, apiID); err != nil {
			return nil, err
		}
	}

	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user},
		constants.AuditAPIStopped, time.Now().UTC(), before, view)
	s.notifier.Trigger(constants.HookAPIStopped, apiID, map[string]string{"user": user})
	return view, nil
}

// RollbackAPI restores the record's name, version and definition from its
// last published snapshot, discarding undeployed edits.
func (s *ApiService) RollbackAPI(ctx context.Context, apiID, user string) (*model.Api, error) {
	s.locks.Lock(apiID)
	defer s.locks.Unlock(apiID)

	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}

	latest, err := s.eventRepo.FindLatestByTypes(ctx, apiID, constants.EventPublishAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to find last published event of api %s: %w", apiID, err)
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrNoPublishedSnapshot, apiID)
	}

	var snapshot model.Api
	if err := json.Unmarshal(latest.Payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode last published snapshot of api %s: %w", apiID, err)
	}

	before := *api
	now := time.Now().UTC()
	s.auditor.Record(constants.AuditReferenceAPI, apiID,
		map[string]string{"user": user},
		constants.AuditAPIRollbacked, now, &before, &snapshot)

	api.Name = snapshot.Name
	api.Version = snapshot.Version
	api.Definition = snapshot.Definition
	api.UpdatedAt = now

	updated, err := s.apiRepo.Update(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back api %s: %w", apiID, err)
	}
	s.notifier.Trigger(constants.HookAPIUpdated, apiID, map[string]string{"user": user})
	return updated, nil
}

// exportDocument is the exportable view of an API definition.
type exportDocument struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Definition  *model.Definition `json:"definition,omitempty"`
}

// ExportDefinition serializes the API's definition as JSON (default) or
// YAML. The YAML form goes through a generic map so the field names match
// the JSON form.
func (s *ApiService) ExportDefinition(ctx context.Context, apiID, format string) ([]byte, error) {
	api, err := s.GetAPI(ctx, apiID)
	if err != nil {
		return nil, err
	}

	doc := exportDocument{
		Name:        api.Name,
		Version:     api.Version,
		Description: api.Description,
		Definition:  api.Definition,
	}
	raw, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize definition of api %s: %w", apiID, err)
	}

	if strings.EqualFold(format, "yaml") {
		var generic map[string]interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("failed to convert definition of api %s: %w", apiID, err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize definition of api %s as yaml: %w", apiID, err)
		}
		return out, nil
	}
	return raw, nil
}

// ListEvents returns the API's deploy event history, oldest first, across
// all event types.
func (s *ApiService) ListEvents(ctx context.Context, apiID string) ([]*model.Event, error) {
	if _, err := s.GetAPI(ctx, apiID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindAllByAPI(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of api %s: %w", apiID, err)
	}
	return events, nil
}
