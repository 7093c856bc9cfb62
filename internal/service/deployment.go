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
	"strconv"
	"time"

	"github.com/google/uuid"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/model"
	"api-manager/src/internal/repository"
	"api-manager/src/internal/utils"
)

// DeploymentService appends deploy events to the event log and derives
// per-API deployment numbers. The read-max-append sequence that assigns a
// number is guarded by a per-API mutex so numbers stay strictly increasing
// and unique under concurrent deploys.
type DeploymentService struct {
	apiRepo   repository.APIRepository
	eventRepo repository.EventRepository
	auditor   Auditor
	notifier  Notifier
	locks     *utils.KeyMutex
}

// NewDeploymentService creates a new DeploymentService instance
func NewDeploymentService(apiRepo repository.APIRepository, eventRepo repository.EventRepository,
	auditor Auditor, notifier Notifier, locks *utils.KeyMutex) *DeploymentService {
	return &DeploymentService{
		apiRepo:   apiRepo,
		eventRepo: eventRepo,
		auditor:   auditor,
		notifier:  notifier,
		locks:     locks,
	}
}

// Deploy records a deploy-class event (PUBLISH_API or UNPUBLISH_API) for the
// API: the record's deployedAt/updatedAt move to now, the record is
// persisted, and an event snapshotting the record (picture stripped) is
// appended. PUBLISH_API events get the next deployment number and, when
// non-empty, the given label.
func (s *DeploymentService) Deploy(ctx context.Context, apiID, user, eventType, label string) (*model.Api, error) {
	if eventType != constants.EventPublishAPI && eventType != constants.EventUnpublishAPI {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidEventType, eventType)
	}

	s.locks.Lock(apiID)
	defer s.locks.Unlock(apiID)

	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to load api %s: %w", apiID, err)
	}
	if api == nil {
		return nil, constants.ErrAPINotFound
	}
	prior := *api
	return s.deployLocked(ctx, api, &prior, user, eventType, label)
}

// DeployLastPublished re-deploys the API's last published snapshot with the
// runtime state implied by eventType (START_API or STOP_API). When the API
// has no PUBLISH_API event yet this is its first-ever deploy: a full
// numbered publish of the current record is performed instead and its view
// returned. Otherwise the snapshot is reconstructed from the event payload,
// an unnumbered START_API/STOP_API event is appended, and nil is returned
// since the caller already holds a valid record.
func (s *DeploymentService) DeployLastPublished(ctx context.Context, apiID, user, eventType string) (*model.Api, error) {
	var target string
	switch eventType {
	case constants.EventStartAPI:
		target = constants.DeploymentStateStarted
	case constants.EventStopAPI:
		target = constants.DeploymentStateStopped
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidEventType, eventType)
	}

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

	prior := *api
	api.DeploymentState = target
	if latest == nil {
		// First-ever deploy: nothing to reconstruct, publish the current
		// record with deployment number 1.
		return s.deployLocked(ctx, api, &prior, user, constants.EventPublishAPI, "")
	}

	// Decode before touching the record so a corrupt snapshot fails the
	// operation without leaving any partial state. Unknown payload fields
	// from older or newer schema revisions are ignored by the decoder.
	var snapshot model.Api
	if err := json.Unmarshal(latest.Payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode last published snapshot of api %s: %w", apiID, err)
	}

	now := time.Now().UTC()
	api.UpdatedAt = now
	api.DeployedAt = &now
	if _, err := s.apiRepo.Update(ctx, api); err != nil {
		return nil, fmt.Errorf("failed to update api %s: %w", apiID, err)
	}

	snapshot.DeploymentState = target
	snapshot.UpdatedAt = now
	snapshot.DeployedAt = &now
	snapshot.Picture = ""

	payload, err := json.Marshal(&snapshot)
	if err != nil {
		s.restore(ctx, &prior)
		return nil, fmt.Errorf("failed to serialize snapshot of api %s: %w", apiID, err)
	}
	event := &model.Event{
		ID:      uuid.New().String(),
		ApiID:   apiID,
		Type:    eventType,
		Payload: payload,
		Properties: map[string]string{
			constants.EventPropertyAPIID: apiID,
			constants.EventPropertyUser:  user,
		},
		CreatedAt: now,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.restore(ctx, &prior)
		return nil, fmt.Errorf("failed to append %s event for api %s: %w", eventType, apiID, err)
	}
	return nil, nil
}

// deployLocked performs the numbered deploy of an already loaded record.
// Callers must hold the API's lock and pass the record's persisted state in
// prior; any failure after the record update restores it so no partial state
// survives a failed deploy.
func (s *DeploymentService) deployLocked(ctx context.Context, api, prior *model.Api, user, eventType, label string) (*model.Api, error) {
	properties := map[string]string{
		constants.EventPropertyAPIID: api.ID,
		constants.EventPropertyUser:  user,
	}
	if eventType == constants.EventPublishAPI {
		number, err := s.nextDeploymentNumber(ctx, api.ID)
		if err != nil {
			return nil, err
		}
		properties[constants.EventPropertyDeploymentNumber] = strconv.Itoa(number)
		if label != "" {
			properties[constants.EventPropertyDeploymentLabel] = label
		}
	}

	now := time.Now().UTC()
	api.UpdatedAt = now
	api.DeployedAt = &now

	updated, err := s.apiRepo.Update(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("failed to update api %s: %w", api.ID, err)
	}

	snapshot := *updated
	snapshot.Picture = ""
	payload, err := json.Marshal(&snapshot)
	if err != nil {
		s.restore(ctx, prior)
		return nil, fmt.Errorf("failed to serialize snapshot of api %s: %w", updated.ID, err)
	}
	event := &model.Event{
		ID:         uuid.New().String(),
		ApiID:      updated.ID,
		Type:       eventType,
		Payload:    payload,
		Properties: properties,
		CreatedAt:  now,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.restore(ctx, prior)
		return nil, fmt.Errorf("failed to append %s event for api %s: %w", eventType, updated.ID, err)
	}

	s.auditor.Record(constants.AuditReferenceAPI, updated.ID,
		map[string]string{"user": user, "event_type": eventType},
		constants.AuditAPIDeployed, now, prior, updated)
	s.notifier.Trigger(constants.HookAPIDeployed, updated.ID, map[string]string{"user": user})
	return updated, nil
}

// restore re-persists the record as it was before a failed deploy. The
// caller returns the deploy error either way; a failing restore is logged
// since there is nothing better to do with it.
func (s *DeploymentService) restore(ctx context.Context, prior *model.Api) {
	record := *prior
	if _, err := s.apiRepo.Update(ctx, &record); err != nil {
		utils.LogError(fmt.Sprintf("Failed to restore api %s after failed deploy", prior.ID), err)
	}
}

// nextDeploymentNumber scans the API's publish history and returns the
// maximum recorded deployment number plus one (1 when no publish event
// exists). Callers must hold the API's lock across the scan and the
// subsequent append.
func (s *DeploymentService) nextDeploymentNumber(ctx context.Context, apiID string) (int, error) {
	events, err := s.eventRepo.FindAllByType(ctx, apiID, constants.EventPublishAPI)
	if err != nil {
		return 0, fmt.Errorf("failed to scan publish events of api %s: %w", apiID, err)
	}
	max := 0
	for _, event := range events {
		raw, ok := event.Properties[constants.EventPropertyDeploymentNumber]
		if !ok {
			continue
		}
		number, err := strconv.Atoi(raw)
		if err != nil {
			utils.LogWarning("Ignoring malformed deployment number %q on event %s", raw, event.ID)
			continue
		}
		if number > max {
			max = number
		}
	}
	return max + 1, nil
}
