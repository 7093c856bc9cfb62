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
	"reflect"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/model"
	"api-manager/src/internal/repository"
	"api-manager/src/internal/utils"
)

// Sync check failure classifications. The verdict is fail-closed either way;
// the classification separates genuine staleness from defects in the logs
// and metrics.
const (
	syncFailureNotFound = "not_found"
	syncFailureDecode   = "decode"
	syncFailureStorage  = "storage"
	syncFailureInternal = "internal"
)

var (
	syncChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "api_manager",
		Name:      "sync_checks_total",
		Help:      "Synchronization check verdicts by result.",
	}, []string{"result"})

	syncCheckFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "api_manager",
		Name:      "sync_check_failures_total",
		Help:      "Synchronization checks that failed closed, by reason.",
	}, []string{"reason"})
)

// SyncService computes whether an API's last deployed snapshot still matches
// its current definition. Checks are read-only, point-in-time and tolerate
// staleness with respect to concurrent deploys.
type SyncService struct {
	apiRepo   repository.APIRepository
	eventRepo repository.EventRepository
	planRepo  repository.PlanRepository

	// snapshots caches decoded event payloads keyed by event id. Events are
	// immutable, so entries never need invalidation.
	snapshots *lru.Cache[string, *model.Api]
	group     singleflight.Group
}

// NewSyncService creates a new SyncService instance. cacheSize bounds the
// decoded snapshot cache.
func NewSyncService(apiRepo repository.APIRepository, eventRepo repository.EventRepository,
	planRepo repository.PlanRepository, cacheSize int) (*SyncService, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	snapshots, err := lru.New[string, *model.Api](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	return &SyncService{
		apiRepo:   apiRepo,
		eventRepo: eventRepo,
		planRepo:  planRepo,
		snapshots: snapshots,
	}, nil
}

// IsSynchronized reports whether the API's current definition matches its
// most recent deployed snapshot and no plan changed after the last deploy.
// It never returns an error: any failure is logged, classified and degraded
// to false (assume out of sync). Concurrent checks for the same API are
// collapsed into a single computation.
func (s *SyncService) IsSynchronized(ctx context.Context, apiID string) bool {
	verdict, _, _ := s.group.Do(apiID, func() (interface{}, error) {
		return s.check(ctx, apiID), nil
	})
	return verdict.(bool)
}

func (s *SyncService) check(ctx context.Context, apiID string) bool {
	api, err := s.apiRepo.GetByUUID(ctx, apiID)
	if err != nil {
		return s.failClosed(apiID, syncFailureStorage, err)
	}
	if api == nil {
		return s.failClosed(apiID, syncFailureNotFound,
			fmt.Errorf("api %s does not exist", apiID))
	}

	latest, err := s.eventRepo.FindLatestByTypes(ctx, apiID,
		constants.EventPublishAPI, constants.EventUnpublishAPI)
	if err != nil {
		return s.failClosed(apiID, syncFailureStorage, err)
	}
	if latest == nil {
		// Never deployed.
		syncChecksTotal.WithLabelValues("out_of_sync").Inc()
		return false
	}

	deployed, err := s.snapshot(latest)
	if err != nil {
		return s.failClosed(apiID, syncFailureDecode, err)
	}

	currentView, err := normalizedView(api)
	if err != nil {
		return s.failClosed(apiID, syncFailureInternal, err)
	}
	deployedView, err := normalizedView(deployed)
	if err != nil {
		return s.failClosed(apiID, syncFailureInternal, err)
	}

	if !reflect.DeepEqual(currentView, deployedView) {
		syncChecksTotal.WithLabelValues("out_of_sync").Inc()
		return false
	}

	synced, err := s.plansSynchronized(ctx, api)
	if err != nil {
		return s.failClosed(apiID, syncFailureStorage, err)
	}
	if !synced {
		syncChecksTotal.WithLabelValues("out_of_sync").Inc()
		return false
	}
	syncChecksTotal.WithLabelValues("synchronized").Inc()
	return true
}

// plansSynchronized is the second-order check: a non-STAGING plan whose
// needRedeployAt is strictly after the API's deployedAt marks the API out of
// sync even though the definition itself matches.
func (s *SyncService) plansSynchronized(ctx context.Context, api *model.Api) (bool, error) {
	plans, err := s.planRepo.FindByAPI(ctx, api.ID)
	if err != nil {
		return false, err
	}
	var deployedAt time.Time
	if api.DeployedAt != nil {
		deployedAt = *api.DeployedAt
	}
	for _, plan := range plans {
		if plan.Status == constants.PlanStatusStaging {
			continue
		}
		if plan.NeedRedeployAt.After(deployedAt) {
			return false, nil
		}
	}
	return true, nil
}

// snapshot decodes an event payload into an Api, ignoring unknown fields
// from older or newer schema revisions. Decoded snapshots are cached by
// event id.
func (s *SyncService) snapshot(event *model.Event) (*model.Api, error) {
	if cached, ok := s.snapshots.Get(event.ID); ok {
		return cached, nil
	}
	var api model.Api
	if err := json.Unmarshal(event.Payload, &api); err != nil {
		return nil, fmt.Errorf("failed to decode payload of event %s: %w", event.ID, err)
	}
	s.snapshots.Add(event.ID, &api)
	return &api, nil
}

func (s *SyncService) failClosed(apiID, reason string, err error) bool {
	utils.LogErrorWithFields("Synchronization check failed closed", err,
		map[string]interface{}{"api": apiID, "reason": reason})
	syncChecksTotal.WithLabelValues("error").Inc()
	syncCheckFailuresTotal.WithLabelValues(reason).Inc()
	return false
}

// normalizedView reduces an Api to the fields the synchronization check
// compares and clears every rule description: descriptions are
// documentation-only and must not flag an API out of sync. The JSON
// round-trip puts both sides (live record and decoded snapshot) into the
// same canonical shape before the deep comparison.
func normalizedView(api *model.Api) (*model.Api, error) {
	view := model.Api{
		Name:       api.Name,
		Version:    api.Version,
		Definition: api.Definition,
	}
	raw, err := json.Marshal(&view)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize api %s for comparison: %w", api.ID, err)
	}
	var normalized model.Api
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("failed to deserialize api %s for comparison: %w", api.ID, err)
	}
	if normalized.Definition != nil {
		for path, rules := range normalized.Definition.Paths {
			for i := range rules {
				rules[i].Description = ""
			}
			normalized.Definition.Paths[path] = rules
		}
	}
	return &normalized, nil
}
