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

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/model"
	"api-manager/src/internal/utils"
)

func newDeploymentFixture() (*DeploymentService, *memAPIRepo, *memEventRepo) {
	apiRepo := newMemAPIRepo()
	eventRepo := newMemEventRepo()
	svc := NewDeploymentService(apiRepo, eventRepo, &recordingAuditor{}, &recordingNotifier{}, utils.NewKeyMutex())
	return svc, apiRepo, eventRepo
}

func TestDeployRejectsInvalidEventType(t *testing.T) {
	svc, apiRepo, _ := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	for _, eventType := range []string{constants.EventStartAPI, constants.EventStopAPI, "REDEPLOY_API", ""} {
		if _, err := svc.Deploy(context.Background(), "api-1", "admin", eventType, ""); !errors.Is(err, constants.ErrInvalidEventType) {
			t.Errorf("Deploy(%q) error = %v, want %v", eventType, err, constants.ErrInvalidEventType)
		}
	}
}

func TestDeployNotFound(t *testing.T) {
	svc, _, _ := newDeploymentFixture()

	_, err := svc.Deploy(context.Background(), "missing", "admin", constants.EventPublishAPI, "")
	if !errors.Is(err, constants.ErrAPINotFound) {
		t.Fatalf("Deploy() error = %v, want %v", err, constants.ErrAPINotFound)
	}
}

func TestDeployAssignsSequentialNumbers(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	for i := 0; i < 3; i++ {
		if _, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, ""); err != nil {
			t.Fatalf("Deploy() error = %v", err)
		}
	}

	events, _ := eventRepo.FindAllByType(context.Background(), "api-1", constants.EventPublishAPI)
	if len(events) != 3 {
		t.Fatalf("publish events = %d, want 3", len(events))
	}
	for i, event := range events {
		want := strconv.Itoa(i + 1)
		if got := event.Properties[constants.EventPropertyDeploymentNumber]; got != want {
			t.Errorf("event %d deployment_number = %q, want %q", i, got, want)
		}
	}
}

func TestDeploySetsTimestampsAndStripsPicture(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	stored, _ := apiRepo.GetByUUID(context.Background(), "api-1")
	stored.Picture = "data:image/png;base64,abc"
	apiRepo.Update(context.Background(), stored)

	updated, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, "")
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if updated.DeployedAt == nil {
		t.Fatal("deployedAt not set after deploy")
	}
	if !updated.UpdatedAt.Equal(*updated.DeployedAt) {
		t.Fatalf("updatedAt %v != deployedAt %v", updated.UpdatedAt, *updated.DeployedAt)
	}
	if updated.Picture == "" {
		t.Fatal("picture stripped from the record itself")
	}

	latest, _ := eventRepo.FindLatestByTypes(context.Background(), "api-1", constants.EventPublishAPI)
	var snapshot model.Api
	if err := json.Unmarshal(latest.Payload, &snapshot); err != nil {
		t.Fatalf("failed to decode event payload: %v", err)
	}
	if snapshot.Picture != "" {
		t.Fatal("picture not stripped from event payload")
	}
	if snapshot.Name != "orders" || snapshot.Version != "1.0.0" {
		t.Fatalf("payload snapshot = %s %s, want orders 1.0.0", snapshot.Name, snapshot.Version)
	}
}

func TestDeployLabelOnlyWhenProvided(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, "")
	svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, "v2-rollout")

	events, _ := eventRepo.FindAllByType(context.Background(), "api-1", constants.EventPublishAPI)
	if _, ok := events[0].Properties[constants.EventPropertyDeploymentLabel]; ok {
		t.Fatal("unlabeled deploy carries a deployment_label property")
	}
	if got := events[1].Properties[constants.EventPropertyDeploymentLabel]; got != "v2-rollout" {
		t.Fatalf("deployment_label = %q, want v2-rollout", got)
	}
}

func TestDeployUnpublishIsUnnumbered(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, "")
	if _, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventUnpublishAPI, ""); err != nil {
		t.Fatalf("Deploy(UNPUBLISH_API) error = %v", err)
	}

	latest, _ := eventRepo.FindLatestByTypes(context.Background(), "api-1", constants.EventUnpublishAPI)
	if latest == nil {
		t.Fatal("no UNPUBLISH_API event appended")
	}
	if _, ok := latest.Properties[constants.EventPropertyDeploymentNumber]; ok {
		t.Fatal("UNPUBLISH_API event carries a deployment_number property")
	}

	// A later publish still continues the numbering from the publish history.
	svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, "")
	publishes, _ := eventRepo.FindAllByType(context.Background(), "api-1", constants.EventPublishAPI)
	if got := publishes[len(publishes)-1].Properties[constants.EventPropertyDeploymentNumber]; got != "2" {
		t.Fatalf("deployment_number after unpublish = %q, want 2", got)
	}
}

func TestDeployLastPublishedRejectsDeployClassEvents(t *testing.T) {
	svc, apiRepo, _ := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	for _, eventType := range []string{constants.EventPublishAPI, constants.EventUnpublishAPI, ""} {
		if _, err := svc.DeployLastPublished(context.Background(), "api-1", "admin", eventType); !errors.Is(err, constants.ErrInvalidEventType) {
			t.Errorf("DeployLastPublished(%q) error = %v, want %v", eventType, err, constants.ErrInvalidEventType)
		}
	}
}

func TestDeployLastPublishedFirstDeployPublishes(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecycleCreated)

	view, err := svc.DeployLastPublished(context.Background(), "api-1", "admin", constants.EventStartAPI)
	if err != nil {
		t.Fatalf("DeployLastPublished() error = %v", err)
	}
	if view == nil {
		t.Fatal("first-ever deploy must return the deployed view")
	}
	if view.DeploymentState != constants.DeploymentStateStarted {
		t.Fatalf("deployment state = %s, want STARTED", view.DeploymentState)
	}

	latest, _ := eventRepo.FindLatestByTypes(context.Background(), "api-1", constants.EventPublishAPI)
	if latest == nil {
		t.Fatal("first-ever deploy did not append a PUBLISH_API event")
	}
	if got := latest.Properties[constants.EventPropertyDeploymentNumber]; got != "1" {
		t.Fatalf("deployment_number = %q, want 1", got)
	}
	if _, ok := latest.Properties[constants.EventPropertyDeploymentLabel]; ok {
		t.Fatal("bootstrap publish carries a deployment_label property")
	}
}

func TestDeployLastPublishedReconstructsSnapshot(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	stored, _ := apiRepo.GetByUUID(context.Background(), "api-1")
	stored.Definition = &model.Definition{
		Proxy: &model.Proxy{
			ContextPath: "/orders",
			Endpoints:   []model.Endpoint{{Name: "default", Target: "https://backend-v1"}},
		},
	}
	apiRepo.Update(context.Background(), stored)

	if _, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, ""); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	// Undeployed edit after the publish: the snapshot, not the live record,
	// must be what a later start re-deploys.
	stored, _ = apiRepo.GetByUUID(context.Background(), "api-1")
	stored.Definition = &model.Definition{
		Proxy: &model.Proxy{
			ContextPath: "/orders",
			Endpoints:   []model.Endpoint{{Name: "default", Target: "https://backend-v2"}},
		},
	}
	apiRepo.Update(context.Background(), stored)

	view, err := svc.DeployLastPublished(context.Background(), "api-1", "admin", constants.EventStartAPI)
	if err != nil {
		t.Fatalf("DeployLastPublished() error = %v", err)
	}
	if view != nil {
		t.Fatal("re-deploy of an existing snapshot must return nil")
	}

	stored, _ = apiRepo.GetByUUID(context.Background(), "api-1")
	if stored.DeploymentState != constants.DeploymentStateStarted {
		t.Fatalf("record deployment state = %s, want STARTED", stored.DeploymentState)
	}

	latest, _ := eventRepo.FindLatestByTypes(context.Background(), "api-1", constants.EventStartAPI)
	if latest == nil {
		t.Fatal("no START_API event appended")
	}
	if _, ok := latest.Properties[constants.EventPropertyDeploymentNumber]; ok {
		t.Fatal("START_API event carries a deployment_number property")
	}

	var snapshot model.Api
	if err := json.Unmarshal(latest.Payload, &snapshot); err != nil {
		t.Fatalf("failed to decode event payload: %v", err)
	}
	if snapshot.DeploymentState != constants.DeploymentStateStarted {
		t.Fatalf("payload deployment state = %s, want STARTED", snapshot.DeploymentState)
	}
	if got := snapshot.Definition.Proxy.Endpoints[0].Target; got != "https://backend-v1" {
		t.Fatalf("payload endpoint = %q, want the published snapshot https://backend-v1", got)
	}
}

func TestDeployAppendFailureLeavesNoPartialState(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)
	prior, _ := apiRepo.GetByUUID(context.Background(), "api-1")

	eventRepo.appendErr = errors.New("disk full")
	if _, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, ""); err == nil {
		t.Fatal("Deploy() succeeded despite event append failure")
	}

	stored, _ := apiRepo.GetByUUID(context.Background(), "api-1")
	if stored.DeployedAt != nil {
		t.Fatalf("deployedAt = %v set while no deploy event exists", stored.DeployedAt)
	}
	if !stored.UpdatedAt.Equal(prior.UpdatedAt) {
		t.Fatalf("updatedAt moved on a failed deploy: %v -> %v", prior.UpdatedAt, stored.UpdatedAt)
	}
	events, _ := eventRepo.FindAllByAPI(context.Background(), "api-1")
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0", len(events))
	}

	// The failure is transient: a retry deploys cleanly with number 1.
	eventRepo.appendErr = nil
	updated, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, "")
	if err != nil {
		t.Fatalf("retried Deploy() error = %v", err)
	}
	if updated.DeployedAt == nil {
		t.Fatal("deployedAt not set on the retried deploy")
	}
	latest, _ := eventRepo.FindLatestByTypes(context.Background(), "api-1", constants.EventPublishAPI)
	if got := latest.Properties[constants.EventPropertyDeploymentNumber]; got != "1" {
		t.Fatalf("deployment_number = %q, want 1", got)
	}
}

func TestDeployLastPublishedCorruptSnapshotLeavesRecordUntouched(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)
	prior, _ := apiRepo.GetByUUID(context.Background(), "api-1")

	eventRepo.Append(context.Background(), &model.Event{
		ID:        "ev-corrupt",
		ApiID:     "api-1",
		Type:      constants.EventPublishAPI,
		Payload:   []byte("{not json"),
		CreatedAt: prior.UpdatedAt,
	})

	if _, err := svc.DeployLastPublished(context.Background(), "api-1", "admin", constants.EventStartAPI); err == nil {
		t.Fatal("DeployLastPublished() succeeded despite corrupt snapshot")
	}

	stored, _ := apiRepo.GetByUUID(context.Background(), "api-1")
	if stored.DeploymentState != constants.DeploymentStateStopped {
		t.Fatalf("deployment state = %s, want the untouched STOPPED", stored.DeploymentState)
	}
	if stored.DeployedAt != nil {
		t.Fatalf("deployedAt = %v set by a failed start", stored.DeployedAt)
	}
	if !stored.UpdatedAt.Equal(prior.UpdatedAt) {
		t.Fatalf("updatedAt moved on a failed start: %v -> %v", prior.UpdatedAt, stored.UpdatedAt)
	}
	events, _ := eventRepo.FindAllByAPI(context.Background(), "api-1")
	if len(events) != 1 {
		t.Fatalf("events = %d, want only the corrupt publish", len(events))
	}
}

func TestDeployLastPublishedAppendFailureRestoresRecord(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	if _, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, ""); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	prior, _ := apiRepo.GetByUUID(context.Background(), "api-1")

	eventRepo.appendErr = errors.New("disk full")
	if _, err := svc.DeployLastPublished(context.Background(), "api-1", "admin", constants.EventStartAPI); err == nil {
		t.Fatal("DeployLastPublished() succeeded despite event append failure")
	}

	stored, _ := apiRepo.GetByUUID(context.Background(), "api-1")
	if stored.DeploymentState != constants.DeploymentStateStopped {
		t.Fatalf("deployment state = %s, want the restored STOPPED", stored.DeploymentState)
	}
	if stored.DeployedAt == nil || !stored.DeployedAt.Equal(*prior.DeployedAt) {
		t.Fatalf("deployedAt = %v, want the restored %v", stored.DeployedAt, prior.DeployedAt)
	}
	if !stored.UpdatedAt.Equal(prior.UpdatedAt) {
		t.Fatalf("updatedAt = %v, want the restored %v", stored.UpdatedAt, prior.UpdatedAt)
	}
	events, _ := eventRepo.FindAllByAPI(context.Background(), "api-1")
	if len(events) != 1 {
		t.Fatalf("events = %d, want only the original publish", len(events))
	}
}

func TestDeployConcurrentNumbering(t *testing.T) {
	svc, apiRepo, eventRepo := newDeploymentFixture()
	seedAPI(apiRepo, "api-1", constants.LifecyclePublished)

	const deploys = 16
	var wg sync.WaitGroup
	for i := 0; i < deploys; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Deploy(context.Background(), "api-1", "admin", constants.EventPublishAPI, ""); err != nil {
				t.Errorf("Deploy() error = %v", err)
			}
		}()
	}
	wg.Wait()

	events, _ := eventRepo.FindAllByType(context.Background(), "api-1", constants.EventPublishAPI)
	if len(events) != deploys {
		t.Fatalf("publish events = %d, want %d", len(events), deploys)
	}

	var numbers []int
	for _, event := range events {
		number, err := strconv.Atoi(event.Properties[constants.EventPropertyDeploymentNumber])
		if err != nil {
			t.Fatalf("malformed deployment number on event %s: %v", event.ID, err)
		}
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	for i, got := range numbers {
		if got != i+1 {
			t.Fatalf("deployment numbers not unique and sequential: %v", numbers)
		}
	}
}
