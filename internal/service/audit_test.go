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
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"api-manager/src/internal/constants"
	"api-manager/src/internal/model"
)

func decodePatch(t *testing.T, patch string) []map[string]interface{} {
	t.Helper()
	var ops []map[string]interface{}
	if err := json.Unmarshal([]byte(patch), &ops); err != nil {
		t.Fatalf("failed to decode patch %q: %v", patch, err)
	}
	return ops
}

func TestAuditRecordProducesPatch(t *testing.T) {
	repo := newMemAuditRepo()
	svc := NewAuditService(repo, 8)

	before := &model.Api{ID: "api-1", Name: "orders", Description: "old"}
	after := &model.Api{ID: "api-1", Name: "orders", Description: "new"}
	svc.Record(constants.AuditReferenceAPI, "api-1",
		map[string]string{"user": "admin"},
		constants.AuditAPIUpdated, time.Now().UTC(), before, after)
	svc.Close()

	audits := repo.all()
	if len(audits) != 1 {
		t.Fatalf("persisted audits = %d, want 1", len(audits))
	}
	audit := audits[0]
	if audit.ReferenceType != constants.AuditReferenceAPI || audit.ReferenceID != "api-1" {
		t.Fatalf("audit reference = %s/%s, want API/api-1", audit.ReferenceType, audit.ReferenceID)
	}
	if audit.User != "admin" {
		t.Fatalf("audit user = %q, want admin", audit.User)
	}

	ops := decodePatch(t, audit.Patch)
	if len(ops) != 1 {
		t.Fatalf("patch ops = %v, want one replace", ops)
	}
	if ops[0]["op"] != "replace" || ops[0]["path"] != "/description" || ops[0]["value"] != "new" {
		t.Fatalf("patch = %v, want replace /description new", ops[0])
	}
}

func TestAuditExcludesVolatileTimestamps(t *testing.T) {
	repo := newMemAuditRepo()
	svc := NewAuditService(repo, 8)

	now := time.Now().UTC()
	before := &model.Api{ID: "api-1", Name: "orders", CreatedAt: now, UpdatedAt: now}
	after := &model.Api{ID: "api-1", Name: "orders", CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour)}
	svc.Record(constants.AuditReferenceAPI, "api-1",
		map[string]string{"user": "admin"},
		constants.AuditAPIUpdated, now, before, after)
	svc.Close()

	audits := repo.all()
	if len(audits) != 1 {
		t.Fatalf("persisted audits = %d, want 1", len(audits))
	}
	if ops := decodePatch(t, audits[0].Patch); len(ops) != 0 {
		t.Fatalf("timestamp-only change produced patch ops: %v", ops)
	}
	if strings.Contains(audits[0].Patch, "createdAt") || strings.Contains(audits[0].Patch, "updatedAt") {
		t.Fatalf("patch leaks volatile fields: %s", audits[0].Patch)
	}
}

func TestAuditNilBeforeDiffsAgainstEmptyObject(t *testing.T) {
	repo := newMemAuditRepo()
	svc := NewAuditService(repo, 8)

	created := &model.Api{ID: "api-1", Name: "orders", Version: "1.0.0"}
	svc.Record(constants.AuditReferenceAPI, "api-1",
		map[string]string{"user": "admin"},
		constants.AuditAPICreated, time.Now().UTC(), nil, created)
	svc.Close()

	audits := repo.all()
	if len(audits) != 1 {
		t.Fatalf("persisted audits = %d, want 1", len(audits))
	}
	paths := map[string]bool{}
	for _, op := range decodePatch(t, audits[0].Patch) {
		if op["op"] != "add" {
			t.Fatalf("creation patch contains non-add op: %v", op)
		}
		paths[op["path"].(string)] = true
	}
	if !paths["/name"] || !paths["/version"] {
		t.Fatalf("creation patch misses added fields: %s", audits[0].Patch)
	}
}

func TestAuditSnapshotTakenAtEnqueueTime(t *testing.T) {
	repo := newMemAuditRepo()
	svc := NewAuditService(repo, 8)

	api := &model.Api{ID: "api-1", Name: "orders", Description: "old"}
	svc.Record(constants.AuditReferenceAPI, "api-1",
		map[string]string{"user": "admin"},
		constants.AuditAPIUpdated, time.Now().UTC(), nil, api)

	// Mutating the entity after Record must not change the recorded diff.
	api.Description = "mutated later"
	svc.Close()

	audits := repo.all()
	if len(audits) != 1 {
		t.Fatalf("persisted audits = %d, want 1", len(audits))
	}
	if strings.Contains(audits[0].Patch, "mutated later") {
		t.Fatalf("patch reflects post-enqueue mutation: %s", audits[0].Patch)
	}
	if !strings.Contains(audits[0].Patch, "old") {
		t.Fatalf("patch misses the enqueue-time value: %s", audits[0].Patch)
	}
}

func TestAuditStoreFailureIsSwallowed(t *testing.T) {
	repo := newMemAuditRepo()
	repo.createErr = errors.New("disk full")
	svc := NewAuditService(repo, 8)

	svc.Record(constants.AuditReferenceAPI, "api-1",
		map[string]string{"user": "admin"},
		constants.AuditAPICreated, time.Now().UTC(), nil, &model.Api{ID: "api-1"})
	svc.Close()

	if got := len(repo.all()); got != 0 {
		t.Fatalf("persisted audits = %d, want 0", got)
	}
}

func TestAuditRecordsStayInOrder(t *testing.T) {
	repo := newMemAuditRepo()
	svc := NewAuditService(repo, 32)

	events := []string{
		constants.AuditAPICreated,
		constants.AuditAPIUpdated,
		constants.AuditAPIDeployed,
		constants.AuditAPIStarted,
		constants.AuditAPIStopped,
	}
	for _, event := range events {
		svc.Record(constants.AuditReferenceAPI, "api-1",
			map[string]string{"user": "admin"},
			event, time.Now().UTC(), nil, &model.Api{ID: "api-1"})
	}
	svc.Close()

	audits := repo.all()
	if len(audits) != len(events) {
		t.Fatalf("persisted audits = %d, want %d", len(audits), len(events))
	}
	for i, audit := range audits {
		if audit.Event != events[i] {
			t.Fatalf("audit %d event = %s, want %s", i, audit.Event, events[i])
		}
	}
}
