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
	"sync"
	"time"

	"api-manager/src/internal/model"
)

// memAPIRepo is an in-memory APIRepository. It hands out copies so that
// mutations on a loaded record do not leak into the store before Update.
type memAPIRepo struct {
	mu   sync.Mutex
	apis map[string]*model.Api

	getErr    error
	updateErr error
}

func newMemAPIRepo() *memAPIRepo {
	return &memAPIRepo{apis: make(map[string]*model.Api)}
}

func (m *memAPIRepo) Create(ctx context.Context, api *model.Api) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *api
	m.apis[api.ID] = &stored
	return nil
}

func (m *memAPIRepo) GetByUUID(ctx context.Context, apiID string) (*model.Api, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	api, ok := m.apis[apiID]
	if !ok {
		return nil, nil
	}
	copied := *api
	return &copied, nil
}

func (m *memAPIRepo) List(ctx context.Context) ([]*model.Api, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Api
	for _, api := range m.apis {
		copied := *api
		result = append(result, &copied)
	}
	return result, nil
}

func (m *memAPIRepo) Update(ctx context.Context, api *model.Api) (*model.Api, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	stored := *api
	m.apis[api.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *memAPIRepo) Delete(ctx context.Context, apiID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.apis, apiID)
	return nil
}

// memEventRepo is an in-memory append-only EventRepository preserving
// insertion order.
type memEventRepo struct {
	mu     sync.Mutex
	events []*model.Event

	appendErr error
	findErr   error
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{}
}

func (m *memEventRepo) Append(ctx context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	stored := *event
	m.events = append(m.events, &stored)
	return nil
}

func (m *memEventRepo) FindLatestByTypes(ctx context.Context, apiID string, types ...string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := len(m.events) - 1; i >= 0; i-- {
		event := m.events[i]
		if event.ApiID != apiID {
			continue
		}
		for _, t := range types {
			if event.Type == t {
				copied := *event
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (m *memEventRepo) FindAllByType(ctx context.Context, apiID string, eventType string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var result []*model.Event
	for _, event := range m.events {
		if event.ApiID == apiID && event.Type == eventType {
			copied := *event
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memEventRepo) FindAllByAPI(ctx context.Context, apiID string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var result []*model.Event
	for _, event := range m.events {
		if event.ApiID == apiID {
			copied := *event
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memEventRepo) DeleteByAPI(ctx context.Context, apiID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*model.Event
	for _, event := range m.events {
		if event.ApiID != apiID {
			kept = append(kept, event)
		}
	}
	m.events = kept
	return nil
}

// memPlanRepo is an in-memory PlanRepository.
type memPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan

	findErr error
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *memPlanRepo) Create(ctx context.Context, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *plan
	m.plans[plan.ID] = &stored
	return nil
}

func (m *memPlanRepo) GetByUUID(ctx context.Context, planID string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[planID]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

func (m *memPlanRepo) FindByAPI(ctx context.Context, apiID string) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var result []*model.Plan
	for _, plan := range m.plans {
		if plan.ApiID == apiID {
			copied := *plan
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memPlanRepo) Update(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *plan
	m.plans[plan.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *memPlanRepo) UpdateStatus(ctx context.Context, planID, status string, needRedeployAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[planID]
	if !ok {
		return nil
	}
	plan.Status = status
	plan.NeedRedeployAt = needRedeployAt
	return nil
}

func (m *memPlanRepo) DeleteByAPI(ctx context.Context, apiID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, plan := range m.plans {
		if plan.ApiID == apiID {
			delete(m.plans, id)
		}
	}
	return nil
}

// memAuditRepo is an in-memory AuditRepository with failure injection.
type memAuditRepo struct {
	mu     sync.Mutex
	audits []*model.Audit

	createErr error
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (m *memAuditRepo) Create(ctx context.Context, audit *model.Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	stored := *audit
	m.audits = append(m.audits, &stored)
	return nil
}

func (m *memAuditRepo) List(ctx context.Context, referenceType string, limit, offset int) ([]*model.Audit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Audit
	for _, audit := range m.audits {
		if referenceType == "" || audit.ReferenceType == referenceType {
			copied := *audit
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memAuditRepo) all() []*model.Audit {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.Audit, len(m.audits))
	copy(result, m.audits)
	return result
}

// recordedAudit captures one Auditor.Record invocation.
type recordedAudit struct {
	referenceType string
	referenceID   string
	properties    map[string]string
	event         string
	before        interface{}
	after         interface{}
}

// recordingAuditor is a synchronous Auditor capturing every call.
type recordingAuditor struct {
	mu      sync.Mutex
	records []recordedAudit
}

func (a *recordingAuditor) Record(referenceType, referenceID string, properties map[string]string,
	event string, createdAt time.Time, before, after interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, recordedAudit{
		referenceType: referenceType,
		referenceID:   referenceID,
		properties:    properties,
		event:         event,
		before:        before,
		after:         after,
	})
}

func (a *recordingAuditor) events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var events []string
	for _, r := range a.records {
		events = append(events, r.event)
	}
	return events
}

// recordingNotifier is a Notifier capturing every triggered hook.
type recordingNotifier struct {
	mu    sync.Mutex
	hooks []string
}

func (n *recordingNotifier) Trigger(hook, apiID string, params map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, hook)
}

func (n *recordingNotifier) fired() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]string, len(n.hooks))
	copy(result, n.hooks)
	return result
}
