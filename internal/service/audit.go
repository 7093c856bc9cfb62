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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"

	"api-manager/src/internal/model"
	"api-manager/src/internal/repository"
	"api-manager/src/internal/utils"
)

const auditWriteTimeout = 5 * time.Second

// auditJob carries one audit record through the worker queue. The before and
// after snapshots are serialized at enqueue time so the diff reflects the
// state at the moment of the mutation, not at persist time.
type auditJob struct {
	referenceType string
	referenceID   string
	properties    map[string]string
	event         string
	createdAt     time.Time
	user          string
	before        json.RawMessage
	after         json.RawMessage
}

// AuditService records an RFC 6902 structural diff for every mutating
// operation. Recording is fire-and-forget: jobs are queued onto a buffered
// channel drained by a single background worker, which keeps records in
// causal order per caller. Nothing in here ever fails the operation being
// audited, with a full queue or a broken store the record is logged and
// dropped.
type AuditService struct {
	repo  repository.AuditRepository
	queue chan auditJob
	done  chan struct{}
	once  sync.Once
}

// NewAuditService creates an AuditService and starts its worker. queueSize
// bounds the number of in-flight records.
func NewAuditService(repo repository.AuditRepository, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1024
	}
	s := &AuditService{
		repo:  repo,
		queue: make(chan auditJob, queueSize),
		done:  make(chan struct{}),
	}
	go s.worker()
	return s
}

// Record enqueues one audit record. before and after may each be nil (entity
// creation has no before, deletion no after); a nil side diffs against an
// empty object. The acting user is taken from the "user" property when
// present. Never blocks and never returns an error.
func (s *AuditService) Record(referenceType, referenceID string, properties map[string]string,
	event string, createdAt time.Time, before, after interface{}) {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	job := auditJob{
		referenceType: referenceType,
		referenceID:   referenceID,
		properties:    properties,
		event:         event,
		createdAt:     createdAt,
		user:          properties["user"],
		before:        serializeSnapshot(before),
		after:         serializeSnapshot(after),
	}
	select {
	case s.queue <- job:
	default:
		utils.LogWarning("Audit queue full, dropping %s record for %s %s",
			event, referenceType, referenceID)
	}
}

// List returns persisted audit records, newest first. referenceType may be
// empty to list across all reference types.
func (s *AuditService) List(ctx context.Context, referenceType string, limit, offset int) ([]*model.Audit, error) {
	return s.repo.List(ctx, referenceType, limit, offset)
}

// Close stops accepting records and blocks until the worker has drained the
// queue.
func (s *AuditService) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	<-s.done
}

func (s *AuditService) worker() {
	defer close(s.done)
	for job := range s.queue {
		s.persist(job)
	}
}

func (s *AuditService) persist(job auditJob) {
	before, err := stripVolatileFields(job.before)
	if err != nil {
		utils.LogError("Failed to prepare audit before-snapshot, dropping record", err)
		return
	}
	after, err := stripVolatileFields(job.after)
	if err != nil {
		utils.LogError("Failed to prepare audit after-snapshot, dropping record", err)
		return
	}
	patch, err := jsondiff.CompareJSON(before, after)
	if err != nil {
		utils.LogError("Failed to diff audit snapshots, dropping record", err)
		return
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		utils.LogError("Failed to serialize audit patch, dropping record", err)
		return
	}

	audit := &model.Audit{
		ID:            uuid.New().String(),
		ReferenceType: job.referenceType,
		ReferenceID:   job.referenceID,
		Event:         job.event,
		User:          job.user,
		Patch:         string(patchJSON),
		Properties:    job.properties,
		CreatedAt:     job.createdAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := s.repo.Create(ctx, audit); err != nil {
		utils.LogErrorWithFields("Failed to persist audit record, dropping it", err,
			map[string]interface{}{
				"event":     job.event,
				"reference": job.referenceID,
			})
	}
}

// serializeSnapshot captures the entity's JSON form at enqueue time. A nil
// entity or a serialization failure degrades to an empty object: auditing
// must keep going with a partial record rather than fail.
func serializeSnapshot(entity interface{}) json.RawMessage {
	if entity == nil {
		return json.RawMessage("{}")
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		utils.LogError("Failed to serialize audit snapshot, substituting empty object", err)
		return json.RawMessage("{}")
	}
	return raw
}

// stripVolatileFields removes createdAt and updatedAt before diffing so that
// timestamp churn alone never produces an audit difference.
func stripVolatileFields(raw json.RawMessage) (json.RawMessage, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "createdAt")
	delete(doc, "updatedAt")
	return json.Marshal(doc)
}

var _ Auditor = (*AuditService)(nil)
