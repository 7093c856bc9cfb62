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

package model

import (
	"time"
)

// Audit is the immutable trail record of one state-changing operation.
// Patch holds an RFC 6902 JSON Patch between the before and after snapshots
// with volatile fields (createdAt, updatedAt) excluded from the diff.
type Audit struct {
	ID            string            `json:"id" db:"uuid"`
	ReferenceType string            `json:"referenceType" db:"reference_type"`
	ReferenceID   string            `json:"referenceId" db:"reference_id"`
	Event         string            `json:"event" db:"event"`
	User          string            `json:"user" db:"username"`
	Patch         string            `json:"patch,omitempty" db:"patch"`
	Properties    map[string]string `json:"properties,omitempty" db:"properties"`
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the Audit model
func (Audit) TableName() string {
	return "audits"
}
