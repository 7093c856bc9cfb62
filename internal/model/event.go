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

// Event is an immutable deploy event. One is appended each time an API is
// published, unpublished, started or stopped, carrying a full serialized
// snapshot of the API at that instant. Events are never updated; they are
// only deleted as part of whole-API deletion.
type Event struct {
	ID string `json:"id" db:"uuid"`

	// ApiID is a weak reference: the event outlives most API mutations and
	// also carries the API id in its property bag.
	ApiID string `json:"apiId" db:"api_uuid"`

	// Type is one of PUBLISH_API, UNPUBLISH_API, START_API, STOP_API.
	Type string `json:"type" db:"type"`

	// Payload is the JSON snapshot of the Api at event time, with ephemeral
	// fields (picture) stripped.
	Payload []byte `json:"-" db:"payload"`

	// Properties carries at minimum api_id and user; PUBLISH_API events also
	// carry deployment_number and optionally deployment_label.
	Properties map[string]string `json:"properties,omitempty" db:"properties"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the Event model
func (Event) TableName() string {
	return "events"
}
