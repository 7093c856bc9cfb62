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

// Plan represents a subscription plan attached to an API. The synchronization
// checker consumes it read-only: a non-STAGING plan whose NeedRedeployAt is
// after the API's DeployedAt marks the API out of sync.
type Plan struct {
	ID          string `json:"id" db:"uuid"`
	ApiID       string `json:"apiId" db:"api_uuid"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`

	// Status is one of STAGING, PUBLISHED, DEPRECATED, CLOSED.
	Status string `json:"status" db:"status"`

	// Security is the subscription security scheme (API_KEY, OAUTH2, ...).
	Security string `json:"security,omitempty" db:"security"`

	// NeedRedeployAt is advanced on every gateway-relevant plan change.
	NeedRedeployAt time.Time `json:"needRedeployAt" db:"need_redeploy_at"`

	CreatedAt time.Time `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// TableName returns the table name for the Plan model
func (Plan) TableName() string {
	return "plans"
}
