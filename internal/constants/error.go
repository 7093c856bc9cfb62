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

package constants

import "errors"

var (
	ErrAPINotFound           = errors.New("api not found")
	ErrAPIAlreadyExists      = errors.New("api already exists")
	ErrAPIRunning            = errors.New("api is running, stop it before deleting")
	ErrInvalidAPIName        = errors.New("invalid api name format")
	ErrInvalidAPIVersion     = errors.New("invalid api version format")
	ErrInvalidLifecycleState = errors.New("invalid lifecycle state")
)

var (
	// ErrLifecycleTransitionNotAllowed is returned when the requested
	// administrative lifecycle state is not reachable from the current one.
	ErrLifecycleTransitionNotAllowed = errors.New("lifecycle state transition not allowed")

	// ErrDeploymentConflict is returned when a concurrent deployment raced on
	// the same API and the deployment number could not be assigned. Retryable.
	ErrDeploymentConflict = errors.New("concurrent deployment detected, retry the operation")

	ErrInvalidEventType = errors.New("invalid deploy event type")

	// ErrNoPublishedSnapshot is returned by rollback when the API was never
	// published, so there is no snapshot to restore.
	ErrNoPublishedSnapshot = errors.New("api has no published snapshot")
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrInvalidPlanStatus = errors.New("invalid plan status")
)
