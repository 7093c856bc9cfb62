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

import "time"

// Auditor records a structural before/after diff for a mutating operation.
// Implementations run off the critical path: Record never blocks the caller
// and never surfaces an error back into the triggering operation.
type Auditor interface {
	Record(referenceType, referenceID string, properties map[string]string, event string, createdAt time.Time, before, after interface{})
}

// Notifier fires best-effort notification hooks towards connected
// subscribers. Failures are logged by the implementation, never returned.
type Notifier interface {
	Trigger(hook, apiID string, params map[string]string)
}
