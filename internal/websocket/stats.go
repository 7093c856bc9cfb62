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

package websocket

import (
	"sync/atomic"
	"time"
)

// DeliveryStats tracks per-connection delivery counters with atomic
// operations, giving lock-free updates from concurrent broadcast goroutines.
// Counters reset on restart; durable metrics live in Prometheus.
type DeliveryStats struct {
	// TotalEventsSent is the cumulative number of events delivered.
	TotalEventsSent int64

	// FailedDeliveries counts sends that returned an error.
	FailedDeliveries int64

	// LastFailureTime and LastFailureReason describe the latest failure.
	// Not atomic; approximate values are fine for monitoring.
	LastFailureTime   time.Time
	LastFailureReason string
}

// IncrementTotalSent atomically increments the sent counter.
func (s *DeliveryStats) IncrementTotalSent() {
	atomic.AddInt64(&s.TotalEventsSent, 1)
}

// IncrementFailed atomically increments the failure counter and records the
// failure details.
func (s *DeliveryStats) IncrementFailed(reason string) {
	atomic.AddInt64(&s.FailedDeliveries, 1)
	s.LastFailureTime = time.Now()
	s.LastFailureReason = reason
}

// GetTotalSent returns the current sent counter value.
func (s *DeliveryStats) GetTotalSent() int64 {
	return atomic.LoadInt64(&s.TotalEventsSent)
}

// GetFailedCount returns the current failure counter value.
func (s *DeliveryStats) GetFailedCount() int64 {
	return atomic.LoadInt64(&s.FailedDeliveries)
}

// GetSuccessRate returns the delivery success percentage, 100 when nothing
// has been sent yet.
func (s *DeliveryStats) GetSuccessRate() float64 {
	total := s.GetTotalSent()
	if total == 0 {
		return 100.0
	}
	failed := s.GetFailedCount()
	return (float64(total-failed) / float64(total)) * 100.0
}
