/*
Copyright 2025 Corebank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"encoding/json"
	"time"
)

const (
	EventSource     = "service.fund_transfer"
	EventDetailType = "transfer"
)

// OutboxEvent wraps a TransferRecord for asynchronous delivery. Detail is
// the JSON-encoded record, serialized at enqueue time so the event is
// self-contained once the outbox owns it.
type OutboxEvent struct {
	Time       time.Time `json:"time"`
	Source     string    `json:"source"`
	DetailType string    `json:"detail_type"`
	Detail     []byte    `json:"detail"`
}

// NewOutboxEvent builds the event wrapper for a completed transfer.
func NewOutboxEvent(record *TransferRecord) (*OutboxEvent, error) {
	detail, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		Time:       time.Now(),
		Source:     EventSource,
		DetailType: EventDetailType,
		Detail:     detail,
	}, nil
}
