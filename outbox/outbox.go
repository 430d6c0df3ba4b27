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

// Package outbox buffers domain events produced by completed transfers
// and delivers them to a configured sink in periodic batches. Delivery is
// best-effort relative to transfer success: the queue is bounded, a full
// queue drops the event rather than the transfer, and sink failures are
// logged, not retried.
package outbox

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/corebank-io/corebank/model"
)

// Outbox is a bounded many-producer/one-consumer event queue. Enqueue
// never blocks; once an event is drained it is owned by the caller and
// can never re-enter the queue.
type Outbox struct {
	events  chan *model.OutboxEvent
	dropped atomic.Uint64
}

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Outbox{events: make(chan *model.OutboxEvent, capacity)}
}

// Enqueue pushes the event without blocking. When the queue is at
// capacity the event is dropped and false is returned; producers carry on.
func (o *Outbox) Enqueue(event *model.OutboxEvent) bool {
	select {
	case o.events <- event:
		return true
	default:
		dropped := o.dropped.Add(1)
		logrus.WithFields(logrus.Fields{
			"source":        event.Source,
			"total_dropped": dropped,
		}).Warn("outbox full, dropping event")
		return false
	}
}

// Drain removes and returns up to max events currently queued. It never
// waits for new events; an empty queue yields an empty slice.
func (o *Outbox) Drain(max int) []*model.OutboxEvent {
	if max <= 0 {
		return nil
	}
	events := make([]*model.OutboxEvent, 0, min(max, len(o.events)))
	for len(events) < max {
		select {
		case event := <-o.events:
			events = append(events, event)
		default:
			return events
		}
	}
	return events
}

// Len reports the number of events currently queued.
func (o *Outbox) Len() int {
	return len(o.events)
}

// Dropped reports how many events were discarded because the queue was full.
func (o *Outbox) Dropped() uint64 {
	return o.dropped.Load()
}
