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

package outbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/aws/aws-sdk-go/service/eventbridge/eventbridgeiface"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/corebank-io/corebank/config"
	"github.com/corebank-io/corebank/model"
)

// Sink publishes a drained batch downstream. Implementations report the
// whole batch as failed or published; the outbox never redelivers either way.
type Sink interface {
	Publish(ctx context.Context, events []*model.OutboxEvent) error
}

// NewSink builds the sink selected by configuration. redisClient is only
// needed for the stream sink and may be nil otherwise.
func NewSink(cnf *config.Configuration, redisClient redis.UniversalClient) (Sink, error) {
	switch cnf.Sink.Kind {
	case config.SinkNone, "":
		return NoopSink{}, nil
	case config.SinkEventBridge:
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cnf.Sink.AwsRegion)})
		if err != nil {
			return nil, fmt.Errorf("eventbridge session: %w", err)
		}
		return NewEventBridgeSink(eventbridge.New(sess), cnf.Sink.EventBus), nil
	case config.SinkStream:
		if redisClient == nil {
			return nil, fmt.Errorf("stream sink requires a redis client")
		}
		return NewStreamSink(redisClient, cnf.Sink.StreamName), nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cnf.Sink.Kind)
	}
}

// NoopSink discards drained events. Used when the deployment measures
// ledger throughput in isolation.
type NoopSink struct{}

func (NoopSink) Publish(_ context.Context, _ []*model.OutboxEvent) error {
	return nil
}

// eventBridgeMaxBatch is the PutEvents hard cap on entries per call.
const eventBridgeMaxBatch = 10

// EventBridgeSink publishes batches to an EventBridge bus, one network
// call per chunk of up to eventBridgeMaxBatch entries.
type EventBridgeSink struct {
	client eventbridgeiface.EventBridgeAPI
	bus    string
}

func NewEventBridgeSink(client eventbridgeiface.EventBridgeAPI, bus string) *EventBridgeSink {
	if bus == "" {
		bus = "default"
	}
	return &EventBridgeSink{client: client, bus: bus}
}

func (s *EventBridgeSink) Publish(ctx context.Context, events []*model.OutboxEvent) error {
	for start := 0; start < len(events); start += eventBridgeMaxBatch {
		end := start + eventBridgeMaxBatch
		if end > len(events) {
			end = len(events)
		}

		entries := make([]*eventbridge.PutEventsRequestEntry, 0, end-start)
		for _, event := range events[start:end] {
			entries = append(entries, &eventbridge.PutEventsRequestEntry{
				Time:         aws.Time(event.Time),
				Source:       aws.String(event.Source),
				DetailType:   aws.String(event.DetailType),
				EventBusName: aws.String(s.bus),
				Detail:       aws.String(string(event.Detail)),
			})
		}

		out, err := s.client.PutEventsWithContext(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return fmt.Errorf("eventbridge put events: %w", err)
		}
		if failed := aws.Int64Value(out.FailedEntryCount); failed > 0 {
			logrus.WithField("failed_entries", failed).Error("eventbridge rejected entries in batch")
		}
	}
	return nil
}

// StreamSink publishes one entry per event onto a named Redis stream. The
// stream and its consumer group are provisioned once, idempotently, on
// first use.
type StreamSink struct {
	client redis.UniversalClient
	stream string

	provisionOnce sync.Once
	provisionErr  error
}

func NewStreamSink(client redis.UniversalClient, stream string) *StreamSink {
	if stream == "" {
		stream = "fund-transfers"
	}
	return &StreamSink{client: client, stream: stream}
}

func (s *StreamSink) provision(ctx context.Context) error {
	s.provisionOnce.Do(func() {
		err := s.client.XGroupCreateMkStream(ctx, s.stream, s.stream+"-consumers", "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			s.provisionErr = err
		}
	})
	return s.provisionErr
}

func (s *StreamSink) Publish(ctx context.Context, events []*model.OutboxEvent) error {
	if err := s.provision(ctx); err != nil {
		return fmt.Errorf("stream provisioning: %w", err)
	}
	for _, event := range events {
		err := s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{
				"time":        event.Time.Format("2006-01-02T15:04:05.000Z07:00"),
				"source":      event.Source,
				"detail_type": event.DetailType,
				"detail":      string(event.Detail),
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("stream publish: %w", err)
		}
	}
	return nil
}
