package outbox

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/eventbridge"
	"github.com/aws/aws-sdk-go/service/eventbridge/eventbridgeiface"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank-io/corebank/config"
	"github.com/corebank-io/corebank/model"
)

func makeEvents(n int) []*model.OutboxEvent {
	events := make([]*model.OutboxEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, testEvent(i))
	}
	return events
}

type fakeEventBridge struct {
	eventbridgeiface.EventBridgeAPI
	calls [][]*eventbridge.PutEventsRequestEntry
}

func (f *fakeEventBridge) PutEventsWithContext(_ aws.Context, input *eventbridge.PutEventsInput, _ ...request.Option) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, input.Entries)
	return &eventbridge.PutEventsOutput{FailedEntryCount: aws.Int64(0)}, nil
}

func TestEventBridgeSinkChunksBatches(t *testing.T) {
	fake := &fakeEventBridge{}
	sink := NewEventBridgeSink(fake, "core-banking-bus")

	require.NoError(t, sink.Publish(context.Background(), makeEvents(25)))

	// 25 events fit in 3 PutEvents calls capped at 10 entries each.
	require.Len(t, fake.calls, 3)
	assert.Len(t, fake.calls[0], 10)
	assert.Len(t, fake.calls[1], 10)
	assert.Len(t, fake.calls[2], 5)

	entry := fake.calls[0][0]
	assert.Equal(t, "service.fund_transfer", aws.StringValue(entry.Source))
	assert.Equal(t, "transfer", aws.StringValue(entry.DetailType))
	assert.Equal(t, "core-banking-bus", aws.StringValue(entry.EventBusName))
	assert.NotEmpty(t, aws.StringValue(entry.Detail))
}

func TestStreamSinkPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	sink := NewStreamSink(client, "fund-transfers")
	require.NoError(t, sink.Publish(context.Background(), makeEvents(3)))

	length, err := client.XLen(context.Background(), "fund-transfers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	// Provisioning is one-time and publishing again just appends.
	require.NoError(t, sink.Publish(context.Background(), makeEvents(2)))
	length, err = client.XLen(context.Background(), "fund-transfers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(5), length)
}

func TestNoopSink(t *testing.T) {
	assert.NoError(t, NoopSink{}.Publish(context.Background(), makeEvents(4)))
}

func TestNewSinkSelection(t *testing.T) {
	sink, err := NewSink(&config.Configuration{Sink: config.SinkConfig{Kind: config.SinkNone}}, nil)
	require.NoError(t, err)
	assert.IsType(t, NoopSink{}, sink)

	_, err = NewSink(&config.Configuration{Sink: config.SinkConfig{Kind: config.SinkStream}}, nil)
	assert.Error(t, err)

	_, err = NewSink(&config.Configuration{Sink: config.SinkConfig{Kind: "kafka"}}, nil)
	assert.Error(t, err)
}
