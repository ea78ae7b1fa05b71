package rediskit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *Manager) {
	t.Helper()
	m, _ := newTestManager(t)
	b, err := NewBroker(BrokerOptions{Manager: m})
	require.NoError(t, err)
	return b, m
}

type event struct {
	Kind string `json:"kind"`
	ID   int    `json:"id"`
}

func TestPublishSubscribeString(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "updates")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "updates", "hello"))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "updates", msg.Channel)
		assert.Equal(t, "hello", msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishSerializesStructs(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "events", event{Kind: "created", ID: 7}))

	select {
	case msg := <-sub.Messages():
		var e event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &e))
		assert.Equal(t, event{Kind: "created", ID: 7}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSubscribeMultipleChannels(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "ch:a", "ch:b")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "ch:b", "only-b"))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "ch:b", msg.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "quiet")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, sub.Unsubscribe(ctx, "quiet"))
	require.NoError(t, b.Publish(ctx, "quiet", "dropped"))

	select {
	case msg := <-sub.Messages():
		t.Fatalf("unexpected delivery after unsubscribe: %v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManagerCloseReleasesSubscriptions(t *testing.T) {
	b, m := newTestBroker(t)

	_, err := b.Subscribe(context.Background(), "leaky")
	require.NoError(t, err)

	// Close must release the tracked handle without error even though the
	// caller never closed it.
	require.NoError(t, m.Close())
}

func TestBrokerNotInitialized(t *testing.T) {
	b, err := NewBroker(BrokerOptions{Manager: NewManager(Config{}, nil)})
	require.NoError(t, err)

	_, err = b.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, b.Publish(context.Background(), "x", "y"), ErrNotInitialized)
}
