package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func detectedEvent(mint string) TokenDetectedEvent {
	return TokenDetectedEvent{
		BaseEvent: BaseEvent{EventType: TokenDetected, EventTime: time.Now()},
		TokenMint: mint,
	}
}

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer bus.Close()

	var mu sync.Mutex
	var received []string

	bus.SubscribeFunc(TokenDetected, func(_ context.Context, event Event) error {
		e, ok := event.(TokenDetectedEvent)
		require.True(t, ok)
		mu.Lock()
		received = append(received, e.TokenMint)
		mu.Unlock()
		return nil
	})

	require.NoError(t, bus.Publish(detectedEvent("mint1")))
	require.NoError(t, bus.Publish(detectedEvent("mint2")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"mint1", "mint2"}, received)
	mu.Unlock()
}

func TestBusRoutesByEventType(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer bus.Close()

	var matched sync.WaitGroup
	matched.Add(1)

	bus.SubscribeFunc(KeywordMatched, func(_ context.Context, _ Event) error {
		matched.Done()
		return nil
	})
	bus.SubscribeFunc(TokenDetected, func(_ context.Context, _ Event) error {
		t.Error("token.detected handler must not see keyword events")
		return nil
	})

	require.NoError(t, bus.Publish(KeywordMatchedEvent{
		BaseEvent: BaseEvent{EventType: KeywordMatched, EventTime: time.Now()},
		TokenMint: "mint1",
		Keyword:   "moon",
	}))

	done := make(chan struct{})
	go func() {
		matched.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keyword handler was never called")
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)

	var count int32
	var mu sync.Mutex
	sub := bus.SubscribeFunc(TokenDetected, func(_ context.Context, _ Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	require.NoError(t, bus.Publish(detectedEvent("mint1")))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 10*time.Millisecond)

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(detectedEvent("mint2")))

	// Close drains the queue, so delivery after this point is final.
	bus.Close()

	mu.Lock()
	assert.Equal(t, int32(1), count)
	mu.Unlock()
}

func TestBusPublishDropsWhenFull(t *testing.T) {
	bus := NewBus(zap.NewNop(), 1)

	release := make(chan struct{})
	started := make(chan struct{}, 4)
	bus.SubscribeFunc(TokenDetected, func(_ context.Context, _ Event) error {
		started <- struct{}{}
		<-release
		return nil
	})

	// First event occupies the handler, second fills the buffer slot; the
	// third has nowhere to go and must be dropped, not block.
	require.NoError(t, bus.Publish(detectedEvent("mint1")))
	<-started
	require.NoError(t, bus.Publish(detectedEvent("mint2")))

	err := bus.Publish(detectedEvent("mint3"))
	assert.ErrorContains(t, err, "full")

	close(release)
	bus.Close()
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	bus.Close()

	err := bus.Publish(detectedEvent("mint1"))
	assert.Error(t, err)
}
