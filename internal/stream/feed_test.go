package stream

import (
	"context"
	"testing"
	"time"
)

func startedFeed(t *testing.T) *Feed {
	t.Helper()
	f := NewFeed()
	ctx, cancel := context.WithCancel(context.Background())
	f.Start(ctx)
	t.Cleanup(func() {
		cancel()
		f.Stop()
	})
	return f
}

func waitEvent(t *testing.T, ch <-chan Event, topic Topic) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before event arrived")
		}
		if ev.Topic != topic {
			t.Fatalf("event topic = %s, want %s", ev.Topic, topic)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s event", topic)
		return Event{}
	}
}

func TestFeed_PublishReachesTopicSubscribers(t *testing.T) {
	f := startedFeed(t)

	trades := f.Subscribe(TopicTrades)
	bias := f.Subscribe(TopicBias)

	f.Publish(TopicTrades)
	waitEvent(t, trades, TopicTrades)

	// The bias subscriber saw nothing.
	select {
	case ev := <-bias:
		t.Fatalf("bias subscriber received %v for a trades event", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeed_FanOut(t *testing.T) {
	f := startedFeed(t)

	first := f.Subscribe(TopicBias)
	second := f.Subscribe(TopicBias)

	f.Publish(TopicBias)
	waitEvent(t, first, TopicBias)
	waitEvent(t, second, TopicBias)
}

func TestFeed_SlowConsumerDoesNotBlockOthers(t *testing.T) {
	f := NewFeedWithConfig(FeedConfig{BufferSize: 64, SubscriberBufferSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	f.Start(ctx)
	t.Cleanup(func() {
		cancel()
		f.Stop()
	})

	slow := f.Subscribe(TopicTrades) // never drained past one event
	fast := f.Subscribe(TopicTrades)

	for i := 0; i < 10; i++ {
		f.Publish(TopicTrades)
		// The fast consumer keeps up event by event.
		waitEvent(t, fast, TopicTrades)
	}

	// The slow consumer holds at most its buffer; the rest were dropped
	// rather than blocking the loop.
	if len(slow) > 1 {
		t.Errorf("slow subscriber buffered %d events, buffer size is 1", len(slow))
	}
}

func TestFeed_Unsubscribe(t *testing.T) {
	f := startedFeed(t)

	ch := f.Subscribe(TopicSettings)
	if got := f.SubscriberCount(TopicSettings); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	f.Unsubscribe(TopicSettings, ch)
	if got := f.SubscriberCount(TopicSettings); got != 0 {
		t.Errorf("subscriber count after unsubscribe = %d, want 0", got)
	}
	if _, ok := <-ch; ok {
		t.Error("unsubscribed channel should be closed")
	}
}

func TestFeed_StopClosesSubscribers(t *testing.T) {
	f := NewFeed()
	f.Start(context.Background())
	ch := f.Subscribe(TopicTrades)

	f.Stop()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after Stop")
	}
	if f.IsStarted() {
		t.Error("feed still reports started after Stop")
	}
}
