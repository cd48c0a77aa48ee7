// Package stream provides in-process change notification for journal data.
// Mutations publish coarse events per topic; consumers react by re-fetching
// the topic's current state, so delivery only has to be at-least-once and
// duplicate events are harmless.
package stream

import (
	"context"
	"sync"
	"time"
)

// Topic identifies one class of journal data.
type Topic string

const (
	TopicBias     Topic = "bias"
	TopicTrades   Topic = "trades"
	TopicSettings Topic = "settings"
)

// Event signals that a topic's data changed. It carries no payload: the
// receiver re-fetches, which keeps replays and reordering safe.
type Event struct {
	Topic Topic
	At    time.Time
}

// FeedConfig holds configuration for the feed.
type FeedConfig struct {
	// BufferSize is the size of the internal event channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultFeedConfig returns the default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		BufferSize:           256,
		SubscriberBufferSize: 16,
	}
}

// Feed fans events out to topic subscribers. Sends to subscribers are
// non-blocking: a slow consumer misses intermediate events but catches up on
// its next re-fetch.
type Feed struct {
	config      FeedConfig
	mu          sync.RWMutex
	subscribers map[Topic][]*Subscriber
	eventChan   chan Event
	done        chan struct{}
	started     bool

	metricsMu       sync.RWMutex
	eventsReceived  uint64
	eventsBroadcast uint64
	eventsDropped   uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan Event
	DroppedCount int
	CreatedAt    time.Time
}

// NewFeed creates a feed with default configuration.
func NewFeed() *Feed {
	return NewFeedWithConfig(DefaultFeedConfig())
}

// NewFeedWithConfig creates a feed with custom configuration.
func NewFeedWithConfig(config FeedConfig) *Feed {
	return &Feed{
		config:      config,
		subscribers: make(map[Topic][]*Subscriber),
		eventChan:   make(chan Event, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins the feed's distribution loop.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mu.Unlock()

	go f.broadcastLoop(ctx)
}

func (f *Feed) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case ev := <-f.eventChan:
			f.metricsMu.Lock()
			f.eventsReceived++
			f.metricsMu.Unlock()

			f.broadcast(ev)
		}
	}
}

// Stop stops the feed and closes all subscriber channels.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		return
	}

	close(f.done)
	f.started = false

	for topic, subs := range f.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(f.subscribers, topic)
	}
}

// Subscribe adds a subscriber for a topic and returns its event channel.
func (f *Feed) Subscribe(topic Topic) <-chan Event {
	return f.SubscribeWithID(topic, "")
}

// SubscribeWithID adds a subscriber with a specific ID for a topic.
func (f *Feed) SubscribeWithID(topic Topic, id string) <-chan Event {
	ch := make(chan Event, f.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	f.mu.Lock()
	f.subscribers[topic] = append(f.subscribers[topic], sub)
	f.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel for a topic.
func (f *Feed) Unsubscribe(topic Topic, ch <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := f.subscribers[topic]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			f.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(f.subscribers[topic]) == 0 {
		delete(f.subscribers, topic)
	}
}

// Publish signals a change on a topic. Non-blocking: when the internal
// buffer is full the event is dropped, which is safe under re-fetch
// semantics as long as a later event lands.
func (f *Feed) Publish(topic Topic) {
	ev := Event{Topic: topic, At: time.Now()}
	select {
	case f.eventChan <- ev:
	default:
		f.metricsMu.Lock()
		f.eventsDropped++
		f.metricsMu.Unlock()
	}
}

// broadcast sends an event to all subscribers of its topic.
func (f *Feed) broadcast(ev Event) {
	f.mu.RLock()
	subs := f.subscribers[ev.Topic]
	f.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.Channel <- ev:
			f.metricsMu.Lock()
			f.eventsBroadcast++
			f.metricsMu.Unlock()
		default:
			// Skip slow consumers - non-blocking
			sub.DroppedCount++
			f.metricsMu.Lock()
			f.eventsDropped++
			f.metricsMu.Unlock()
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic.
func (f *Feed) SubscriberCount(topic Topic) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[topic])
}

// IsStarted returns whether the feed is running.
func (f *Feed) IsStarted() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.started
}

// Metrics returns feed counters.
func (f *Feed) Metrics() FeedMetrics {
	f.metricsMu.RLock()
	defer f.metricsMu.RUnlock()

	return FeedMetrics{
		EventsReceived:  f.eventsReceived,
		EventsBroadcast: f.eventsBroadcast,
		EventsDropped:   f.eventsDropped,
	}
}

// FeedMetrics contains feed performance counters.
type FeedMetrics struct {
	EventsReceived  uint64
	EventsBroadcast uint64
	EventsDropped   uint64
}
