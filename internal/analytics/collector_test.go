package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/kafka"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func TestCollectorPublishesTrackedEvents(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 10)
	c.Start(context.Background())

	c.Track(SearchEvent{Type: EventSearch, Query: "apple", IndexID: "idx-1"})
	c.Track(SearchEvent{Type: EventZeroResult, Query: "durian", IndexID: "idx-1"})
	c.Close()

	require.Len(t, pub.events, 2)
	assert.Equal(t, "idx-1", pub.events[0].Key)
	assert.Equal(t, "apple", pub.events[0].Value.(SearchEvent).Query)
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 1)

	c.Track(SearchEvent{Query: "one"})
	c.Track(SearchEvent{Query: "two"})
	c.Start(context.Background())
	c.Close()

	require.Len(t, pub.events, 1)
	assert.Equal(t, "one", pub.events[0].Value.(SearchEvent).Query)
}

func TestCollectorKeepsPublishingAfterCancel(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 10)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(SearchEvent{Query: "before"})

	cancel()
	c.Track(SearchEvent{Query: "during-shutdown"})
	c.Close()

	require.Len(t, pub.events, 2)
	assert.Equal(t, "during-shutdown", pub.events[1].Value.(SearchEvent).Query)
}

func TestCollectorPublishFailuresDoNotStopLoop(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 10)
	c.Start(context.Background())
	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	c.Close()

	assert.Len(t, pub.events, 2)
}

func TestCollectorTrackAfterClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 10)
	c.Start(context.Background())
	c.Close()

	assert.NotPanics(t, func() { c.Track(SearchEvent{Query: "late"}) })
	c.Close()
	assert.Empty(t, pub.events)
}
