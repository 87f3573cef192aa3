// ABOUTME: In-memory fan-out of conversation state snapshots to UI subscribers
// ABOUTME: Keyed by thread id; a slow subscriber loses stale snapshots, never the newest

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// Broadcaster provides in-memory pub/sub of State snapshots. Several
// controllers may share one broadcaster; each publishes under its thread id.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan State // threadID -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan State),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers for snapshots of threadID. The subscription is removed
// and its channel closed when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, threadID string) (<-chan State, string) {
	subID := uuid.New().String()
	ch := make(chan State, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[threadID]; !ok {
		b.subscribers[threadID] = make(map[string]chan State)
	}
	b.subscribers[threadID][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added",
		"thread_id", threadID,
		"sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(threadID, subID)
	}()

	return ch, subID
}

// Publish sends state to every subscriber of threadID except excludeSubID.
// It never blocks: when a subscriber's buffer is full its oldest pending
// snapshot is discarded to make room.
func (b *Broadcaster) Publish(threadID string, state State, excludeSubID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers[threadID] {
		if excludeSubID != "" && id == excludeSubID {
			continue
		}
		select {
		case ch <- state:
			continue
		default:
		}

		// Full: drop the oldest snapshot, then retry once
		select {
		case <-ch:
			b.logger.Debug("dropped stale snapshot for slow subscriber",
				"thread_id", threadID,
				"sub_id", id)
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(threadID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[threadID]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	if len(subs) == 0 {
		delete(b.subscribers, threadID)
	}

	b.logger.Debug("subscriber removed",
		"thread_id", threadID,
		"sub_id", subID)
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for threadID, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, threadID)
	}

	b.logger.Debug("broadcaster closed")
}
