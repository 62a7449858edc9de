package bus

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/cvextract/internal/realtime"
)

const memoryHistory = 256

// MemoryBus delivers events to in-process forwarders. It backs local runs
// without Redis and tests.
type MemoryBus struct {
	mu        sync.Mutex
	handlers  []func(realtime.Event)
	published []realtime.Event
}

func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

func (b *MemoryBus) Publish(ctx context.Context, evt realtime.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	b.mu.Lock()
	b.published = append(b.published, evt)
	if over := len(b.published) - memoryHistory; over > 0 {
		b.published = append(b.published[:0:0], b.published[over:]...)
	}
	handlers := append([]func(realtime.Event){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
	return nil
}

func (b *MemoryBus) StartForwarder(ctx context.Context, onEvent func(evt realtime.Event)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, onEvent)
	b.mu.Unlock()
	return nil
}

// Published returns a copy of the most recent events, oldest first.
func (b *MemoryBus) Published() []realtime.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]realtime.Event(nil), b.published...)
}

func (b *MemoryBus) Close() error { return nil }
