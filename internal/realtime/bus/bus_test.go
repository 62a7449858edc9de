package bus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"github.com/yungbote/cvextract/internal/realtime"
)

func TestMemoryBusForwards(t *testing.T) {
	b := NewMemoryBus()
	got := make(chan realtime.Event, 1)
	if err := b.StartForwarder(context.Background(), func(evt realtime.Event) { got <- evt }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	id := uuid.New()
	if err := b.Publish(context.Background(), realtime.Event{Type: realtime.EventExtractionCompleted, ProfileID: &id}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	evt := <-got
	if evt.Type != realtime.EventExtractionCompleted || evt.OccurredAt.IsZero() {
		t.Fatalf("unexpected event %+v", evt)
	}
	if len(b.Published()) != 1 {
		t.Fatalf("Published = %d", len(b.Published()))
	}
}

func TestMemoryBusKeepsRecentHistory(t *testing.T) {
	b := NewMemoryBus()
	for i := 0; i < memoryHistory+10; i++ {
		if err := b.Publish(context.Background(), realtime.Event{Type: realtime.EventExtractionFailed, Inserted: i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	got := b.Published()
	if len(got) != memoryHistory {
		t.Fatalf("Published = %d, want %d", len(got), memoryHistory)
	}
	if got[0].Inserted != 10 || got[len(got)-1].Inserted != memoryHistory+9 {
		t.Fatalf("history window = [%d..%d]", got[0].Inserted, got[len(got)-1].Inserted)
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run the redis bus test")
	}
	channel := "cvx-test-" + uuid.NewString()
	b, err := NewRedisBusWithOptions(logger.Nop(), &goredis.Options{Addr: addr}, channel)
	if err != nil {
		t.Fatalf("NewRedisBusWithOptions: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan realtime.Event, 1)
	if err := b.StartForwarder(ctx, func(evt realtime.Event) { got <- evt }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(ctx, realtime.Event{Type: realtime.EventInterviewScored, Conversation: "conv-1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case evt := <-got:
		if evt.Conversation != "conv-1" {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-ctx.Done():
		t.Fatalf("event not delivered")
	}
}
