package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/core/ports"
)

type recordingRouter struct {
	mu   sync.Mutex
	seen map[int64][]int64 // chat id → update ids in processing order
	done chan struct{}
	want int
}

func newRecordingRouter(want int) *recordingRouter {
	return &recordingRouter{
		seen: make(map[int64][]int64),
		done: make(chan struct{}),
		want: want,
	}
}

func (r *recordingRouter) Route(_ context.Context, up ports.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[up.ChatID] = append(r.seen[up.ChatID], up.ID)
	r.want--
	if r.want == 0 {
		close(r.done)
	}
	return nil
}

func TestDispatcher_PerConversationOrdering(t *testing.T) {
	const perChat = 50
	chats := []int64{11, 22, 33, 44}

	router := newRecordingRouter(perChat * len(chats))
	d := NewDispatcher(4, router, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var id int64
	for i := 0; i < perChat; i++ {
		for _, chat := range chats {
			id++
			d.Enqueue(ports.Update{ID: id, ChatID: chat})
		}
	}

	select {
	case <-router.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for updates to drain")
	}

	router.mu.Lock()
	defer router.mu.Unlock()
	for _, chat := range chats {
		ids := router.seen[chat]
		if len(ids) != perChat {
			t.Fatalf("chat %d: expected %d updates, got %d", chat, perChat, len(ids))
		}
		for i := 1; i < len(ids); i++ {
			if ids[i] < ids[i-1] {
				t.Fatalf("chat %d: updates processed out of order: %v", chat, ids)
			}
		}
	}
}

func TestDispatcher_ShardIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingRouter(0), zerolog.Nop())
	for _, chat := range []int64{1, -5, 123456789, 0} {
		first := d.shardIndex(chat)
		for i := 0; i < 10; i++ {
			if d.shardIndex(chat) != first {
				t.Fatalf("shard for chat %d is not deterministic", chat)
			}
		}
	}
}
