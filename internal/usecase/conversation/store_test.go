package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(cache Cache) (*Store, *clock) {
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(cache, 30*time.Minute, nil)
	s.now = c.Now
	return s, c
}

func TestStore_UnknownUserIsEmpty(t *testing.T) {
	s, _ := newTestStore(nil)

	st := s.Get(context.Background(), "u1")
	assert.Equal(t, "u1", st.UserID)
	assert.True(t, st.IsEmpty())
}

func TestStore_SetThenGet(t *testing.T) {
	s, c := newTestStore(nil)
	ctx := context.Background()

	s.Set(ctx, domain.ConversationState{UserID: "u1", LastProductID: "p1", LastQueryTime: c.Now()})

	assert.Equal(t, "p1", s.Get(ctx, "u1").LastProductID)
	assert.True(t, s.Get(ctx, "u2").IsEmpty())
	assert.Equal(t, 1, s.Len())
}

func TestStore_LastWriteWins(t *testing.T) {
	s, c := newTestStore(nil)
	ctx := context.Background()

	s.Set(ctx, domain.ConversationState{UserID: "u1", LastProductID: "p1", LastQueryTime: c.Now()})
	s.Set(ctx, domain.ConversationState{UserID: "u1", LastProductID: "p2", LastQueryTime: c.Now()})

	assert.Equal(t, "p2", s.Get(ctx, "u1").LastProductID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SweepEvictsOnlyIdle(t *testing.T) {
	s, c := newTestStore(nil)
	ctx := context.Background()

	s.Set(ctx, domain.ConversationState{UserID: "old", LastQueryTime: c.Now()})
	c.Advance(20 * time.Minute)
	s.Set(ctx, domain.ConversationState{UserID: "fresh", LastQueryTime: c.Now()})
	c.Advance(11 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Get(ctx, "old").IsEmpty())
	assert.False(t, s.Get(ctx, "fresh").IsEmpty())
}

func TestStore_ExpiredStateReadsAsEmptyBeforeSweep(t *testing.T) {
	s, c := newTestStore(nil)
	ctx := context.Background()

	s.Set(ctx, domain.ConversationState{UserID: "u1", LastProductID: "p1", LastQueryTime: c.Now()})
	c.Advance(31 * time.Minute)

	assert.True(t, s.Get(ctx, "u1").IsEmpty())
}

func TestStore_WriteThroughAndReload(t *testing.T) {
	cache := kvcache.NewMemory(100, 0)
	first, c := newTestStore(cache)
	ctx := context.Background()

	first.Set(ctx, domain.ConversationState{UserID: "u1", LastProductID: "p1", LastQueryTime: c.Now()})

	second, c2 := newTestStore(cache)
	c2.now = c.Now()
	st := second.Get(ctx, "u1")

	assert.Equal(t, "p1", st.LastProductID)
	assert.Equal(t, 1, second.Len())
}

func TestStore_CorruptCacheEntryIgnored(t *testing.T) {
	cache := kvcache.NewMemory(100, 0)
	require.NoError(t, cache.Set(context.Background(), kvcache.NamespaceConversation, "u1", []byte("{"), 0))
	s, _ := newTestStore(cache)

	assert.True(t, s.Get(context.Background(), "u1").IsEmpty())
}

func TestStore_ConcurrentUsers(t *testing.T) {
	s, c := newTestStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i)
			for j := range 50 {
				s.Set(ctx, domain.ConversationState{UserID: id, LastProductID: fmt.Sprint(j), LastQueryTime: c.Now()})
				_ = s.Get(ctx, id)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			s.Sweep()
		}
	}()
	wg.Wait()

	assert.Equal(t, 64, s.Len())
	assert.Equal(t, "49", s.Get(ctx, "u7").LastProductID)
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s, _ := newTestStore(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
