package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/db"
	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/metrics"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
)

const (
	shardCount = 32

	// DefaultIdleTTL is how long a state survives without activity.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultSweepInterval is how often idle states are evicted.
	DefaultSweepInterval = time.Hour
)

type shard struct {
	mu     sync.RWMutex
	states map[string]domain.ConversationState
}

// Store holds conversation state per user. Users hash onto independent shards,
// so distinct users never contend. Writes for one user are last-write-wins.
type Store struct {
	shards  [shardCount]*shard
	cache   Cache
	idleTTL time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewStore creates a state store. cache may be nil; when set, states are written
// through to it and read back after a restart.
func NewStore(cache Cache, idleTTL time.Duration, logger *zap.Logger) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{cache: cache, idleTTL: idleTTL, now: time.Now, logger: logger}
	for i := range s.shards {
		s.shards[i] = &shard{states: make(map[string]domain.ConversationState)}
	}
	return s
}

func (s *Store) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return s.shards[h.Sum32()%shardCount]
}

// Get returns the user's state, or an empty state for unknown or expired users.
func (s *Store) Get(ctx context.Context, userID string) domain.ConversationState {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	st, ok := sh.states[userID]
	sh.mu.RUnlock()
	if ok && !s.stale(st) {
		return st
	}

	if st, ok := s.load(ctx, userID); ok {
		sh.mu.Lock()
		if _, exists := sh.states[userID]; !exists {
			metrics.ConversationStates.Inc()
		}
		sh.states[userID] = st
		sh.mu.Unlock()
		return st
	}
	return domain.ConversationState{UserID: userID}
}

// Set replaces the user's state.
func (s *Store) Set(ctx context.Context, st domain.ConversationState) {
	if st.UserID == "" {
		return
	}
	sh := s.shardFor(st.UserID)
	sh.mu.Lock()
	if _, exists := sh.states[st.UserID]; !exists {
		metrics.ConversationStates.Inc()
	}
	sh.states[st.UserID] = st
	sh.mu.Unlock()

	s.persist(ctx, st)
}

// Len reports how many states are held in memory.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.states)
		sh.mu.RUnlock()
	}
	return n
}

// Sweep evicts idle states and returns how many were removed. Each shard is
// scanned under a read lock; deletions re-check staleness so a state touched
// in between survives.
func (s *Store) Sweep() int {
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		var candidates []string
		for id, st := range sh.states {
			if s.stale(st) {
				candidates = append(candidates, id)
			}
		}
		sh.mu.RUnlock()

		if len(candidates) == 0 {
			continue
		}

		sh.mu.Lock()
		for _, id := range candidates {
			if st, ok := sh.states[id]; ok && s.stale(st) {
				delete(sh.states, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}

	if evicted > 0 {
		metrics.ConversationStates.Sub(float64(evicted))
		metrics.ConversationEvictionsTotal.Add(float64(evicted))
		s.logger.Info("Evicted idle conversation states", zap.Int("count", evicted))
	}
	return evicted
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) stale(st domain.ConversationState) bool {
	return s.now().Sub(st.LastQueryTime) > s.idleTTL
}

func (s *Store) load(ctx context.Context, userID string) (domain.ConversationState, bool) {
	if s.cache == nil {
		return domain.ConversationState{}, false
	}
	data, err := s.cache.Get(ctx, kvcache.NamespaceConversation, userID)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("Failed to load conversation state", zap.String("user_id", userID), zap.Error(err))
		}
		return domain.ConversationState{}, false
	}
	var st domain.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("Failed to decode conversation state", zap.String("user_id", userID), zap.Error(err))
		return domain.ConversationState{}, false
	}
	if st.UserID != userID || s.stale(st) {
		return domain.ConversationState{}, false
	}
	return st, true
}

func (s *Store) persist(ctx context.Context, st domain.ConversationState) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Warn("Failed to encode conversation state", zap.String("user_id", st.UserID), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, kvcache.NamespaceConversation, st.UserID, data, s.idleTTL); err != nil {
		s.logger.Warn("Failed to persist conversation state", zap.String("user_id", st.UserID), zap.Error(err))
	}
}
