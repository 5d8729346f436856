package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	domquery "github.com/kailas-cloud/chatsearch/internal/domain/query"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/chatsearch/internal/usecase/query"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

type knnCall struct {
	k    int
	expr filter.Expression
}

type fakeIndex struct {
	// results are returned per call in order; missing entries mean empty.
	results  [][]domain.Candidate
	err      error
	products map[string]domain.Product
	getErr   error
	calls    []knnCall
	gets     int
}

func (f *fakeIndex) QueryNearestNeighbors(
	_ context.Context, _ []float32, k int, expr filter.Expression, _ string,
) ([]domain.Candidate, error) {
	f.calls = append(f.calls, knnCall{k: k, expr: expr})
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.calls) - 1
	if i < len(f.results) {
		return f.results[i], nil
	}
	return nil, nil
}

func (f *fakeIndex) GetProduct(_ context.Context, _, id string) (*domain.Product, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if p, ok := f.products[id]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
}

type fakeCatalog struct {
	scan    []domain.Product
	byID    map[string]domain.Product
	scanErr error
	scans   int
	gets    int
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	f.gets++
	if p, ok := f.byID[id]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
}

func (f *fakeCatalog) ScanCatalog(_ context.Context, limit int) ([]domain.Product, error) {
	f.scans++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	if limit < len(f.scan) {
		return f.scan[:limit], nil
	}
	return f.scan, nil
}

type fakeStates struct {
	mu       sync.Mutex
	states   map[string]domain.ConversationState
	readOnly bool
	panicGet bool
	sets     int
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: make(map[string]domain.ConversationState)}
}

func (f *fakeStates) Get(_ context.Context, userID string) domain.ConversationState {
	if f.panicGet {
		panic("state store corrupted")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.states[userID]; ok {
		return st
	}
	return domain.ConversationState{UserID: userID}
}

func (f *fakeStates) Set(_ context.Context, st domain.ConversationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if !f.readOnly {
		f.states[st.UserID] = st
	}
}

type fakeHistory struct {
	mu       sync.Mutex
	messages map[string][]domain.ChatMessage
	loadErr  error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{messages: make(map[string][]domain.ChatMessage)}
}

func (f *fakeHistory) Load(_ context.Context, userID string) (*domain.ChatHistory, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[userID]
	if len(msgs) == 0 {
		return nil, nil
	}
	return &domain.ChatHistory{UserID: userID, Messages: append([]domain.ChatMessage(nil), msgs...)}, nil
}

func (f *fakeHistory) Append(_ context.Context, userID string, msgs ...domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[userID] = append(f.messages[userID], msgs...)
	return nil
}

// staticStrategy returns fixed candidates or an error.
type staticStrategy struct {
	name  string
	cands []domain.Candidate
	err   error
	calls int
}

func (s *staticStrategy) Name() string { return s.name }

func (s *staticStrategy) Attempt(context.Context, *Request) ([]domain.Candidate, error) {
	s.calls++
	return s.cands, s.err
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "exploding" }

func (panicStrategy) Attempt(context.Context, *Request) ([]domain.Candidate, error) {
	panic("boom")
}

func intPtr(v int) *int { return &v }

func product(id, name string) domain.Product {
	return domain.Product{ID: id, Name: name}
}

// newRequest analyzes raw the way the facade does, without history.
func newRequest(raw string, st domain.ConversationState) *Request {
	ex := query.NewExtractor()
	attrs := ex.Extract(raw)
	fu := query.NewFollowUpDetector(query.DefaultFollowUpWindow).IsFollowUp(raw, &st)
	return &Request{
		UserID: st.UserID,
		Query:  raw,
		State:  st,
		Analysis: &domquery.Analysis{
			Original:   raw,
			Enhanced:   query.NewEnhancer(ex, nil).Enhance(raw, attrs, nil),
			Attributes: attrs,
			Intent:     query.DetectIntent(raw, attrs),
			Confidence: query.Confidence(raw, attrs, fu && !st.IsEmpty()),
			FollowUp:   fu,
		},
	}
}

func recentState(productID string, ago time.Duration) domain.ConversationState {
	return domain.ConversationState{
		UserID:        "u1",
		LastProductID: productID,
		LastQuery:     "มีแก้ว 16 oz ไหม",
		LastQueryTime: time.Now().Add(-ago),
	}
}

func ids(results []domain.Candidate) []string {
	out := make([]string, len(results))
	for i := range results {
		out[i] = results[i].Product.ID
	}
	return out
}
