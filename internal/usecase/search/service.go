package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	domquery "github.com/kailas-cloud/chatsearch/internal/domain/query"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
	"github.com/kailas-cloud/chatsearch/internal/logger"
	"github.com/kailas-cloud/chatsearch/internal/metrics"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
	"github.com/kailas-cloud/chatsearch/internal/usecase/conversation"
	"github.com/kailas-cloud/chatsearch/internal/usecase/query"
)

// Deps are the collaborators of the facade. History, HistoryWriter and Cache are optional.
type Deps struct {
	States        StateStore
	History       HistoryLoader
	HistoryWriter HistoryWriter
	Analyzer      ContextAnalyzer
	Orchestrator  *Orchestrator
	Ranker        *Ranker
	Cache         Cache
	FollowUp      *query.FollowUpDetector
	Logger        *zap.Logger
}

// Service is the searchProducts facade.
type Service struct {
	deps      Deps
	extractor *query.Extractor
	enhancer  *query.Enhancer
	cfg       Config
	now       func() time.Time
}

// New creates the facade.
func New(deps Deps, cfg Config) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.FollowUp == nil {
		deps.FollowUp = query.NewFollowUpDetector(query.DefaultFollowUpWindow)
	}
	if deps.Ranker == nil {
		deps.Ranker = NewRanker(cfg)
	}
	if deps.Orchestrator == nil {
		deps.Orchestrator = NewOrchestrator()
	}
	ex := query.NewExtractor()
	return &Service{
		deps:      deps,
		extractor: ex,
		enhancer:  query.NewEnhancer(ex, deps.Logger),
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// cachedContext is the last ranked result set of a user.
type cachedContext struct {
	Query      string    `json:"query"`
	ProductIDs []string  `json:"product_ids"`
	At         time.Time `json:"at"`
}

// SearchProducts resolves a chat message to ranked products. It never fails:
// internal errors produce an empty response with method "failed".
func (s *Service) SearchProducts(ctx context.Context, rawQuery, userID string) (resp result.Response) {
	start := s.now()
	log := logger.WithUser(s.deps.Logger, userID)
	ctx = logger.ContextWithLogger(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Search pipeline panicked", zap.Any("panic", r), zap.String("query", rawQuery))
			resp = result.Empty(result.MethodFailed, s.now().Sub(start))
			resp.Metadata.Error = fmt.Sprint(r)
		}
		metrics.SearchRequestsTotal.WithLabelValues(resp.Metadata.SearchMethod).Inc()
		metrics.SearchDuration.Observe(s.now().Sub(start).Seconds())
	}()

	if strings.TrimSpace(rawQuery) == "" {
		return result.Empty(result.MethodFallback, s.now().Sub(start))
	}

	state, history := s.load(ctx, userID)

	followUp := s.deps.FollowUp.IsFollowUp(rawQuery, &state)
	summary := s.analyze(ctx, history, state)

	attrs := s.extractor.Extract(rawQuery)
	analysis := &domquery.Analysis{
		Original:   rawQuery,
		Enhanced:   s.enhancer.Enhance(rawQuery, attrs, summary.RecentQueries),
		Attributes: attrs,
		Intent:     query.DetectIntent(rawQuery, attrs),
		Confidence: query.Confidence(rawQuery, attrs, followUp && !state.IsEmpty()),
		FollowUp:   followUp,
	}

	req := &Request{UserID: userID, Query: rawQuery, Analysis: analysis, State: state, Context: summary}
	outcome := s.deps.Orchestrator.Run(ctx, req)
	results := s.deps.Ranker.Rank(outcome.Candidates, req)

	method := outcome.Method
	if method == result.MethodNone && len(results) > 0 {
		method = StageHistoricalInterest
	}

	if len(results) > 0 {
		top := results[0]
		s.deps.States.Set(ctx, domain.ConversationState{
			UserID:          userID,
			LastProductID:   top.ID,
			LastProductName: top.Name,
			LastQuery:       rawQuery,
			LastQueryTime:   s.now(),
			LastIntent:      analysis.Intent,
		})
		s.cacheContext(ctx, userID, rawQuery, results)
	}
	s.record(ctx, userID, rawQuery, results)

	log.Debug("Search completed",
		zap.String("method", method),
		zap.Int("results", len(results)),
		zap.Bool("follow_up", followUp),
		zap.Int("confidence", analysis.Confidence),
	)

	return result.Response{
		Results:  results,
		Analysis: analysis,
		Metadata: result.Metadata{
			TotalResults:    len(results),
			SearchMethod:    method,
			ExecutionTimeMs: s.now().Sub(start).Milliseconds(),
		},
	}
}

// load fetches state and history concurrently. History failures degrade to no history.
func (s *Service) load(ctx context.Context, userID string) (domain.ConversationState, *domain.ChatHistory) {
	var state domain.ConversationState
	var history *domain.ChatHistory

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		state = s.deps.States.Get(gctx, userID)
		return nil
	})
	if s.deps.History != nil {
		g.Go(func() error {
			h, err := s.deps.History.Load(gctx, userID)
			if err != nil {
				logger.FromContext(ctx).Warn("Failed to load chat history", zap.Error(err))
				return nil
			}
			history = h
			return nil
		})
	}
	_ = g.Wait()

	if state.UserID == "" {
		state.UserID = userID
	}
	return state, history
}

func (s *Service) analyze(ctx context.Context, h *domain.ChatHistory, st domain.ConversationState) conversation.Summary {
	if s.deps.Analyzer == nil {
		return conversation.Summary{}
	}
	return s.deps.Analyzer.Analyze(ctx, h, st)
}

func (s *Service) cacheContext(ctx context.Context, userID, rawQuery string, results []result.SearchResult) {
	if s.deps.Cache == nil || userID == "" {
		return
	}
	cc := cachedContext{Query: rawQuery, At: s.now(), ProductIDs: make([]string, len(results))}
	for i := range results {
		cc.ProductIDs[i] = results[i].ID
	}
	data, err := json.Marshal(cc)
	if err != nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, kvcache.NamespaceContext, userID, data, s.cfg.ContextCacheTTL); err != nil {
		logger.FromContext(ctx).Warn("Failed to cache search context", zap.Error(err))
	}
}

// record appends the exchange to chat history.
func (s *Service) record(ctx context.Context, userID, rawQuery string, results []result.SearchResult) {
	if s.deps.HistoryWriter == nil || userID == "" {
		return
	}
	now := s.now()
	reply := domain.ChatMessage{Role: domain.RoleAssistant, Timestamp: now}
	names := make([]string, 0, len(results))
	for i := range results {
		reply.Products = append(reply.Products, domain.ProductRef{
			ID:       results[i].ID,
			Name:     results[i].Name,
			Category: results[i].Category,
		})
		names = append(names, results[i].Name)
	}
	reply.Content = strings.Join(names, "\n")

	err := s.deps.HistoryWriter.Append(ctx, userID,
		domain.ChatMessage{Role: domain.RoleUser, Content: rawQuery, Timestamp: now},
		reply,
	)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to record chat history", zap.Error(err))
	}
}
