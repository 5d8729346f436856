package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/domain"
	domquery "github.com/kailas-cloud/chatsearch/internal/domain/query"
	"github.com/kailas-cloud/chatsearch/internal/domain/search/result"
	"github.com/kailas-cloud/chatsearch/internal/logger"
	"github.com/kailas-cloud/chatsearch/internal/metrics"
	"github.com/kailas-cloud/chatsearch/internal/usecase/conversation"
)

// Stage names reported as the search method.
const (
	StageVector             = "vector"
	StageDirectory          = "directory"
	StageGeneralKeyword     = "general_keyword"
	StageContext            = "context"
	StageHistoricalInterest = "historical_interest"
)

// Request is everything a strategy may consult for one search.
type Request struct {
	UserID   string
	Query    string
	Analysis *domquery.Analysis
	State    domain.ConversationState
	Context  conversation.Summary
}

// Strategy is one stage of the fallback chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req *Request) ([]domain.Candidate, error)
}

// Outcome is the result of running the chain.
type Outcome struct {
	Candidates []domain.Candidate
	// Method names the stage that produced the candidates, or result.MethodNone.
	Method string
}

// Orchestrator runs strategies in order until one returns candidates.
type Orchestrator struct {
	strategies []Strategy
}

// NewOrchestrator creates an orchestrator over an ordered chain.
func NewOrchestrator(strategies ...Strategy) *Orchestrator {
	return &Orchestrator{strategies: strategies}
}

// Run never fails: a stage that errors or panics counts as empty.
func (o *Orchestrator) Run(ctx context.Context, req *Request) Outcome {
	log := logger.FromContext(ctx)
	for _, s := range o.strategies {
		cands, err := attempt(ctx, s, req)
		if err != nil {
			metrics.SearchStageFailuresTotal.WithLabelValues(s.Name()).Inc()
			log.Warn("Search stage failed", zap.String("stage", s.Name()), zap.Error(err))
			continue
		}
		log.Debug("Search stage finished", zap.String("stage", s.Name()), zap.Int("candidates", len(cands)))
		if len(cands) > 0 {
			return Outcome{Candidates: cands, Method: s.Name()}
		}
	}
	return Outcome{Method: result.MethodNone}
}

func attempt(ctx context.Context, s Strategy, req *Request) (cands []domain.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands, err = nil, fmt.Errorf("panic in %s: %v", s.Name(), r)
		}
	}()
	return s.Attempt(ctx, req)
}
