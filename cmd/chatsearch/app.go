package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/config"
	dbRedis "github.com/kailas-cloud/chatsearch/internal/db/redis"
	"github.com/kailas-cloud/chatsearch/internal/db/sqlite"
	"github.com/kailas-cloud/chatsearch/internal/domain"
	"github.com/kailas-cloud/chatsearch/internal/metrics"
	"github.com/kailas-cloud/chatsearch/internal/repository/catalog"
	"github.com/kailas-cloud/chatsearch/internal/repository/embcache"
	"github.com/kailas-cloud/chatsearch/internal/repository/history"
	"github.com/kailas-cloud/chatsearch/internal/repository/kvcache"
	"github.com/kailas-cloud/chatsearch/internal/repository/vector"
	openaiEmb "github.com/kailas-cloud/chatsearch/internal/transport/openai"
	"github.com/kailas-cloud/chatsearch/internal/usecase/conversation"
	embeddinguc "github.com/kailas-cloud/chatsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/chatsearch/internal/usecase/health"
	"github.com/kailas-cloud/chatsearch/internal/usecase/indexing"
	"github.com/kailas-cloud/chatsearch/internal/usecase/query"
	"github.com/kailas-cloud/chatsearch/internal/usecase/search"
)

// vectorIndex is what both index backends provide.
type vectorIndex interface {
	search.VectorIndex
	indexing.Index
}

// cache is what both KV cache backends provide.
type cache interface {
	search.Cache
	conversation.Cache
}

// app is the composition root shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	states   *conversation.Store
	search   *search.Service
	health   *healthuc.Service
	indexer  *indexing.Service
	memIndex bool
	closers  []func()
}

// newApp wires repositories, embedders and services. Call Close when done.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	metrics.Register()

	var (
		kv    cache
		index vectorIndex
		db    healthuc.Pinger
	)
	hnswCfg := vector.HNSWConfig{M: cfg.Search.HNSWM, EFConstruct: cfg.Search.HNSWEFConstruct}

	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Database.Addrs, Password: cfg.Database.Password})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		kv = kvcache.NewRedis(store)
		index = vector.NewRedis(store, hnswCfg, logger)
		db = store
	default:
		kv = kvcache.NewMemory(cfg.Database.CacheSize, config.Duration(cfg.Embedding.CacheTTL))
		index = vector.NewMemory(hnswCfg, logger)
		a.memIndex = true
	}

	conn, err := sqlite.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	catalogRepo, historyRepo, err := openRepos(ctx, conn, cfg, logger)
	if err != nil {
		return nil, err
	}

	base := buildEmbedder(cfg, kv, logger)
	queryEmbedder := withInstruction(base, cfg.Embedding.QueryInstruction)
	docEmbedder := withInstruction(base, cfg.Embedding.DocumentInstruction)

	searchCfg := search.Config{
		TopResults:               cfg.Search.TopResults,
		Collection:               cfg.Search.Collection,
		NeighborMultiplier:       cfg.Search.NeighborMultiplier,
		StockFilterConfidence:    cfg.Search.StockFilterConfidence,
		CategoryFilterConfidence: cfg.Search.CategoryFilterConfidence,
		MinDirectoryScore:        cfg.Search.MinDirectoryScore,
		NumericTolerance:         cfg.Search.NumericTolerance,
		ScanLimit:                cfg.Catalog.ScanLimit,
		ProductCacheTTL:          config.Duration(cfg.Conversation.ProductCacheTTL),
		ContextCacheTTL:          config.Duration(cfg.Conversation.ContextCacheTTL),
	}

	a.states = conversation.NewStore(kv, config.Duration(cfg.Conversation.IdleTTL), logger)
	a.search = search.New(search.Deps{
		States:        a.states,
		History:       historyRepo,
		HistoryWriter: historyRepo,
		Analyzer:      conversation.NewAnalyzer(catalogRepo, cfg.Conversation.HistoryWindow, logger),
		Orchestrator: search.NewOrchestrator(
			search.NewVectorStrategy(queryEmbedder, index, searchCfg),
			search.NewDirectoryStrategy(catalogRepo, searchCfg),
			search.NewGeneralKeywordStrategy(catalogRepo, searchCfg),
			search.NewContextStrategy(kv, index, catalogRepo, searchCfg),
			search.NewHistoricalInterestStrategy(),
		),
		Ranker:   search.NewRanker(searchCfg),
		Cache:    kv,
		FollowUp: query.NewFollowUpDetector(config.Duration(cfg.Conversation.FollowUpWindow)),
		Logger:   logger,
	}, searchCfg)

	a.indexer = indexing.New(catalogRepo, index, docEmbedder, indexing.Config{
		Collection: cfg.Search.Collection,
		BatchSize:  cfg.Search.IndexBatchSize,
	}, logger)

	var embCheck healthuc.EmbeddingChecker
	if hc, ok := base.(domain.HealthChecker); ok {
		embCheck = hc
	}
	a.health = healthuc.New(db, embCheck, catalogRepo)

	logger.Info("Search service ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("collection", cfg.Search.Collection),
	)
	return a, nil
}

func openRepos(
	ctx context.Context, conn *sqlx.DB, cfg config.Config, logger *zap.Logger,
) (*catalog.Repo, *history.Repo, error) {
	catalogRepo := catalog.New(conn, logger)
	historyRepo := history.New(conn, cfg.Catalog.HistoryLimit, logger)
	if err := errors.Join(catalogRepo.EnsureSchema(ctx), historyRepo.EnsureSchema(ctx)); err != nil {
		return nil, nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return catalogRepo, historyRepo, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// Instruction prefixes wrap the result so the cache key includes them.
func buildEmbedder(cfg config.Config, kv cache, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	cached := embcache.New(base, kv, cfg.Embedding.Model, config.Duration(cfg.Embedding.CacheTTL),
		metrics.EmbeddingCacheTotal, logger)

	return embeddinguc.NewInstrumentedEmbedder(cached, cfg.Embedding.Provider, cfg.Embedding.Model, logger)
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewPrefixEmbedder(e, instruction)
}

// Close releases connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
