package topicdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbValkey "github.com/kailas-cloud/topicdex/internal/db/valkey"
	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
	"github.com/kailas-cloud/topicdex/internal/oracle"
	modelrepo "github.com/kailas-cloud/topicdex/internal/repository/model"
	analysisuc "github.com/kailas-cloud/topicdex/internal/usecase/analysis"
	healthuc "github.com/kailas-cloud/topicdex/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultModelTTL         = 24 * time.Hour
	defaultMaxEntries       = 256
)

// Labeler produces a short summary for a topic from its keywords and a few
// of its document texts.
type Labeler interface {
	Summarize(ctx context.Context, keywords, samples []string) (string, error)
}

// Внутренние интерфейсы для подмены в тестах.
type analysisUseCase interface {
	Analyze(ctx context.Context, req *request.Request) (domain.Analysis, error)
	Topic(ctx context.Context, modelID string, topicID int) (domain.TopicDetail, error)
	Reduce(ctx context.Context, modelID string, nrTopics int) (domain.Analysis, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the topicdex SDK entry point. It is safe for concurrent use.
type Client struct {
	closeFn   func()
	analysis  analysisUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. With WithValkey or WithRedis the provided context is
// used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		store:              storeMemory,
		maxEntries:         defaultMaxEntries,
		ttl:                defaultModelTTL,
		components:         5,
		normalize:          true,
		topNWords:          30,
		autoMergeThreshold: 0.915,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, pinger, closeFn, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Nil interfaces, not typed nil pointers.
	var labeler analysisuc.Labeler
	if cfg.labeler != nil {
		labeler = cfg.labeler
	}

	svc := analysisuc.New(
		oracle.New(oracle.Config{
			Components:         cfg.components,
			Normalize:          cfg.normalize,
			MinSamples:         cfg.minSamples,
			TopNWords:          cfg.topNWords,
			AutoMergeThreshold: cfg.autoMergeThreshold,
		}),
		store,
		labeler,
		analysisuc.Config{
			MaxDocuments:     cfg.maxDocuments,
			LabelConcurrency: cfg.labelConcurrency,
			LabelSamples:     cfg.labelSamples,
		},
		zap.NewNop(),
	)

	return &Client{
		closeFn:   closeFn,
		analysis:  svc,
		healthSvc: healthuc.New(pinger, nil),
		obs:       obs,
	}, nil
}

func createStore(
	ctx context.Context, cfg *clientConfig,
) (analysisuc.ModelStore, healthuc.StorePinger, func(), error) {
	switch cfg.store {
	case storeNone:
		return nil, nil, func() {}, nil
	case storeMemory:
		return modelrepo.NewMemoryStore(cfg.maxEntries, cfg.ttl), nil, func() {}, nil
	case storeValkey, storeRedis:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, nil, nil, errors.New("topicdex: store address required")
		}
		kv, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
			RESP2:    cfg.store == storeRedis,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("topicdex: create %s store: %w", cfg.store, err)
		}
		if err := kv.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			kv.Close()
			return nil, nil, nil, fmt.Errorf("topicdex: %s not ready: %w", cfg.store, err)
		}
		return modelrepo.NewKVStore(kv, cfg.store, cfg.keyPrefix, cfg.ttl), kv, kv.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("topicdex: unknown store %q", cfg.store)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Analyze clusters docs into topics. Invalid input fails with ErrValidation
// or ErrNotEnoughDocuments before any clustering work is done.
func (c *Client) Analyze(ctx context.Context, docs []Document, p Params) (res Result, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("analyze", start, err, "documents", len(docs), "topics", len(res.Topics))
	}()

	req, err := request.New(inputFrom(docs, p))
	if err != nil {
		return Result{}, fmt.Errorf("analyze: %w", err)
	}
	a, err := c.analysis.Analyze(ctx, &req)
	if err != nil {
		return Result{}, fmt.Errorf("analyze: %w", err)
	}
	return resultFromDomain(a), nil
}

// Topic returns all keywords of one topic of a stored model.
func (c *Client) Topic(ctx context.Context, modelID string, topicID int) (d TopicDetail, err error) {
	start := time.Now()
	defer func() { c.obs.observe("topic", start, err, "model_id", modelID, "topic_id", topicID) }()

	detail, err := c.analysis.Topic(ctx, modelID, topicID)
	if err != nil {
		return TopicDetail{}, fmt.Errorf("topic: %w", err)
	}
	return topicDetailFromDomain(detail), nil
}

// Reduce merges a stored model down to nrTopics topics. The result refers to
// a new model; the original stays addressable.
func (c *Client) Reduce(ctx context.Context, modelID string, nrTopics int) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reduce", start, err, "model_id", modelID, "nr_topics", nrTopics) }()

	a, err := c.analysis.Reduce(ctx, modelID, nrTopics)
	if err != nil {
		return Result{}, fmt.Errorf("reduce: %w", err)
	}
	return resultFromDomain(a), nil
}

func inputFrom(docs []Document, p Params) request.Input {
	in := request.Input{
		Embeddings:  make([][]float32, len(docs)),
		Documents:   make([]string, len(docs)),
		DocumentIDs: make([]string, len(docs)),
		Language:    string(p.Language),
	}
	for i, d := range docs {
		in.Embeddings[i] = d.Embedding
		in.Documents[i] = d.Text
		in.DocumentIDs[i] = d.ID
	}
	if p.MinTopicSize != 0 {
		in.MinTopicSize = &p.MinTopicSize
	}
	if p.NrTopics != 0 {
		in.NrTopics = &p.NrTopics
	}
	if p.NGramMin != 0 || p.NGramMax != 0 {
		in.NGramRange = []int{p.NGramMin, p.NGramMax}
	}
	return in
}
