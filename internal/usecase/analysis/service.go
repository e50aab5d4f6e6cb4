package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
	"github.com/kailas-cloud/topicdex/internal/logger"
	"github.com/kailas-cloud/topicdex/internal/metrics"
)

// Config holds analysis service limits.
type Config struct {
	// MaxDocuments rejects larger requests before clustering; 0 = unlimited.
	MaxDocuments int
	// LabelConcurrency bounds parallel labeling calls.
	LabelConcurrency int
	// LabelSamples is the number of document texts sent with each topic.
	LabelSamples int
}

// Labeling defaults, used when Config leaves the values non-positive.
const (
	DefaultLabelConcurrency = 4
	DefaultLabelSamples     = 4
)

// Service runs analyses and operates on stored models.
type Service struct {
	oracle  cluster.Oracle
	store   ModelStore
	labeler Labeler
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// New creates an analysis service. store and labeler may be nil: without a
// store results carry no model id, without a labeler topics carry no summary.
func New(oracle cluster.Oracle, store ModelStore, labeler Labeler, cfg Config, logger *zap.Logger) *Service {
	if cfg.LabelConcurrency <= 0 {
		cfg.LabelConcurrency = DefaultLabelConcurrency
	}
	if cfg.LabelSamples <= 0 {
		cfg.LabelSamples = DefaultLabelSamples
	}
	return &Service{
		oracle:  oracle,
		store:   store,
		labeler: labeler,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Analyze clusters a validated request into topics.
func (s *Service) Analyze(ctx context.Context, req *request.Request) (domain.Analysis, error) {
	log := s.log(ctx).With(
		zap.Int("documents", req.Len()),
		zap.Int("dimension", req.Dimension()),
		zap.Int("min_topic_size", req.MinTopicSize()),
		zap.Int("nr_topics", req.NrTopics()),
		zap.String("language", string(req.Language())),
		zap.Ints("n_gram_range", []int{req.NGramRange().Min, req.NGramRange().Max}),
	)

	result, model, err := s.analyze(ctx, req)
	if err != nil {
		log.Warn("Analysis failed", zap.String("kind", domain.Kind(err)), zap.Error(err))
		return domain.Analysis{}, err
	}
	s.advise(log, result)
	s.observe(result)

	texts := make(map[string]string, req.Len())
	for i, id := range req.DocumentIDs() {
		texts[id] = req.Documents()[i]
	}
	s.summarize(ctx, log, result.Topics, texts)

	result.ModelID = s.save(ctx, log, model, domain.Snapshot{
		DocumentIDs:  req.DocumentIDs(),
		MinTopicSize: req.MinTopicSize(),
		Language:     string(req.Language()),
	})

	log.Info("Analysis completed",
		zap.String("model_id", result.ModelID),
		zap.Int("topics", result.Statistics.Topics),
		zap.Int("outliers", result.Statistics.Outliers),
	)
	return result, nil
}

func (s *Service) analyze(ctx context.Context, req *request.Request) (domain.Analysis, cluster.Model, error) {
	if s.cfg.MaxDocuments > 0 && req.Len() > s.cfg.MaxDocuments {
		return domain.Analysis{}, nil, domain.NewValidationError(
			"too many documents: %d exceeds the limit of %d", req.Len(), s.cfg.MaxDocuments)
	}

	var model cluster.Model
	err := guard(ctx, func() error {
		var fitErr error
		model, fitErr = s.oracle.Fit(ctx, req.Embeddings(), req.Documents(), req.ClusterParams())
		return fitErr
	})
	if err != nil {
		return domain.Analysis{}, nil, fmt.Errorf("fit: %w", err)
	}

	result, err := Assemble(model, req.DocumentIDs(), Options{
		MinTopicSize:    req.MinTopicSize(),
		RequestedTopics: req.NrTopics(),
	})
	if err != nil {
		return domain.Analysis{}, nil, fmt.Errorf("assemble: %w", err)
	}
	return result, model, nil
}

// Topic returns the full keyword list of one topic of a stored model.
// Unknown models and topics fail with domain.ErrTopicNotFound.
func (s *Service) Topic(ctx context.Context, modelID string, topicID int) (domain.TopicDetail, error) {
	if topicID < 0 {
		return domain.TopicDetail{}, fmt.Errorf("%w: topic %d", domain.ErrTopicNotFound, topicID)
	}
	snap, model, err := s.restore(ctx, modelID)
	if errors.Is(err, domain.ErrModelNotFound) {
		return domain.TopicDetail{}, fmt.Errorf("%w: model %q", domain.ErrTopicNotFound, modelID)
	}
	if err != nil {
		return domain.TopicDetail{}, err
	}

	keywords, ok := model.KeywordsFor(topicID)
	if !ok {
		return domain.TopicDetail{}, fmt.Errorf("%w: topic %d in model %q", domain.ErrTopicNotFound, topicID, modelID)
	}
	return domain.TopicDetail{ModelID: snap.ID, ID: topicID, Keywords: keywords}, nil
}

// Reduce merges a stored model down to nrTopics and reassembles the result
// against the merged labels. The stored model is left untouched; the merged
// one is saved under a new id. Unknown models fail with domain.ErrNotFitted.
func (s *Service) Reduce(ctx context.Context, modelID string, nrTopics int) (domain.Analysis, error) {
	log := s.log(ctx).With(zap.String("parent_model_id", modelID), zap.Int("nr_topics", nrTopics))

	if err := request.ValidateNrTopics(nrTopics); err != nil {
		return domain.Analysis{}, err //nolint:wrapcheck // domain validation error
	}

	snap, model, err := s.restore(ctx, modelID)
	if errors.Is(err, domain.ErrModelNotFound) {
		return domain.Analysis{}, fmt.Errorf("%w: model %q", domain.ErrNotFitted, modelID)
	}
	if err != nil {
		log.Warn("Reduce failed", zap.Error(err))
		return domain.Analysis{}, err
	}

	var merged cluster.Model
	err = guard(ctx, func() error {
		var mergeErr error
		merged, mergeErr = model.MergeTo(ctx, nrTopics)
		return mergeErr
	})
	if err != nil {
		log.Warn("Reduce failed", zap.String("kind", domain.Kind(err)), zap.Error(err))
		return domain.Analysis{}, fmt.Errorf("merge: %w", err)
	}

	result, err := Assemble(merged, snap.DocumentIDs, Options{
		MinTopicSize:    snap.MinTopicSize,
		RequestedTopics: nrTopics,
	})
	if err != nil {
		log.Warn("Reduce failed", zap.String("kind", domain.Kind(err)), zap.Error(err))
		return domain.Analysis{}, fmt.Errorf("assemble: %w", err)
	}
	s.advise(log, result)
	s.summarize(ctx, log, result.Topics, nil)

	result.ModelID = s.save(ctx, log, merged, domain.Snapshot{
		ParentID:     snap.ID,
		DocumentIDs:  snap.DocumentIDs,
		MinTopicSize: snap.MinTopicSize,
		Language:     snap.Language,
	})
	log.Info("Reduce completed", zap.String("model_id", result.ModelID), zap.Int("topics", len(result.Topics)))
	return result, nil
}

func (s *Service) restore(ctx context.Context, modelID string) (domain.Snapshot, cluster.Model, error) {
	if s.store == nil {
		return domain.Snapshot{}, nil, domain.ErrModelNotFound
	}
	snap, err := s.store.Load(ctx, modelID)
	if err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("load model: %w", err)
	}

	var model cluster.Model
	err = guard(ctx, func() error {
		var restoreErr error
		model, restoreErr = s.oracle.Restore(snap.State)
		return restoreErr
	})
	if err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("restore model: %w", err)
	}
	return snap, model, nil
}

// save stores the model and returns its id, or "" when it could not be stored.
func (s *Service) save(ctx context.Context, log *zap.Logger, model cluster.Model, snap domain.Snapshot) string {
	if s.store == nil {
		return ""
	}
	state, err := model.MarshalBinary()
	if err != nil {
		log.Warn("Model encoding failed, result returned without model id", zap.Error(err))
		return ""
	}
	snap.ID = s.newID()
	snap.CreatedAt = s.now().UTC()
	snap.State = state

	if err := s.store.Save(ctx, snap); err != nil {
		log.Warn("Model snapshot not stored, result returned without model id", zap.Error(err))
		return ""
	}
	return snap.ID
}

// summarize fills topic summaries in place. Failures leave the summary empty.
func (s *Service) summarize(ctx context.Context, log *zap.Logger, topics []domain.Topic, texts map[string]string) {
	if s.labeler == nil || len(topics) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(s.cfg.LabelConcurrency)
	for i := range topics {
		t := &topics[i]
		samples := make([]string, 0, s.cfg.LabelSamples)
		for _, id := range t.Documents {
			if len(samples) >= s.cfg.LabelSamples {
				break
			}
			if text, ok := texts[id]; ok {
				samples = append(samples, text)
			}
		}
		g.Go(func() error {
			summary, err := s.labeler.Summarize(ctx, t.Keywords, samples)
			if err != nil {
				log.Warn("Topic labeling failed", zap.Int("topic_id", t.ID), zap.Error(err))
				return nil
			}
			t.Summary = summary
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) advise(log *zap.Logger, result domain.Analysis) {
	for _, a := range result.Advisories {
		log.Warn("Analysis advisory", zap.String("advisory", a))
	}
}

func (s *Service) observe(result domain.Analysis) {
	st := result.Statistics
	metrics.AnalysisDocuments.Observe(float64(st.TotalDocuments))
	metrics.AnalysisTopics.Observe(float64(st.Topics))
	if st.TotalDocuments > 0 {
		metrics.AnalysisOutlierRatio.Observe(float64(st.Outliers) / float64(st.TotalDocuments))
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// guard runs an oracle call, converting panics and unexpected errors into
// domain.OracleFailureError. Context errors and domain errors pass through.
func guard(ctx context.Context, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.OracleFailureError{Kind: domain.KindPanic, Message: fmt.Sprint(r)}
		}
	}()

	err = call()
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return err
	case isDomainError(err):
		return err
	default:
		return domain.NewOracleFailure(err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrNotEnoughDocuments,
		domain.ErrNoTopicsFound,
		domain.ErrOracleFailure,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
