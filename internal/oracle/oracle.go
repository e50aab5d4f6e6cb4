// Package oracle clusters document embeddings into topics: principal component
// reduction, HDBSCAN density clustering, class-based TF-IDF keywords and
// similarity-driven topic merging.
package oracle

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

// Config tunes the clustering pipeline.
type Config struct {
	// Components is the number of principal components kept; 0 disables reduction.
	Components int
	// Normalize L2-normalises embeddings before reduction.
	Normalize bool
	// MinSamples sets the HDBSCAN core-distance neighbour; 0 uses the min cluster size.
	MinSamples int
	// TopNWords is how many keywords each cluster keeps.
	TopNWords int
	// AutoMergeThreshold is the cosine similarity above which clusters merge
	// when no target count is requested.
	AutoMergeThreshold float64
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		Components:         5,
		Normalize:          true,
		TopNWords:          30,
		AutoMergeThreshold: 0.915,
	}
}

// Oracle implements cluster.Oracle. It holds no per-fit state and is safe for
// concurrent use.
type Oracle struct {
	cfg Config
}

var _ cluster.Oracle = (*Oracle)(nil)

// New creates an Oracle. Zero fields of cfg take DefaultConfig values,
// except Components and MinSamples where zero is meaningful.
func New(cfg Config) *Oracle {
	def := DefaultConfig()
	if cfg.TopNWords <= 0 {
		cfg.TopNWords = def.TopNWords
	}
	if cfg.AutoMergeThreshold <= 0 {
		cfg.AutoMergeThreshold = def.AutoMergeThreshold
	}
	return &Oracle{cfg: cfg}
}

// Fit clusters embeddings and extracts per-cluster keywords from documents.
func (o *Oracle) Fit(ctx context.Context, embeddings [][]float32, documents []string, p cluster.Params) (cluster.Model, error) {
	if len(embeddings) == 0 {
		return nil, &InputError{Reason: "no embeddings"}
	}
	if len(documents) != len(embeddings) {
		return nil, &InputError{Reason: fmt.Sprintf("%d documents for %d embeddings", len(documents), len(embeddings))}
	}
	if p.MinClusterSize < 2 {
		return nil, &InputError{Reason: fmt.Sprintf("min cluster size must be at least 2, got %d", p.MinClusterSize)}
	}
	if p.TargetClusters < 0 {
		return nil, &InputError{Reason: fmt.Sprintf("negative target cluster count %d", p.TargetClusters)}
	}

	points, err := project(embeddings, o.cfg.Components, o.cfg.Normalize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels, err := hdbscan(ctx, points, p.MinClusterSize, o.cfg.MinSamples)
	if err != nil {
		return nil, err
	}

	counts := newVectorizer(p.StopWords, p.NGramMin, p.NGramMax).classCounts(documents, labels)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.TargetClusters == cluster.Auto {
		if err := autoMerge(ctx, labels, counts, o.cfg.AutoMergeThreshold); err != nil {
			return nil, err
		}
		return newModel(labels, counts, o.cfg.TopNWords), nil
	}

	model := newModel(labels, counts, o.cfg.TopNWords)
	return model.MergeTo(ctx, p.TargetClusters)
}

// Restore decodes a state produced by Model.MarshalBinary.
func (o *Oracle) Restore(data []byte) (cluster.Model, error) {
	m, err := decodeState(data)
	if err != nil {
		return nil, err
	}
	return m, nil
}
