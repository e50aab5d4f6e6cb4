// Package cluster defines the clustering oracle contract shared by the analysis
// use case and its implementations.
package cluster

import (
	"context"

	"github.com/kailas-cloud/topicdex/internal/domain"
)

// Outlier is the reserved label of documents outside every cluster.
const Outlier = -1

// Auto requests automatic topic-count selection.
const Auto = 0

// Params configures one fit.
type Params struct {
	MinClusterSize int
	// TargetClusters is the requested number of clusters, or Auto.
	TargetClusters int
	// StopWords only affect keyword extraction, never clustering.
	StopWords []string
	NGramMin  int
	NGramMax  int
}

// Model is an immutable fitted state. Every read happens against the same
// labels; MergeTo returns a new Model and leaves the receiver untouched.
type Model interface {
	// Labels returns one label per input document, in input order.
	Labels() []int
	// Clusters returns the distinct non-outlier labels in reported order.
	Clusters() []int
	// KeywordsFor returns the ranked keywords of a label, or false when unknown.
	KeywordsFor(label int) ([]domain.Keyword, bool)
	// MergeTo merges similar clusters until at most target remain.
	MergeTo(ctx context.Context, target int) (Model, error)
	// MarshalBinary encodes the state for Oracle.Restore.
	MarshalBinary() ([]byte, error)
}

// Oracle clusters embeddings and extracts keywords.
type Oracle interface {
	Fit(ctx context.Context, embeddings [][]float32, documents []string, p Params) (Model, error)
	Restore(data []byte) (Model, error)
}
