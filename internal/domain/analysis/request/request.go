package request

import (
	"math"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
	"github.com/kailas-cloud/topicdex/internal/domain/language"
)

// Analysis parameter limits.
const (
	DefaultMinTopicSize = 5
	MinMinTopicSize     = 2
	MaxMinTopicSize     = 50
	MinNrTopics         = 2
	MaxNrTopics         = 100
	DefaultNGramMin     = 1
	DefaultNGramMax     = 3
	// MaxNGram bounds the n-gram range to keep the vocabulary tractable.
	MaxNGram = 5
)

// Input is the unvalidated analysis request. Nil pointers and empty values take defaults.
type Input struct {
	Embeddings   [][]float32
	Documents    []string
	DocumentIDs  []string
	MinTopicSize *int
	NrTopics     *int
	Language     string
	NGramRange   []int
}

// NGramRange is an inclusive keyword n-gram range.
type NGramRange struct {
	Min int
	Max int
}

// Request is a validated analysis request.
type Request struct {
	embeddings   [][]float32
	documents    []string
	documentIDs  []string
	minTopicSize int
	nrTopics     int
	lang         language.Language
	ngram        NGramRange
}

// New validates the input before any clustering cost is incurred.
// Fails with *domain.ValidationError or *domain.NotEnoughDocumentsError.
func New(in Input) (Request, error) {
	n := len(in.Embeddings)
	if len(in.Documents) != n {
		return Request{}, domain.NewValidationError(
			"length mismatch: %d documents but %d embeddings", len(in.Documents), n)
	}
	if len(in.DocumentIDs) != n {
		return Request{}, domain.NewValidationError(
			"length mismatch: %d document_ids but %d embeddings", len(in.DocumentIDs), n)
	}

	minTopicSize := DefaultMinTopicSize
	if in.MinTopicSize != nil {
		minTopicSize = *in.MinTopicSize
	}
	if err := ValidateMinTopicSize(minTopicSize); err != nil {
		return Request{}, err
	}

	if required := domain.MinDocuments(minTopicSize); n < required {
		return Request{}, &domain.NotEnoughDocumentsError{Got: n, Required: required}
	}

	nrTopics := cluster.Auto
	if in.NrTopics != nil {
		if err := ValidateNrTopics(*in.NrTopics); err != nil {
			return Request{}, err
		}
		nrTopics = *in.NrTopics
	}

	lang := language.Language(in.Language)
	if lang == "" {
		lang = language.Default
	}
	if !lang.IsValid() {
		return Request{}, domain.NewValidationError("language must be one of %v, got %q", language.All, in.Language)
	}

	ngram, err := parseNGram(in.NGramRange)
	if err != nil {
		return Request{}, err
	}

	if err := validateEmbeddings(in.Embeddings); err != nil {
		return Request{}, err
	}
	if err := validateIDs(in.DocumentIDs); err != nil {
		return Request{}, err
	}

	return Request{
		embeddings:   in.Embeddings,
		documents:    in.Documents,
		documentIDs:  in.DocumentIDs,
		minTopicSize: minTopicSize,
		nrTopics:     nrTopics,
		lang:         lang,
		ngram:        ngram,
	}, nil
}

// ValidateMinTopicSize checks a minimum topic size.
func ValidateMinTopicSize(n int) error {
	if n < MinMinTopicSize || n > MaxMinTopicSize {
		return domain.NewValidationError(
			"min_topic_size must be between %d and %d, got %d", MinMinTopicSize, MaxMinTopicSize, n)
	}
	return nil
}

// ValidateNrTopics checks a requested topic count.
func ValidateNrTopics(n int) error {
	if n < MinNrTopics || n > MaxNrTopics {
		return domain.NewValidationError("nr_topics must be between %d and %d, got %d", MinNrTopics, MaxNrTopics, n)
	}
	return nil
}

func parseNGram(r []int) (NGramRange, error) {
	if len(r) == 0 {
		return NGramRange{Min: DefaultNGramMin, Max: DefaultNGramMax}, nil
	}
	if len(r) != 2 {
		return NGramRange{}, domain.NewValidationError("n_gram_range must have exactly 2 values, got %d", len(r))
	}
	lo, hi := r[0], r[1]
	if lo < 1 || hi < lo || hi > MaxNGram {
		return NGramRange{}, domain.NewValidationError(
			"n_gram_range must satisfy 1 <= min <= max <= %d, got [%d, %d]", MaxNGram, lo, hi)
	}
	return NGramRange{Min: lo, Max: hi}, nil
}

func validateEmbeddings(embeddings [][]float32) error {
	dim := len(embeddings[0])
	if dim == 0 {
		return domain.NewValidationError("embeddings must not be empty vectors")
	}
	for i, emb := range embeddings {
		if len(emb) != dim {
			return domain.NewValidationError(
				"all embeddings must have the same dimension: embedding %d has %d, expected %d", i, len(emb), dim)
		}
		for j, v := range emb {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return domain.NewValidationError("embedding %d contains a non-finite value at position %d", i, j)
			}
		}
	}
	return nil
}

func validateIDs(ids []string) error {
	seen := make(map[string]int, len(ids))
	for i, id := range ids {
		if id == "" {
			return domain.NewValidationError("document_ids[%d] is empty", i)
		}
		if prev, ok := seen[id]; ok {
			return domain.NewValidationError("duplicate document id %q at positions %d and %d", id, prev, i)
		}
		seen[id] = i
	}
	return nil
}

// Embeddings returns the embedding matrix, one row per document.
func (r *Request) Embeddings() [][]float32 { return r.embeddings }

// Documents returns the document texts.
func (r *Request) Documents() []string { return r.documents }

// DocumentIDs returns the document identifiers.
func (r *Request) DocumentIDs() []string { return r.documentIDs }

// MinTopicSize returns the minimum cluster size.
func (r *Request) MinTopicSize() int { return r.minTopicSize }

// NrTopics returns the requested topic count, or cluster.Auto.
func (r *Request) NrTopics() int { return r.nrTopics }

// Language returns the stop-word language.
func (r *Request) Language() language.Language { return r.lang }

// NGramRange returns the keyword n-gram range.
func (r *Request) NGramRange() NGramRange { return r.ngram }

// Dimension returns the embedding dimension.
func (r *Request) Dimension() int { return len(r.embeddings[0]) }

// Len returns the number of documents.
func (r *Request) Len() int { return len(r.embeddings) }

// ClusterParams converts the request into oracle parameters.
func (r *Request) ClusterParams() cluster.Params {
	return cluster.Params{
		MinClusterSize: r.minTopicSize,
		TargetClusters: r.nrTopics,
		StopWords:      r.lang.StopWords(),
		NGramMin:       r.ngram.Min,
		NGramMax:       r.ngram.Max,
	}
}
