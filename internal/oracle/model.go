package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

// Model is an immutable fitted clustering. It satisfies cluster.Model.
type Model struct {
	labels   []int
	counts   map[int]map[string]int
	topN     int
	clusters []int
	vectors  map[int]termVector
	keywords map[int][]domain.Keyword
}

var _ cluster.Model = (*Model)(nil)

// state is the serialised form of a Model. Keywords are derived on restore.
type state struct {
	Labels []int                  `json:"labels"`
	Counts map[int]map[string]int `json:"counts"`
	TopN   int                    `json:"top_n"`
}

// newModel renumbers clusters by size descending (ties by first document
// occurrence) and derives keywords from the per-class term counts.
// It takes ownership of labels and counts.
func newModel(labels []int, counts map[int]map[string]int, topN int) *Model {
	size := make(map[int]int)
	first := make(map[int]int)
	for i, l := range labels {
		if l == cluster.Outlier {
			continue
		}
		if _, ok := size[l]; !ok {
			first[l] = i
		}
		size[l]++
	}
	old := make([]int, 0, len(size))
	for l := range size {
		old = append(old, l)
	}
	sort.Slice(old, func(i, j int) bool {
		if size[old[i]] != size[old[j]] {
			return size[old[i]] > size[old[j]]
		}
		return first[old[i]] < first[old[j]]
	})
	remap := make(map[int]int, len(old))
	for i, l := range old {
		remap[l] = i
	}

	for i, l := range labels {
		if l != cluster.Outlier {
			labels[i] = remap[l]
		}
	}
	renumbered := make(map[int]map[string]int, len(counts))
	for l, bag := range counts {
		switch nl, ok := remap[l]; {
		case ok:
			renumbered[nl] = bag
		case l == cluster.Outlier:
			renumbered[l] = bag
		}
	}

	m := &Model{
		labels:   labels,
		counts:   renumbered,
		topN:     topN,
		clusters: make([]int, len(old)),
		vectors:  ctfidf(renumbered),
		keywords: make(map[int][]domain.Keyword, len(renumbered)),
	}
	for i := range m.clusters {
		m.clusters[i] = i
	}
	for l, vec := range m.vectors {
		m.keywords[l] = topKeywords(vec, topN)
	}
	return m
}

// Labels returns a copy of the per-document labels.
func (m *Model) Labels() []int { return append([]int(nil), m.labels...) }

// Clusters returns the non-outlier labels, largest cluster first.
func (m *Model) Clusters() []int { return append([]int(nil), m.clusters...) }

// KeywordsFor returns the ranked keywords of label, including the outlier class.
func (m *Model) KeywordsFor(label int) ([]domain.Keyword, bool) {
	kws, ok := m.keywords[label]
	if !ok {
		return nil, false
	}
	return append([]domain.Keyword(nil), kws...), true
}

// MergeTo merges the smallest cluster into its most similar one until at
// most target clusters remain. The receiver is left unchanged.
func (m *Model) MergeTo(ctx context.Context, target int) (cluster.Model, error) {
	if target < 1 {
		return nil, &InputError{Reason: fmt.Sprintf("merge target must be positive, got %d", target)}
	}
	if target >= len(m.clusters) {
		return m, nil
	}
	labels, counts := m.cloneState()
	if err := mergeSmallest(ctx, labels, counts, target); err != nil {
		return nil, err
	}
	return newModel(labels, counts, m.topN), nil
}

// MarshalBinary encodes the labels and per-class term counts.
func (m *Model) MarshalBinary() ([]byte, error) {
	data, err := json.Marshal(state{Labels: m.labels, Counts: m.counts, TopN: m.topN})
	if err != nil {
		return nil, fmt.Errorf("encode model state: %w", err)
	}
	return data, nil
}

func (m *Model) cloneState() ([]int, map[int]map[string]int) {
	labels := append([]int(nil), m.labels...)
	counts := make(map[int]map[string]int, len(m.counts))
	for l, bag := range m.counts {
		cp := make(map[string]int, len(bag))
		for term, c := range bag {
			cp[term] = c
		}
		counts[l] = cp
	}
	return labels, counts
}

func decodeState(data []byte) (*Model, error) {
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &StateError{Reason: err.Error()}
	}
	if len(s.Labels) == 0 {
		return nil, &StateError{Reason: "no labels"}
	}
	if s.TopN <= 0 {
		return nil, &StateError{Reason: fmt.Sprintf("invalid top_n %d", s.TopN)}
	}
	if s.Counts == nil {
		s.Counts = map[int]map[string]int{}
	}
	for i, l := range s.Labels {
		if l < cluster.Outlier {
			return nil, &StateError{Reason: fmt.Sprintf("label %d at position %d", l, i)}
		}
		if _, ok := s.Counts[l]; !ok {
			s.Counts[l] = map[string]int{}
		}
	}
	return newModel(s.Labels, s.Counts, s.TopN), nil
}
