package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

// --- Mocks ---

type fakeModel struct {
	labels   []int
	clusters []int
	keywords map[int][]domain.Keyword
	mergeTo  func(target int) (cluster.Model, error)
}

func (m *fakeModel) Labels() []int   { return append([]int(nil), m.labels...) }
func (m *fakeModel) Clusters() []int { return append([]int(nil), m.clusters...) }

func (m *fakeModel) KeywordsFor(label int) ([]domain.Keyword, bool) {
	kws, ok := m.keywords[label]
	return kws, ok
}

func (m *fakeModel) MergeTo(_ context.Context, target int) (cluster.Model, error) {
	if m.mergeTo == nil {
		return nil, errors.New("merge not configured")
	}
	return m.mergeTo(target)
}

func (m *fakeModel) MarshalBinary() ([]byte, error) {
	return []byte(fmt.Sprint(m.labels)), nil
}

// newFakeModel reports the distinct labels in first-occurrence order and gives
// every label n keywords named "w<label>_<i>".
func newFakeModel(labels []int, n int) *fakeModel {
	m := &fakeModel{labels: labels, keywords: map[int][]domain.Keyword{}}
	for _, l := range labels {
		if l == cluster.Outlier {
			continue
		}
		if _, ok := m.keywords[l]; ok {
			continue
		}
		m.clusters = append(m.clusters, l)
		kws := make([]domain.Keyword, n)
		for i := range kws {
			kws[i] = domain.Keyword{Word: "w" + strconv.Itoa(l) + "_" + strconv.Itoa(i), Score: float64(n - i)}
		}
		m.keywords[l] = kws
	}
	return m
}

type fakeOracle struct {
	model      cluster.Model
	err        error
	panicWith  any
	restored   map[string]cluster.Model
	restoreErr error
	fitCalls   int
	lastParams cluster.Params
}

func (o *fakeOracle) Fit(_ context.Context, _ [][]float32, _ []string, p cluster.Params) (cluster.Model, error) {
	o.fitCalls++
	o.lastParams = p
	if o.panicWith != nil {
		panic(o.panicWith)
	}
	if o.err != nil {
		return nil, o.err
	}
	return o.model, nil
}

func (o *fakeOracle) Restore(data []byte) (cluster.Model, error) {
	if o.restoreErr != nil {
		return nil, o.restoreErr
	}
	m, ok := o.restored[string(data)]
	if !ok {
		return nil, errors.New("unknown state")
	}
	return m, nil
}

type fakeStore struct {
	mu      sync.Mutex
	snaps   map[string]domain.Snapshot
	saveErr error
}

func newFakeStore() *fakeStore { return &fakeStore{snaps: map[string]domain.Snapshot{}} }

func (s *fakeStore) Save(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snaps[snap.ID] = snap
	return nil
}

func (s *fakeStore) Load(_ context.Context, id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrModelNotFound
	}
	return snap, nil
}

type fakeLabeler struct {
	mu      sync.Mutex
	calls   int
	samples [][]string
	failFor string
}

func (l *fakeLabeler) Summarize(_ context.Context, keywords, samples []string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.samples = append(l.samples, samples)
	if len(keywords) > 0 && keywords[0] == l.failFor {
		return "", errors.New("provider down")
	}
	return "about " + keywords[0], nil
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "doc-" + strconv.Itoa(i)
	}
	return out
}

func makeRequest(t *testing.T, n int, mutate func(*request.Input)) *request.Request {
	t.Helper()
	in := request.Input{
		Embeddings:  make([][]float32, n),
		Documents:   make([]string, n),
		DocumentIDs: ids(n),
	}
	for i := range n {
		in.Embeddings[i] = []float32{float32(i), 1}
		in.Documents[i] = "text " + strconv.Itoa(i)
	}
	if mutate != nil {
		mutate(&in)
	}
	r, err := request.New(in)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}
