package analysis

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

func TestAssemble_TwoClusters(t *testing.T) {
	model := newFakeModel([]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, 8)

	res, err := Assemble(model, ids(10), Options{MinTopicSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(res.Topics))
	}
	if res.Topics[0].Size+res.Topics[1].Size != 10 {
		t.Errorf("sizes = %d + %d, want 10", res.Topics[0].Size, res.Topics[1].Size)
	}
	want := domain.Statistics{TotalDocuments: 10, Topics: 2, Outliers: 0, DocumentsInTopics: 10}
	if res.Statistics != want {
		t.Errorf("Statistics = %+v, want %+v", res.Statistics, want)
	}
	if len(res.Outliers) != 0 || res.Outliers == nil {
		t.Errorf("Outliers = %#v, want empty list", res.Outliers)
	}
	if got := res.Topics[1].Documents; !slices.Equal(got, []string{"doc-5", "doc-6", "doc-7", "doc-8", "doc-9"}) {
		t.Errorf("Documents = %v", got)
	}
	if len(res.Advisories) != 0 {
		t.Errorf("unexpected advisories: %v", res.Advisories)
	}
}

func TestAssemble_StableSizeOrder(t *testing.T) {
	labels := []int{1, 3, 2, 1, 3, 1, 3, 1, 3, 2, -1, -1}
	model := newFakeModel(labels, 3)
	model.clusters = []int{3, 1, 2}

	res, err := Assemble(model, ids(len(labels)), Options{MinTopicSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var order []int
	for _, tp := range res.Topics {
		order = append(order, tp.ID)
	}
	if !slices.Equal(order, []int{3, 1, 2}) {
		t.Errorf("topic order = %v, want [3 1 2]", order)
	}
	if !slices.Equal(res.Outliers, []string{"doc-10", "doc-11"}) {
		t.Errorf("Outliers = %v", res.Outliers)
	}
	if res.Assignments["doc-2"] != 2 || res.Assignments["doc-1"] != 3 {
		t.Errorf("Assignments = %v", res.Assignments)
	}
	if _, ok := res.Assignments["doc-10"]; ok {
		t.Error("outlier must not be assigned")
	}
}

func TestAssemble_KeywordsAndLabel(t *testing.T) {
	model := newFakeModel([]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 30)

	res, err := Assemble(model, ids(10), Options{MinTopicSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tp := res.Topics[0]
	if len(tp.Keywords) != domain.MaxTopicKeywords {
		t.Errorf("keywords = %d, want %d", len(tp.Keywords), domain.MaxTopicKeywords)
	}
	if tp.Label != "w0_0 - w0_1 - w0_2 - w0_3 - w0_4" {
		t.Errorf("Label = %q", tp.Label)
	}

	short := newFakeModel([]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 2)
	res, err = Assemble(short, ids(10), Options{MinTopicSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Topics[0].Label != "w0_0 - w0_1" {
		t.Errorf("Label = %q", res.Topics[0].Label)
	}
}

func TestAssemble_NoTopics(t *testing.T) {
	labels := make([]int, 10)
	for i := range labels {
		labels[i] = cluster.Outlier
	}
	_, err := Assemble(newFakeModel(labels, 3), ids(10), Options{MinTopicSize: 5})

	var nerr *domain.NoTopicsFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NoTopicsFoundError, got %v", err)
	}
	if nerr.Documents != 10 || nerr.MinTopicSize != 5 {
		t.Errorf("got %+v", nerr)
	}
	if errors.Is(err, domain.ErrOracleFailure) {
		t.Error("NoTopicsFoundError must not collapse into OracleFailure")
	}
}

func TestAssemble_FewerTopicsThanRequested(t *testing.T) {
	labels := []int{0, 0, 0, 0, 1, 1, 1, 2, 2, 2}
	res, err := Assemble(newFakeModel(labels, 5), ids(10), Options{MinTopicSize: 3, RequestedTopics: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Topics) != 3 || res.Statistics.Topics != 3 {
		t.Errorf("expected 3 topics, got %d", len(res.Topics))
	}
	if len(res.Advisories) != 1 || !strings.Contains(res.Advisories[0], "requested 5 topics but only 3") {
		t.Errorf("Advisories = %v", res.Advisories)
	}
}

func TestAssemble_NotEnoughDocuments(t *testing.T) {
	_, err := Assemble(newFakeModel(make([]int, 8), 3), ids(8), Options{MinTopicSize: 2})
	if !errors.Is(err, domain.ErrNotEnoughDocuments) {
		t.Fatalf("expected ErrNotEnoughDocuments, got %v", err)
	}
}

func TestAssemble_InconsistentOracle(t *testing.T) {
	tests := []struct {
		name  string
		model func() *fakeModel
	}{
		{"label count", func() *fakeModel { return newFakeModel(make([]int, 9), 3) }},
		{"unreported label", func() *fakeModel {
			m := newFakeModel([]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, 3)
			m.clusters = []int{0}
			return m
		}},
		{"missing keywords", func() *fakeModel {
			m := newFakeModel([]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, 3)
			delete(m.keywords, 1)
			return m
		}},
		{"empty keywords", func() *fakeModel {
			m := newFakeModel([]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, 3)
			m.keywords[0] = nil
			return m
		}},
		{"duplicate report", func() *fakeModel {
			m := newFakeModel([]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, 3)
			m.clusters = []int{0, 1, 0}
			return m
		}},
		{"invalid label", func() *fakeModel { return newFakeModel([]int{0, 0, 0, 0, 0, -4, 0, 0, 0, 0}, 3) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Assemble(tc.model(), ids(10), Options{MinTopicSize: 5})
			if !errors.Is(err, domain.ErrOracleFailure) {
				t.Fatalf("expected ErrOracleFailure, got %v", err)
			}
			if got := domain.Kind(err); got != domain.KindInconsistentOutput {
				t.Errorf("Kind() = %q, want %q", got, domain.KindInconsistentOutput)
			}
		})
	}
}

func TestAssemble_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := range 50 {
		n := 10 + rng.IntN(90)
		labels := make([]int, n)
		for i := range labels {
			labels[i] = rng.IntN(6) - 1
		}
		labels[0] = 0
		docIDs := ids(n)

		res, err := Assemble(newFakeModel(labels, 25), docIDs, Options{MinTopicSize: 2})
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}

		sum := 0
		for i, tp := range res.Topics {
			sum += tp.Size
			if len(tp.Keywords) == 0 || len(tp.Keywords) > domain.MaxTopicKeywords {
				t.Fatalf("round %d: topic %d has %d keywords", round, tp.ID, len(tp.Keywords))
			}
			if i > 0 && res.Topics[i-1].Size < tp.Size {
				t.Fatalf("round %d: topics not sorted by size", round)
			}
		}
		if sum+len(res.Outliers) != n {
			t.Fatalf("round %d: %d in topics + %d outliers != %d", round, sum, len(res.Outliers), n)
		}
		outlier := make(map[string]bool, len(res.Outliers))
		for _, id := range res.Outliers {
			outlier[id] = true
		}
		for _, id := range docIDs {
			_, assigned := res.Assignments[id]
			if assigned == outlier[id] {
				t.Fatalf("round %d: %s assigned=%v outlier=%v", round, id, assigned, outlier[id])
			}
		}
		st := res.Statistics
		if st.DocumentsInTopics+st.Outliers != st.TotalDocuments || st.Topics != len(res.Topics) {
			t.Fatalf("round %d: inconsistent statistics %+v", round, st)
		}
	}
}
