package oracle

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"testing"

	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

func twoBlobs() ([][]float32, []string) {
	embeddings := make([][]float32, 10)
	documents := make([]string, 10)
	fruit := []string{
		"apple banana fruit salad",
		"fresh apple fruit juice",
		"banana fruit smoothie",
		"apple pie with fruit",
		"tropical fruit banana",
	}
	space := []string{
		"rocket launch into orbit",
		"orbit of the rocket stage",
		"launch window for rocket",
		"satellite orbit launch",
		"rocket engine launch test",
	}
	for i := range 5 {
		a := make([]float32, 8)
		a[0] = 1
		a[2+i%5] = 0.02 * float32(i+1)
		embeddings[i] = a
		documents[i] = fruit[i]

		b := make([]float32, 8)
		b[1] = 1
		b[3+i%5] = 0.02 * float32(i+1)
		embeddings[5+i] = b
		documents[5+i] = space[i]
	}
	return embeddings, documents
}

func TestFit_TwoSeparatedClusters(t *testing.T) {
	embeddings, documents := twoBlobs()
	o := New(DefaultConfig())

	m, err := o.Fit(context.Background(), embeddings, documents, cluster.Params{
		MinClusterSize: 5,
		TargetClusters: cluster.Auto,
		NGramMin:       1,
		NGramMax:       1,
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	want := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	if got := m.Labels(); !slices.Equal(got, want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	if got := m.Clusters(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Clusters() = %v", got)
	}

	kws, ok := m.KeywordsFor(0)
	if !ok || len(kws) == 0 {
		t.Fatalf("KeywordsFor(0) = %v, %v", kws, ok)
	}
	if kws[0].Word != "fruit" {
		t.Errorf("top keyword = %q, want fruit", kws[0].Word)
	}
	for i := 1; i < len(kws); i++ {
		if kws[i].Score > kws[i-1].Score {
			t.Fatalf("keywords not ranked: %v", kws)
		}
	}
	if _, ok := m.KeywordsFor(7); ok {
		t.Error("expected unknown label to report false")
	}
}

func TestFit_TargetMergesClusters(t *testing.T) {
	embeddings, documents := twoBlobs()
	m, err := New(DefaultConfig()).Fit(context.Background(), embeddings, documents, cluster.Params{
		MinClusterSize: 5,
		TargetClusters: 1,
		NGramMin:       1,
		NGramMax:       2,
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got := m.Clusters(); len(got) != 1 {
		t.Fatalf("Clusters() = %v, want one cluster", got)
	}
	for i, l := range m.Labels() {
		if l != 0 {
			t.Errorf("label[%d] = %d, want 0", i, l)
		}
	}
}

func TestFit_Cancelled(t *testing.T) {
	embeddings, documents := twoBlobs()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultConfig()).Fit(ctx, embeddings, documents, cluster.Params{MinClusterSize: 5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFit_InvalidInput(t *testing.T) {
	o := New(DefaultConfig())
	embeddings, documents := twoBlobs()

	tests := []struct {
		name string
		emb  [][]float32
		docs []string
		p    cluster.Params
	}{
		{"empty", nil, nil, cluster.Params{MinClusterSize: 5}},
		{"mismatch", embeddings, documents[:3], cluster.Params{MinClusterSize: 5}},
		{"min size", embeddings, documents, cluster.Params{MinClusterSize: 1}},
		{"negative target", embeddings, documents, cluster.Params{MinClusterSize: 5, TargetClusters: -2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ierr *InputError
			if _, err := o.Fit(context.Background(), tc.emb, tc.docs, tc.p); !errors.As(err, &ierr) {
				t.Fatalf("expected InputError, got %v", err)
			}
		})
	}
}

func TestHDBSCAN_SeparatedBlobs(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {0.05, 0.05},
		{10, 10}, {10.1, 10}, {10, 10.1}, {10.1, 10.1}, {10.05, 10.05},
	}
	labels, err := hdbscan(context.Background(), points, 5, 0)
	if err != nil {
		t.Fatalf("hdbscan: %v", err)
	}
	for i := range 5 {
		if labels[i] == cluster.Outlier || labels[i] != labels[0] {
			t.Fatalf("first blob labels = %v", labels)
		}
		if labels[5+i] == cluster.Outlier || labels[5+i] != labels[5] {
			t.Fatalf("second blob labels = %v", labels)
		}
	}
	if labels[0] == labels[5] {
		t.Errorf("blobs share label %d", labels[0])
	}
}

func TestHDBSCAN_TooSmallIsNoise(t *testing.T) {
	points := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}}
	labels, err := hdbscan(context.Background(), points, 5, 0)
	if err != nil {
		t.Fatalf("hdbscan: %v", err)
	}
	for i, l := range labels {
		if l != cluster.Outlier {
			t.Errorf("label[%d] = %d, want outlier", i, l)
		}
	}
}

func TestKthSmallest(t *testing.T) {
	values := []float64{5, 3, 9, 1, 1, 7, 2, 8, 0, 4}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	for k := range values {
		buf := append([]float64(nil), values...)
		if got := kthSmallest(buf, k); got != sorted[k] {
			t.Errorf("kthSmallest(%d) = %v, want %v", k, got, sorted[k])
		}
	}
}

func TestVectorizer(t *testing.T) {
	v := newVectorizer([]string{"le", "The"}, 1, 2)

	if got := v.tokens("Le chat, the CAT! a b 42"); !slices.Equal(got, []string{"chat", "cat", "42"}) {
		t.Errorf("tokens() = %v", got)
	}
	terms := v.terms("chat noir chat noir")
	if terms["chat"] != 2 || terms["chat noir"] != 2 || terms["noir chat"] != 1 {
		t.Errorf("terms() = %v", terms)
	}

	classes := v.classCounts([]string{"chat", "chien", "chat chien"}, []int{0, cluster.Outlier, 0})
	if classes[0]["chat"] != 2 || classes[0]["chien"] != 1 || classes[cluster.Outlier]["chien"] != 1 {
		t.Errorf("classCounts() = %v", classes)
	}
}

func TestCTFIDF_Scores(t *testing.T) {
	vectors := ctfidf(map[int]map[string]int{
		0: {"x": 2},
		1: {"x": 1, "y": 1},
	})
	// four terms over two classes: A = 2; f(x) = 3, f(y) = 1.
	checks := []struct {
		label int
		term  string
		want  float64
	}{
		{0, "x", math.Log(1 + 2.0/3)},
		{1, "x", 0.5 * math.Log(1+2.0/3)},
		{1, "y", 0.5 * math.Log(3)},
	}
	for _, c := range checks {
		if got := vectors[c.label][c.term]; math.Abs(got-c.want) > 1e-12 {
			t.Errorf("score(%d, %q) = %v, want %v", c.label, c.term, got, c.want)
		}
	}
}

func TestTopKeywords_TiesByTerm(t *testing.T) {
	kws := topKeywords(termVector{"beta": 1, "alpha": 1, "gamma": 2, "zero": 0}, 10)
	var words []string
	for _, k := range kws {
		words = append(words, k.Word)
	}
	if !slices.Equal(words, []string{"gamma", "alpha", "beta"}) {
		t.Errorf("topKeywords() = %v", words)
	}
	if got := topKeywords(termVector{"a": 3, "b": 2, "c": 1}, 2); len(got) != 2 {
		t.Errorf("expected truncation to 2, got %d", len(got))
	}
}

func mergeFixture() *Model {
	return newModel(
		[]int{0, 0, 0, 0, 1, 1, 1, 2, 2},
		map[int]map[string]int{
			0: {"apple": 4, "fruit": 4},
			1: {"rocket": 3, "orbit": 3},
			2: {"rocket": 2, "launch": 2},
		},
		30,
	)
}

func TestModel_MergeTo(t *testing.T) {
	m := mergeFixture()

	merged, err := m.MergeTo(context.Background(), 2)
	if err != nil {
		t.Fatalf("MergeTo: %v", err)
	}
	want := []int{1, 1, 1, 1, 0, 0, 0, 0, 0}
	if got := merged.Labels(); !slices.Equal(got, want) {
		t.Errorf("merged labels = %v, want %v", got, want)
	}
	kws, _ := merged.KeywordsFor(0)
	var hasRocket bool
	for _, k := range kws {
		hasRocket = hasRocket || k.Word == "rocket"
	}
	if !hasRocket {
		t.Errorf("merged cluster keywords = %v, want rocket", kws)
	}

	if got := m.Labels(); !slices.Equal(got, []int{0, 0, 0, 0, 1, 1, 1, 2, 2}) {
		t.Errorf("receiver mutated: %v", got)
	}
}

func TestModel_MergeToBounds(t *testing.T) {
	m := mergeFixture()

	same, err := m.MergeTo(context.Background(), 3)
	if err != nil || same != m {
		t.Errorf("MergeTo(3) = %v, %v; want receiver", same, err)
	}
	var ierr *InputError
	if _, err := m.MergeTo(context.Background(), 0); !errors.As(err, &ierr) {
		t.Errorf("MergeTo(0) error = %v, want InputError", err)
	}
}

func TestAutoMerge(t *testing.T) {
	labels := []int{0, 0, 1, 1, 2, 2}
	counts := map[int]map[string]int{
		0: {"a": 2, "b": 2},
		1: {"a": 2, "b": 2},
		2: {"z": 3},
	}
	if err := autoMerge(context.Background(), labels, counts, 0.9); err != nil {
		t.Fatalf("autoMerge: %v", err)
	}
	if !slices.Equal(labels, []int{0, 0, 0, 0, 2, 2}) {
		t.Errorf("labels = %v", labels)
	}
	if counts[0]["a"] != 4 {
		t.Errorf("counts not folded: %v", counts)
	}
}

func TestRestore(t *testing.T) {
	m := mergeFixture()
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	o := New(DefaultConfig())
	restored, err := o.Restore(data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !slices.Equal(restored.Labels(), m.Labels()) {
		t.Errorf("labels = %v, want %v", restored.Labels(), m.Labels())
	}
	want, _ := m.KeywordsFor(1)
	got, _ := restored.KeywordsFor(1)
	if !slices.Equal(got, want) {
		t.Errorf("keywords = %v, want %v", got, want)
	}

	var serr *StateError
	for _, bad := range []string{"{", `{"labels":[],"top_n":5}`, `{"labels":[-3],"top_n":5}`, `{"labels":[0],"top_n":0}`} {
		if _, err := o.Restore([]byte(bad)); !errors.As(err, &serr) {
			t.Errorf("Restore(%s) error = %v, want StateError", bad, err)
		}
	}
}
