package oracle

import (
	"math"
	"sort"

	"github.com/kailas-cloud/topicdex/internal/domain"
)

type termVector map[string]float64

// ctfidf weighs every class's terms by class-based TF-IDF:
// tf is the term's share of its class and idf is ln(1 + A/f) where A is the
// mean class size in terms and f the term's total frequency.
func ctfidf(classes map[int]map[string]int) map[int]termVector {
	totals := make(map[string]int)
	var all int
	for _, bag := range classes {
		for term, c := range bag {
			totals[term] += c
			all += c
		}
	}
	if len(classes) == 0 || all == 0 {
		return map[int]termVector{}
	}
	avg := float64(all) / float64(len(classes))

	out := make(map[int]termVector, len(classes))
	for label, bag := range classes {
		var classTotal int
		for _, c := range bag {
			classTotal += c
		}
		vec := make(termVector, len(bag))
		if classTotal > 0 {
			for term, c := range bag {
				tf := float64(c) / float64(classTotal)
				idf := math.Log(1 + avg/float64(totals[term]))
				vec[term] = tf * idf
			}
		}
		out[label] = vec
	}
	return out
}

// topKeywords returns the n best positive-scored terms, highest first.
// Equal scores order by term.
func topKeywords(vec termVector, n int) []domain.Keyword {
	kws := make([]domain.Keyword, 0, len(vec))
	for term, s := range vec {
		if s > 0 {
			kws = append(kws, domain.Keyword{Word: term, Score: s})
		}
	}
	sort.Slice(kws, func(i, j int) bool {
		if kws[i].Score != kws[j].Score {
			return kws[i].Score > kws[j].Score
		}
		return kws[i].Word < kws[j].Word
	})
	if n > 0 && len(kws) > n {
		kws = kws[:n]
	}
	return kws
}

func cosine(a, b termVector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot, na, nb float64
	for term, x := range a {
		dot += x * b[term]
		na += x * x
	}
	for _, y := range b {
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
