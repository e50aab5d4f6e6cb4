package oracle

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// vectorizer turns documents into n-gram term counts.
type vectorizer struct {
	stop     map[string]struct{}
	ngramMin int
	ngramMax int
}

func newVectorizer(stopWords []string, ngramMin, ngramMax int) *vectorizer {
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	ngramMin = max(ngramMin, 1)
	ngramMax = max(ngramMax, ngramMin)
	return &vectorizer{stop: stop, ngramMin: ngramMin, ngramMax: ngramMax}
}

// tokens lowercases text and drops stop words before n-grams are built.
func (v *vectorizer) tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, ok := v.stop[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// terms returns the counts of every n-gram in text.
func (v *vectorizer) terms(text string) map[string]int {
	toks := v.tokens(text)
	counts := make(map[string]int)
	for size := v.ngramMin; size <= v.ngramMax; size++ {
		for i := 0; i+size <= len(toks); i++ {
			counts[strings.Join(toks[i:i+size], " ")]++
		}
	}
	return counts
}

// classCounts sums per-document term counts into one bag per label.
// Outlier documents form their own class.
func (v *vectorizer) classCounts(documents []string, labels []int) map[int]map[string]int {
	classes := make(map[int]map[string]int)
	for i, doc := range documents {
		bag, ok := classes[labels[i]]
		if !ok {
			bag = make(map[string]int)
			classes[labels[i]] = bag
		}
		for term, c := range v.terms(doc) {
			bag[term] += c
		}
	}
	return classes
}
