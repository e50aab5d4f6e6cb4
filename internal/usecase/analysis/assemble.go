package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

// Options configures one assembly.
type Options struct {
	MinTopicSize int
	// RequestedTopics is the target topic count, or cluster.Auto.
	RequestedTopics int
}

// Assemble shapes a fitted model into an analysis result. documentIDs are in
// request order and parallel to the model labels. Assemble keeps no state.
func Assemble(model cluster.Model, documentIDs []string, opts Options) (domain.Analysis, error) {
	n := len(documentIDs)
	if required := domain.MinDocuments(opts.MinTopicSize); n < required {
		return domain.Analysis{}, &domain.NotEnoughDocumentsError{Got: n, Required: required}
	}

	labels := model.Labels()
	if len(labels) != n {
		return domain.Analysis{}, domain.NewInconsistentOutput(
			"oracle returned %d labels for %d documents", len(labels), n)
	}

	members := make(map[int][]string)
	var outliers []string
	for i, l := range labels {
		if l == cluster.Outlier {
			outliers = append(outliers, documentIDs[i])
			continue
		}
		if l < 0 {
			return domain.Analysis{}, domain.NewInconsistentOutput("document %d has invalid label %d", i, l)
		}
		members[l] = append(members[l], documentIDs[i])
	}
	if len(members) == 0 {
		return domain.Analysis{}, &domain.NoTopicsFoundError{Documents: n, MinTopicSize: opts.MinTopicSize}
	}

	topics := make([]domain.Topic, 0, len(members))
	reported := make(map[int]bool, len(members))
	for _, l := range model.Clusters() {
		if reported[l] {
			return domain.Analysis{}, domain.NewInconsistentOutput("topic %d reported twice", l)
		}
		reported[l] = true
		docs, ok := members[l]
		if !ok {
			continue
		}
		topic, err := buildTopic(model, l, docs)
		if err != nil {
			return domain.Analysis{}, err
		}
		topics = append(topics, topic)
	}
	for l := range members {
		if !reported[l] {
			return domain.Analysis{}, domain.NewInconsistentOutput(
				"label %d is assigned to documents but not reported as a topic", l)
		}
	}

	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Size > topics[j].Size })

	assignments := make(map[string]int, n-len(outliers))
	for i, l := range labels {
		if l != cluster.Outlier {
			assignments[documentIDs[i]] = l
		}
	}
	if outliers == nil {
		outliers = []string{}
	}

	result := domain.Analysis{
		Topics:      topics,
		Assignments: assignments,
		Outliers:    outliers,
		Statistics: domain.Statistics{
			TotalDocuments:    n,
			Topics:            len(topics),
			Outliers:          len(outliers),
			DocumentsInTopics: n - len(outliers),
		},
	}
	if opts.RequestedTopics != cluster.Auto && len(topics) < opts.RequestedTopics {
		result.Advisories = append(result.Advisories, fmt.Sprintf(
			"requested %d topics but only %d were found", opts.RequestedTopics, len(topics)))
	}
	return result, nil
}

func buildTopic(model cluster.Model, label int, docs []string) (domain.Topic, error) {
	ranked, ok := model.KeywordsFor(label)
	if !ok || len(ranked) == 0 {
		return domain.Topic{}, domain.NewInconsistentOutput("topic %d has no keywords", label)
	}
	if len(ranked) > domain.MaxTopicKeywords {
		ranked = ranked[:domain.MaxTopicKeywords]
	}
	keywords := make([]string, len(ranked))
	for i, k := range ranked {
		keywords[i] = k.Word
	}
	return domain.Topic{
		ID:        label,
		Label:     strings.Join(keywords[:min(domain.LabelKeywords, len(keywords))], domain.LabelSeparator),
		Keywords:  keywords,
		Documents: docs,
		Size:      len(docs),
	}, nil
}
