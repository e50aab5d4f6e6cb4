package topicdex

import "github.com/kailas-cloud/topicdex/internal/domain"

// Language selects the stop-word set used for keyword extraction.
type Language string

// Supported languages.
const (
	LanguageEnglish      Language = "english"
	LanguageFrench       Language = "french"
	LanguageMultilingual Language = "multilingual"
)

// Document is one input document. IDs must be unique within an analysis and
// all embeddings must share one dimension.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
}

// Params tunes one analysis. Zero values take the service defaults:
// min topic size 5, automatic topic count, multilingual, n-grams 1..3.
type Params struct {
	MinTopicSize int
	// NrTopics is the target topic count; 0 lets clustering decide.
	NrTopics int
	Language Language
	// NGramMin and NGramMax bound keyword n-grams; both 0 = default.
	NGramMin int
	NGramMax int
}

// Topic is a discovered cluster of documents.
type Topic struct {
	ID        int
	Label     string
	Keywords  []string
	Documents []string
	Size      int
	Summary   string
}

// Stats summarizes an analysis.
type Stats struct {
	TotalDocuments    int
	Topics            int
	Outliers          int
	DocumentsInTopics int
}

// Result is the outcome of Analyze or Reduce.
type Result struct {
	// ModelID addresses the stored model; empty when no store is configured.
	ModelID     string
	Topics      []Topic
	Assignments map[string]int
	Outliers    []string
	Stats       Stats
	Advisories  []string
}

// Keyword is a ranked topic term.
type Keyword struct {
	Word  string
	Score float64
}

// TopicDetail is the full keyword list of a stored topic.
type TopicDetail struct {
	ModelID  string
	ID       int
	Keywords []Keyword
}

func resultFromDomain(a domain.Analysis) Result {
	topics := make([]Topic, len(a.Topics))
	for i, t := range a.Topics {
		topics[i] = Topic{
			ID:        t.ID,
			Label:     t.Label,
			Keywords:  t.Keywords,
			Documents: t.Documents,
			Size:      t.Size,
			Summary:   t.Summary,
		}
	}
	return Result{
		ModelID:     a.ModelID,
		Topics:      topics,
		Assignments: a.Assignments,
		Outliers:    a.Outliers,
		Stats: Stats{
			TotalDocuments:    a.Statistics.TotalDocuments,
			Topics:            a.Statistics.Topics,
			Outliers:          a.Statistics.Outliers,
			DocumentsInTopics: a.Statistics.DocumentsInTopics,
		},
		Advisories: a.Advisories,
	}
}

func topicDetailFromDomain(d domain.TopicDetail) TopicDetail {
	kws := make([]Keyword, len(d.Keywords))
	for i, k := range d.Keywords {
		kws[i] = Keyword{Word: k.Word, Score: k.Score}
	}
	return TopicDetail{ModelID: d.ModelID, ID: d.ID, Keywords: kws}
}
