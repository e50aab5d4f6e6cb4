package domain

// Keyword is a ranked term of a topic with its relevance score.
type Keyword struct {
	Word  string
	Score float64
}

// Topic is a cluster of documents summarized by ranked keywords.
type Topic struct {
	ID        int
	Label     string
	Keywords  []string
	Documents []string
	Size      int
	// Summary is an optional generated description; empty when labeling is disabled.
	Summary string
}

// Statistics summarizes an analysis. TotalDocuments == DocumentsInTopics + Outliers.
type Statistics struct {
	TotalDocuments    int
	Topics            int
	Outliers          int
	DocumentsInTopics int
}

// Analysis is the assembled result of one clustering pass.
type Analysis struct {
	// ModelID addresses the stored model snapshot; empty when not stored.
	ModelID     string
	Topics      []Topic
	Assignments map[string]int
	Outliers    []string
	Statistics  Statistics
	Advisories  []string
}

// TopicDetail is the full keyword list of one topic of a fitted model.
type TopicDetail struct {
	ModelID  string
	ID       int
	Keywords []Keyword
}
