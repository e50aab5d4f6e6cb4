package domain

// KeyPrefix is the default key namespace in external stores.
const KeyPrefix = "topicdex:"

// Result shaping constants.
const (
	// MaxTopicKeywords caps the keyword list of a topic in an analysis result.
	MaxTopicKeywords = 20
	// LabelKeywords is the number of leading keywords joined into a topic label.
	LabelKeywords = 5
	// LabelSeparator joins keywords into a topic label.
	LabelSeparator = " - "
	// MinCorpusSize is the absolute minimum number of documents per analysis.
	MinCorpusSize = 10
)

// MinDocuments returns the minimum corpus size for the given min topic size: max(2*minTopicSize, 10).
func MinDocuments(minTopicSize int) int {
	return max(2*minTopicSize, MinCorpusSize)
}
