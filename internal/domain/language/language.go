// Package language defines the stop-word languages supported by keyword extraction.
package language

// Language selects the stop-word set used for keyword extraction.
type Language string

// Supported languages.
const (
	French       Language = "french"
	English      Language = "english"
	Multilingual Language = "multilingual"
)

// Default is used when a request omits the language.
const Default = Multilingual

// All lists the accepted values in display order.
var All = []Language{French, English, Multilingual}

// IsValid checks if the language is one of the supported values.
func (l Language) IsValid() bool {
	return l == French || l == English || l == Multilingual
}

// StopWords returns a fresh copy of the stop-word list for the language.
// Multilingual is the union of French and English. Unknown languages have none.
func (l Language) StopWords() []string {
	switch l {
	case French:
		return append([]string(nil), frenchStopWords...)
	case English:
		return append([]string(nil), englishStopWords...)
	case Multilingual:
		out := make([]string, 0, len(frenchStopWords)+len(englishStopWords))
		out = append(out, frenchStopWords...)
		return append(out, englishStopWords...)
	default:
		return nil
	}
}

var frenchStopWords = []string{
	"le", "la", "les", "un", "une", "des", "de", "du", "et", "ou",
	"mais", "donc", "car", "pour", "dans", "sur", "à", "avec", "par", "ce",
	"qui", "que", "il", "elle", "on", "nous", "vous", "ils", "elles", "cette",
	"ces", "son", "sa", "ses", "leur", "leurs",
}

var englishStopWords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to",
	"for", "of", "with", "by", "from", "as", "is", "was", "are", "were",
	"been", "be", "have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "can", "this", "that", "these", "those", "it",
	"its", "he", "she", "they", "we", "you",
}
