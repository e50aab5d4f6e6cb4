package domain

// Document is a single input document of an analysis request.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
}
