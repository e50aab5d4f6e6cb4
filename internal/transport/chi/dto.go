package chi

import (
	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
)

// Error response codes.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeRequestTooLarge    = "request_too_large"
	codeValidationFailed   = "validation_failed"
	codeNotEnoughDocuments = "not_enough_documents"
	codeNoTopicsFound      = "no_topics_found"
	codeNotFitted          = "not_fitted"
	codeTopicNotFound      = "topic_not_found"
	codeOracleFailure      = "oracle_failure"
	codeTimeout            = "timeout"
	codeCanceled           = "canceled"
	codeNotFound           = "not_found"
	codeMethodNotAllowed   = "method_not_allowed"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

type analyzeRequest struct {
	Embeddings   [][]float32 `json:"embeddings"`
	Documents    []string    `json:"documents"`
	DocumentIDs  []string    `json:"document_ids"`
	MinTopicSize *int        `json:"min_topic_size"`
	NrTopics     *int        `json:"nr_topics"`
	Language     string      `json:"language"`
	NGramRange   []int       `json:"n_gram_range"`
}

func (r analyzeRequest) toInput() request.Input {
	return request.Input{
		Embeddings:   r.Embeddings,
		Documents:    r.Documents,
		DocumentIDs:  r.DocumentIDs,
		MinTopicSize: r.MinTopicSize,
		NrTopics:     r.NrTopics,
		Language:     r.Language,
		NGramRange:   r.NGramRange,
	}
}

type reduceRequest struct {
	NrTopics *int `json:"nr_topics"`
}

type topicResponse struct {
	ID        int      `json:"id"`
	Label     string   `json:"label"`
	Keywords  []string `json:"keywords"`
	Documents []string `json:"documents"`
	Size      int      `json:"size"`
	Summary   string   `json:"summary,omitempty"`
}

type statisticsResponse struct {
	TotalDocuments       int `json:"total_documents"`
	NumTopics            int `json:"num_topics"`
	NumOutliers          int `json:"num_outliers"`
	NumDocumentsInTopics int `json:"num_documents_in_topics"`
}

type analysisResponse struct {
	ModelID          string             `json:"model_id,omitempty"`
	Topics           []topicResponse    `json:"topics"`
	TopicAssignments map[string]int     `json:"topic_assignments"`
	Outliers         []string           `json:"outliers"`
	Statistics       statisticsResponse `json:"statistics"`
	Advisories       []string           `json:"advisories,omitempty"`
}

type keywordResponse struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

type topicDetailResponse struct {
	ModelID  string            `json:"model_id"`
	TopicID  int               `json:"topic_id"`
	Keywords []keywordResponse `json:"keywords"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func analysisToResponse(a domain.Analysis) analysisResponse {
	topics := make([]topicResponse, len(a.Topics))
	for i, t := range a.Topics {
		topics[i] = topicResponse{
			ID:        t.ID,
			Label:     t.Label,
			Keywords:  nonNil(t.Keywords),
			Documents: nonNil(t.Documents),
			Size:      t.Size,
			Summary:   t.Summary,
		}
	}
	assignments := a.Assignments
	if assignments == nil {
		assignments = map[string]int{}
	}
	return analysisResponse{
		ModelID:          a.ModelID,
		Topics:           topics,
		TopicAssignments: assignments,
		Outliers:         nonNil(a.Outliers),
		Statistics: statisticsResponse{
			TotalDocuments:       a.Statistics.TotalDocuments,
			NumTopics:            a.Statistics.Topics,
			NumOutliers:          a.Statistics.Outliers,
			NumDocumentsInTopics: a.Statistics.DocumentsInTopics,
		},
		Advisories: a.Advisories,
	}
}

func topicDetailToResponse(d domain.TopicDetail) topicDetailResponse {
	kws := make([]keywordResponse, len(d.Keywords))
	for i, k := range d.Keywords {
		kws[i] = keywordResponse{Word: k.Word, Score: k.Score}
	}
	return topicDetailResponse{ModelID: d.ModelID, TopicID: d.ID, Keywords: kws}
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
