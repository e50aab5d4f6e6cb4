package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
	"github.com/kailas-cloud/topicdex/internal/logger"
	"github.com/kailas-cloud/topicdex/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the topic analysis HTTP API.
type Server struct {
	analysis      AnalysisService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(analysis AnalysisService, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		analysis: analysis,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		contextHandler,
		sentinelHandler(domain.ErrNotEnoughDocuments, http.StatusBadRequest, codeNotEnoughDocuments),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrTopicNotFound, http.StatusNotFound, codeTopicNotFound),
		sentinelHandler(domain.ErrNotFitted, http.StatusConflict, codeNotFitted),
		sentinelHandler(domain.ErrNoTopicsFound, http.StatusInternalServerError, codeNoTopicsFound),
		sentinelHandler(domain.ErrOracleFailure, http.StatusInternalServerError, codeOracleFailure),
	}
	return s
}

// Analyze handles POST /analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := request.New(body.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	result, err := s.analysis.Analyze(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analysisToResponse(result))
}

// GetTopic handles GET /models/{model_id}/topics/{topic_id}.
func (s *Server) GetTopic(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "model_id")
	topicID, err := strconv.Atoi(chi.URLParam(r, "topic_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, domain.KindValidation, "topic_id must be an integer")
		return
	}

	detail, err := s.analysis.Topic(r.Context(), modelID, topicID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, topicDetailToResponse(detail))
}

// ReduceTopics handles POST /models/{model_id}/reduce.
func (s *Server) ReduceTopics(w http.ResponseWriter, r *http.Request) {
	var body reduceRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.NrTopics == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.KindValidation, "nr_topics is required")
		return
	}

	result, err := s.analysis.Reduce(r.Context(), chi.URLParam(r, "model_id"), *body.NrTopics)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analysisToResponse(result))
}

// HealthCheck handles GET /health. Always 200: the service can analyze even
// when the model store or labeling provider is unavailable.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:  string(report.Status),
		Service: version.Service,
		Version: version.Version,
		Checks:  checks,
	})
}

// decodeBody decodes a JSON request body, writing a 400/413 response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codeRequestTooLarge, domain.KindValidation,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, codeBadRequest, domain.KindValidation, "request body is empty")
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, domain.KindValidation, "invalid request body: "+err.Error())
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, kind, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Kind:    kind,
		Message: message,
	})
}

// errorMessage returns the client-facing message for a domain error without
// the wrapping context added on the way up.
func errorMessage(err error) string {
	var (
		validationErr *domain.ValidationError
		oracleErr     *domain.OracleFailureError
		notEnoughErr  *domain.NotEnoughDocumentsError
		noTopicsErr   *domain.NoTopicsFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Reason
	case errors.As(err, &notEnoughErr):
		return notEnoughErr.Error()
	case errors.As(err, &noTopicsErr):
		return noTopicsErr.Error()
	case errors.As(err, &oracleErr):
		return oracleErr.Message
	default:
		return err.Error()
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, domain.Kind(err), errorMessage(err))
		return true
	}
}

// contextHandler maps request deadline and cancellation to 504/503.
func contextHandler(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, codeTimeout, "", "analysis timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, codeCanceled, "", "request canceled")
	default:
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.String("kind", domain.Kind(err)), zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "", "internal error")
}
