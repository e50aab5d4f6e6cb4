package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicdex/internal/metrics"
)

// RouterConfig holds HTTP router settings.
type RouterConfig struct {
	APIKeys      []string
	MaxBodyBytes int64
	// CORSOrigins enables CORS for the listed origins; empty disables it.
	CORSOrigins  []string
	Logger       *zap.Logger
}

// NewRouter wires the API routes and the middleware stack.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	if len(cfg.CORSOrigins) > 0 {
		// Preflight requests carry no credentials, so CORS runs before auth.
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())
	r.Use(maxBodyMiddleware(cfg.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "", "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/analyze", s.Analyze)
	r.Route("/models/{model_id}", func(r chi.Router) {
		r.Get("/topics/{topic_id}", s.GetTopic)
		r.Post("/reduce", s.ReduceTopics)
	})

	return r
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", chiMiddleware.RequestIDHeader},
		ExposedHeaders: []string{chiMiddleware.RequestIDHeader},
		MaxAge:         300,
	})
}
