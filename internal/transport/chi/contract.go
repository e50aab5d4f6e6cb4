package chi

import (
	"context"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
	healthuc "github.com/kailas-cloud/topicdex/internal/usecase/health"
)

// AnalysisService runs analyses and operates on stored models.
type AnalysisService interface {
	Analyze(ctx context.Context, req *request.Request) (domain.Analysis, error)
	Topic(ctx context.Context, modelID string, topicID int) (domain.TopicDetail, error)
	Reduce(ctx context.Context, modelID string, nrTopics int) (domain.Analysis, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
