package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing dependency.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store   StorePinger
	labeler LabelerChecker
}

// New creates a Service. Both dependencies can be nil: the in-memory model
// store and disabled labeling have nothing to check.
func New(store StorePinger, labeler LabelerChecker) *Service {
	return &Service{store: store, labeler: labeler}
}

// Check runs health checks against all configured components. The service
// itself never reports Unhealthy: analysis works without a store or labeler.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.store != nil {
		checks["models"] = result(s.store.Ping(ctx))
	}
	if s.labeler != nil {
		checks["labeling"] = result(s.labeler.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
