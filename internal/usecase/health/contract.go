package health

import "context"

// StorePinger checks model store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// LabelerChecker checks labeling provider availability.
type LabelerChecker interface {
	HealthCheck(ctx context.Context) error
}
