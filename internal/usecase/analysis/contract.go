package analysis

import (
	"context"

	"github.com/kailas-cloud/topicdex/internal/domain"
)

// ModelStore persists model snapshots. Load fails with domain.ErrModelNotFound
// for unknown or expired ids.
type ModelStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context, id string) (domain.Snapshot, error)
}

// Labeler writes a short description of a topic from its keywords and sample documents.
type Labeler interface {
	Summarize(ctx context.Context, keywords, samples []string) (string, error)
}
