package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
	"github.com/kailas-cloud/topicdex/internal/metrics"
)

// InstrumentedOracle wraps an oracle with operation metrics and debug logging.
// Models it returns are wrapped too, so merges are measured as well.
type InstrumentedOracle struct {
	inner  cluster.Oracle
	logger *zap.Logger
}

// NewInstrumentedOracle wraps inner.
func NewInstrumentedOracle(inner cluster.Oracle, logger *zap.Logger) *InstrumentedOracle {
	return &InstrumentedOracle{inner: inner, logger: logger}
}

// Fit delegates to the inner oracle.
func (o *InstrumentedOracle) Fit(
	ctx context.Context, embeddings [][]float32, documents []string, p cluster.Params,
) (cluster.Model, error) {
	start := time.Now()
	m, err := o.inner.Fit(ctx, embeddings, documents, p)
	o.observe("fit", start, err,
		zap.Int("documents", len(embeddings)),
		zap.Int("min_cluster_size", p.MinClusterSize),
		zap.Int("target_clusters", p.TargetClusters),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // decorator is transparent
	}
	return &instrumentedModel{Model: m, oracle: o}, nil
}

// Restore delegates to the inner oracle.
func (o *InstrumentedOracle) Restore(data []byte) (cluster.Model, error) {
	start := time.Now()
	m, err := o.inner.Restore(data)
	o.observe("restore", start, err, zap.Int("bytes", len(data)))
	if err != nil {
		return nil, err //nolint:wrapcheck // decorator is transparent
	}
	return &instrumentedModel{Model: m, oracle: o}, nil
}

func (o *InstrumentedOracle) observe(op string, start time.Time, err error, fields ...zap.Field) {
	d := time.Since(start)
	metrics.OracleOperationsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	metrics.OracleDuration.WithLabelValues(op).Observe(d.Seconds())

	fields = append(fields, zap.String("operation", op), zap.Duration("duration", d))
	if err != nil {
		o.logger.Debug("Oracle operation failed", append(fields, zap.Error(err))...)
		return
	}
	o.logger.Debug("Oracle operation completed", fields...)
}

type instrumentedModel struct {
	cluster.Model
	oracle *InstrumentedOracle
}

func (m *instrumentedModel) MergeTo(ctx context.Context, target int) (cluster.Model, error) {
	start := time.Now()
	merged, err := m.Model.MergeTo(ctx, target)
	m.oracle.observe("merge", start, err,
		zap.Int("from_topics", len(m.Clusters())),
		zap.Int("target", target),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // decorator is transparent
	}
	return &instrumentedModel{Model: merged, oracle: m.oracle}, nil
}
