package model

import (
	"errors"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/metrics"
)

const (
	driverMemory = "memory"

	opSave = "save"
	opLoad = "load"
)

func observe(driver, op string, err error) {
	status := metrics.Status(err)
	if errors.Is(err, domain.ErrModelNotFound) {
		status = "miss"
	}
	metrics.ModelStoreOperationsTotal.WithLabelValues(driver, op, status).Inc()
}
