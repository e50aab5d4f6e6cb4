package topicdex

import "github.com/kailas-cloud/topicdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation         = domain.ErrValidation
	ErrNotEnoughDocuments = domain.ErrNotEnoughDocuments
	ErrNoTopicsFound      = domain.ErrNoTopicsFound
	ErrNotFitted          = domain.ErrNotFitted
	ErrOracleFailure      = domain.ErrOracleFailure
	ErrTopicNotFound      = domain.ErrTopicNotFound
)

// Kind returns the failure kind name of err ("ValidationError",
// "NoTopicsFoundError", ...), or "" for nil.
func Kind(err error) string {
	return domain.Kind(err)
}
