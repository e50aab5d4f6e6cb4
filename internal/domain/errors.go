package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation signals a malformed or inconsistent analysis request.
	ErrValidation = errors.New("validation failed")
	// ErrNotEnoughDocuments signals a corpus below the minimum viable size.
	ErrNotEnoughDocuments = errors.New("not enough documents")
	// ErrNoTopicsFound signals that clustering labeled every document as an outlier.
	ErrNoTopicsFound = errors.New("no topics found")
	// ErrNotFitted signals an operation that requires a prior successful analysis.
	ErrNotFitted = errors.New("model not fitted")
	// ErrOracleFailure signals an unexpected failure inside the clustering oracle.
	ErrOracleFailure = errors.New("clustering oracle failure")
	// ErrTopicNotFound signals an unknown topic or model in a lookup.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrLabelingFailed signals a topic labeling provider failure.
	ErrLabelingFailed = errors.New("topic labeling failed")
	// ErrModelNotFound signals a missing or expired model snapshot.
	ErrModelNotFound = errors.New("model not found")
)

// Failure kind names reported to API clients.
const (
	KindValidation         = "ValidationError"
	KindNotEnoughDocuments = "NotEnoughDocumentsError"
	KindNoTopicsFound      = "NoTopicsFoundError"
	KindNotFitted          = "NotFittedError"
	KindOracleFailure      = "OracleFailure"
	KindTopicNotFound      = "TopicNotFoundError"
	KindInconsistentOutput = "InconsistentOracleOutput"
	KindPanic              = "panic"
)

// ValidationError carries the human-readable reason a request was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() + ": " + e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error with a formatted reason.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotEnoughDocumentsError reports the corpus size against the required minimum.
type NotEnoughDocumentsError struct {
	Got      int
	Required int
}

func (e *NotEnoughDocumentsError) Error() string {
	return fmt.Sprintf("%s: got %d, minimum required %d", ErrNotEnoughDocuments.Error(), e.Got, e.Required)
}

func (e *NotEnoughDocumentsError) Unwrap() error { return ErrNotEnoughDocuments }

// NoTopicsFoundError reports an all-outlier clustering. Lowering MinTopicSize usually helps.
type NoTopicsFoundError struct {
	Documents    int
	MinTopicSize int
}

func (e *NoTopicsFoundError) Error() string {
	return fmt.Sprintf("%s: all %d documents are outliers with min_topic_size=%d; try a smaller min_topic_size",
		ErrNoTopicsFound.Error(), e.Documents, e.MinTopicSize)
}

func (e *NoTopicsFoundError) Unwrap() error { return ErrNoTopicsFound }

// OracleFailureError wraps an unexpected oracle failure, preserving the original
// error type name and message for diagnostics.
type OracleFailureError struct {
	Kind    string
	Message string
	Err     error
}

func (e *OracleFailureError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrOracleFailure.Error(), e.Kind, e.Message)
}

// Is matches ErrOracleFailure.
func (e *OracleFailureError) Is(target error) bool { return target == ErrOracleFailure }

func (e *OracleFailureError) Unwrap() error { return e.Err }

// NewOracleFailure wraps err, recording its dynamic type name as the kind.
func NewOracleFailure(err error) error {
	return &OracleFailureError{
		Kind:    strings.TrimPrefix(fmt.Sprintf("%T", err), "*"),
		Message: err.Error(),
		Err:     err,
	}
}

// NewInconsistentOutput reports oracle output that violates the result invariants.
func NewInconsistentOutput(format string, args ...any) error {
	return &OracleFailureError{Kind: KindInconsistentOutput, Message: fmt.Sprintf(format, args...)}
}

// Kind returns the failure kind name for err, or "" when err is nil.
func Kind(err error) string {
	var oracleErr *OracleFailureError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &oracleErr):
		return oracleErr.Kind
	case errors.Is(err, ErrNotEnoughDocuments):
		return KindNotEnoughDocuments
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNoTopicsFound):
		return KindNoTopicsFound
	case errors.Is(err, ErrNotFitted):
		return KindNotFitted
	case errors.Is(err, ErrTopicNotFound):
		return KindTopicNotFound
	default:
		return KindOracleFailure
	}
}
