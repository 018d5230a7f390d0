package cotc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
)

var (
	ErrAPIKeyRequired = errors.New("API key is required")

	// Request errors. These are detected before anything is sent to the service.
	ErrUnknownUseCase   = errors.New("unknown use case")
	ErrEmptyContent     = errors.New("content is empty")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("validation timed out")
	// ErrMalformedResult is returned when the service replies with a payload that cannot be normalized.
	ErrMalformedResult = errors.New("malformed validation result")
	// ErrValidationPending is used internally while a validation has not reached a terminal state.
	ErrValidationPending = errors.New("validation pending")
)

// ErrorType classifies why a ValidationResult is an error shape.
type ErrorType string

const (
	// ErrorTypeUnknownUseCase means the use case has no contract. Nothing was sent to the service.
	ErrorTypeUnknownUseCase ErrorType = "unknown_use_case"
	// ErrorTypeInvalidRequest means the request was malformed (empty content, bad priority).
	// Nothing was sent to the service.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	// ErrorTypeValidation means the service rejected the request or failed the validation job.
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeTimeout means the validation did not complete in time.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeSystem covers everything else, including transport failures.
	ErrorTypeSystem ErrorType = "system_error"
)

// String returns the string representation of the error type.
func (e ErrorType) String() string {
	return string(e)
}

// ValidationError is returned when the service structurally rejects a validation request, or when
// it reports that a validation job failed.
//
// Field-level problems reported by the service are available in Violations:
//
//	var verr *ValidationError
//	if errors.As(err, &verr) {
//		for _, v := range verr.Violations {
//			log.Printf("%s: %s", v.Field, v.Description)
//		}
//	}
type ValidationError struct {
	// ValidationID is set when the failure concerns a job the service had already accepted.
	ValidationID string
	Message      string
	Violations   []FieldViolation
}

// FieldViolation describes one invalid field of a rejected request.
type FieldViolation struct {
	Field       string
	Description string
}

// Error returns a string representation of the error.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error")
	if e.ValidationID != "" {
		fmt.Fprintf(&b, " for %s", e.ValidationID)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "; %s: %s", v.Field, v.Description)
	}
	return b.String()
}

// fromBadRequest copies the field violations of a BadRequest detail.
func (e *ValidationError) fromBadRequest(br *errdetails.BadRequest) *ValidationError {
	for _, v := range br.GetFieldViolations() {
		e.Violations = append(e.Violations, FieldViolation{
			Field:       v.GetField(),
			Description: v.GetDescription(),
		})
	}
	return e
}

// TimeoutError is returned when a validation does not complete within its timeout.
type TimeoutError struct {
	ValidationID string
	Timeout      time.Duration
}

// Error returns a string representation of the error.
func (e *TimeoutError) Error() string {
	if e.ValidationID == "" {
		return fmt.Sprintf("validation timed out after %s", e.Timeout)
	}
	return fmt.Sprintf("validation %s timed out after %s", e.ValidationID, e.Timeout)
}

// Is makes errors.Is(err, ErrTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// lookForValidationFailures converts gRPC status errors returned by the service into the errors of
// this package. Errors it does not recognise are returned unchanged.
func lookForValidationFailures(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition:
		verr := &ValidationError{Message: st.Message()}
		for _, d := range st.Details() {
			// Try to cast directly first
			if br, ok := d.(*errdetails.BadRequest); ok {
				verr.fromBadRequest(br)
				continue
			}

			// Fall back to unwrapping from Any. Details whose type is not linked into the
			// binary arrive wrapped.
			if a, ok := d.(*anypb.Any); ok {
				var br errdetails.BadRequest
				if err := a.UnmarshalTo(&br); err == nil {
					verr.fromBadRequest(&br)
				}
			}
		}
		return verr
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrTimeout, st.Message())
	}

	return err
}

// classifyError maps any error to the ErrorType reported in a ValidationResult.
func classifyError(err error) ErrorType {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrUnknownUseCase):
		return ErrorTypeUnknownUseCase
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrInvalidPriority):
		return ErrorTypeInvalidRequest
	case errors.As(err, &verr):
		return ErrorTypeValidation
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	}
	return ErrorTypeSystem
}
