package models

import (
	"fmt"
	"maps"

	dErrors "examboard/pkg/domain-errors"
)

// ValidationError reports the first wizard step whose rule failed, with the
// field errors of that step.
type ValidationError struct {
	Index  int
	Step   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d (%s) failed validation: %d field error(s)", e.Index, e.Step, len(e.Fields))
}

func (e *ValidationError) StepIndex() int                 { return e.Index }
func (e *ValidationError) FieldErrors() map[string]string { return maps.Clone(e.Fields) }
func (e *ValidationError) DomainCode() dErrors.Code       { return dErrors.CodeValidation }

// UploadError wraps a failed photo upload. No allocation is attempted after it.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "photo upload failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error            { return e.Err }
func (e *UploadError) DomainCode() dErrors.Code { return dErrors.CodeUploadFailed }

// AllocationReason classifies a rejected CreateRegistrant call.
type AllocationReason string

const (
	ReasonDuplicateNumber  AllocationReason = "DuplicateNumber"
	ReasonQuotaExhausted   AllocationReason = "QuotaExhausted"
	ReasonValidationFailed AllocationReason = "ValidationFailed"
	ReasonTransport        AllocationReason = "Transport"
)

// AllocationError is the allocator's rejection, surfaced to the operator
// without retry or local renumbering.
type AllocationError struct {
	Reason  AllocationReason
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AllocationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "allocation rejected"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", msg, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Reason)
}

func (e *AllocationError) Unwrap() error                  { return e.Err }
func (e *AllocationError) FieldErrors() map[string]string { return maps.Clone(e.Fields) }

func (e *AllocationError) DomainCode() dErrors.Code {
	switch e.Reason {
	case ReasonDuplicateNumber:
		return dErrors.CodeConflict
	case ReasonQuotaExhausted:
		return dErrors.CodeCapacityExhausted
	case ReasonValidationFailed:
		return dErrors.CodeValidation
	default:
		return dErrors.CodeUnavailable
	}
}

// NewAllocationError builds a rejection with a caller-safe message.
func NewAllocationError(reason AllocationReason, msg string) *AllocationError {
	return &AllocationError{Reason: reason, Message: msg}
}
