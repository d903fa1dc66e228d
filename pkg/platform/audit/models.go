package audit

import (
	"context"
	"time"

	id "examboard/pkg/domain"
)

// EventCategory classifies audit events for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers durable changes to the registration ledger.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers rejected or abandoned attempts.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from registration logic to capture operator actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category           EventCategory
	Timestamp          time.Time
	OperatorID         id.OperatorID
	Action             string
	Subject            string
	ExamID             id.ExamID
	InstitutionID      id.InstitutionID
	QuotaRecordID      id.QuotaRecordID
	StageID            id.StageID
	RegistrationNumber int
	Decision           string
	Reason             string
	RequestID          string
	ClientIP           string
}

type AuditEvent string

const (
	EventRegistrantCreated  AuditEvent = "registrant_created"
	EventAllocationRejected AuditEvent = "allocation_rejected"
	EventPhotoUploadFailed  AuditEvent = "photo_upload_failed"
	EventDraftOpened        AuditEvent = "draft_opened"
	EventDraftDiscarded     AuditEvent = "draft_discarded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrantCreated:  CategoryCompliance,
	EventAllocationRejected: CategoryOperations,
	EventPhotoUploadFailed:  CategoryOperations,
	EventDraftOpened:        CategoryOperations,
	EventDraftDiscarded:     CategoryOperations,
}

// Category returns the category of the event. Unknown events default to operations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOperator(ctx context.Context, operatorID id.OperatorID) ([]Event, error)
}
