// Package ports defines the collaborators the registration engine consumes.
// Implementations live under internal/registration/store, upload and events.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks QuotaLookup,LedgerQuery,Allocator,Uploader,LedgerInvalidator,EventPublisher,AuditPublisher

import (
	"context"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/audit"
)

// QuotaLookup supplies the seat and range data issued to an institution.
type QuotaLookup interface {
	FetchQuotaRecords(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.QuotaRecord, error)
}

// LedgerQuery returns a snapshot of the committed registrants of an
// institution for an exam. Snapshots may be stale as soon as they are read.
type LedgerQuery interface {
	FetchRegistrants(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.RegistrantRecord, error)
}

// Allocator is the sole write path into the registration ledger.
//
// Correctness of the whole engine depends on this call. Implementations MUST,
// atomically and on the authoritative side:
//   - re-check seat availability for the stage and category
//   - assign the next registration number of the reserved range
//   - enforce registration number uniqueness within the exam
//
// Rejections are returned as *models.AllocationError with reason
// DuplicateNumber, QuotaExhausted or ValidationFailed. Any other error is a
// transport failure. Callers never retry or renumber locally; the summary they
// computed beforehand is advisory only.
type Allocator interface {
	CreateRegistrant(ctx context.Context, req models.AllocationRequest) (*models.RegistrantRecord, error)
}

// Uploader stores a photo in the binary object store and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, photo models.Photo) (string, error)
}

// LedgerInvalidator drops cached ledger snapshots after a successful write.
type LedgerInvalidator interface {
	Invalidate(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) error
}

// EventPublisher tells other operator sessions that a ledger changed.
type EventPublisher interface {
	PublishRegistrantCreated(ctx context.Context, record *models.RegistrantRecord) error
}

// AuditPublisher emits audit events for operator actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
