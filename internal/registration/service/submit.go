package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"examboard/internal/registration/models"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/audit"
	"examboard/pkg/requestcontext"
)

var errNoUploader = errors.New("no photo store is configured")

// Submit sends a completed draft to the allocator.
//
// Full-form validation runs first; a failing draft never reaches a
// collaborator. An attached photo is uploaded before the allocation, and an
// upload failure moves the draft back to its PhotoUpload step. The allocation
// is a single call whose rejection is returned as-is with the draft intact:
// nothing is retried or renumbered here. On success the draft is reset for the
// next registrant and the cached ledger is invalidated.
func (s *Service) Submit(ctx context.Context, draft *wizard.Draft, quotaRecordID id.QuotaRecordID, stageID id.StageID) (*models.RegistrantRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Submit", trace.WithAttributes(
		attribute.String("quota_record_id", quotaRecordID.String()),
		attribute.String("stage_id", stageID.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.observeSubmit(start)

	if draft.StageID() != stageID {
		err := &models.ValidationError{
			Index:  0,
			Step:   string(wizard.StepPrimaryInfo),
			Fields: map[string]string{wizard.FieldStage: "the draft was prepared for a different stage"},
		}
		recordSpanError(span, err)
		return nil, err
	}

	if err := draft.ValidateAll(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			s.incrementValidationFailure(verr.Step)
		}
		recordSpanError(span, err)
		return nil, err
	}

	photoURL, err := s.uploadPhoto(ctx, draft, quotaRecordID, stageID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	req := models.AllocationRequest{
		QuotaRecordID: quotaRecordID,
		StageID:       stageID,
		Category:      draft.Category,
		Details:       draft.Details,
		PhotoURL:      photoURL,
		OperatorID:    requestcontext.OperatorID(ctx),
	}
	record, err := s.allocator.CreateRegistrant(ctx, req)
	if err != nil {
		aerr := allocationError(err)
		s.incrementRejected(aerr.Reason)
		s.LogAudit(ctx, audit.Event{
			Action:        string(audit.EventAllocationRejected),
			QuotaRecordID: quotaRecordID,
			StageID:       stageID,
			Decision:      "rejected",
			Reason:        string(aerr.Reason),
		}, "quota_record_id", quotaRecordID.String(), "stage_id", stageID.String(), "reason", aerr.Reason)
		recordSpanError(span, aerr)
		return nil, aerr
	}

	draft.Reset()
	span.SetAttributes(attribute.Int("registration_number", record.RegistrationNumber))
	s.afterCommit(ctx, record)
	return record, nil
}

func (s *Service) uploadPhoto(ctx context.Context, draft *wizard.Draft, quotaRecordID id.QuotaRecordID, stageID id.StageID) (string, error) {
	photo := draft.Photo()
	if photo == nil || !draft.RequiresPhoto() {
		return "", nil
	}

	var (
		url string
		err error
	)
	if s.uploader == nil {
		err = errNoUploader
	} else {
		url, err = s.uploader.Upload(ctx, *photo)
	}
	if err == nil {
		s.incrementPhotoUpload("ok")
		return url, nil
	}

	s.incrementPhotoUpload("failed")
	_ = draft.JumpTo(wizard.StepPhotoUpload)
	s.LogAudit(ctx, audit.Event{
		Action:        string(audit.EventPhotoUploadFailed),
		QuotaRecordID: quotaRecordID,
		StageID:       stageID,
		Decision:      "aborted",
		Reason:        err.Error(),
	}, "quota_record_id", quotaRecordID.String(), "error", err)
	return "", &models.UploadError{Err: err}
}

// afterCommit runs the post-allocation side effects. The registrant is
// already committed, so failures here are logged and never returned.
func (s *Service) afterCommit(ctx context.Context, record *models.RegistrantRecord) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, record.ExamID, record.InstitutionID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate ledger cache",
				"exam_id", record.ExamID.String(),
				"institution_id", record.InstitutionID.String(),
				"error", err,
			)
		}
	}
	if s.events != nil {
		if err := s.events.PublishRegistrantCreated(ctx, record); err != nil {
			s.logger.WarnContext(ctx, "failed to publish registrant created event",
				"registrant_id", record.ID.String(),
				"error", err,
			)
		}
	}
	if s.metrics != nil {
		s.metrics.IncrementAllocationCreated()
	}
	s.LogAudit(ctx, audit.Event{
		Action:             string(audit.EventRegistrantCreated),
		Subject:            record.ID.String(),
		OperatorID:         record.CreatedBy,
		ExamID:             record.ExamID,
		InstitutionID:      record.InstitutionID,
		QuotaRecordID:      record.QuotaRecordID,
		StageID:            record.StageID,
		RegistrationNumber: record.RegistrationNumber,
		Decision:           "created",
	}, "registrant_id", record.ID.String(), "registration_number", record.RegistrationNumber)
}

// allocationError keeps allocator rejections verbatim and classifies anything
// else as a transport failure.
func allocationError(err error) *models.AllocationError {
	var aerr *models.AllocationError
	if errors.As(err, &aerr) {
		return aerr
	}
	return &models.AllocationError{
		Reason:  models.ReasonTransport,
		Message: "allocation service did not complete the request",
		Err:     err,
	}
}

func (s *Service) incrementValidationFailure(step string) {
	if s.metrics != nil {
		s.metrics.IncrementValidationFailure(step)
	}
}

func (s *Service) incrementRejected(reason models.AllocationReason) {
	if s.metrics != nil {
		s.metrics.IncrementAllocationRejected(string(reason))
	}
}

func (s *Service) incrementPhotoUpload(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementPhotoUpload(outcome)
	}
}

func (s *Service) observeSubmit(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSubmit(start)
	}
}
