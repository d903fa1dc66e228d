package handler

import (
	"strings"

	"examboard/internal/registration/models"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	dErrors "examboard/pkg/domain-errors"
)

// CreateDraftRequest is the body of POST /registration/drafts.
type CreateDraftRequest struct {
	ExamID        string `json:"exam_id"`
	InstitutionID string `json:"institution_id"`
	QuotaRecordID string `json:"quota_record_id"`
	StageID       string `json:"stage_id,omitempty"`

	examID        id.ExamID
	institutionID id.InstitutionID
	quotaRecordID id.QuotaRecordID
	stageID       id.StageID
}

func (r *CreateDraftRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.examID, err = id.ParseExamID(strings.TrimSpace(r.ExamID)); err != nil {
		return err
	}
	if r.institutionID, err = id.ParseInstitutionID(strings.TrimSpace(r.InstitutionID)); err != nil {
		return err
	}
	if r.quotaRecordID, err = id.ParseQuotaRecordID(strings.TrimSpace(r.QuotaRecordID)); err != nil {
		return err
	}
	if s := strings.TrimSpace(r.StageID); s != "" {
		if r.stageID, err = id.ParseStageID(s); err != nil {
			return err
		}
	}
	return nil
}

// SelectStageRequest is the body of PUT /registration/drafts/{draftID}/stage.
type SelectStageRequest struct {
	StageID string `json:"stage_id"`

	stageID id.StageID
}

func (r *SelectStageRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	stageID, err := id.ParseStageID(strings.TrimSpace(r.StageID))
	if err != nil {
		return err
	}
	r.stageID = stageID
	return nil
}

// UpdateFieldsRequest patches the draft. Each present section replaces the
// stored one; absent sections are left as they are.
type UpdateFieldsRequest struct {
	Category  *string                  `json:"category,omitempty"`
	Primary   *models.PrimaryInfo      `json:"primary,omitempty"`
	Father    *models.GuardianInfo     `json:"father,omitempty"`
	Mother    *models.GuardianInfo     `json:"mother,omitempty"`
	PriorExam *models.PriorExamHistory `json:"prior_exam,omitempty"`
}

// Validate only checks the shape; field rules run when a step is advanced.
func (r *UpdateFieldsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Category == nil && r.Primary == nil && r.Father == nil && r.Mother == nil && r.PriorExam == nil {
		return dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}
	if r.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*r.Category))
		r.Category = &c
	}
	return nil
}

// Apply writes the present sections into the draft.
func (r *UpdateFieldsRequest) Apply(d *wizard.Draft) {
	if r.Category != nil {
		d.Category = id.Category(*r.Category)
	}
	if r.Primary != nil {
		d.Details.Primary = *r.Primary
	}
	if r.Father != nil {
		d.Details.Father = *r.Father
	}
	if r.Mother != nil {
		d.Details.Mother = *r.Mother
	}
	if r.PriorExam != nil {
		d.Details.PriorExam = *r.PriorExam
	}
}

// JumpRequest is the body of POST /registration/drafts/{draftID}/jump.
type JumpRequest struct {
	Step string `json:"step"`
}

func (r *JumpRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Step = strings.TrimSpace(r.Step)
	if r.Step == "" {
		return dErrors.New(dErrors.CodeValidation, "step is required")
	}
	return nil
}
