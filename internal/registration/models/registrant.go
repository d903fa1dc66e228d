package models

import (
	"time"

	id "examboard/pkg/domain"
)

// RegistrantRecord is one committed row of the registration ledger. Records
// are written only by the allocation collaborator.
type RegistrantRecord struct {
	ID                 id.RegistrantID   `json:"id"`
	QuotaRecordID      id.QuotaRecordID  `json:"quota_record_id"`
	ExamID             id.ExamID         `json:"exam_id"`
	InstitutionID      id.InstitutionID  `json:"institution_id"`
	StageID            id.StageID        `json:"stage_id"`
	Category           id.Category       `json:"category"`
	RegistrationNumber int               `json:"registration_number"`
	Details            RegistrantDetails `json:"details"`
	PhotoURL           string            `json:"photo_url,omitempty"`
	CreatedBy          id.OperatorID     `json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`
}

// RegistrantDetails holds the person-level fields captured by the wizard.
type RegistrantDetails struct {
	Primary   PrimaryInfo      `json:"primary"`
	Father    GuardianInfo     `json:"father"`
	Mother    GuardianInfo     `json:"mother"`
	PriorExam PriorExamHistory `json:"prior_exam"`
}

// PrimaryInfo is the registrant's own identity. Category lives on the draft
// because it selects a seat rather than describing the person.
type PrimaryInfo struct {
	FullName    string `json:"full_name" validate:"required,notblank,max=128"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	NationalID  string `json:"national_id" validate:"required,notblank,alphanum,max=32"`
	Gender      string `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
}

type GuardianInfo struct {
	Name       string `json:"name" validate:"required,notblank,max=128"`
	NationalID string `json:"national_id,omitempty" validate:"omitempty,alphanum,max=32"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// PriorExamHistory is informational and accepted as entered.
type PriorExamHistory struct {
	ExamName   string `json:"exam_name,omitempty"`
	RollNumber string `json:"roll_number,omitempty"`
	Year       int    `json:"year,omitempty"`
	Result     string `json:"result,omitempty"`
}

// AllocationRequest is the single atomic create call sent to the allocator.
// The allocator assigns the registration number.
type AllocationRequest struct {
	QuotaRecordID id.QuotaRecordID
	StageID       id.StageID
	Category      id.Category
	Details       RegistrantDetails
	PhotoURL      string
	OperatorID    id.OperatorID
}

// Photo is the binary attached at the PhotoUpload step.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (p *Photo) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}
