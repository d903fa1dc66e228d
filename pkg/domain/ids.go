package domain

import (
	"github.com/google/uuid"

	dErrors "examboard/pkg/domain-errors"
)

// Typed identifiers keep exam, institution, quota and registrant references
// from being swapped at call sites. All of them wrap a UUID.
type (
	ExamID        uuid.UUID
	InstitutionID uuid.UUID
	QuotaRecordID uuid.UUID
	StageID       uuid.UUID
	RegistrantID  uuid.UUID
	DraftID       uuid.UUID
	OperatorID    uuid.UUID
)

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}

// ParseExamID parses and validates an exam identifier from external input.
func ParseExamID(s string) (ExamID, error) {
	u, err := parseUUID(s, "exam_id")
	return ExamID(u), err
}

// ParseInstitutionID parses and validates an institution identifier.
func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s, "institution_id")
	return InstitutionID(u), err
}

// ParseQuotaRecordID parses and validates a quota record identifier.
func ParseQuotaRecordID(s string) (QuotaRecordID, error) {
	u, err := parseUUID(s, "quota_record_id")
	return QuotaRecordID(u), err
}

// ParseStageID parses and validates a stage (marhala) identifier.
func ParseStageID(s string) (StageID, error) {
	u, err := parseUUID(s, "stage_id")
	return StageID(u), err
}

// ParseRegistrantID parses and validates a registrant identifier.
func ParseRegistrantID(s string) (RegistrantID, error) {
	u, err := parseUUID(s, "registrant_id")
	return RegistrantID(u), err
}

// ParseDraftID parses and validates a wizard draft identifier.
func ParseDraftID(s string) (DraftID, error) {
	u, err := parseUUID(s, "draft_id")
	return DraftID(u), err
}

// ParseOperatorID parses and validates an operator identifier.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID(s, "operator_id")
	return OperatorID(u), err
}

func (id ExamID) String() string        { return uuid.UUID(id).String() }
func (id InstitutionID) String() string { return uuid.UUID(id).String() }
func (id QuotaRecordID) String() string { return uuid.UUID(id).String() }
func (id StageID) String() string       { return uuid.UUID(id).String() }
func (id RegistrantID) String() string  { return uuid.UUID(id).String() }
func (id DraftID) String() string       { return uuid.UUID(id).String() }
func (id OperatorID) String() string    { return uuid.UUID(id).String() }

func (id ExamID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id QuotaRecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id StageID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RegistrantID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DraftID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id OperatorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs appear as JSON strings and map keys.
func (id ExamID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id InstitutionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id QuotaRecordID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id StageID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id RegistrantID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DraftID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id OperatorID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func unmarshalUUID(b []byte) (uuid.UUID, error) {
	if len(b) == 0 {
		return uuid.Nil, nil
	}
	return uuid.ParseBytes(b)
}

func (id *ExamID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = ExamID(u)
	return err
}

func (id *InstitutionID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = InstitutionID(u)
	return err
}

func (id *QuotaRecordID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = QuotaRecordID(u)
	return err
}

func (id *StageID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = StageID(u)
	return err
}

func (id *RegistrantID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = RegistrantID(u)
	return err
}

func (id *DraftID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = DraftID(u)
	return err
}

func (id *OperatorID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = OperatorID(u)
	return err
}
