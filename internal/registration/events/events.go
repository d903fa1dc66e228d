// Package events announces ledger changes on Kafka so every console serving
// the same institution can drop its cached ledger snapshot.
package events

import (
	"context"
	"time"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
)

const TypeRegistrantCreated = "registrant_created"

// LedgerChanged is the wire payload. It carries no registrant details.
type LedgerChanged struct {
	Type               string           `json:"type"`
	ExamID             id.ExamID        `json:"exam_id"`
	InstitutionID      id.InstitutionID `json:"institution_id"`
	QuotaRecordID      id.QuotaRecordID `json:"quota_record_id"`
	StageID            id.StageID       `json:"stage_id"`
	RegistrationNumber int              `json:"registration_number"`
	OccurredAt         time.Time        `json:"occurred_at"`
}

func fromRecord(r *models.RegistrantRecord) LedgerChanged {
	return LedgerChanged{
		Type:               TypeRegistrantCreated,
		ExamID:             r.ExamID,
		InstitutionID:      r.InstitutionID,
		QuotaRecordID:      r.QuotaRecordID,
		StageID:            r.StageID,
		RegistrationNumber: r.RegistrationNumber,
		OccurredAt:         r.CreatedAt,
	}
}

// partitionKey keeps every change of one institution's ledger on one
// partition, in order.
func partitionKey(examID id.ExamID, institutionID id.InstitutionID) []byte {
	return []byte(examID.String() + ":" + institutionID.String())
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishRegistrantCreated(context.Context, *models.RegistrantRecord) error { return nil }
