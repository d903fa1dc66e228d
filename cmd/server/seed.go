package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"examboard/internal/registration/models"
	"examboard/internal/registration/store/quota"
	id "examboard/pkg/domain"
)

// Fixed identifiers so a local console can be driven with curl.
var (
	devExamID        = uuid.MustParse("7f0c1d52-1f0e-4a59-9a5e-3b1d00000001")
	devInstitutionID = uuid.MustParse("7f0c1d52-1f0e-4a59-9a5e-3b1d00000002")
	devQuotaID       = uuid.MustParse("7f0c1d52-1f0e-4a59-9a5e-3b1d00000003")
	devJuniorStage   = uuid.MustParse("7f0c1d52-1f0e-4a59-9a5e-3b1d00000010")
	devSeniorStage   = uuid.MustParse("7f0c1d52-1f0e-4a59-9a5e-3b1d00000011")
)

// seedDev loads one quota record with a bounded stage and a photo stage.
func seedDev(ctx context.Context, store *quota.InMemory, log *slog.Logger) error {
	record := models.QuotaRecord{
		ID:            id.QuotaRecordID(devQuotaID),
		ExamID:        id.ExamID(devExamID),
		InstitutionID: id.InstitutionID(devInstitutionID),
		FeePaid:       decimal.RequireFromString("2400.00"),
		IssuedAt:      time.Now().UTC(),
		StageAllocations: []models.StageAllocation{
			{
				StageID:          id.StageID(devJuniorStage),
				StageName:        "Junior",
				RegularSeats:     20,
				IrregularSeats:   5,
				NumberRangeStart: models.IntPtr(1001),
				NumberRangeEnd:   models.IntPtr(1050),
			},
			{
				StageID:        id.StageID(devSeniorStage),
				StageName:      "Senior",
				RegularSeats:   10,
				IrregularSeats: 2,
				RequiresPhoto:  true,
			},
		},
	}
	if err := store.Put(ctx, record); err != nil {
		return fmt.Errorf("seed dev quota record: %w", err)
	}
	log.Info("seeded dev quota record",
		"exam_id", devExamID.String(),
		"institution_id", devInstitutionID.String(),
		"quota_record_id", devQuotaID.String(),
	)
	return nil
}
