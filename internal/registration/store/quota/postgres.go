package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/sentinel"
	txcontext "examboard/pkg/platform/tx"
)

// PostgresStore reads quota records and their stage allocations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FetchQuotaRecords(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.QuotaRecord, error) {
	query := `
		SELECT id, exam_id, institution_id, fee_paid, issued_at
		FROM quota_records
		WHERE exam_id = $1 AND institution_id = $2
		ORDER BY issued_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(examID), uuid.UUID(institutionID))
	if err != nil {
		return nil, fmt.Errorf("query quota records: %w", err)
	}
	defer rows.Close()

	records := make([]models.QuotaRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quota records: %w", err)
	}
	if err := s.loadAllocations(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, quotaID id.QuotaRecordID) (*models.QuotaRecord, error) {
	query := `
		SELECT id, exam_id, institution_id, fee_paid, issued_at
		FROM quota_records
		WHERE id = $1
	`
	r, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(quotaID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	records := []models.QuotaRecord{r}
	if err := s.loadAllocations(ctx, records); err != nil {
		return nil, err
	}
	return &records[0], nil
}

// Put upserts a record and replaces its allocations in one transaction. Quota
// records are issued by the board; this is the import path.
func (s *PostgresStore) Put(ctx context.Context, record models.QuotaRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return txcontext.Run(ctx, s.db, nil, func(ctx context.Context) error {
		tx, _ := txcontext.From(ctx)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quota_records (id, exam_id, institution_id, fee_paid, issued_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				exam_id = EXCLUDED.exam_id,
				institution_id = EXCLUDED.institution_id,
				fee_paid = EXCLUDED.fee_paid,
				issued_at = EXCLUDED.issued_at
		`, uuid.UUID(record.ID), uuid.UUID(record.ExamID), uuid.UUID(record.InstitutionID), record.FeePaid, record.IssuedAt)
		if err != nil {
			return fmt.Errorf("upsert quota record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM stage_allocations WHERE quota_record_id = $1`, uuid.UUID(record.ID)); err != nil {
			return fmt.Errorf("clear stage allocations: %w", err)
		}
		for pos, a := range record.StageAllocations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO stage_allocations (
					quota_record_id, stage_id, stage_name, position, regular_seats, irregular_seats,
					number_range_start, number_range_end, requires_photo
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, uuid.UUID(record.ID), uuid.UUID(a.StageID), a.StageName, pos, a.RegularSeats, a.IrregularSeats,
				nullInt(a.NumberRangeStart), nullInt(a.NumberRangeEnd), a.RequiresPhoto)
			if err != nil {
				return fmt.Errorf("insert stage allocation: %w", err)
			}
		}
		return nil
	})
}

// loadAllocations fills StageAllocations for every record with one query.
func (s *PostgresStore) loadAllocations(ctx context.Context, records []models.QuotaRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	index := make(map[uuid.UUID]int, len(records))
	for i, r := range records {
		ids[i] = r.ID.String()
		index[uuid.UUID(r.ID)] = i
	}

	query := `
		SELECT quota_record_id, stage_id, stage_name, regular_seats, irregular_seats,
			   number_range_start, number_range_end, requires_photo
		FROM stage_allocations
		WHERE quota_record_id = ANY($1::uuid[])
		ORDER BY quota_record_id, position
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query stage allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			quotaID, stageID uuid.UUID
			a                models.StageAllocation
			start, end       sql.NullInt64
		)
		if err := rows.Scan(&quotaID, &stageID, &a.StageName, &a.RegularSeats, &a.IrregularSeats, &start, &end, &a.RequiresPhoto); err != nil {
			return fmt.Errorf("scan stage allocation: %w", err)
		}
		a.StageID = id.StageID(stageID)
		if start.Valid {
			a.NumberRangeStart = models.IntPtr(int(start.Int64))
		}
		if end.Valid {
			a.NumberRangeEnd = models.IntPtr(int(end.Int64))
		}
		i := index[quotaID]
		records[i].StageAllocations = append(records[i].StageAllocations, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate stage allocations: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.QuotaRecord, error) {
	var (
		r                       models.QuotaRecord
		quotaID, examID, instID uuid.UUID
	)
	if err := row.Scan(&quotaID, &examID, &instID, &r.FeePaid, &r.IssuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan quota record: %w", err)
	}
	r.ID = id.QuotaRecordID(quotaID)
	r.ExamID = id.ExamID(examID)
	r.InstitutionID = id.InstitutionID(instID)
	return r, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
