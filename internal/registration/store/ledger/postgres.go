package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
	txcontext "examboard/pkg/platform/tx"
)

// Custom SQLSTATEs raised by create_registrant.
const (
	codeNoSeats        = "EB001"
	codeRangeExhausted = "EB002"
)

// PostgresStore reads the registrant ledger and allocates through the
// create_registrant database function, which serialises writers per quota
// record and relies on the (exam_id, registration_number) unique constraint.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FetchRegistrants(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.RegistrantRecord, error) {
	query := `
		SELECT id, quota_record_id, exam_id, institution_id, stage_id, category,
			   registration_number, details, photo_url, created_by, created_at
		FROM registrants
		WHERE exam_id = $1 AND institution_id = $2
		ORDER BY registration_number
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, uuid.UUID(examID), uuid.UUID(institutionID))
	if err != nil {
		return nil, fmt.Errorf("query registrants: %w", err)
	}
	defer rows.Close()

	out := make([]models.RegistrantRecord, 0)
	for rows.Next() {
		var (
			r                                  models.RegistrantRecord
			regID, quotaID, examUUID, instUUID uuid.UUID
			stageID                            uuid.UUID
			createdBy                          uuid.NullUUID
			category                           string
			details                            []byte
		)
		if err := rows.Scan(&regID, &quotaID, &examUUID, &instUUID, &stageID, &category,
			&r.RegistrationNumber, &details, &r.PhotoURL, &createdBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		if err := json.Unmarshal(details, &r.Details); err != nil {
			return nil, fmt.Errorf("decode registrant details: %w", err)
		}
		r.ID = id.RegistrantID(regID)
		r.QuotaRecordID = id.QuotaRecordID(quotaID)
		r.ExamID = id.ExamID(examUUID)
		r.InstitutionID = id.InstitutionID(instUUID)
		r.StageID = id.StageID(stageID)
		r.Category = id.Category(category)
		r.CreatedBy = id.OperatorID(createdBy.UUID)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrants: %w", err)
	}
	return out, nil
}

// CreateRegistrant runs create_registrant in its own transaction, or in the
// caller's when ctx carries one.
func (s *PostgresStore) CreateRegistrant(ctx context.Context, req models.AllocationRequest) (*models.RegistrantRecord, error) {
	details, err := json.Marshal(req.Details)
	if err != nil {
		return nil, fmt.Errorf("encode registrant details: %w", err)
	}

	record := &models.RegistrantRecord{
		ID:            id.RegistrantID(uuid.New()),
		QuotaRecordID: req.QuotaRecordID,
		StageID:       req.StageID,
		Category:      req.Category,
		Details:       req.Details,
		PhotoURL:      req.PhotoURL,
		CreatedBy:     req.OperatorID,
	}

	call := func(ctx context.Context) error {
		var examID, instID uuid.UUID
		err := s.querier(ctx).QueryRowContext(ctx, `
			SELECT o_exam_id, o_institution_id, o_registration_number, o_created_at
			FROM create_registrant($1, $2, $3, $4, $5::jsonb, $6, $7)
		`,
			uuid.UUID(record.ID),
			uuid.UUID(req.QuotaRecordID),
			uuid.UUID(req.StageID),
			string(req.Category),
			string(details),
			req.PhotoURL,
			nullUUID(uuid.UUID(req.OperatorID)),
		).Scan(&examID, &instID, &record.RegistrationNumber, &record.CreatedAt)
		if err != nil {
			return err
		}
		record.ExamID = id.ExamID(examID)
		record.InstitutionID = id.InstitutionID(instID)
		return nil
	}

	if _, ok := txcontext.From(ctx); ok {
		err = call(ctx)
	} else {
		err = txcontext.Run(ctx, s.db, nil, call)
	}
	if err != nil {
		return nil, allocationError(err)
	}
	return record, nil
}

// allocationError maps database rejections onto allocation reasons. Anything
// else is returned as is and treated as a transport failure upstream.
func allocationError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("create registrant: %w", err)
	}
	var reason models.AllocationReason
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		reason = models.ReasonDuplicateNumber
	case codeNoSeats, codeRangeExhausted:
		reason = models.ReasonQuotaExhausted
	case pgerrcode.NoDataFound, pgerrcode.InvalidParameterValue, pgerrcode.ForeignKeyViolation:
		reason = models.ReasonValidationFailed
	default:
		return fmt.Errorf("create registrant: %w", err)
	}
	msg := pgErr.Message
	if reason == models.ReasonDuplicateNumber {
		msg = "registration number already taken, reload the summary and submit again"
	}
	return &models.AllocationError{Reason: reason, Message: msg, Err: err}
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
