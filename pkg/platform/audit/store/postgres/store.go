package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "examboard/pkg/domain"
	audit "examboard/pkg/platform/audit"
	txcontext "examboard/pkg/platform/tx"
)

// Store implements audit.Store over the audit_events table. When the context
// carries a transaction (see pkg/platform/tx) the insert joins it, so a ledger
// write and its audit row commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, operator_id, action, subject,
			exam_id, institution_id, quota_record_id, stage_id,
			registration_number, decision, reason, request_id, client_ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		event.Timestamp,
		nullUUID(uuid.UUID(event.OperatorID)),
		event.Action,
		event.Subject,
		nullUUID(uuid.UUID(event.ExamID)),
		nullUUID(uuid.UUID(event.InstitutionID)),
		nullUUID(uuid.UUID(event.QuotaRecordID)),
		nullUUID(uuid.UUID(event.StageID)),
		event.RegistrationNumber,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByOperator(ctx context.Context, operatorID id.OperatorID) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, operator_id, action, subject,
			   exam_id, institution_id, quota_record_id, stage_id,
			   registration_number, decision, reason, request_id, client_ip
		FROM audit_events
		WHERE operator_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(operatorID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			category                                  string
			event                                     audit.Event
			operator, exam, institution, quota, stage uuid.NullUUID
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&operator,
			&event.Action,
			&event.Subject,
			&exam,
			&institution,
			&quota,
			&stage,
			&event.RegistrationNumber,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.OperatorID = id.OperatorID(operator.UUID)
		event.ExamID = id.ExamID(exam.UUID)
		event.InstitutionID = id.InstitutionID(institution.UUID)
		event.QuotaRecordID = id.QuotaRecordID(quota.UUID)
		event.StageID = id.StageID(stage.UUID)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
