package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"examboard/internal/registration/metrics"
	"examboard/internal/registration/models"
	"examboard/internal/registration/ports"
	"examboard/internal/registration/slots"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	dErrors "examboard/pkg/domain-errors"
	"examboard/pkg/platform/audit"
	"examboard/pkg/platform/sentinel"
	"examboard/pkg/requestcontext"
)

const tracerName = "examboard/internal/registration/service"

// Scope identifies the quota record a draft registers against.
type Scope struct {
	ExamID        id.ExamID
	InstitutionID id.InstitutionID
	QuotaRecordID id.QuotaRecordID
}

// StageView is the allocation of one stage together with its current summary.
type StageView struct {
	Allocation models.StageAllocation
	Summary    models.StageSlotSummary
}

// Overview is a quota record with the summary of every stage.
type Overview struct {
	Quota     models.QuotaRecord
	Summaries []models.StageSlotSummary
}

// Service loads quota and ledger snapshots, derives slot summaries, and
// submits completed drafts to the allocator.
type Service struct {
	quotas      ports.QuotaLookup
	ledger      ports.LedgerQuery
	allocator   ports.Allocator
	uploader    ports.Uploader
	invalidator ports.LedgerInvalidator
	events      ports.EventPublisher
	auditor     ports.AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithUploader sets the photo store. Without one, stages that require a
// photo cannot be submitted.
func WithUploader(u ports.Uploader) Option {
	return func(s *Service) {
		s.uploader = u
	}
}

// WithLedgerInvalidator sets the cache dropped after each committed registrant.
func WithLedgerInvalidator(inv ports.LedgerInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(quotas ports.QuotaLookup, ledger ports.LedgerQuery, allocator ports.Allocator, opts ...Option) (*Service, error) {
	if quotas == nil || ledger == nil || allocator == nil {
		return nil, errors.New("quota lookup, ledger query and allocator are required")
	}
	s := &Service{
		quotas:    quotas,
		ledger:    ledger,
		allocator: allocator,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// QuotaRecords lists the quota records issued to an institution for an exam.
func (s *Service) QuotaRecords(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.QuotaRecord, error) {
	records, err := s.quotas.FetchQuotaRecords(ctx, examID, institutionID)
	if err != nil {
		return nil, fetchError(err, "failed to load quota records")
	}
	return records, nil
}

// Overview loads the quota record and ledger concurrently and summarises
// every stage.
func (s *Service) Overview(ctx context.Context, scope Scope) (*Overview, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Overview", trace.WithAttributes(scopeAttrs(scope)...))
	defer span.End()
	start := time.Now()
	defer s.observeSummary(start)

	quota, registrants, err := s.snapshot(ctx, scope)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return &Overview{Quota: *quota, Summaries: slots.ComputeAll(quota, registrants)}, nil
}

// LoadStage returns the allocation and fresh summary of one stage.
func (s *Service) LoadStage(ctx context.Context, scope Scope, stageID id.StageID) (*StageView, error) {
	ctx, span := s.tracer.Start(ctx, "registration.LoadStage",
		trace.WithAttributes(append(scopeAttrs(scope), attribute.String("stage_id", stageID.String()))...))
	defer span.End()
	start := time.Now()
	defer s.observeSummary(start)

	quota, registrants, err := s.snapshot(ctx, scope)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	alloc, ok := quota.Allocation(stageID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "stage is not part of this quota record")
	}
	return &StageView{Allocation: alloc, Summary: slots.ComputeSummary(alloc, registrants)}, nil
}

// OpenStage selects a stage on the draft, resolving the photo requirement
// once from the allocation.
func (s *Service) OpenStage(ctx context.Context, draft *wizard.Draft, scope Scope, stageID id.StageID) (*StageView, error) {
	view, err := s.LoadStage(ctx, scope, stageID)
	if err != nil {
		return nil, err
	}
	draft.SelectStage(view.Summary, view.Allocation.RequiresPhoto)
	return view, nil
}

// RefreshStage refetches the ledger for the draft's stage and replaces its
// summary without touching progress.
func (s *Service) RefreshStage(ctx context.Context, draft *wizard.Draft, scope Scope) (*StageView, error) {
	if draft.StageID().IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no stage selected")
	}
	view, err := s.LoadStage(ctx, scope, draft.StageID())
	if err != nil {
		return nil, err
	}
	if err := draft.RefreshSummary(view.Summary); err != nil {
		return nil, err
	}
	return view, nil
}

// snapshot fetches the quota record and the ledger of its institution in
// parallel.
func (s *Service) snapshot(ctx context.Context, scope Scope) (*models.QuotaRecord, []models.RegistrantRecord, error) {
	var (
		records     []models.QuotaRecord
		registrants []models.RegistrantRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.quotas.FetchQuotaRecords(gctx, scope.ExamID, scope.InstitutionID)
		if err != nil {
			return fetchError(err, "failed to load quota records")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		registrants, err = s.ledger.FetchRegistrants(gctx, scope.ExamID, scope.InstitutionID)
		if err != nil {
			return fetchError(err, "failed to load registration ledger")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i := range records {
		if records[i].ID == scope.QuotaRecordID {
			return &records[i], registrants, nil
		}
	}
	return nil, nil, dErrors.New(dErrors.CodeNotFound, "quota record not found for this exam and institution")
}

func fetchError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func scopeAttrs(scope Scope) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("exam_id", scope.ExamID.String()),
		attribute.String("institution_id", scope.InstitutionID.String()),
		attribute.String("quota_record_id", scope.QuotaRecordID.String()),
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}

// LogAudit logs event as an audit line and emits it to the audit publisher.
// Request id, client address and operator are filled from ctx when unset.
func (s *Service) LogAudit(ctx context.Context, event audit.Event, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
		event.RequestID = requestID
	}
	if event.OperatorID.IsNil() {
		event.OperatorID = requestcontext.OperatorID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	args := append(attributes, "event", event.Action, "operator_id", event.OperatorID.String(), "log_type", "audit")
	s.logger.InfoContext(ctx, event.Action, args...)
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}

func (s *Service) observeSummary(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSummary(start)
	}
}
