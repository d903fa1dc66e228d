// Package handler exposes the registration wizard over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"examboard/internal/registration/drafts"
	"examboard/internal/registration/models"
	"examboard/internal/registration/service"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	dErrors "examboard/pkg/domain-errors"
	"examboard/pkg/platform/audit"
	"examboard/pkg/platform/httputil"
	"examboard/pkg/platform/sentinel"
	"examboard/pkg/requestcontext"
)

// multipartOverhead is the allowance for multipart framing on top of the photo.
const multipartOverhead = 64 << 10

// Service is the registration engine behind the handler.
type Service interface {
	QuotaRecords(ctx context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.QuotaRecord, error)
	Overview(ctx context.Context, scope service.Scope) (*service.Overview, error)
	OpenStage(ctx context.Context, draft *wizard.Draft, scope service.Scope, stageID id.StageID) (*service.StageView, error)
	RefreshStage(ctx context.Context, draft *wizard.Draft, scope service.Scope) (*service.StageView, error)
	Submit(ctx context.Context, draft *wizard.Draft, quotaRecordID id.QuotaRecordID, stageID id.StageID) (*models.RegistrantRecord, error)
	LogAudit(ctx context.Context, event audit.Event, attributes ...any)
}

// Handler wires the wizard endpoints to the service and the draft store.
type Handler struct {
	service       Service
	drafts        *drafts.Store
	validator     *wizard.Validator
	logger        *slog.Logger
	maxPhotoBytes int64
}

// New constructs a registration handler. Drafts it creates validate with v.
func New(svc Service, store *drafts.Store, v *wizard.Validator, logger *slog.Logger, maxPhotoBytes int64) *Handler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = wizard.MaxPhotoBytes
	}
	return &Handler{
		service:       svc,
		drafts:        store,
		validator:     v,
		logger:        logger,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// Register mounts the registration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registration", func(r chi.Router) {
		r.Get("/exams/{examID}/institutions/{institutionID}/quotas", h.HandleListQuotas)
		r.Get("/exams/{examID}/institutions/{institutionID}/quotas/{quotaID}/summary", h.HandleQuotaSummary)

		r.Post("/drafts", h.HandleCreateDraft)
		r.Route("/drafts/{draftID}", func(r chi.Router) {
			r.Get("/", h.HandleGetDraft)
			r.Delete("/", h.HandleDiscardDraft)
			r.Put("/stage", h.HandleSelectStage)
			r.Post("/refresh", h.HandleRefresh)
			r.Patch("/fields", h.HandleUpdateFields)
			r.Post("/advance", h.HandleAdvance)
			r.Post("/retreat", h.HandleRetreat)
			r.Post("/jump", h.HandleJump)
			r.Put("/photo", h.HandleAttachPhoto)
			r.Delete("/photo", h.HandleRemovePhoto)
			r.Post("/validate", h.HandleValidate)
			r.Post("/submit", h.HandleSubmit)
		})
	})
}

// HandleListQuotas handles GET /registration/exams/{examID}/institutions/{institutionID}/quotas.
func (h *Handler) HandleListQuotas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	examID, err := id.ParseExamID(chi.URLParam(r, "examID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	institutionID, err := id.ParseInstitutionID(chi.URLParam(r, "institutionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.QuotaRecords(ctx, examID, institutionID)
	if err != nil {
		h.logFailure(ctx, "list quota records failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, QuotaListResponse{QuotaRecords: records})
}

// HandleQuotaSummary handles GET .../quotas/{quotaID}/summary.
func (h *Handler) HandleQuotaSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, err := scopeFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	overview, err := h.service.Overview(ctx, scope)
	if err != nil {
		h.logFailure(ctx, "load quota summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOverview(overview))
}

// HandleCreateDraft handles POST /registration/drafts. The quota record must
// belong to the institution; a stage may be selected in the same call.
func (h *Handler) HandleCreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	operatorID := requestcontext.OperatorID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateDraftRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	scope := service.Scope{ExamID: req.examID, InstitutionID: req.institutionID, QuotaRecordID: req.quotaRecordID}

	if _, err := h.service.Overview(ctx, scope); err != nil {
		h.logFailure(ctx, "open draft failed", err)
		httputil.WriteError(w, err)
		return
	}

	draft := wizard.New(h.validator)
	if !req.stageID.IsNil() {
		if _, err := h.service.OpenStage(ctx, draft, scope, req.stageID); err != nil {
			h.logFailure(ctx, "open draft failed", err)
			httputil.WriteError(w, err)
			return
		}
	}
	sess := h.drafts.Create(ctx, operatorID, scope, draft)

	h.service.LogAudit(ctx, audit.Event{
		Action:        string(audit.EventDraftOpened),
		Subject:       sess.ID.String(),
		ExamID:        scope.ExamID,
		InstitutionID: scope.InstitutionID,
		QuotaRecordID: scope.QuotaRecordID,
		StageID:       draft.StageID(),
	}, "draft_id", sess.ID.String())

	httputil.WriteJSON(w, http.StatusCreated, toDraftResponse(sess))
}

// HandleGetDraft handles GET /registration/drafts/{draftID}.
func (h *Handler) HandleGetDraft(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(_ context.Context, _ *drafts.Session) error {
		return nil
	})
}

// HandleDiscardDraft handles DELETE /registration/drafts/{draftID}. Nothing
// of the draft was persisted, so discarding is purely local.
func (h *Handler) HandleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	draftID, err := id.ParseDraftID(chi.URLParam(r, "draftID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var scope service.Scope
	err = h.drafts.With(ctx, draftID, requestcontext.OperatorID(ctx), func(sess *drafts.Session) error {
		scope = sess.Scope
		return nil
	})
	if err == nil {
		err = h.drafts.Delete(ctx, draftID, requestcontext.OperatorID(ctx))
	}
	if err != nil {
		httputil.WriteError(w, draftError(err))
		return
	}

	h.service.LogAudit(ctx, audit.Event{
		Action:        string(audit.EventDraftDiscarded),
		Subject:       draftID.String(),
		ExamID:        scope.ExamID,
		InstitutionID: scope.InstitutionID,
		QuotaRecordID: scope.QuotaRecordID,
	}, "draft_id", draftID.String())
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelectStage handles PUT /registration/drafts/{draftID}/stage.
// Selecting a stage restarts the form for that stage.
func (h *Handler) HandleSelectStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SelectStageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.withDraft(w, r, func(ctx context.Context, sess *drafts.Session) error {
		_, err := h.service.OpenStage(ctx, sess.Draft, sess.Scope, req.stageID)
		return err
	})
}

// HandleRefresh handles POST /registration/drafts/{draftID}/refresh. The
// summary is refetched; entered values and progress stay.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(ctx context.Context, sess *drafts.Session) error {
		_, err := h.service.RefreshStage(ctx, sess.Draft, sess.Scope)
		return err
	})
}

// HandleUpdateFields handles PATCH /registration/drafts/{draftID}/fields.
func (h *Handler) HandleUpdateFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateFieldsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		req.Apply(sess.Draft)
		return nil
	})
}

// HandleAdvance handles POST /registration/drafts/{draftID}/advance. A step
// that fails its rules answers 422 with the field errors and the step index.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		d := sess.Draft
		idx, step := d.CurrentIndex(), d.CurrentStep()
		if errs := d.Advance(); !errs.Empty() {
			return &models.ValidationError{Index: idx, Step: string(step), Fields: errs}
		}
		return nil
	})
}

// HandleRetreat handles POST /registration/drafts/{draftID}/retreat.
func (h *Handler) HandleRetreat(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		sess.Draft.Retreat()
		return nil
	})
}

// HandleJump handles POST /registration/drafts/{draftID}/jump.
func (h *Handler) HandleJump(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[JumpRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		return sess.Draft.JumpTo(wizard.Step(req.Step))
	})
}

// HandleAttachPhoto handles PUT /registration/drafts/{draftID}/photo with a
// multipart photo_file part. Type and size are checked when the photo step is
// advanced.
func (h *Handler) HandleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	limit := h.maxPhotoBytes*2 + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "photo upload must be multipart form data within the size limit"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(wizard.FieldPhoto)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "photo_file part is required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "photo could not be read"))
		return
	}

	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		return sess.Draft.AttachPhoto(models.Photo{Filename: header.Filename, Data: data})
	})
}

// HandleRemovePhoto handles DELETE /registration/drafts/{draftID}/photo.
func (h *Handler) HandleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		sess.Draft.RemovePhoto()
		return nil
	})
}

// HandleValidate handles POST /registration/drafts/{draftID}/validate. It runs
// every step rule without submitting.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, func(_ context.Context, sess *drafts.Session) error {
		return sess.Draft.ValidateAll()
	})
}

// HandleSubmit handles POST /registration/drafts/{draftID}/submit. On success
// the draft is cleared for the next registrant and the stage summary is
// refetched so the operator sees the committed seat.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	draftID, err := id.ParseDraftID(chi.URLParam(r, "draftID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var resp SubmitResponse
	err = h.drafts.With(ctx, draftID, requestcontext.OperatorID(ctx), func(sess *drafts.Session) error {
		if sess.Draft.StageID().IsNil() {
			return dErrors.New(dErrors.CodeBadRequest, "no stage selected")
		}
		record, err := h.service.Submit(ctx, sess.Draft, sess.Scope.QuotaRecordID, sess.Draft.StageID())
		if err != nil {
			return err
		}
		resp.Registrant = record
		if view, err := h.service.RefreshStage(ctx, sess.Draft, sess.Scope); err != nil {
			h.logger.WarnContext(ctx, "summary refresh after submit failed",
				"request_id", requestcontext.RequestID(ctx),
				"draft_id", draftID.String(),
				"error", err,
			)
		} else {
			resp.Summary = toSummary(view.Summary)
		}
		resp.Draft = toDraftResponse(sess)
		return nil
	})
	if err != nil {
		h.logFailure(ctx, "submit failed", err, "draft_id", draftID.String())
		httputil.WriteError(w, draftError(err))
		return
	}

	h.logger.InfoContext(ctx, "registrant submitted",
		"request_id", requestcontext.RequestID(ctx),
		"draft_id", draftID.String(),
		"registration_number", resp.Registrant.RegistrationNumber,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// withDraft runs fn on the caller's draft and answers with the resulting
// draft state. Domain errors from fn are written instead.
func (h *Handler) withDraft(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sess *drafts.Session) error) {
	ctx := r.Context()
	draftID, err := id.ParseDraftID(chi.URLParam(r, "draftID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var resp DraftResponse
	err = h.drafts.With(ctx, draftID, requestcontext.OperatorID(ctx), func(sess *drafts.Session) error {
		if err := fn(ctx, sess); err != nil {
			return err
		}
		resp = toDraftResponse(sess)
		return nil
	})
	if err != nil {
		h.logFailure(ctx, "draft operation failed", err, "draft_id", draftID.String())
		httputil.WriteError(w, draftError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	code := dErrors.CodeOf(err)
	if slices.Contains([]dErrors.Code{dErrors.CodeInternal, dErrors.CodeUnavailable}, code) {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.WarnContext(ctx, msg, args...)
}

// draftError turns a missing session into a not-found domain error.
func draftError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "draft not found")
	}
	return err
}

func scopeFromPath(r *http.Request) (service.Scope, error) {
	examID, err := id.ParseExamID(chi.URLParam(r, "examID"))
	if err != nil {
		return service.Scope{}, err
	}
	institutionID, err := id.ParseInstitutionID(chi.URLParam(r, "institutionID"))
	if err != nil {
		return service.Scope{}, err
	}
	quotaID, err := id.ParseQuotaRecordID(chi.URLParam(r, "quotaID"))
	if err != nil {
		return service.Scope{}, err
	}
	return service.Scope{ExamID: examID, InstitutionID: institutionID, QuotaRecordID: quotaID}, nil
}
