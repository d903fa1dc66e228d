package handler

import (
	"examboard/internal/registration/drafts"
	"examboard/internal/registration/models"
	"examboard/internal/registration/service"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
)

// DraftResponse is the wizard state returned by every draft endpoint.
type DraftResponse struct {
	ID             id.DraftID               `json:"id"`
	ExamID         id.ExamID                `json:"exam_id"`
	InstitutionID  id.InstitutionID         `json:"institution_id"`
	QuotaRecordID  id.QuotaRecordID         `json:"quota_record_id"`
	StageID        *id.StageID              `json:"stage_id,omitempty"`
	RequiresPhoto  bool                     `json:"requires_photo"`
	Steps          []wizard.Step            `json:"steps"`
	CurrentIndex   int                      `json:"current_index"`
	CurrentStep    wizard.Step              `json:"current_step"`
	CompletedSteps []wizard.Step            `json:"completed_steps"`
	Errors         map[string]string        `json:"errors,omitempty"`
	Category       id.Category              `json:"category,omitempty"`
	Details        models.RegistrantDetails `json:"details"`
	Photo          *PhotoResponse           `json:"photo,omitempty"`
	Summary        *SummaryResponse         `json:"summary,omitempty"`
}

type PhotoResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// SummaryResponse adds the display range to the computed summary.
type SummaryResponse struct {
	models.StageSlotSummary
	Range string `json:"range,omitempty"`
}

func toSummary(s models.StageSlotSummary) *SummaryResponse {
	return &SummaryResponse{StageSlotSummary: s, Range: s.DisplayRange()}
}

func toDraftResponse(sess *drafts.Session) DraftResponse {
	d := sess.Draft
	resp := DraftResponse{
		ID:             sess.ID,
		ExamID:         sess.Scope.ExamID,
		InstitutionID:  sess.Scope.InstitutionID,
		QuotaRecordID:  sess.Scope.QuotaRecordID,
		RequiresPhoto:  d.RequiresPhoto(),
		Steps:          d.Steps(),
		CurrentIndex:   d.CurrentIndex(),
		CurrentStep:    d.CurrentStep(),
		CompletedSteps: d.CompletedSteps(),
		Category:       d.Category,
		Details:        d.Details,
	}
	if errs := d.Errors(); !errs.Empty() {
		resp.Errors = errs
	}
	if stageID := d.StageID(); !stageID.IsNil() {
		resp.StageID = &stageID
	}
	if p := d.Photo(); p != nil {
		resp.Photo = &PhotoResponse{Filename: p.Filename, ContentType: p.ContentType, Size: p.Size()}
	}
	if summary, ok := d.Summary(); ok {
		resp.Summary = toSummary(summary)
	}
	return resp
}

// QuotaListResponse lists an institution's quota records for an exam.
type QuotaListResponse struct {
	QuotaRecords []models.QuotaRecord `json:"quota_records"`
}

// OverviewResponse is a quota record with one summary per stage.
type OverviewResponse struct {
	Quota     models.QuotaRecord `json:"quota"`
	Summaries []*SummaryResponse `json:"summaries"`
}

func toOverview(o *service.Overview) OverviewResponse {
	out := OverviewResponse{Quota: o.Quota, Summaries: make([]*SummaryResponse, 0, len(o.Summaries))}
	for _, s := range o.Summaries {
		out.Summaries = append(out.Summaries, toSummary(s))
	}
	return out
}

// SubmitResponse carries the committed registrant and, when it could be
// refetched, the refreshed summary of its stage.
type SubmitResponse struct {
	Registrant *models.RegistrantRecord `json:"registrant"`
	Summary    *SummaryResponse         `json:"summary,omitempty"`
	Draft      DraftResponse            `json:"draft"`
}
