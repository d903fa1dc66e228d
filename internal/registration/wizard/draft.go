// Package wizard implements the resumable multi-step registration form.
//
// A Draft is edited by one operator session at a time and is not safe for
// concurrent use; the draft store serialises access. Nothing in a Draft is
// persisted until the allocator accepts a submission.
package wizard

import (
	"maps"
	"slices"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
	dErrors "examboard/pkg/domain-errors"
)

// Step is one page of the registration form.
type Step string

const (
	StepPrimaryInfo      Step = "primary_info"
	StepFatherInfo       Step = "father_info"
	StepMotherInfo       Step = "mother_info"
	StepPriorExamHistory Step = "prior_exam_history"
	StepPhotoUpload      Step = "photo_upload"
)

// FieldErrors maps a field key to its message. A step passes iff its map is empty.
type FieldErrors map[string]string

func (f FieldErrors) Empty() bool { return len(f) == 0 }

// StepsFor derives the step list of a stage.
func StepsFor(requiresPhoto bool) []Step {
	steps := []Step{StepPrimaryInfo, StepFatherInfo, StepMotherInfo, StepPriorExamHistory}
	if requiresPhoto {
		steps = append(steps, StepPhotoUpload)
	}
	return steps
}

// Draft is the in-progress registration of one registrant.
//
// Invariants:
//   - 0 <= current < len(steps)
//   - completed only holds steps present in steps
//   - StepPhotoUpload is in steps iff the selected stage requires a photo
type Draft struct {
	validator *Validator

	steps         []Step
	current       int
	completed     map[Step]bool
	errors        FieldErrors
	stageID       id.StageID
	summary       *models.StageSlotSummary
	requiresPhoto bool
	photo         *models.Photo

	// Category and Details are edited in place by the operator.
	Category id.Category
	Details  models.RegistrantDetails
}

// New returns an empty draft with no stage selected.
func New(v *Validator) *Draft {
	return &Draft{
		validator: v,
		steps:     StepsFor(false),
		completed: map[Step]bool{},
		errors:    FieldErrors{},
	}
}

func (d *Draft) Steps() []Step           { return slices.Clone(d.steps) }
func (d *Draft) CurrentIndex() int       { return d.current }
func (d *Draft) CurrentStep() Step       { return d.steps[d.current] }
func (d *Draft) Errors() FieldErrors     { return maps.Clone(d.errors) }
func (d *Draft) StageID() id.StageID     { return d.stageID }
func (d *Draft) RequiresPhoto() bool     { return d.requiresPhoto }
func (d *Draft) Photo() *models.Photo    { return d.photo }
func (d *Draft) IsCompleted(s Step) bool { return d.completed[s] }

// Summary returns the slot summary the draft was last seeded with.
func (d *Draft) Summary() (models.StageSlotSummary, bool) {
	if d.summary == nil {
		return models.StageSlotSummary{}, false
	}
	return *d.summary, true
}

// CompletedSteps lists completed steps in form order.
func (d *Draft) CompletedSteps() []Step {
	out := make([]Step, 0, len(d.completed))
	for _, s := range d.steps {
		if d.completed[s] {
			out = append(out, s)
		}
	}
	return out
}

// SelectStage points the draft at a stage. The step list is re-derived,
// progress is cleared, and the category is pre-seeded from the summary.
// Field values are kept.
func (d *Draft) SelectStage(summary models.StageSlotSummary, requiresPhoto bool) {
	d.stageID = summary.StageID
	d.summary = &summary
	d.requiresPhoto = requiresPhoto
	d.steps = StepsFor(requiresPhoto)
	d.current = 0
	d.completed = map[Step]bool{}
	d.errors = FieldErrors{}
	d.Category = summary.DefaultCategory()
	if !requiresPhoto {
		d.photo = nil
	}
}

// RefreshSummary replaces the summary of the selected stage after a ledger
// refetch without touching progress.
func (d *Draft) RefreshSummary(summary models.StageSlotSummary) error {
	if d.summary == nil || summary.StageID != d.stageID {
		return dErrors.New(dErrors.CodeConflict, "summary belongs to a different stage")
	}
	d.summary = &summary
	return nil
}

// Advance validates the current step. On success the step is marked completed
// and the draft moves forward, staying put on the last step. On failure the
// errors are stored and returned and the index does not change.
func (d *Draft) Advance() FieldErrors {
	step := d.CurrentStep()
	errs := d.validator.Check(step, d)
	d.errors = errs
	if !errs.Empty() {
		delete(d.completed, step)
		return maps.Clone(errs)
	}
	d.completed[step] = true
	if d.current < len(d.steps)-1 {
		d.current++
	}
	return FieldErrors{}
}

// Retreat moves back one step, keeping marks and values.
func (d *Draft) Retreat() bool {
	if d.current == 0 {
		return false
	}
	d.current--
	d.errors = FieldErrors{}
	return true
}

// JumpTo moves to a completed step or the current one.
func (d *Draft) JumpTo(step Step) error {
	idx := slices.Index(d.steps, step)
	if idx < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "step "+string(step)+" is not part of this form")
	}
	if idx != d.current && !d.completed[step] {
		return dErrors.New(dErrors.CodeConflict, "step "+string(step)+" has not been completed yet")
	}
	d.current = idx
	d.errors = FieldErrors{}
	return nil
}

// ValidateAll re-runs every step rule regardless of completion marks. It
// returns a *models.ValidationError for the first failing step, whose mark is
// cleared; on success every step is marked completed.
func (d *Draft) ValidateAll() error {
	for i, step := range d.steps {
		errs := d.validator.Check(step, d)
		if errs.Empty() {
			continue
		}
		delete(d.completed, step)
		d.errors = errs
		return &models.ValidationError{Index: i, Step: string(step), Fields: maps.Clone(errs)}
	}
	for _, step := range d.steps {
		d.completed[step] = true
	}
	d.errors = FieldErrors{}
	return nil
}

// AttachPhoto stores the photo and records its sniffed content type. The
// photo is validated when the PhotoUpload step is advanced.
func (d *Draft) AttachPhoto(p models.Photo) error {
	if !d.requiresPhoto {
		return dErrors.New(dErrors.CodeBadRequest, "the selected stage does not take a photo")
	}
	p.ContentType = DetectPhotoType(p.Data)
	d.photo = &p
	delete(d.completed, StepPhotoUpload)
	return nil
}

func (d *Draft) RemovePhoto() {
	d.photo = nil
	delete(d.completed, StepPhotoUpload)
}

// Reset clears every value and progress mark for the next registrant. The
// stage stays selected and the category is re-seeded from the summary.
func (d *Draft) Reset() {
	d.current = 0
	d.completed = map[Step]bool{}
	d.errors = FieldErrors{}
	d.photo = nil
	d.Details = models.RegistrantDetails{}
	d.Category = ""
	if d.summary != nil {
		d.Category = d.summary.DefaultCategory()
	}
}
