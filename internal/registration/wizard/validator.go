package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"examboard/internal/registration/models"
)

// MaxPhotoBytes is the largest photo the PhotoUpload step accepts.
const MaxPhotoBytes = 1 << 20

// Field keys reported by the step rules that are not struct fields.
const (
	FieldStage              = "stage_id"
	FieldCategory           = "category"
	FieldRegistrationNumber = "registration_number"
	FieldPhoto              = "photo_file"
)

var allowedPhotoTypes = []string{"image/jpeg", "image/png"}

const (
	notBlankTag  = "notblank"
	requiredText = "this field is required"
	notBlankText = "this field cannot be blank"
)

// Validator holds the per-step rules. It is safe for concurrent use and is
// shared by every draft.
type Validator struct {
	validate      *validator.Validate
	translator    ut.Translator
	maxPhotoBytes int
}

type ValidatorOption func(*Validator)

// WithMaxPhotoBytes lowers the photo size limit. Values above MaxPhotoBytes
// are ignored.
func WithMaxPhotoBytes(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 && n <= MaxPhotoBytes {
			v.maxPhotoBytes = n
		}
	}
}

func NewValidator(opts ...ValidatorOption) *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names so keys match the request payload.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation(notBlankTag, notBlank)

	// The translator was already initialised by the default set, so the
	// register step is a no-op.
	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{"required", notBlankTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateOverride)
	}

	v := &Validator{validate: validate, translator: translator, maxPhotoBytes: MaxPhotoBytes}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check runs the rule of a single step against the draft.
func (v *Validator) Check(step Step, d *Draft) FieldErrors {
	switch step {
	case StepPrimaryInfo:
		return v.primaryInfo(d)
	case StepFatherInfo:
		return v.fields(d.Details.Father, "father_")
	case StepMotherInfo:
		return v.fields(d.Details.Mother, "mother_")
	case StepPriorExamHistory:
		return FieldErrors{}
	case StepPhotoUpload:
		return v.photo(d.photo)
	default:
		return FieldErrors{"step": fmt.Sprintf("unknown step %q", step)}
	}
}

func (v *Validator) primaryInfo(d *Draft) FieldErrors {
	errs := v.fields(d.Details.Primary, "")

	if d.summary == nil {
		errs[FieldStage] = "select a stage first"
		return errs
	}
	switch {
	case d.Category == "":
		errs[FieldCategory] = "select a category"
	case !d.Category.IsValid():
		errs[FieldCategory] = "unknown category"
	case d.summary.Available(d.Category) <= 0:
		errs[FieldCategory] = fmt.Sprintf("no %s seats left for this stage", d.Category)
	}
	if d.summary.NextFreeNumber.IsExhausted() {
		errs[FieldRegistrationNumber] = fmt.Sprintf("every registration number in %s is taken", d.summary.DisplayRange())
	}
	return errs
}

func (v *Validator) photo(p *models.Photo) FieldErrors {
	errs := FieldErrors{}
	switch {
	case p == nil || len(p.Data) == 0:
		errs[FieldPhoto] = "a photo is required for this stage"
	case len(p.Data) > v.maxPhotoBytes:
		errs[FieldPhoto] = fmt.Sprintf("photo must be at most %d KiB", v.maxPhotoBytes/1024)
	case !allowedPhoto(p.Data):
		errs[FieldPhoto] = "photo must be a JPEG or PNG image"
	}
	return errs
}

func (v *Validator) fields(s any, prefix string) FieldErrors {
	errs := FieldErrors{}
	err := v.validate.Struct(s)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[prefix+"form"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		errs[prefix+fe.Field()] = fe.Translate(v.translator)
	}
	return errs
}

// DetectPhotoType sniffs the content type from the photo bytes.
func DetectPhotoType(data []byte) string {
	return mimetype.Detect(data).String()
}

func allowedPhoto(data []byte) bool {
	mt := mimetype.Detect(data)
	for _, allowed := range allowedPhotoTypes {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func translateOverride(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredText
	case notBlankTag:
		return notBlankText
	default:
		return fe.Error()
	}
}
