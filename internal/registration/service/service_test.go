package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"examboard/internal/registration/metrics"
	"examboard/internal/registration/models"
	"examboard/internal/registration/ports/mocks"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	dErrors "examboard/pkg/domain-errors"
	"examboard/pkg/platform/audit"
	"examboard/pkg/platform/sentinel"
	"examboard/pkg/requestcontext"
)

var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	quotas      *mocks.MockQuotaLookup
	ledger      *mocks.MockLedgerQuery
	allocator   *mocks.MockAllocator
	uploader    *mocks.MockUploader
	invalidator *mocks.MockLedgerInvalidator
	events      *mocks.MockEventPublisher
	auditor     *mocks.MockAuditPublisher
	metrics     *metrics.Metrics
	service     *Service
	validator   *wizard.Validator

	scope      Scope
	stageID    id.StageID
	photoStage id.StageID
	operatorID id.OperatorID
	quota      models.QuotaRecord
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.quotas = mocks.NewMockQuotaLookup(s.ctrl)
	s.ledger = mocks.NewMockLedgerQuery(s.ctrl)
	s.allocator = mocks.NewMockAllocator(s.ctrl)
	s.uploader = mocks.NewMockUploader(s.ctrl)
	s.invalidator = mocks.NewMockLedgerInvalidator(s.ctrl)
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.validator = wizard.NewValidator()

	var err error
	s.service, err = New(s.quotas, s.ledger, s.allocator,
		WithUploader(s.uploader),
		WithLedgerInvalidator(s.invalidator),
		WithEventPublisher(s.events),
		WithAuditPublisher(s.auditor),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	s.scope = Scope{
		ExamID:        id.ExamID(uuid.New()),
		InstitutionID: id.InstitutionID(uuid.New()),
		QuotaRecordID: id.QuotaRecordID(uuid.New()),
	}
	s.stageID = id.StageID(uuid.New())
	s.photoStage = id.StageID(uuid.New())
	s.operatorID = id.OperatorID(uuid.New())
	s.quota = models.QuotaRecord{
		ID:            s.scope.QuotaRecordID,
		ExamID:        s.scope.ExamID,
		InstitutionID: s.scope.InstitutionID,
		StageAllocations: []models.StageAllocation{
			{StageID: s.stageID, RegularSeats: 2, NumberRangeStart: models.IntPtr(101), NumberRangeEnd: models.IntPtr(102)},
			{StageID: s.photoStage, RegularSeats: 1, IrregularSeats: 1, RequiresPhoto: true},
		},
	}
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithOperatorID(context.Background(), s.operatorID)
}

func (s *ServiceSuite) expectSnapshot(registrants ...models.RegistrantRecord) {
	s.quotas.EXPECT().FetchQuotaRecords(gomock.Any(), s.scope.ExamID, s.scope.InstitutionID).
		Return([]models.QuotaRecord{s.quota}, nil)
	s.ledger.EXPECT().FetchRegistrants(gomock.Any(), s.scope.ExamID, s.scope.InstitutionID).
		Return(registrants, nil)
}

// readyDraft returns a draft for stage that passes full-form validation.
func (s *ServiceSuite) readyDraft(stage id.StageID) *wizard.Draft {
	s.expectSnapshot()
	d := wizard.New(s.validator)
	_, err := s.service.OpenStage(s.ctx(), d, s.scope, stage)
	s.Require().NoError(err)
	d.Details = models.RegistrantDetails{
		Primary: models.PrimaryInfo{FullName: "Maryam Khatun", DateOfBirth: "2010-09-02", NationalID: "20101234501"},
		Father:  models.GuardianInfo{Name: "Nurul Islam"},
		Mother:  models.GuardianInfo{Name: "Rokeya Begum"},
	}
	return d
}

func (s *ServiceSuite) committed(req models.AllocationRequest, number int) *models.RegistrantRecord {
	return &models.RegistrantRecord{
		ID:                 id.RegistrantID(uuid.New()),
		QuotaRecordID:      req.QuotaRecordID,
		ExamID:             s.scope.ExamID,
		InstitutionID:      s.scope.InstitutionID,
		StageID:            req.StageID,
		Category:           req.Category,
		RegistrationNumber: number,
		Details:            req.Details,
		PhotoURL:           req.PhotoURL,
		CreatedBy:          req.OperatorID,
		CreatedAt:          time.Now(),
	}
}

// =============================================================================
// Summaries
// =============================================================================

func (s *ServiceSuite) TestOverview() {
	s.expectSnapshot(models.RegistrantRecord{StageID: s.stageID, Category: id.CategoryRegular, RegistrationNumber: 101})

	got, err := s.service.Overview(s.ctx(), s.scope)

	s.Require().NoError(err)
	s.Require().Len(got.Summaries, 2)
	s.Equal(1, got.Summaries[0].AvailableRegular)
	s.Equal(models.Number(102), got.Summaries[0].NextFreeNumber)
	s.Equal(models.NextNumberUnbounded, got.Summaries[1].NextFreeNumber.Kind)
}

func (s *ServiceSuite) TestLoadStageErrors() {
	s.Run("unknown stage", func() {
		s.expectSnapshot()
		_, err := s.service.LoadStage(s.ctx(), s.scope, id.StageID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown quota record", func() {
		s.expectSnapshot()
		scope := s.scope
		scope.QuotaRecordID = id.QuotaRecordID(uuid.New())
		_, err := s.service.LoadStage(s.ctx(), scope, s.stageID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("ledger unavailable", func() {
		s.quotas.EXPECT().FetchQuotaRecords(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]models.QuotaRecord{s.quota}, nil).AnyTimes()
		s.ledger.EXPECT().FetchRegistrants(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, sentinel.ErrUnavailable)
		_, err := s.service.LoadStage(s.ctx(), s.scope, s.stageID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestOpenStageResolvesPhotoRequirement() {
	s.expectSnapshot()
	d := wizard.New(s.validator)

	view, err := s.service.OpenStage(s.ctx(), d, s.scope, s.photoStage)

	s.Require().NoError(err)
	s.True(view.Allocation.RequiresPhoto)
	s.True(d.RequiresPhoto())
	s.Contains(d.Steps(), wizard.StepPhotoUpload)
	s.Equal(id.CategoryRegular, d.Category)
}

func (s *ServiceSuite) TestRefreshStageKeepsProgress() {
	d := s.readyDraft(s.stageID)
	s.Require().Empty(d.Advance())

	s.expectSnapshot(
		models.RegistrantRecord{StageID: s.stageID, Category: id.CategoryRegular, RegistrationNumber: 101},
		models.RegistrantRecord{StageID: s.stageID, Category: id.CategoryRegular, RegistrationNumber: 102},
	)
	view, err := s.service.RefreshStage(s.ctx(), d, s.scope)

	s.Require().NoError(err)
	s.True(view.Summary.NextFreeNumber.IsExhausted())
	s.Equal(1, d.CurrentIndex())
}

// =============================================================================
// Submit
// =============================================================================

func (s *ServiceSuite) TestSubmitValidationFailureCallsNoCollaborator() {
	d := s.readyDraft(s.stageID)
	d.Details.Mother.Name = ""

	// No allocator or uploader expectations: any call fails the test.
	_, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.stageID)

	var verr *models.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal(2, verr.StepIndex())
	s.Contains(verr.FieldErrors(), "mother_name")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SubmitValidationFail.WithLabelValues(string(wizard.StepMotherInfo))))
}

func (s *ServiceSuite) TestSubmitRejectsDraftForAnotherStage() {
	d := s.readyDraft(s.stageID)

	_, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.photoStage)

	var verr *models.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Contains(verr.Fields, wizard.FieldStage)
}

func (s *ServiceSuite) TestSubmitSuccess() {
	d := s.readyDraft(s.stageID)
	var emitted []audit.Event

	s.allocator.EXPECT().CreateRegistrant(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.AllocationRequest) (*models.RegistrantRecord, error) {
			s.Equal(s.scope.QuotaRecordID, req.QuotaRecordID)
			s.Equal(s.stageID, req.StageID)
			s.Equal(id.CategoryRegular, req.Category)
			s.Equal("Maryam Khatun", req.Details.Primary.FullName)
			s.Equal(s.operatorID, req.OperatorID)
			s.Empty(req.PhotoURL)
			return s.committed(req, 101), nil
		})
	s.invalidator.EXPECT().Invalidate(gomock.Any(), s.scope.ExamID, s.scope.InstitutionID).Return(nil)
	s.events.EXPECT().PublishRegistrantCreated(gomock.Any(), gomock.Any()).Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e audit.Event) error {
			emitted = append(emitted, e)
			return nil
		})

	record, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.stageID)

	s.Require().NoError(err)
	s.Equal(101, record.RegistrationNumber)
	s.Equal(0, d.CurrentIndex())
	s.Empty(d.Details.Primary.FullName, "draft is reset for the next registrant")
	s.Require().Len(emitted, 1)
	s.Equal(string(audit.EventRegistrantCreated), emitted[0].Action)
	s.Equal(s.operatorID, emitted[0].OperatorID)
	s.Equal(101, emitted[0].RegistrationNumber)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AllocationsCreated))
}

func (s *ServiceSuite) TestSubmitUploadsPhotoFirst() {
	d := s.readyDraft(s.photoStage)
	s.Require().NoError(d.AttachPhoto(models.Photo{Filename: "face.jpg", Data: jpegBytes}))

	gomock.InOrder(
		s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("https://cdn.example/photos/1.jpg", nil),
		s.allocator.EXPECT().CreateRegistrant(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.AllocationRequest) (*models.RegistrantRecord, error) {
				s.Equal("https://cdn.example/photos/1.jpg", req.PhotoURL)
				return s.committed(req, 1), nil
			}),
	)
	s.invalidator.EXPECT().Invalidate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.events.EXPECT().PublishRegistrantCreated(gomock.Any(), gomock.Any()).Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	record, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.photoStage)

	s.Require().NoError(err)
	s.Equal("https://cdn.example/photos/1.jpg", record.PhotoURL)
	s.Nil(d.Photo())
}

func (s *ServiceSuite) TestSubmitUploadFailure() {
	d := s.readyDraft(s.photoStage)
	s.Require().NoError(d.AttachPhoto(models.Photo{Filename: "face.jpg", Data: jpegBytes}))
	s.Require().NoError(d.JumpTo(wizard.StepPrimaryInfo))

	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("", errors.New("bucket unreachable"))
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventPhotoUploadFailed), e.Action)
			return nil
		})

	_, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.photoStage)

	var uerr *models.UploadError
	s.Require().True(errors.As(err, &uerr))
	s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))
	s.Equal(wizard.StepPhotoUpload, d.CurrentStep())
	s.Equal("Maryam Khatun", d.Details.Primary.FullName)
	s.NotNil(d.Photo())
}

func (s *ServiceSuite) TestSubmitWithoutUploaderFails() {
	svc, err := New(s.quotas, s.ledger, s.allocator)
	s.Require().NoError(err)
	d := s.readyDraft(s.photoStage)
	s.Require().NoError(d.AttachPhoto(models.Photo{Data: jpegBytes}))

	_, err = svc.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.photoStage)

	s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))
}

func (s *ServiceSuite) TestSubmitAllocationRejectedVerbatim() {
	d := s.readyDraft(s.stageID)
	rejection := models.NewAllocationError(models.ReasonDuplicateNumber, "registration number 101 is already taken")

	s.allocator.EXPECT().CreateRegistrant(gomock.Any(), gomock.Any()).Return(nil, rejection).Times(1)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.stageID)

	var aerr *models.AllocationError
	s.Require().True(errors.As(err, &aerr))
	s.Same(rejection, aerr)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("Maryam Khatun", d.Details.Primary.FullName, "draft is kept for the operator")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AllocationsRejected.WithLabelValues(string(models.ReasonDuplicateNumber))))
}

func (s *ServiceSuite) TestSubmitTransportFailure() {
	d := s.readyDraft(s.stageID)

	s.allocator.EXPECT().CreateRegistrant(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.stageID)

	var aerr *models.AllocationError
	s.Require().True(errors.As(err, &aerr))
	s.Equal(models.ReasonTransport, aerr.Reason)
	s.ErrorIs(err, context.DeadlineExceeded)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestSubmitSideEffectFailuresAreNotFatal() {
	d := s.readyDraft(s.stageID)

	s.allocator.EXPECT().CreateRegistrant(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.AllocationRequest) (*models.RegistrantRecord, error) {
			return s.committed(req, 102), nil
		})
	s.invalidator.EXPECT().Invalidate(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	s.events.EXPECT().PublishRegistrantCreated(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit full"))

	record, err := s.service.Submit(s.ctx(), d, s.scope.QuotaRecordID, s.stageID)

	s.Require().NoError(err)
	s.Equal(102, record.RegistrationNumber)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}
