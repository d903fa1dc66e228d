package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"examboard/internal/registration/models"
	"examboard/internal/registration/ports/mocks"
	id "examboard/pkg/domain"
)

func record() *models.RegistrantRecord {
	return &models.RegistrantRecord{
		ID:                 id.RegistrantID(uuid.New()),
		ExamID:             id.ExamID(uuid.New()),
		InstitutionID:      id.InstitutionID(uuid.New()),
		QuotaRecordID:      id.QuotaRecordID(uuid.New()),
		StageID:            id.StageID(uuid.New()),
		RegistrationNumber: 2041,
		Details: models.RegistrantDetails{
			Primary: models.PrimaryInfo{FullName: "Private Person", NationalID: "SECRET1"},
		},
		CreatedAt: time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestPayloadOmitsRegistrantDetails(t *testing.T) {
	r := record()
	body, err := json.Marshal(fromRecord(r))
	require.NoError(t, err)

	assert.NotContains(t, string(body), "Private Person")
	assert.NotContains(t, string(body), "SECRET1")

	var ev LedgerChanged
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, TypeRegistrantCreated, ev.Type)
	assert.Equal(t, r.ExamID, ev.ExamID)
	assert.Equal(t, 2041, ev.RegistrationNumber)
}

func TestPartitionKeyGroupsByInstitution(t *testing.T) {
	r := record()
	assert.Equal(t, partitionKey(r.ExamID, r.InstitutionID), partitionKey(r.ExamID, r.InstitutionID))
	assert.NotEqual(t, partitionKey(r.ExamID, r.InstitutionID), partitionKey(r.ExamID, id.InstitutionID(uuid.New())))
}

func TestSubscriberInvalidatesChangedLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockLedgerInvalidator(ctrl)
	s := &Subscriber{invalidator: inv, logger: slog.New(slog.DiscardHandler)}

	r := record()
	body, err := json.Marshal(fromRecord(r))
	require.NoError(t, err)

	inv.EXPECT().Invalidate(gomock.Any(), r.ExamID, r.InstitutionID).Return(errors.New("redis down"))
	s.handle(context.Background(), body)

	// malformed and foreign events are skipped
	s.handle(context.Background(), []byte("{"))
	s.handle(context.Background(), []byte(`{"type":"quota_reissued"}`))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, Nop{}.PublishRegistrantCreated(context.Background(), record()))
}

func TestConstructorsRequireBrokers(t *testing.T) {
	_, err := NewProducer(nil, "t")
	assert.Error(t, err)
	_, err = NewSubscriber(nil, "t", nil, nil)
	assert.Error(t, err)
}
