package ledgercache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"examboard/internal/platform/redis"
	"examboard/internal/registration/metrics"
	"examboard/internal/registration/models"
	"examboard/internal/registration/ports/mocks"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/circuit"
)

// unreachable returns a client whose every command fails fast.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	raw := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = raw.Close() })
	return redis.Wrap(raw, "test")
}

func TestNewRequiresCollaborators(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := New(nil, mocks.NewMockLedgerQuery(ctrl))
	assert.Error(t, err)

	_, err = New(unreachable(t), nil)
	assert.Error(t, err)
}

func TestRedisOutageFallsBackToLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerQuery(ctrl)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	breaker := circuit.New("test", circuit.WithFailureThreshold(2))

	cache, err := New(unreachable(t), ledger, WithMetrics(m), WithBreaker(breaker))
	require.NoError(t, err)

	examID := id.ExamID(uuid.New())
	instID := id.InstitutionID(uuid.New())
	want := []models.RegistrantRecord{{ExamID: examID, InstitutionID: instID, RegistrationNumber: 7}}
	ledger.EXPECT().FetchRegistrants(gomock.Any(), examID, instID).Return(want, nil).Times(3)

	for range 3 {
		got, err := cache.FetchRegistrants(context.Background(), examID, instID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.True(t, breaker.IsOpen())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LedgerCacheLookups.WithLabelValues("error")))
}

func TestInvalidateReportsRedisErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache, err := New(unreachable(t), mocks.NewMockLedgerQuery(ctrl))
	require.NoError(t, err)

	err = cache.Invalidate(context.Background(), id.ExamID(uuid.New()), id.InstitutionID(uuid.New()))
	assert.ErrorContains(t, err, "invalidate ledger snapshot")
}

func TestKeyIsScopedByExamAndInstitution(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache, err := New(unreachable(t), mocks.NewMockLedgerQuery(ctrl))
	require.NoError(t, err)

	examID := id.ExamID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	instID := id.InstitutionID(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
	assert.Equal(t,
		"test:ledger:11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222",
		cache.key(examID, instID))
}
