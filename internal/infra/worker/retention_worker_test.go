package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, l *entity.AuditLog) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, f entity.AuditFilter) ([]*entity.AuditLog, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.AuditLog), args.Error(1)
}

func (m *MockAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestPurgeUsesRetentionWindow(t *testing.T) {
	repo := new(MockAuditRepository)
	w := NewRetentionWorker(repo, 90, logger.Nop())
	now := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	repo.On("DeleteOlderThan", mock.Anything, now.AddDate(0, 0, -90)).Return(int64(12), nil).Once()
	assert.Equal(t, int64(12), w.Purge(context.Background()))
	repo.AssertExpectations(t)
}

func TestPurgeSwallowsErrors(t *testing.T) {
	repo := new(MockAuditRepository)
	w := NewRetentionWorker(repo, 30, logger.Nop())

	repo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	assert.Zero(t, w.Purge(context.Background()))
}

func TestRetentionScheduleIsDailyAtThree(t *testing.T) {
	sched, err := cron.ParseStandard(RetentionSchedule)
	require.NoError(t, err)

	from := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 6, 2, 3, 0, 0, 0, time.UTC), sched.Next(from))
}

func TestStartStop(t *testing.T) {
	w := NewRetentionWorker(new(MockAuditRepository), 30, logger.Nop())
	require.NoError(t, w.Start())
	w.Stop()
}
