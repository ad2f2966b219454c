package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ClosingWon(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockNotifier) RegistrationPending(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockNotifier) AccountApproved(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func encode(t *testing.T, msg Message) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestWorkerHandle(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	won := NewMessage(KindActivity, 5, at)
	won.EventType = "closing"
	won.Result = "won"
	won.Units = 12

	call := NewMessage(KindActivity, 5, at)
	call.EventType = "call"
	call.Result = "answered"

	reg := NewMessage(KindRegistrationPending, 9, at)

	n := new(MockNotifier)
	n.On("ClosingWon", mock.Anything, mock.MatchedBy(func(m Message) bool { return m.ID == won.ID })).Return(nil).Once()
	n.On("RegistrationPending", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	w := &Worker{Notifier: n, Log: logger.Nop()}

	assert.True(t, w.handle(context.Background(), encode(t, won)))
	assert.True(t, w.handle(context.Background(), encode(t, call)))
	assert.False(t, w.handle(context.Background(), encode(t, reg)))
	assert.False(t, w.handle(context.Background(), []byte("{broken")))
	assert.True(t, w.handle(context.Background(), encode(t, NewMessage("unknown", 1, at))))

	n.AssertExpectations(t)
	n.AssertNotCalled(t, "AccountApproved", mock.Anything, mock.Anything)
}

func TestNewMessage(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	a := NewMessage(KindAccountApproved, 3, at)
	b := NewMessage(KindAccountApproved, 3, at)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
	assert.NoError(t, (&LogProducer{Log: logger.Nop()}).Publish(context.Background(), a))
}
