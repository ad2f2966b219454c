package activity

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateLead(ctx context.Context, in LeadInput) (*entity.Lead, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockBackend) CreateCall(ctx context.Context, in CallInput) (*entity.CallEvent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CallEvent), args.Error(1)
}

func (m *MockBackend) CreateAppointment(ctx context.Context, in AppointmentInput) (*entity.AppointmentEvent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AppointmentEvent), args.Error(1)
}

func (m *MockBackend) CreateClosing(ctx context.Context, in ClosingInput) (*entity.ClosingEvent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ClosingEvent), args.Error(1)
}

func (m *MockBackend) UpdateLeadStatus(ctx context.Context, leadID int64, in StatusInput) (*entity.Lead, error) {
	args := m.Called(ctx, leadID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

type MockCalendar struct {
	mock.Mock
}

func (m *MockCalendar) LeadCalendar(ctx context.Context, leadID int64) ([]entity.CalendarEntry, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CalendarEntry), args.Error(1)
}
