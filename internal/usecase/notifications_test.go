package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

func TestClosingWonMailsTeamLead(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	teams := new(MockTeamRepository)
	leads := new(MockLeadRepository)
	mailer := new(MockMailer)

	leadUserID, teamID, leadID := int64(2), int64(3), int64(11)
	at := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	teams.On("FindByID", ctx, teamID).Return(&entity.Team{ID: teamID, LeadUserID: &leadUserID}, nil)
	users.On("FindByID", ctx, leadUserID).Return(&entity.User{ID: 2, FirstName: "Tom", Email: "tom@example.com"}, nil)
	users.On("FindByID", ctx, int64(7)).Return(&entity.User{ID: 7, FirstName: "Anna", LastName: "Berger"}, nil)
	leads.On("FindByID", ctx, leadID).Return(&entity.Lead{ID: leadID, FullName: "Familie Huber"}, nil)
	mailer.On("SendClosingWon", "tom@example.com", ClosingWonMail{
		RecipientName: "Tom", StarterName: "Anna Berger", LeadName: "Familie Huber", Units: 2.5, OccurredAt: at,
	}).Return(nil)

	msg := queue.NewMessage(queue.KindActivity, 7, at)
	msg.EventType, msg.Result, msg.Units = "closing", "won", 2.5
	msg.TeamID, msg.LeadID = &teamID, &leadID

	uc := NewNotificationUseCase(users, teams, leads, mailer, logger.Nop())
	require.NoError(t, uc.ClosingWon(ctx, msg))
	mailer.AssertExpectations(t)
}

func TestClosingWonSkipsTeamsWithoutLead(t *testing.T) {
	ctx := context.Background()
	teams := new(MockTeamRepository)
	mailer := new(MockMailer)
	teamID := int64(3)
	teams.On("FindByID", ctx, teamID).Return(&entity.Team{ID: teamID}, nil)

	msg := queue.NewMessage(queue.KindActivity, 7, time.Now())
	msg.TeamID = &teamID

	uc := NewNotificationUseCase(new(MockUserRepository), teams, new(MockLeadRepository), mailer, logger.Nop())
	require.NoError(t, uc.ClosingWon(ctx, msg))
	require.NoError(t, uc.ClosingWon(ctx, queue.NewMessage(queue.KindActivity, 7, time.Now())))
	mailer.AssertNotCalled(t, "SendClosingWon", mock.Anything, mock.Anything)
}

func TestRegistrationPendingMailsAllAdmins(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	mailer := new(MockMailer)

	role, status := entity.RoleAdmin, entity.UserActive
	users.On("FindByID", ctx, int64(9)).Return(&entity.User{ID: 9, FirstName: "Nina", LastName: "Neu", Email: "neu@example.com"}, nil)
	users.On("List", ctx, entity.UserFilter{Role: &role, Status: &status}).Return([]*entity.User{
		{ID: 1, FirstName: "Ada", Email: "ada@example.com"},
		{ID: 2, FirstName: "Bob", Email: "bob@example.com"},
	}, nil)
	mailer.On("SendRegistrationPending", "ada@example.com", mock.Anything).Return(nil)
	mailer.On("SendRegistrationPending", "bob@example.com", mock.Anything).Return(errors.New("smtp down"))

	uc := NewNotificationUseCase(users, new(MockTeamRepository), new(MockLeadRepository), mailer, logger.Nop())
	err := uc.RegistrationPending(ctx, queue.NewMessage(queue.KindRegistrationPending, 9, time.Now()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	mailer.AssertNumberOfCalls(t, "SendRegistrationPending", 2)
}

func TestAccountApprovedMailsUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	mailer := new(MockMailer)
	users.On("FindByID", ctx, int64(9)).Return(&entity.User{ID: 9, FirstName: "Nina", Email: "neu@example.com", Role: entity.RoleStarter}, nil)
	users.On("FindByID", ctx, int64(10)).Return(nil, entity.ErrUserNotFound)
	mailer.On("SendAccountApproved", "neu@example.com", mock.AnythingOfType("usecase.AccountApprovedMail")).Return(nil)

	uc := NewNotificationUseCase(users, new(MockTeamRepository), new(MockLeadRepository), mailer, logger.Nop())
	require.NoError(t, uc.AccountApproved(ctx, queue.NewMessage(queue.KindAccountApproved, 9, time.Now())))
	require.NoError(t, uc.AccountApproved(ctx, queue.NewMessage(queue.KindAccountApproved, 10, time.Now())))
	mailer.AssertNumberOfCalls(t, "SendAccountApproved", 1)
}
