package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

var adminActor = &entity.User{ID: 1, Role: entity.RoleAdmin, Status: entity.UserActive}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	teamID := int64(3)

	t.Run("activates pending user", func(t *testing.T) {
		users := new(MockUserRepository)
		teams := new(MockTeamRepository)
		audit := new(MockAuditRepository)
		pub := new(MockPublisher)

		pending := &entity.User{ID: 9, Email: "neu@example.com", Role: entity.RoleStarter, Status: entity.UserPending}
		users.On("FindByID", ctx, int64(9)).Return(pending, nil)
		teams.On("FindByID", ctx, teamID).Return(&entity.Team{ID: teamID}, nil)
		users.On("Update", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
		audit.On("Create", ctx, auditAction(entity.AuditUpdate)).Return(nil)
		pub.On("Publish", ctx, mock.MatchedBy(func(m queue.Message) bool {
			return m.Kind == queue.KindAccountApproved && m.UserID == 9
		})).Return(nil)

		uc := NewAdminUseCase(users, teams, audit, pub, nil, 4, logger.Nop())
		u, err := uc.Approve(ctx, adminActor, 9, ApproveInput{Role: entity.RoleTeamleiter, TeamID: &teamID, AdminNotes: "ok"})
		require.NoError(t, err)

		assert.Equal(t, entity.UserActive, u.Status)
		assert.Equal(t, entity.RoleTeamleiter, u.Role)
		assert.Equal(t, &teamID, u.TeamID)
		assert.Equal(t, &adminActor.ID, u.ApprovedByID)
		assert.NotNil(t, u.ApprovedAt)
		pub.AssertExpectations(t)
		audit.AssertExpectations(t)
	})

	t.Run("rejects users that are not pending", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, int64(9)).Return(&entity.User{ID: 9, Status: entity.UserActive}, nil)

		uc := NewAdminUseCase(users, new(MockTeamRepository), new(MockAuditRepository), nil, nil, 4, logger.Nop())
		_, err := uc.Approve(ctx, adminActor, 9, ApproveInput{})
		assertDomainError(t, err, CodeValidation, msgNotPending)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown team", func(t *testing.T) {
		users := new(MockUserRepository)
		teams := new(MockTeamRepository)
		users.On("FindByID", ctx, int64(9)).Return(&entity.User{ID: 9, Status: entity.UserPending}, nil)
		teams.On("FindByID", ctx, teamID).Return(nil, entity.ErrTeamNotFound)

		uc := NewAdminUseCase(users, teams, new(MockAuditRepository), nil, nil, 4, logger.Nop())
		_, err := uc.Approve(ctx, adminActor, 9, ApproveInput{TeamID: &teamID})
		assertDomainError(t, err, CodeNotFound, msgTeamNotFound)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	audit := new(MockAuditRepository)

	users.On("FindByID", ctx, int64(9)).Return(&entity.User{ID: 9, Status: entity.UserPending}, nil)
	users.On("Update", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	audit.On("Create", ctx, auditAction(entity.AuditUpdate)).Return(nil)

	uc := NewAdminUseCase(users, new(MockTeamRepository), audit, nil, nil, 4, logger.Nop())
	u, err := uc.Reject(ctx, adminActor, 9, RejectInput{Reason: " keine Gewerbeanmeldung "})
	require.NoError(t, err)
	assert.Equal(t, entity.UserInactive, u.Status)
	assert.Equal(t, "Abgelehnt: keine Gewerbeanmeldung", u.AdminNotes)

	_, err = uc.Reject(ctx, adminActor, 9, RejectInput{})
	var verrs entity.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("reason"))
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	audit := new(MockAuditRepository)
	users.On("FindByID", ctx, int64(1)).Return(adminActor, nil)
	users.On("FindByID", ctx, int64(5)).Return(&entity.User{ID: 5}, nil)
	users.On("FindByID", ctx, int64(6)).Return(nil, entity.ErrUserNotFound)
	users.On("Delete", ctx, int64(5)).Return(nil)
	audit.On("Create", ctx, auditAction(entity.AuditDelete)).Return(nil)

	uc := NewAdminUseCase(users, new(MockTeamRepository), audit, nil, nil, 4, logger.Nop())

	assertDomainError(t, uc.DeleteUser(ctx, adminActor, 1), CodeValidation, msgSelfDelete)
	assertDomainError(t, uc.DeleteUser(ctx, adminActor, 6), CodeNotFound, msgUserNotFound)
	require.NoError(t, uc.DeleteUser(ctx, adminActor, 5))
	users.AssertNumberOfCalls(t, "Delete", 1)
}

func TestListUsersPaginates(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	all := []*entity.User{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	users.On("List", ctx, entity.UserFilter{}).Return(all, nil)

	uc := NewAdminUseCase(users, new(MockTeamRepository), new(MockAuditRepository), nil, nil, 4, logger.Nop())

	page, err := uc.ListUsers(ctx, UserListQuery{Skip: 3})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, int64(4), page[0].ID)

	page, err = uc.ListUsers(ctx, UserListQuery{Skip: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = uc.ListUsers(ctx, UserListQuery{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, page)

	all[1].FirstName = "Zora"
	page, err = uc.ListUsers(ctx, UserListQuery{Search: "zora"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)

	_, err = uc.ListUsers(ctx, UserListQuery{Limit: 101})
	assertDomainError(t, err, CodeValidation, "limit muss zwischen 1 und 100 liegen")
}

func TestCreateUserAndTeamConflicts(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	teams := new(MockTeamRepository)
	users.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(entity.ErrEmailAlreadyExists)
	teams.On("Create", ctx, mock.AnythingOfType("*entity.Team")).Return(entity.ErrTeamNameTaken)

	uc := NewAdminUseCase(users, teams, new(MockAuditRepository), nil, nil, 4, logger.Nop())

	_, err := uc.CreateUser(ctx, adminActor, UserCreateInput{
		Email: "doppelt@example.com", Password: "sicher123", FirstName: "Doppelt", LastName: "Vorhanden",
	})
	assertDomainError(t, err, CodeValidation, msgEmailTaken)

	name := "Team Nord"
	_, err = uc.CreateTeam(ctx, adminActor, TeamInput{Name: &name})
	assertDomainError(t, err, CodeConflict, "Teamname bereits vergeben")

	_, err = uc.CreateUser(ctx, adminActor, UserCreateInput{
		Email: "x@example.com", Password: "sicher123", FirstName: "X", LastName: "Y", Role: "chef",
	})
	assertDomainError(t, err, CodeValidation, "role ist ungültig")
}

func TestMembershipChangesDropKPICache(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	teams := new(MockTeamRepository)
	audit := new(MockAuditRepository)
	kv := new(MockCache)

	users.On("FindByID", ctx, int64(5)).Return(&entity.User{ID: 5, FirstName: "Alt", Role: entity.RoleStarter, Status: entity.UserActive}, nil)
	users.On("Update", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	users.On("Delete", ctx, int64(5)).Return(nil)
	teams.On("FindByID", ctx, int64(3)).Return(&entity.Team{ID: 3, Name: "Nord"}, nil)
	teams.On("Update", ctx, mock.AnythingOfType("*entity.Team")).Return(nil)
	teams.On("Delete", ctx, int64(3)).Return(nil)
	audit.On("Create", ctx, mock.Anything).Return(nil)
	kv.On("InvalidateGroup", ctx, groupKPIs).Return(nil)

	uc := NewAdminUseCase(users, teams, audit, nil, kv, 4, logger.Nop())

	// Nothing changed, nothing to drop.
	starter := entity.RoleStarter
	_, err := uc.UpdateUser(ctx, adminActor, 5, UserUpdateInput{Role: &starter})
	require.NoError(t, err)
	kv.AssertNotCalled(t, "InvalidateGroup", mock.Anything, mock.Anything)

	teamleiter := entity.RoleTeamleiter
	_, err = uc.UpdateUser(ctx, adminActor, 5, UserUpdateInput{Role: &teamleiter})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteUser(ctx, adminActor, 5))

	name := "Süd"
	_, err = uc.UpdateTeam(ctx, adminActor, 3, TeamInput{Name: &name})
	require.NoError(t, err)
	require.NoError(t, uc.DeleteTeam(ctx, adminActor, 3))

	kv.AssertNumberOfCalls(t, "InvalidateGroup", 4)
}
