package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/views"
)

// NotificationUseCase turns queue messages into mails. It implements
// queue.Notifier.
type NotificationUseCase struct {
	Users  entity.UserRepositoryInterface
	Teams  entity.TeamRepositoryInterface
	Leads  entity.LeadRepositoryInterface
	Mailer Mailer
	Log    logger.Logger
}

var _ queue.Notifier = (*NotificationUseCase)(nil)

func NewNotificationUseCase(users entity.UserRepositoryInterface, teams entity.TeamRepositoryInterface, leads entity.LeadRepositoryInterface, m Mailer, log logger.Logger) *NotificationUseCase {
	return &NotificationUseCase{Users: users, Teams: teams, Leads: leads, Mailer: m, Log: log}
}

// ClosingWon mails the team lead of the starter who closed the deal. Teams
// without a lead are skipped.
func (uc *NotificationUseCase) ClosingWon(ctx context.Context, msg queue.Message) error {
	if msg.TeamID == nil {
		return nil
	}
	team, err := uc.Teams.FindByID(ctx, *msg.TeamID)
	if errors.Is(err, entity.ErrTeamNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if team.LeadUserID == nil {
		uc.Log.Debug("team has no lead, closing not announced", "team_id", team.ID)
		return nil
	}
	leader, err := uc.Users.FindByID(ctx, *team.LeadUserID)
	if err != nil {
		return err
	}
	starter, err := uc.Users.FindByID(ctx, msg.UserID)
	if err != nil {
		return err
	}

	data := ClosingWonMail{
		RecipientName: leader.FirstName,
		StarterName:   starter.FullName(),
		Units:         msg.Units,
		OccurredAt:    msg.OccurredAt,
	}
	if msg.LeadID != nil {
		if lead, err := uc.Leads.FindByID(ctx, *msg.LeadID); err == nil {
			data.LeadName = lead.FullName
		}
	}
	return uc.Mailer.SendClosingWon(leader.Email, data)
}

// RegistrationPending mails every active admin.
func (uc *NotificationUseCase) RegistrationPending(ctx context.Context, msg queue.Message) error {
	u, err := uc.Users.FindByID(ctx, msg.UserID)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	role, status := entity.RoleAdmin, entity.UserActive
	admins, err := uc.Users.List(ctx, entity.UserFilter{Role: &role, Status: &status})
	if err != nil {
		return err
	}

	var errs []error
	for _, a := range admins {
		err := uc.Mailer.SendRegistrationPending(a.Email, RegistrationMail{
			RecipientName: a.FirstName,
			UserName:      u.FullName(),
			UserEmail:     u.Email,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (uc *NotificationUseCase) AccountApproved(ctx context.Context, msg queue.Message) error {
	u, err := uc.Users.FindByID(ctx, msg.UserID)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return uc.Mailer.SendAccountApproved(u.Email, AccountApprovedMail{
		RecipientName: u.FirstName,
		Role:          views.RoleLabel(u.Role),
	})
}
