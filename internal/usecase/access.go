package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

// noTeam matches no row; teamleiters without a team see nothing.
const noTeam int64 = 0

// leadScope returns the leads the actor may list.
func leadScope(u *entity.User) entity.LeadScope {
	switch u.Role {
	case entity.RoleAdmin:
		return entity.LeadScope{}
	case entity.RoleTeamleiter:
		team := noTeam
		if u.TeamID != nil {
			team = *u.TeamID
		}
		return entity.LeadScope{TeamID: &team}
	default:
		id := u.ID
		return entity.LeadScope{OwnerUserID: &id}
	}
}

func ensureLeadAccess(u *entity.User, l *entity.Lead) error {
	switch u.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleTeamleiter:
		if u.TeamID == nil || *u.TeamID != l.TeamID {
			return forbidden(msgNoAccess)
		}
		return nil
	}
	if l.OwnerUserID != u.ID {
		return forbidden(msgNoAccess)
	}
	return nil
}

func accessibleLead(ctx context.Context, repo entity.LeadRepositoryInterface, id int64, u *entity.User) (*entity.Lead, error) {
	l, err := repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, notFound(msgLeadNotFound)
	}
	if err != nil {
		return nil, technical("load lead", err)
	}
	if err := ensureLeadAccess(u, l); err != nil {
		return nil, err
	}
	return l, nil
}

// RequireRoles fails with a forbidden error unless u has one of roles.
func RequireRoles(u *entity.User, roles ...entity.UserRole) error {
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return forbidden(msgNoPermission)
}
