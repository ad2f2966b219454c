package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/views"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

type UserListQuery struct {
	Skip   int
	Limit  int
	Status *entity.UserStatus
	Role   *entity.UserRole

	// Search and sorting are applied before the page is cut.
	Search  string
	SortKey views.MemberSortKey
	Desc    bool
}

type UserCreateInput struct {
	Email     string          `json:"email" validate:"required,email,max=255"`
	Password  string          `json:"password" validate:"required,min=8,max=128"`
	FirstName string          `json:"firstName" validate:"required,max=100"`
	LastName  string          `json:"lastName" validate:"required,max=100"`
	Role      entity.UserRole `json:"role"`
	TeamID    *int64          `json:"teamId"`
}

type UserUpdateInput struct {
	Email     *string            `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string            `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string            `json:"lastName" validate:"omitempty,max=100"`
	Role      *entity.UserRole   `json:"role"`
	Status    *entity.UserStatus `json:"status"`
	TeamID    *int64             `json:"teamId"`
}

type ApproveInput struct {
	Role       entity.UserRole `json:"role"`
	TeamID     *int64          `json:"teamId"`
	StartDate  *time.Time      `json:"startDate"`
	AdminNotes string          `json:"adminNotes" validate:"max=1000"`
}

type RejectInput struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type TeamInput struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	LeadUserID *int64  `json:"leadUserId"`
}

type AuditQuery struct {
	Skip   int
	Limit  int
	Action *entity.AuditAction
	UserID *int64
}

// AdminUseCase manages accounts, teams and the audit trail. Callers are
// expected to be admins; the router enforces it.
type AdminUseCase struct {
	Users      entity.UserRepositoryInterface
	Teams      entity.TeamRepositoryInterface
	Audit      entity.AuditRepositoryInterface
	Publisher  Publisher
	// Cache holds KPI results built from team and role membership.
	Cache      Cache
	BcryptCost int
	Log        logger.Logger
	Now        func() time.Time
}

func NewAdminUseCase(users entity.UserRepositoryInterface, teams entity.TeamRepositoryInterface, audit entity.AuditRepositoryInterface, pub Publisher, cache Cache, bcryptCost int, log logger.Logger) *AdminUseCase {
	return &AdminUseCase{Users: users, Teams: teams, Audit: audit, Publisher: pub, Cache: cache, BcryptCost: bcryptCost, Log: log, Now: time.Now}
}

func (uc *AdminUseCase) auditor() auditor {
	return auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}
}

func (uc *AdminUseCase) dropKPIs(ctx context.Context) {
	invalidate(ctx, uc.Cache, uc.Log, groupKPIs)
}

func pageBounds(skip, limit int) (int, int, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if skip < 0 {
		return 0, 0, invalid("skip muss >= 0 sein")
	}
	if limit < 1 || limit > MaxPageLimit {
		return 0, 0, invalid("limit muss zwischen 1 und 100 liegen")
	}
	return skip, limit, nil
}

func (uc *AdminUseCase) ListUsers(ctx context.Context, q UserListQuery) ([]*entity.User, error) {
	skip, limit, err := pageBounds(q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	users, err := uc.Users.List(ctx, entity.UserFilter{Status: q.Status, Role: q.Role})
	if err != nil {
		return nil, technical("list users", err)
	}
	users = views.Members(users, views.MemberQuery{Search: q.Search, SortKey: q.SortKey, Desc: q.Desc})
	if skip >= len(users) {
		return []*entity.User{}, nil
	}
	return users[skip:min(skip+limit, len(users))], nil
}

func (uc *AdminUseCase) PendingUsers(ctx context.Context) ([]*entity.User, error) {
	pending := entity.UserPending
	users, err := uc.Users.List(ctx, entity.UserFilter{Status: &pending})
	if err != nil {
		return nil, technical("list pending users", err)
	}
	return users, nil
}

func (uc *AdminUseCase) findUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := uc.Users.FindByID(ctx, id)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, notFound(msgUserNotFound)
	}
	if err != nil {
		return nil, technical("load user", err)
	}
	return u, nil
}

func (uc *AdminUseCase) checkTeam(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := uc.Teams.FindByID(ctx, *id)
	if errors.Is(err, entity.ErrTeamNotFound) {
		return notFound(msgTeamNotFound)
	}
	if err != nil {
		return technical("load team", err)
	}
	return nil
}

func roleOrStarter(r entity.UserRole) (entity.UserRole, error) {
	if r == "" {
		return entity.RoleStarter, nil
	}
	if !r.IsValid() {
		return "", invalid("role ist ungültig")
	}
	return r, nil
}

// CreateUser adds an active account directly, without approval.
func (uc *AdminUseCase) CreateUser(ctx context.Context, actor *entity.User, in UserCreateInput) (*entity.User, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	role, err := roleOrStarter(in.Role)
	if err != nil {
		return nil, err
	}
	if err := uc.checkTeam(ctx, in.TeamID); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, uc.BcryptCost)
	if err != nil {
		return nil, technical("hash password", err)
	}
	now := uc.Now().UTC()
	u := &entity.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		Status:       entity.UserActive,
		TeamID:       in.TeamID,
		ApprovedByID: &actor.ID,
		ApprovedAt:   &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Users.Create(ctx, u); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, invalid(msgEmailTaken)
		}
		return nil, technical("create user", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditCreate, ObjectType: "User", ObjectID: &u.ID,
	})
	uc.dropKPIs(ctx)
	return u, nil
}

func (uc *AdminUseCase) UpdateUser(ctx context.Context, actor *entity.User, id int64, in UserUpdateInput) (*entity.User, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Role != nil && !in.Role.IsValid() {
		return nil, invalid("role ist ungültig")
	}
	if in.Status != nil && !in.Status.IsValid() {
		return nil, invalid("status ist ungültig")
	}
	u, err := uc.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.checkTeam(ctx, in.TeamID); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != u.Email {
			changes["email"] = change{u.Email, email}
			u.Email = email
		}
	}
	if in.FirstName != nil && *in.FirstName != u.FirstName {
		changes["firstName"] = change{u.FirstName, *in.FirstName}
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil && *in.LastName != u.LastName {
		changes["lastName"] = change{u.LastName, *in.LastName}
		u.LastName = *in.LastName
	}
	if in.Role != nil && *in.Role != u.Role {
		changes["role"] = change{u.Role, *in.Role}
		u.Role = *in.Role
	}
	if in.Status != nil && *in.Status != u.Status {
		changes["status"] = change{u.Status, *in.Status}
		u.Status = *in.Status
	}
	if in.TeamID != nil && (u.TeamID == nil || *u.TeamID != *in.TeamID) {
		changes["teamId"] = change{u.TeamID, *in.TeamID}
		u.TeamID = in.TeamID
	}
	if len(changes) == 0 {
		return u, nil
	}

	u.UpdatedAt = uc.Now().UTC()
	if err := uc.Users.Update(ctx, u); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, invalid(msgEmailTaken)
		}
		return nil, technical("update user", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "User", ObjectID: &u.ID, Diff: changes,
	})
	uc.dropKPIs(ctx)
	return u, nil
}

func (uc *AdminUseCase) DeleteUser(ctx context.Context, actor *entity.User, id int64) error {
	u, err := uc.findUser(ctx, id)
	if err != nil {
		return err
	}
	if u.ID == actor.ID {
		return invalid(msgSelfDelete)
	}
	if err := uc.Users.Delete(ctx, u.ID); err != nil {
		return technical("delete user", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditDelete, ObjectType: "User", ObjectID: &u.ID,
	})
	uc.dropKPIs(ctx)
	return nil
}

// Approve activates a pending account and tells the user by mail.
func (uc *AdminUseCase) Approve(ctx context.Context, actor *entity.User, id int64, in ApproveInput) (*entity.User, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	role, err := roleOrStarter(in.Role)
	if err != nil {
		return nil, err
	}
	u, err := uc.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status != entity.UserPending {
		return nil, invalid(msgNotPending)
	}
	if err := uc.checkTeam(ctx, in.TeamID); err != nil {
		return nil, err
	}

	now := uc.Now().UTC()
	changes := map[string]any{
		"status": change{u.Status, entity.UserActive},
		"role":   change{u.Role, role},
	}
	u.Status = entity.UserActive
	u.Role = role
	u.ApprovedByID = &actor.ID
	u.ApprovedAt = &now
	u.UpdatedAt = now
	if in.TeamID != nil {
		changes["teamId"] = change{u.TeamID, *in.TeamID}
		u.TeamID = in.TeamID
	}
	if in.StartDate != nil {
		u.StartDate = in.StartDate
	}
	if in.AdminNotes != "" {
		u.AdminNotes = in.AdminNotes
	}

	if err := uc.Users.Update(ctx, u); err != nil {
		return nil, technical("approve user", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "User", ObjectID: &u.ID, Diff: changes,
	})
	uc.dropKPIs(ctx)
	publish(ctx, uc.Publisher, uc.Log, queue.NewMessage(queue.KindAccountApproved, u.ID, now))
	return u, nil
}

func (uc *AdminUseCase) Reject(ctx context.Context, actor *entity.User, id int64, in RejectInput) (*entity.User, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	u, err := uc.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status != entity.UserPending {
		return nil, invalid(msgNotPending)
	}

	u.Status = entity.UserInactive
	u.AdminNotes = "Abgelehnt: " + strings.TrimSpace(in.Reason)
	u.UpdatedAt = uc.Now().UTC()
	if err := uc.Users.Update(ctx, u); err != nil {
		return nil, technical("reject user", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "User", ObjectID: &u.ID,
		Diff: map[string]any{"status": change{entity.UserPending, entity.UserInactive}, "reason": in.Reason},
	})
	return u, nil
}

func (uc *AdminUseCase) ListTeams(ctx context.Context) ([]*entity.Team, error) {
	teams, err := uc.Teams.List(ctx)
	if err != nil {
		return nil, technical("list teams", err)
	}
	return teams, nil
}

func (uc *AdminUseCase) CreateTeam(ctx context.Context, actor *entity.User, in TeamInput) (*entity.Team, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name ist erforderlich")
	}
	t := &entity.Team{
		Name:       strings.TrimSpace(*in.Name),
		LeadUserID: in.LeadUserID,
		CreatedAt:  uc.Now().UTC(),
	}
	if err := uc.Teams.Create(ctx, t); err != nil {
		if errors.Is(err, entity.ErrTeamNameTaken) {
			return nil, &DomainError{Code: CodeConflict, Message: "Teamname bereits vergeben"}
		}
		return nil, technical("create team", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditCreate, ObjectType: "Team", ObjectID: &t.ID,
		Diff: map[string]any{"name": t.Name, "leadUserId": t.LeadUserID},
	})
	return t, nil
}

func (uc *AdminUseCase) UpdateTeam(ctx context.Context, actor *entity.User, id int64, in TeamInput) (*entity.Team, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	t, err := uc.Teams.FindByID(ctx, id)
	if errors.Is(err, entity.ErrTeamNotFound) {
		return nil, notFound(msgTeamNotFound)
	}
	if err != nil {
		return nil, technical("load team", err)
	}

	changes := map[string]any{}
	if in.Name != nil && strings.TrimSpace(*in.Name) != t.Name {
		name := strings.TrimSpace(*in.Name)
		changes["name"] = change{t.Name, name}
		t.Name = name
	}
	if in.LeadUserID != nil && (t.LeadUserID == nil || *t.LeadUserID != *in.LeadUserID) {
		changes["leadUserId"] = change{t.LeadUserID, *in.LeadUserID}
		t.LeadUserID = in.LeadUserID
	}
	if len(changes) == 0 {
		return t, nil
	}
	if err := uc.Teams.Update(ctx, t); err != nil {
		if errors.Is(err, entity.ErrTeamNameTaken) {
			return nil, &DomainError{Code: CodeConflict, Message: "Teamname bereits vergeben"}
		}
		return nil, technical("update team", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "Team", ObjectID: &t.ID, Diff: changes,
	})
	uc.dropKPIs(ctx)
	return t, nil
}

func (uc *AdminUseCase) DeleteTeam(ctx context.Context, actor *entity.User, id int64) error {
	err := uc.Teams.Delete(ctx, id)
	if errors.Is(err, entity.ErrTeamNotFound) {
		return notFound(msgTeamNotFound)
	}
	if err != nil {
		return technical("delete team", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditDelete, ObjectType: "Team", ObjectID: &id,
	})
	uc.dropKPIs(ctx)
	return nil
}

// AuditLogs lists audit rows newest first.
func (uc *AdminUseCase) AuditLogs(ctx context.Context, q AuditQuery) ([]*entity.AuditLog, error) {
	skip, limit, err := pageBounds(q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	logs, err := uc.Audit.List(ctx, entity.AuditFilter{Action: q.Action, UserID: q.UserID, Skip: skip, Limit: limit})
	if err != nil {
		return nil, technical("list audit logs", err)
	}
	return logs, nil
}
