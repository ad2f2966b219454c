package usecase

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/cache"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// KPIQuery selects the period KPIs are computed for. Start and End are only
// read for custom periods.
type KPIQuery struct {
	Period kpi.Period
	Start  *time.Time
	End    *time.Time
}

func (q KPIQuery) key() []string {
	parts := []string{string(q.Period)}
	if q.Period == kpi.PeriodCustom && q.Start != nil && q.End != nil {
		parts = append(parts, q.Start.UTC().Format(time.DateOnly), q.End.UTC().Format(time.DateOnly))
	}
	return parts
}

type KPIUseCase struct {
	Users    entity.UserRepositoryInterface
	Teams    entity.TeamRepositoryInterface
	Leads    entity.LeadRepositoryInterface
	History  entity.StatusHistoryRepositoryInterface
	Events   entity.EventRepositoryInterface
	Configs  *KPIConfigUseCase
	Audit    entity.AuditRepositoryInterface
	Cache    Cache
	CacheTTL time.Duration
	Log      logger.Logger
	Now      func() time.Time
}

func NewKPIUseCase(
	users entity.UserRepositoryInterface,
	teams entity.TeamRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	history entity.StatusHistoryRepositoryInterface,
	events entity.EventRepositoryInterface,
	configs *KPIConfigUseCase,
	audit entity.AuditRepositoryInterface,
	c Cache,
	ttl time.Duration,
	log logger.Logger,
) *KPIUseCase {
	return &KPIUseCase{
		Users: users, Teams: teams, Leads: leads, History: history, Events: events,
		Configs: configs, Audit: audit, Cache: c, CacheTTL: ttl, Log: log, Now: time.Now,
	}
}

func (uc *KPIUseCase) resolve(q KPIQuery) (kpi.Range, error) {
	r, err := kpi.Resolve(q.Period, q.Start, q.End, uc.Now())
	if err != nil {
		return kpi.Range{}, periodError(err)
	}
	return r, nil
}

func (uc *KPIUseCase) key(parts ...string) string {
	return cache.Key(groupKPIs, parts...)
}

func (uc *KPIUseCase) userKPIs(ctx context.Context, userID int64, r kpi.Range) (kpi.UserKPIs, error) {
	counts, err := uc.Events.CountsByUser(ctx, []int64{userID}, r.Start, r.End)
	if err != nil {
		return kpi.UserKPIs{}, technical("count activities", err)
	}
	return kpi.FromCounts(counts[userID]), nil
}

// Me returns the KPIs of the actor.
func (uc *KPIUseCase) Me(ctx context.Context, actor *entity.User, q KPIQuery) (kpi.UserKPIs, error) {
	r, err := uc.resolve(q)
	if err != nil {
		return kpi.UserKPIs{}, err
	}
	key := uc.key(append([]string{"user", strconv.FormatInt(actor.ID, 10)}, q.key()...)...)
	return cached(ctx, uc.Cache, uc.CacheTTL, uc.Log, key, func() (kpi.UserKPIs, error) {
		return uc.userKPIs(ctx, actor.ID, r)
	})
}

// MeCards renders the actor's KPIs as display cards.
func (uc *KPIUseCase) MeCards(ctx context.Context, actor *entity.User, q KPIQuery) ([]kpi.Card, error) {
	k, err := uc.Me(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	configs, err := uc.Configs.All(ctx)
	if err != nil {
		return nil, err
	}
	return kpi.Cards(k, configs, actor.Role, kpi.German), nil
}

// teamFor resolves the team an actor reads by default: the team a
// teamleiter leads, or the first team for admins.
func (uc *KPIUseCase) teamFor(ctx context.Context, actor *entity.User) (*entity.Team, error) {
	if err := RequireRoles(actor, entity.RoleTeamleiter, entity.RoleAdmin); err != nil {
		return nil, err
	}
	var (
		team *entity.Team
		err  error
	)
	if actor.Role == entity.RoleAdmin {
		team, err = uc.Teams.First(ctx)
	} else {
		team, err = uc.Teams.FindByLeadUser(ctx, actor.ID)
	}
	if errors.Is(err, entity.ErrTeamNotFound) {
		return nil, notFound(msgNoTeam)
	}
	if err != nil {
		return nil, technical("load team", err)
	}
	return team, nil
}

func (uc *KPIUseCase) teamKPIs(ctx context.Context, team *entity.Team, q KPIQuery) (kpi.TeamKPIs, error) {
	r, err := uc.resolve(q)
	if err != nil {
		return kpi.TeamKPIs{}, err
	}
	key := uc.key(append([]string{"team", strconv.FormatInt(team.ID, 10)}, q.key()...)...)
	return cached(ctx, uc.Cache, uc.CacheTTL, uc.Log, key, func() (kpi.TeamKPIs, error) {
		teamID := team.ID
		members, err := uc.Users.List(ctx, entity.UserFilter{TeamID: &teamID})
		if err != nil {
			return kpi.TeamKPIs{}, technical("list team members", err)
		}
		counts, err := uc.Events.CountsByUser(ctx, userIDs(members), r.Start, r.End)
		if err != nil {
			return kpi.TeamKPIs{}, technical("count activities", err)
		}
		return kpi.Team(team.Name, members, counts), nil
	})
}

func userIDs(users []*entity.User) []int64 {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func (uc *KPIUseCase) Team(ctx context.Context, actor *entity.User, q KPIQuery) (kpi.TeamKPIs, error) {
	team, err := uc.teamFor(ctx, actor)
	if err != nil {
		return kpi.TeamKPIs{}, err
	}
	return uc.teamKPIs(ctx, team, q)
}

func (uc *KPIUseCase) TeamByID(ctx context.Context, actor *entity.User, teamID int64, q KPIQuery) (kpi.TeamKPIs, error) {
	if err := RequireRoles(actor, entity.RoleAdmin); err != nil {
		return kpi.TeamKPIs{}, err
	}
	team, err := uc.Teams.FindByID(ctx, teamID)
	if errors.Is(err, entity.ErrTeamNotFound) {
		return kpi.TeamKPIs{}, notFound(msgTeamNotFound)
	}
	if err != nil {
		return kpi.TeamKPIs{}, technical("load team", err)
	}
	return uc.teamKPIs(ctx, team, q)
}

// User returns the KPIs of one user. Teamleiters may only read members of
// the team they lead.
func (uc *KPIUseCase) User(ctx context.Context, actor *entity.User, userID int64, q KPIQuery) (kpi.UserKPIs, error) {
	if err := RequireRoles(actor, entity.RoleTeamleiter, entity.RoleAdmin); err != nil {
		return kpi.UserKPIs{}, err
	}
	target, err := uc.Users.FindByID(ctx, userID)
	if errors.Is(err, entity.ErrUserNotFound) {
		return kpi.UserKPIs{}, notFound(msgUserNotFound)
	}
	if err != nil {
		return kpi.UserKPIs{}, technical("load user", err)
	}

	if actor.Role == entity.RoleTeamleiter {
		team, err := uc.Teams.FindByLeadUser(ctx, actor.ID)
		if err != nil && !errors.Is(err, entity.ErrTeamNotFound) {
			return kpi.UserKPIs{}, technical("load team", err)
		}
		if team == nil || target.TeamID == nil || *target.TeamID != team.ID {
			return kpi.UserKPIs{}, forbidden(msgForeignMember)
		}
	}

	r, err := uc.resolve(q)
	if err != nil {
		return kpi.UserKPIs{}, err
	}
	key := uc.key(append([]string{"user", strconv.FormatInt(userID, 10)}, q.key()...)...)
	return cached(ctx, uc.Cache, uc.CacheTTL, uc.Log, key, func() (kpi.UserKPIs, error) {
		return uc.userKPIs(ctx, userID, r)
	})
}

// Journey returns the funnel KPIs of the leads the actor may see.
func (uc *KPIUseCase) Journey(ctx context.Context, actor *entity.User, q KPIQuery) (kpi.FunnelKPIs, error) {
	if actor.Role == entity.RoleTeamleiter && actor.TeamID == nil {
		return kpi.FunnelKPIs{}, notFound(msgNoTeam)
	}
	r, err := uc.resolve(q)
	if err != nil {
		return kpi.FunnelKPIs{}, err
	}
	scope := leadScope(actor)
	key := uc.key(append([]string{"journey", scopeKey(scope)}, q.key()...)...)
	return cached(ctx, uc.Cache, uc.CacheTTL, uc.Log, key, func() (kpi.FunnelKPIs, error) {
		leads, err := uc.Leads.ListCreated(ctx, scope, r.Start, r.End)
		if err != nil {
			return kpi.FunnelKPIs{}, technical("list leads", err)
		}
		ids := make([]int64, len(leads))
		for i, l := range leads {
			ids[i] = l.ID
		}
		history, err := uc.History.ListForLeads(ctx, ids, r.Start, r.End)
		if err != nil {
			return kpi.FunnelKPIs{}, technical("list status history", err)
		}
		return kpi.Funnel(leads, history, r), nil
	})
}

// Overview aggregates the KPIs of every user.
func (uc *KPIUseCase) Overview(ctx context.Context, actor *entity.User, q KPIQuery) (kpi.UserKPIs, error) {
	if err := RequireRoles(actor, entity.RoleAdmin); err != nil {
		return kpi.UserKPIs{}, err
	}
	r, err := uc.resolve(q)
	if err != nil {
		return kpi.UserKPIs{}, err
	}
	key := uc.key(append([]string{"overview"}, q.key()...)...)
	return cached(ctx, uc.Cache, uc.CacheTTL, uc.Log, key, func() (kpi.UserKPIs, error) {
		users, err := uc.Users.List(ctx, entity.UserFilter{})
		if err != nil {
			return kpi.UserKPIs{}, technical("list users", err)
		}
		counts, err := uc.Events.CountsByUser(ctx, userIDs(users), r.Start, r.End)
		if err != nil {
			return kpi.UserKPIs{}, technical("count activities", err)
		}
		all := make([]kpi.UserKPIs, 0, len(counts))
		for _, c := range counts {
			all = append(all, kpi.FromCounts(c))
		}
		return kpi.Aggregate(all...), nil
	})
}

// ExportTeam writes the team KPIs of the actor's default team as XLSX.
func (uc *KPIUseCase) ExportTeam(ctx context.Context, actor *entity.User, q KPIQuery, w io.Writer) error {
	team, err := uc.teamFor(ctx, actor)
	if err != nil {
		return err
	}
	data, err := uc.teamKPIs(ctx, team, q)
	if err != nil {
		return err
	}
	if err := kpi.WriteTeamXLSX(w, data); err != nil {
		return technical("write xlsx", err)
	}
	auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}.record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditExport, ObjectType: "TeamKPIs", ObjectID: &team.ID,
		Context: map[string]any{"period": q.Period},
	})
	return nil
}
