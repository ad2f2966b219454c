package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/cache"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

type LeadUpdateInput struct {
	Note *string `json:"note" validate:"omitempty,max=1000"`
}

type LeadUseCase struct {
	Leads    entity.LeadRepositoryInterface
	History  entity.StatusHistoryRepositoryInterface
	Events   entity.EventRepositoryInterface
	Audit    entity.AuditRepositoryInterface
	Cache    Cache
	CacheTTL time.Duration
	Log      logger.Logger
	Now      func() time.Time
}

func NewLeadUseCase(
	leads entity.LeadRepositoryInterface,
	history entity.StatusHistoryRepositoryInterface,
	events entity.EventRepositoryInterface,
	audit entity.AuditRepositoryInterface,
	c Cache,
	ttl time.Duration,
	log logger.Logger,
) *LeadUseCase {
	return &LeadUseCase{
		Leads: leads, History: history, Events: events, Audit: audit,
		Cache: c, CacheTTL: ttl, Log: log, Now: time.Now,
	}
}

func (uc *LeadUseCase) statuses() statusWriter {
	return statusWriter{leads: uc.Leads, history: uc.History, now: uc.Now}
}

func (uc *LeadUseCase) auditor() auditor {
	return auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}
}

// Create adds a cold lead owned by actor and writes its first history row.
// If the history row cannot be written the lead is removed again.
func (uc *LeadUseCase) Create(ctx context.Context, actor *entity.User, in activity.LeadInput) (*entity.Lead, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if actor.TeamID == nil {
		return nil, invalid(msgUserHasNoTeam)
	}

	now := uc.Now().UTC()
	lead, err := entity.NewLead(actor.ID, *actor.TeamID, in.FullName, NormalizePhone(in.Phone), in.Email, now)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if in.Tags != nil {
		lead.Tags = in.Tags
	}
	lead.Note = strings.TrimSpace(in.Note)

	tx := NewTransaction(uc.Log)
	tx.AddOperation("create_lead", func(ctx context.Context) error {
		return uc.Leads.Create(ctx, lead)
	})
	tx.AddCompensation("delete_lead", func(ctx context.Context) error {
		return uc.Leads.Delete(ctx, lead.ID)
	})
	tx.AddOperation("write_history", func(ctx context.Context) error {
		_, err := uc.statuses().apply(ctx, lead, actor.ID, statusChange{To: entity.StatusNewCold, Reason: "created", At: &now})
		return err
	})
	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}

	uc.auditor().record(ctx, auditEntry{
		Actor:      &actor.ID,
		Action:     entity.AuditCreate,
		ObjectType: "Lead",
		ObjectID:   &lead.ID,
		Diff: map[string]any{
			"full_name": lead.FullName,
			"phone":     lead.Phone,
			"email":     lead.Email,
			"team_id":   lead.TeamID,
		},
	})
	invalidate(ctx, uc.Cache, uc.Log, groupLeads, groupKPIs)
	return lead, nil
}

// List returns the leads actor may see, most recently moved first.
func (uc *LeadUseCase) List(ctx context.Context, actor *entity.User) ([]*entity.Lead, error) {
	scope := leadScope(actor)
	key := cache.Key(groupLeads, "list", scopeKey(scope))
	return cached(ctx, uc.Cache, uc.CacheTTL, uc.Log, key, func() ([]*entity.Lead, error) {
		leads, err := uc.Leads.List(ctx, scope)
		if err != nil {
			return nil, technical("list leads", err)
		}
		return leads, nil
	})
}

func scopeKey(s entity.LeadScope) string {
	switch {
	case s.OwnerUserID != nil:
		return "owner:" + strconv.FormatInt(*s.OwnerUserID, 10)
	case s.TeamID != nil:
		return "team:" + strconv.FormatInt(*s.TeamID, 10)
	}
	return "all"
}

func (uc *LeadUseCase) Get(ctx context.Context, actor *entity.User, id int64) (*entity.Lead, error) {
	return accessibleLead(ctx, uc.Leads, id, actor)
}

func (uc *LeadUseCase) UpdateNote(ctx context.Context, actor *entity.User, id int64, in LeadUpdateInput) (*entity.Lead, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	lead, err := accessibleLead(ctx, uc.Leads, id, actor)
	if err != nil {
		return nil, err
	}
	if in.Note != nil {
		note := strings.TrimSpace(*in.Note)
		if err := uc.Leads.UpdateNote(ctx, lead.ID, note); err != nil {
			return nil, technical("update lead note", err)
		}
		lead.Note = note
	}

	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "Lead", ObjectID: &lead.ID,
		Diff: map[string]any{"note": lead.Note},
	})
	invalidate(ctx, uc.Cache, uc.Log, groupLeads)
	return lead, nil
}

// UpdateStatus moves a lead along the pipeline. Scheduled statuses need a
// scheduled_for date in meta; scheduling an appointment also records it as a
// set appointment event.
func (uc *LeadUseCase) UpdateStatus(ctx context.Context, actor *entity.User, id int64, in activity.StatusInput) (*entity.Lead, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.ToStatus.IsValid() {
		return nil, invalid("toStatus ist ungültig")
	}
	lead, err := accessibleLead(ctx, uc.Leads, id, actor)
	if err != nil {
		return nil, err
	}

	scheduledFor := in.Meta[entity.MetaScheduledFor]
	if in.ToStatus.IsScheduled() && scheduledFor == "" {
		return nil, invalid(msgScheduledFor)
	}

	tx := NewTransaction(uc.Log)
	tx.AddOperation("apply_status", func(ctx context.Context) error {
		_, err := uc.statuses().apply(ctx, lead, actor.ID, statusChange{To: in.ToStatus, Reason: in.Reason, Meta: in.Meta})
		return err
	})
	if apptType, ok := scheduledAppointmentType(in.ToStatus); ok {
		if at, err := parseScheduled(scheduledFor); err == nil {
			tx.AddOperation("record_appointment", func(ctx context.Context) error {
				location := in.Meta[entity.MetaLocation]
				if location == "" {
					location = entity.DefaultAppointmentLocation
				}
				ev := &entity.AppointmentEvent{
					UserID:   actor.ID,
					LeadID:   &lead.ID,
					Type:     apptType,
					Datetime: at,
					Result:   entity.AppointmentSet,
					Location: location,
				}
				if err := uc.Events.CreateAppointment(ctx, ev); err != nil {
					return technical("record scheduled appointment", err)
				}
				return nil
			})
		}
	}
	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}

	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditUpdate, ObjectType: "Lead", ObjectID: &lead.ID,
		Diff: map[string]any{"to_status": in.ToStatus, "reason": in.Reason, "meta": in.Meta},
	})
	invalidate(ctx, uc.Cache, uc.Log, groupLeads, groupKPIs)
	return lead, nil
}

func scheduledAppointmentType(s entity.LeadStatus) (entity.AppointmentType, bool) {
	switch s {
	case entity.StatusFirstApptScheduled:
		return entity.AppointmentFirst, true
	case entity.StatusSecondApptScheduled:
		return entity.AppointmentSecond, true
	}
	return "", false
}

var scheduledLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseScheduled(s string) (time.Time, error) {
	var err error
	for _, layout := range scheduledLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func formatScheduled(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (uc *LeadUseCase) Delete(ctx context.Context, actor *entity.User, id int64) error {
	if err := RequireRoles(actor, entity.RoleAdmin); err != nil {
		return err
	}
	err := uc.Leads.Delete(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return notFound(msgLeadNotFound)
	}
	if err != nil {
		return technical("delete lead", err)
	}
	uc.auditor().record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditDelete, ObjectType: "Lead", ObjectID: &id,
	})
	invalidate(ctx, uc.Cache, uc.Log, groupLeads, groupKPIs)
	return nil
}

// Calendar lists scheduled calls and appointments whose scheduling happened
// in the period, newest first. leadID narrows it to one lead.
func (uc *LeadUseCase) Calendar(ctx context.Context, actor *entity.User, period kpi.Period, leadID *int64) ([]entity.CalendarEntry, error) {
	r, err := kpi.Resolve(period, nil, nil, uc.Now())
	if err != nil {
		return nil, periodError(err)
	}
	return uc.calendar(ctx, actor, leadID, r.Start)
}

// LeadCalendar lists every scheduled entry of one lead.
func (uc *LeadUseCase) LeadCalendar(ctx context.Context, actor *entity.User, leadID int64) ([]entity.CalendarEntry, error) {
	return uc.calendar(ctx, actor, &leadID, time.Time{})
}

func (uc *LeadUseCase) calendar(ctx context.Context, actor *entity.User, leadID *int64, since time.Time) ([]entity.CalendarEntry, error) {
	if leadID != nil {
		if _, err := accessibleLead(ctx, uc.Leads, *leadID, actor); err != nil {
			return nil, err
		}
	}
	entries, err := uc.History.ListScheduled(ctx, leadScope(actor), leadID, since)
	if err != nil {
		return nil, technical("list calendar", err)
	}
	return entries, nil
}

func periodError(err error) error {
	switch {
	case errors.Is(err, kpi.ErrCustomNeedsBounds), errors.Is(err, kpi.ErrInvertedRange):
		return invalid(err.Error())
	}
	return invalid("Ungültiger Zeitraum")
}
