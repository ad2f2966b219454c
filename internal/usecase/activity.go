package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// actorBackend serves activity.Backend in-process for one user.
type actorBackend struct {
	leads  *LeadUseCase
	events *EventUseCase
	actor  *entity.User
}

var (
	_ activity.Backend        = (*actorBackend)(nil)
	_ activity.CalendarSource = (*actorBackend)(nil)
)

func (b *actorBackend) CreateLead(ctx context.Context, in activity.LeadInput) (*entity.Lead, error) {
	return b.leads.Create(ctx, b.actor, in)
}

func (b *actorBackend) CreateCall(ctx context.Context, in activity.CallInput) (*entity.CallEvent, error) {
	return b.events.CreateCall(ctx, b.actor, in)
}

func (b *actorBackend) CreateAppointment(ctx context.Context, in activity.AppointmentInput) (*entity.AppointmentEvent, error) {
	return b.events.CreateAppointment(ctx, b.actor, in)
}

func (b *actorBackend) CreateClosing(ctx context.Context, in activity.ClosingInput) (*entity.ClosingEvent, error) {
	return b.events.CreateClosing(ctx, b.actor, in)
}

func (b *actorBackend) UpdateLeadStatus(ctx context.Context, leadID int64, in activity.StatusInput) (*entity.Lead, error) {
	return b.leads.UpdateStatus(ctx, b.actor, leadID, in)
}

func (b *actorBackend) LeadCalendar(ctx context.Context, leadID int64) ([]entity.CalendarEntry, error) {
	return b.leads.LeadCalendar(ctx, b.actor, leadID)
}

// ActivityUseCase runs the activity recording flow on the server.
type ActivityUseCase struct {
	Leads  *LeadUseCase
	Events *EventUseCase
	Log    logger.Logger
	Now    func() time.Time
}

func NewActivityUseCase(leads *LeadUseCase, events *EventUseCase, log logger.Logger) *ActivityUseCase {
	return &ActivityUseCase{Leads: leads, Events: events, Log: log, Now: time.Now}
}

// Record validates and submits d on behalf of actor. For appointments on an
// existing lead the draft is first prefilled from the lead's calendar.
func (uc *ActivityUseCase) Record(ctx context.Context, actor *entity.User, d activity.Draft) (*activity.Result, error) {
	b := &actorBackend{leads: uc.Leads, events: uc.Events, actor: actor}

	d, err := activity.LoadPrefill(ctx, b, d)
	if err != nil {
		uc.Log.Warn("calendar prefill failed", "error", err)
	}

	rec := activity.NewRecorder(b, uc.Log)
	rec.Now = uc.Now
	return rec.Submit(ctx, d)
}
