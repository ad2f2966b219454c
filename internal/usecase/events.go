package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// EventUseCase records calls, appointments and closings and applies their
// effect on the linked lead.
type EventUseCase struct {
	Leads     entity.LeadRepositoryInterface
	History   entity.StatusHistoryRepositoryInterface
	Events    entity.EventRepositoryInterface
	Audit     entity.AuditRepositoryInterface
	Cache     Cache
	Publisher Publisher
	Log       logger.Logger
	Now       func() time.Time
}

func NewEventUseCase(
	leads entity.LeadRepositoryInterface,
	history entity.StatusHistoryRepositoryInterface,
	events entity.EventRepositoryInterface,
	audit entity.AuditRepositoryInterface,
	c Cache,
	pub Publisher,
	log logger.Logger,
) *EventUseCase {
	return &EventUseCase{
		Leads: leads, History: history, Events: events, Audit: audit,
		Cache: c, Publisher: pub, Log: log, Now: time.Now,
	}
}

func (uc *EventUseCase) statuses() statusWriter {
	return statusWriter{leads: uc.Leads, history: uc.History, now: uc.Now}
}

func (uc *EventUseCase) linkedLead(ctx context.Context, actor *entity.User, id *int64) (*entity.Lead, error) {
	if id == nil {
		return nil, nil
	}
	lead, err := accessibleLead(ctx, uc.Leads, *id, actor)
	if err != nil {
		return nil, err
	}
	if lead.CurrentStatus.IsClosed() {
		return nil, invalid(msgLeadClosed)
	}
	return lead, nil
}

func notPast(t *time.Time, now time.Time, label string) error {
	if t != nil && t.Before(now) {
		return invalid(label + " darf nicht in der Vergangenheit liegen")
	}
	return nil
}

func (uc *EventUseCase) CreateCall(ctx context.Context, actor *entity.User, in activity.CallInput) (*entity.CallEvent, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.Outcome.IsValid() {
		return nil, invalid("outcome ist ungültig")
	}
	now := uc.Now().UTC()
	if err := notPast(in.NextCallAt, now, "Rückrufdatum"); err != nil {
		return nil, err
	}
	if in.Outcome == entity.CallScheduled && in.NextCallAt == nil {
		return nil, invalid("nextCallAt ist für geplante Anrufe erforderlich")
	}
	lead, err := uc.linkedLead(ctx, actor, in.LeadID)
	if err != nil {
		return nil, err
	}

	ev := &entity.CallEvent{
		UserID:     actor.ID,
		LeadID:     in.LeadID,
		Datetime:   orNow(in.Datetime, now),
		ContactRef: in.ContactRef,
		Outcome:    in.Outcome,
		Notes:      in.Notes,
		NextCallAt: in.NextCallAt,
	}

	tx := NewTransaction(uc.Log)
	tx.AddOperation("create_call", func(ctx context.Context) error {
		return uc.Events.CreateCall(ctx, ev)
	})
	tx.AddCompensation("delete_call", func(ctx context.Context) error {
		_, err := uc.Events.Delete(ctx, entity.EventCall, ev.ID)
		return err
	})
	if lead != nil {
		tx.AddOperation("apply_call_status", func(ctx context.Context) error {
			return uc.applyCallStatus(ctx, actor, lead, in)
		})
	}
	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}

	uc.recorded(ctx, actor, "CallEvent", ev.ID, entity.EventCall, string(ev.Outcome), 0, ev.LeadID, ev.Datetime)
	return ev, nil
}

func (uc *EventUseCase) applyCallStatus(ctx context.Context, actor *entity.User, lead *entity.Lead, in activity.CallInput) error {
	w := uc.statuses()
	scheduled := func(reason string) statusChange {
		return statusChange{
			To:     entity.StatusCallScheduled,
			Reason: reason,
			Meta:   entity.StatusMeta{entity.MetaScheduledFor: formatScheduled(*in.NextCallAt)},
			At:     in.NextCallAt,
		}
	}

	switch in.Outcome {
	case entity.CallAnswered:
		return w.applyIfAllowed(ctx, lead, actor.ID, statusChange{To: entity.StatusContactEstablished, Reason: "call_answered"})
	case entity.CallNoAnswer, entity.CallBusy, entity.CallVoicemail:
		if in.NextCallAt == nil {
			return nil
		}
		return w.applyIfAllowed(ctx, lead, actor.ID, scheduled("callback_scheduled"))
	case entity.CallScheduled:
		return w.applyIfAllowed(ctx, lead, actor.ID, scheduled("call_scheduled"))
	case entity.CallDeclined:
		_, err := w.apply(ctx, lead, actor.ID, statusChange{To: entity.StatusClosedLost, Reason: "call_declined"})
		return err
	case entity.CallWrongNumber:
		_, err := w.apply(ctx, lead, actor.ID, statusChange{To: entity.StatusClosedLost, Reason: "wrong_number"})
		return err
	}
	return nil
}

func (uc *EventUseCase) CreateAppointment(ctx context.Context, actor *entity.User, in activity.AppointmentInput) (*entity.AppointmentEvent, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.Type.IsValid() {
		return nil, invalid("type ist ungültig")
	}
	if !in.Result.IsValid() {
		return nil, invalid("result ist ungültig")
	}
	now := uc.Now().UTC()
	if in.Result == entity.AppointmentSet {
		if in.Datetime == nil {
			return nil, invalid("Datum ist für vereinbarte Termine erforderlich")
		}
		if err := notPast(in.Datetime, now, "Termin-Datum"); err != nil {
			return nil, err
		}
	}
	lead, err := uc.linkedLead(ctx, actor, in.LeadID)
	if err != nil {
		return nil, err
	}
	if lead != nil && in.Type != lifecycle.PreferredAppointmentType(lead.CurrentStatus) {
		return nil, invalid("Termin-Typ passt nicht zum Lead-Status")
	}

	location := in.Location
	if location == "" {
		location = entity.DefaultAppointmentLocation
	}
	ev := &entity.AppointmentEvent{
		UserID:   actor.ID,
		LeadID:   in.LeadID,
		Type:     in.Type,
		Datetime: orNow(in.Datetime, now),
		Result:   in.Result,
		Location: location,
		Notes:    in.Notes,
	}

	tx := NewTransaction(uc.Log)
	tx.AddOperation("create_appointment", func(ctx context.Context) error {
		return uc.Events.CreateAppointment(ctx, ev)
	})
	tx.AddCompensation("delete_appointment", func(ctx context.Context) error {
		_, err := uc.Events.Delete(ctx, entity.EventAppointment, ev.ID)
		return err
	})
	if lead != nil {
		tx.AddOperation("apply_appointment_status", func(ctx context.Context) error {
			return uc.applyAppointmentStatus(ctx, actor, lead, ev)
		})
	}
	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}

	uc.recorded(ctx, actor, "AppointmentEvent", ev.ID, entity.EventAppointment, string(ev.Result), 0, ev.LeadID, ev.Datetime)
	return ev, nil
}

type appointmentOutcome struct {
	typ    entity.AppointmentType
	result entity.AppointmentResult
}

var appointmentStatus = map[appointmentOutcome]struct {
	to     entity.LeadStatus
	reason string
}{
	{entity.AppointmentFirst, entity.AppointmentSet}:        {entity.StatusFirstApptScheduled, "first_appt_scheduled"},
	{entity.AppointmentFirst, entity.AppointmentCompleted}:  {entity.StatusFirstApptCompleted, "first_appt_completed"},
	{entity.AppointmentFirst, entity.AppointmentNoShow}:     {entity.StatusFirstApptScheduled, "no_show_first"},
	{entity.AppointmentFirst, entity.AppointmentCancelled}:  {entity.StatusClosedLost, "first_appt_declined"},
	{entity.AppointmentSecond, entity.AppointmentSet}:       {entity.StatusSecondApptScheduled, "second_appt_scheduled"},
	{entity.AppointmentSecond, entity.AppointmentCompleted}: {entity.StatusSecondApptCompleted, "second_appt_completed"},
	{entity.AppointmentSecond, entity.AppointmentNoShow}:    {entity.StatusSecondApptScheduled, "no_show_second"},
	{entity.AppointmentSecond, entity.AppointmentCancelled}: {entity.StatusClosedLost, "second_appt_declined"},
}

func (uc *EventUseCase) applyAppointmentStatus(ctx context.Context, actor *entity.User, lead *entity.Lead, ev *entity.AppointmentEvent) error {
	target, ok := appointmentStatus[appointmentOutcome{ev.Type, ev.Result}]
	if !ok {
		return nil
	}
	w := uc.statuses()
	ch := statusChange{To: target.to, Reason: target.reason}

	// Outcomes other than set must move the lead. A
	// forbidden transition fails the write.
	if ev.Result != entity.AppointmentSet {
		_, err := w.apply(ctx, lead, actor.ID, ch)
		return err
	}

	ch.Meta = entity.StatusMeta{
		entity.MetaScheduledFor: formatScheduled(ev.Datetime),
		entity.MetaLocation:     ev.Location,
	}
	ch.At = &ev.Datetime

	// A first appointment agreed with a lead still in the call phase
	// means contact was made.
	if target.to == entity.StatusFirstApptScheduled && lifecycle.NextAction(lead.CurrentStatus) == lifecycle.ActionCall &&
		!lifecycle.IsTransitionAllowed(lead.CurrentStatus, target.to) {
		if err := w.applyIfAllowed(ctx, lead, actor.ID, statusChange{To: entity.StatusContactEstablished, Reason: "appointment_set"}); err != nil {
			return err
		}
	}
	return w.applyIfAllowed(ctx, lead, actor.ID, ch)
}

func (uc *EventUseCase) CreateClosing(ctx context.Context, actor *entity.User, in activity.ClosingInput) (*entity.ClosingEvent, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	result := in.Result
	if result == "" {
		result = entity.ClosingWon
	}
	if !result.IsValid() {
		return nil, invalid("result ist ungültig")
	}
	now := uc.Now().UTC()
	if err := notPast(in.Datetime, now, "Abschluss-Datum"); err != nil {
		return nil, err
	}
	lead, err := uc.linkedLead(ctx, actor, in.LeadID)
	if err != nil {
		return nil, err
	}
	if lead != nil && !lifecycle.CanCreateClosing(lead.CurrentStatus) {
		return nil, invalid("Ein Abschluss ist erst nach dem Zweittermin möglich")
	}

	units := in.Units
	if result == entity.ClosingNoSale {
		units = 0
	}
	ev := &entity.ClosingEvent{
		UserID:          actor.ID,
		LeadID:          in.LeadID,
		Datetime:        orNow(in.Datetime, now),
		Result:          result,
		Units:           units,
		ProductCategory: in.ProductCategory,
		Notes:           in.Notes,
	}

	tx := NewTransaction(uc.Log)
	tx.AddOperation("create_closing", func(ctx context.Context) error {
		return uc.Events.CreateClosing(ctx, ev)
	})
	tx.AddCompensation("delete_closing", func(ctx context.Context) error {
		_, err := uc.Events.Delete(ctx, entity.EventClosing, ev.ID)
		return err
	})
	if lead != nil {
		tx.AddOperation("apply_closing_status", func(ctx context.Context) error {
			ch := statusChange{To: entity.StatusClosedWon, Reason: "closing_documented"}
			if result == entity.ClosingNoSale {
				ch = statusChange{To: entity.StatusClosedLost, Reason: "closing_no_sale"}
			}
			_, err := uc.statuses().apply(ctx, lead, actor.ID, ch)
			return err
		})
	}
	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}

	uc.recorded(ctx, actor, "ClosingEvent", ev.ID, entity.EventClosing, string(ev.Result), ev.Units, ev.LeadID, ev.Datetime)
	return ev, nil
}

// recorded runs the best-effort follow-ups shared by every event write.
func (uc *EventUseCase) recorded(ctx context.Context, actor *entity.User, objectType string, id int64, typ entity.EventType, result string, units float64, leadID *int64, at time.Time) {
	auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}.record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditCreate, ObjectType: objectType, ObjectID: &id,
	})
	invalidate(ctx, uc.Cache, uc.Log, groupKPIs, groupLeads)

	if uc.Publisher == nil {
		return
	}
	msg := queue.NewMessage(queue.KindActivity, actor.ID, at)
	msg.EventType = string(typ)
	msg.EventID = id
	msg.Result = result
	msg.Units = units
	msg.LeadID = leadID
	msg.TeamID = actor.TeamID
	if err := uc.Publisher.Publish(ctx, msg); err != nil {
		uc.Log.Warn("activity message not published", "event_type", typ, "event_id", id, "error", err)
	}
}

// Recent returns the mixed feed of the actor's latest events. limit is
// clamped to 1..50.
func (uc *EventUseCase) Recent(ctx context.Context, actor *entity.User, limit int) ([]entity.RecentEvent, error) {
	limit = max(1, min(limit, MaxRecentLimit))
	events, err := uc.Events.Recent(ctx, actor.ID, limit)
	if err != nil {
		return nil, technical("list recent events", err)
	}
	return events, nil
}

func (uc *EventUseCase) Delete(ctx context.Context, actor *entity.User, typ entity.EventType, id int64) error {
	if err := RequireRoles(actor, entity.RoleAdmin); err != nil {
		return err
	}
	if !typ.IsValid() {
		return notFound(msgEventNotFound)
	}
	notes, err := uc.Events.Delete(ctx, typ, id)
	if errors.Is(err, entity.ErrEventNotFound) {
		return notFound(msgEventNotFound)
	}
	if err != nil {
		return technical("delete event", err)
	}

	objectType := map[entity.EventType]string{
		entity.EventCall:        "CallEvent",
		entity.EventAppointment: "AppointmentEvent",
		entity.EventClosing:     "ClosingEvent",
	}[typ]
	auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}.record(ctx, auditEntry{
		Actor: &actor.ID, Action: entity.AuditDelete, ObjectType: objectType, ObjectID: &id,
		Diff: map[string]any{"notes": notes},
	})
	invalidate(ctx, uc.Cache, uc.Log, groupKPIs)
	return nil
}

func orNow(t *time.Time, now time.Time) time.Time {
	if t == nil {
		return now
	}
	return t.UTC()
}
