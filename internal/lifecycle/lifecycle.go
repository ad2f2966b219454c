// Package lifecycle answers what can happen next to a lead in a given status.
// Every function here is pure.
package lifecycle

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

// Action is the kind of activity a status asks for next.
type Action string

const (
	ActionCall        Action = "call"
	ActionAppointment Action = "appointment"
	ActionClosing     Action = "closing"
	ActionNone        Action = ""
)

// NextAction returns the activity a lead in status s is waiting for.
// Closed leads return ActionNone.
func NextAction(s entity.LeadStatus) Action {
	switch s {
	case entity.StatusNewCold, entity.StatusCallScheduled, entity.StatusContactEstablished:
		return ActionCall
	case entity.StatusFirstApptPending,
		entity.StatusFirstApptScheduled,
		entity.StatusFirstApptCompleted,
		entity.StatusSecondApptScheduled:
		return ActionAppointment
	case entity.StatusSecondApptCompleted:
		return ActionClosing
	}
	return ActionNone
}

func CanCreateCall(s entity.LeadStatus) bool {
	return s.IsValid() && !s.IsClosed()
}

func CanCreateAppointment(s entity.LeadStatus) bool {
	return NextAction(s) == ActionAppointment
}

func CanCreateClosing(s entity.LeadStatus) bool {
	return s == entity.StatusSecondApptCompleted
}

// Can reports whether an activity of kind a may be recorded for status s.
func Can(a Action, s entity.LeadStatus) bool {
	switch a {
	case ActionCall:
		return CanCreateCall(s)
	case ActionAppointment:
		return CanCreateAppointment(s)
	case ActionClosing:
		return CanCreateClosing(s)
	}
	return false
}

// EligibleStatuses lists, in pipeline order, the statuses for which an
// activity of kind a may be recorded.
func EligibleStatuses(a Action) []entity.LeadStatus {
	var out []entity.LeadStatus
	for _, s := range entity.AllLeadStatuses {
		if Can(a, s) {
			out = append(out, s)
		}
	}
	return out
}

// PreferredAppointmentType infers the appointment type from the lead status.
// The type is never chosen freely once a lead is selected.
func PreferredAppointmentType(s entity.LeadStatus) entity.AppointmentType {
	switch s {
	case entity.StatusFirstApptCompleted, entity.StatusSecondApptScheduled, entity.StatusSecondApptCompleted:
		return entity.AppointmentSecond
	}
	return entity.AppointmentFirst
}

// CanCreateNewLead reports whether an activity may create its lead inline.
// A fresh lead starts cold, so it can only take a call or a first appointment.
func CanCreateNewLead(a Action, apptType entity.AppointmentType) bool {
	switch a {
	case ActionCall, ActionAppointment:
		return apptType != entity.AppointmentSecond
	}
	return false
}
