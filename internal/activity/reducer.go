package activity

import (
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

// Msg is one user input applied to a Draft.
type Msg interface {
	apply(d Draft) Draft
}

// Reduce applies msg to d and returns the new state. d is left untouched.
func Reduce(d Draft, msg Msg) Draft {
	if msg == nil {
		return d
	}
	return msg.apply(d)
}

type SelectKind struct{ Kind lifecycle.Action }

func (m SelectKind) apply(d Draft) Draft {
	d.Kind = m.Kind
	if d.Lead != nil {
		d.Appointment.Type = lifecycle.PreferredAppointmentType(d.Lead.Status)
	}
	return d
}

// SelectLead picks an existing lead. The appointment type follows its status.
type SelectLead struct{ Lead LeadRef }

func (m SelectLead) apply(d Draft) Draft {
	ref := m.Lead
	d.Lead = &ref
	d.NewLead = NewLeadForm{}
	d.Appointment.Type = lifecycle.PreferredAppointmentType(ref.Status)
	return d
}

type ClearLead struct{}

func (ClearLead) apply(d Draft) Draft {
	d.Lead = nil
	d.Appointment.Type = entity.AppointmentFirst
	return d
}

type SetNewLead struct{ Form NewLeadForm }

func (m SetNewLead) apply(d Draft) Draft {
	if d.Lead == nil {
		d.NewLead = m.Form
	}
	return d
}

type SetCallOutcome struct{ Outcome CallOutcome }

func (m SetCallOutcome) apply(d Draft) Draft {
	d.Call.Outcome = m.Outcome
	if !entity.CallOutcome(m.Outcome).NeedsCallback() {
		d.Call.NextCallAt = nil
	}
	if m.Outcome != OutcomeAnsweredAppt {
		d.Call.AppointmentAt = nil
		d.Call.AppointmentLocation = ""
	}
	return d
}

type SetCallDetails struct {
	ContactRef string
	Notes      string
}

func (m SetCallDetails) apply(d Draft) Draft {
	d.Call.ContactRef = m.ContactRef
	d.Call.Notes = m.Notes
	return d
}

type SetNextCallAt struct{ At *time.Time }

func (m SetNextCallAt) apply(d Draft) Draft {
	d.Call.NextCallAt = m.At
	return d
}

// SetCallAppointment fills the appointment agreed during an answered call.
type SetCallAppointment struct {
	At       *time.Time
	Mode     AppointmentMode
	Location string
}

func (m SetCallAppointment) apply(d Draft) Draft {
	d.Call.AppointmentAt = m.At
	d.Call.AppointmentMode = m.Mode
	d.Call.AppointmentLocation = m.Location
	if !ShowLocation(m.Mode) {
		d.Call.AppointmentLocation = ""
	}
	return d
}

// SetAppointmentType is ignored while a lead is selected.
type SetAppointmentType struct{ Type entity.AppointmentType }

func (m SetAppointmentType) apply(d Draft) Draft {
	if !AppointmentTypeLocked(d) {
		d.Appointment.Type = m.Type
	}
	return d
}

type SetAppointmentResult struct{ Result entity.AppointmentResult }

func (m SetAppointmentResult) apply(d Draft) Draft {
	d.Appointment.Result = m.Result
	return d
}

type SetAppointmentDatetime struct{ At *time.Time }

func (m SetAppointmentDatetime) apply(d Draft) Draft {
	d.Appointment.Datetime = m.At
	return d
}

type SetAppointmentPlace struct {
	Mode     AppointmentMode
	Location string
}

func (m SetAppointmentPlace) apply(d Draft) Draft {
	d.Appointment.Mode = m.Mode
	d.Appointment.Location = m.Location
	if !ShowLocation(m.Mode) {
		d.Appointment.Location = ""
	}
	return d
}

type SetAppointmentNotes struct{ Notes string }

func (m SetAppointmentNotes) apply(d Draft) Draft {
	d.Appointment.Notes = m.Notes
	return d
}

type SetClosingResult struct{ Result entity.ClosingResult }

func (m SetClosingResult) apply(d Draft) Draft {
	d.Closing.Result = m.Result
	if m.Result == entity.ClosingNoSale {
		d.Closing.Units = 0
	}
	return d
}

// SetUnits has no effect while the result is no_sale.
type SetUnits struct{ Units float64 }

func (m SetUnits) apply(d Draft) Draft {
	if !UnitsDisabled(d) {
		d.Closing.Units = m.Units
	}
	return d
}

type SetClosingDetails struct {
	ProductCategory string
	Notes           string
}

func (m SetClosingDetails) apply(d Draft) Draft {
	d.Closing.ProductCategory = m.ProductCategory
	d.Closing.Notes = m.Notes
	return d
}

// FollowUp returns the form that should open after d was saved for leadID,
// or nil when the flow ends. A completed first appointment leads into a
// second appointment draft, a completed second one into a closing draft.
// Nothing is persisted by this.
func FollowUp(d Draft, leadID int64) *Draft {
	if d.Kind != lifecycle.ActionAppointment || d.Appointment.Result != entity.AppointmentCompleted {
		return nil
	}
	name := ""
	if d.Lead != nil {
		name = d.Lead.FullName
	}

	switch EffectiveAppointmentType(d) {
	case entity.AppointmentFirst:
		next := NewDraft(lifecycle.ActionAppointment)
		next.Lead = &LeadRef{ID: leadID, FullName: name, Status: entity.StatusFirstApptCompleted}
		next.Appointment.Type = entity.AppointmentSecond
		next.Appointment.Mode = d.Appointment.Mode
		return &next
	case entity.AppointmentSecond:
		next := NewDraft(lifecycle.ActionClosing)
		next.Lead = &LeadRef{ID: leadID, FullName: name, Status: entity.StatusSecondApptCompleted}
		return &next
	}
	return nil
}
