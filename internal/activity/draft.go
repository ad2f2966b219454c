// Package activity holds the call, appointment and closing logging flow:
// an explicit form state, a reducer over it, submit-time validation and the
// recorder that turns a valid draft into backend writes.
package activity

import (
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

// CallOutcome is what the form offers. It is the backend outcome set plus
// answered_appt, which means answered with an appointment agreed.
type CallOutcome string

const OutcomeAnsweredAppt CallOutcome = "answered_appt"

func (o CallOutcome) IsValid() bool {
	return o == OutcomeAnsweredAppt || entity.CallOutcome(o).IsValid()
}

// Normalized maps the form outcome to the outcome stored by the backend.
func (o CallOutcome) Normalized() entity.CallOutcome {
	if o == OutcomeAnsweredAppt {
		return entity.CallAnswered
	}
	return entity.CallOutcome(o)
}

type AppointmentMode string

const (
	ModeInPerson AppointmentMode = "in_person"
	ModeOnline   AppointmentMode = "online"
)

// LeadRef is the part of a selected lead the form depends on.
type LeadRef struct {
	ID       int64             `json:"id"`
	FullName string            `json:"fullName,omitempty"`
	Status   entity.LeadStatus `json:"status"`
}

type NewLeadForm struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

type CallForm struct {
	Outcome    CallOutcome `json:"outcome"`
	ContactRef string      `json:"contactRef,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	NextCallAt *time.Time  `json:"nextCallAt,omitempty"`

	// Only used with answered_appt.
	AppointmentAt       *time.Time      `json:"appointmentAt,omitempty"`
	AppointmentMode     AppointmentMode `json:"appointmentMode,omitempty"`
	AppointmentLocation string          `json:"appointmentLocation,omitempty"`
}

type AppointmentForm struct {
	Type     entity.AppointmentType   `json:"type"`
	Result   entity.AppointmentResult `json:"result"`
	Datetime *time.Time               `json:"datetime,omitempty"`
	Mode     AppointmentMode          `json:"mode"`
	Location string                   `json:"location,omitempty"`
	Notes    string                   `json:"notes,omitempty"`
}

type ClosingForm struct {
	Result          entity.ClosingResult `json:"result"`
	Units           float64              `json:"units"`
	ProductCategory string               `json:"productCategory,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// Draft is the complete, serializable state of the logging form. Values are
// never mutated in place; Reduce returns a new Draft.
type Draft struct {
	Kind        lifecycle.Action `json:"kind"`
	Lead        *LeadRef         `json:"lead,omitempty"`
	NewLead     NewLeadForm      `json:"newLead"`
	Call        CallForm         `json:"call"`
	Appointment AppointmentForm  `json:"appointment"`
	Closing     ClosingForm      `json:"closing"`
}

// NewDraft returns an empty form for the given activity kind.
func NewDraft(kind lifecycle.Action) Draft {
	return Draft{
		Kind: kind,
		Appointment: AppointmentForm{
			Type:   entity.AppointmentFirst,
			Result: entity.AppointmentSet,
			Mode:   ModeInPerson,
		},
		Call: CallForm{
			AppointmentMode: ModeInPerson,
		},
		Closing: ClosingForm{
			Result: entity.ClosingWon,
		},
	}
}
