package entity

import (
	"context"
	"errors"
	"time"
)

type CallOutcome string

const (
	CallScheduled   CallOutcome = "call_scheduled"
	CallAnswered    CallOutcome = "answered"
	CallNoAnswer    CallOutcome = "no_answer"
	CallBusy        CallOutcome = "busy"
	CallVoicemail   CallOutcome = "voicemail"
	CallDeclined    CallOutcome = "declined"
	CallWrongNumber CallOutcome = "wrong_number"
)

func (o CallOutcome) IsValid() bool {
	switch o {
	case CallScheduled, CallAnswered, CallNoAnswer, CallBusy, CallVoicemail, CallDeclined, CallWrongNumber:
		return true
	}
	return false
}

// NeedsCallback reports whether the outcome must carry a next-call timestamp.
func (o CallOutcome) NeedsCallback() bool {
	switch o {
	case CallScheduled, CallNoAnswer, CallBusy, CallVoicemail:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentFirst  AppointmentType = "first"
	AppointmentSecond AppointmentType = "second"
)

func (t AppointmentType) IsValid() bool {
	return t == AppointmentFirst || t == AppointmentSecond
}

type AppointmentResult string

const (
	AppointmentSet       AppointmentResult = "set"
	AppointmentCompleted AppointmentResult = "completed"
	AppointmentCancelled AppointmentResult = "cancelled"
	AppointmentNoShow    AppointmentResult = "no_show"
)

func (r AppointmentResult) IsValid() bool {
	switch r {
	case AppointmentSet, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

type ClosingResult string

const (
	ClosingWon    ClosingResult = "won"
	ClosingNoSale ClosingResult = "no_sale"
)

func (r ClosingResult) IsValid() bool {
	return r == ClosingWon || r == ClosingNoSale
}

// DefaultAppointmentLocation is stored when no location was given.
const DefaultAppointmentLocation = "Telefonisch"

var ErrEventNotFound = errors.New("event not found")

type CallEvent struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"userId"`
	LeadID     *int64      `json:"leadId,omitempty"`
	Datetime   time.Time   `json:"datetime"`
	ContactRef string      `json:"contactRef,omitempty"`
	Outcome    CallOutcome `json:"outcome"`
	Notes      string      `json:"notes,omitempty"`
	NextCallAt *time.Time  `json:"nextCallAt,omitempty"`
}

type AppointmentEvent struct {
	ID       int64             `json:"id"`
	UserID   int64             `json:"userId"`
	LeadID   *int64            `json:"leadId,omitempty"`
	Type     AppointmentType   `json:"type"`
	Datetime time.Time         `json:"datetime"`
	Result   AppointmentResult `json:"result"`
	Location string            `json:"location,omitempty"`
	Notes    string            `json:"notes,omitempty"`
}

type ClosingEvent struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"userId"`
	LeadID          *int64        `json:"leadId,omitempty"`
	Datetime        time.Time     `json:"datetime"`
	Result          ClosingResult `json:"result"`
	Units           float64       `json:"units"`
	ProductCategory string        `json:"productCategory,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

// EventType names one of the three activity tables.
type EventType string

const (
	EventCall        EventType = "call"
	EventAppointment EventType = "appointment"
	EventClosing     EventType = "closing"
)

func (t EventType) IsValid() bool {
	return t == EventCall || t == EventAppointment || t == EventClosing
}

// RecentEvent is the mixed feed row shown on the dashboard.
type RecentEvent struct {
	ID       int64     `json:"id"`
	Type     EventType `json:"type"`
	Datetime time.Time `json:"datetime"`
	Title    string    `json:"title"`
	Meta     string    `json:"meta,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

// ActivityCounts are the raw per-user totals KPIs are derived from.
type ActivityCounts struct {
	CallsMade             int
	CallsAnswered         int
	FirstAppointmentsSet  int
	SecondAppointmentsSet int
	Closings              int
	UnitsTotal            float64
}

type EventRepositoryInterface interface {
	CreateCall(ctx context.Context, e *CallEvent) error
	CreateAppointment(ctx context.Context, e *AppointmentEvent) error
	CreateClosing(ctx context.Context, e *ClosingEvent) error
	Delete(ctx context.Context, eventType EventType, id int64) (string, error)
	Recent(ctx context.Context, userID int64, limit int) ([]RecentEvent, error)
	CountsByUser(ctx context.Context, userIDs []int64, from, to time.Time) (map[int64]ActivityCounts, error)
}
