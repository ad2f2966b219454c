package entity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// LeadStatus is the position of a lead in the sales pipeline.
type LeadStatus string

const (
	StatusNewCold             LeadStatus = "new_cold"
	StatusCallScheduled       LeadStatus = "call_scheduled"
	StatusContactEstablished  LeadStatus = "contact_established"
	StatusFirstApptPending    LeadStatus = "first_appt_pending"
	StatusFirstApptScheduled  LeadStatus = "first_appt_scheduled"
	StatusFirstApptCompleted  LeadStatus = "first_appt_completed"
	StatusSecondApptScheduled LeadStatus = "second_appt_scheduled"
	StatusSecondApptCompleted LeadStatus = "second_appt_completed"
	StatusClosedWon           LeadStatus = "closed_won"
	StatusClosedLost          LeadStatus = "closed_lost"
)

// AllLeadStatuses lists the statuses in pipeline order.
var AllLeadStatuses = []LeadStatus{
	StatusNewCold,
	StatusCallScheduled,
	StatusContactEstablished,
	StatusFirstApptPending,
	StatusFirstApptScheduled,
	StatusFirstApptCompleted,
	StatusSecondApptScheduled,
	StatusSecondApptCompleted,
	StatusClosedWon,
	StatusClosedLost,
}

func (s LeadStatus) IsValid() bool {
	for _, v := range AllLeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether the status is terminal.
func (s LeadStatus) IsClosed() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// IsScheduled reports whether the status carries a calendar date.
func (s LeadStatus) IsScheduled() bool {
	return s == StatusCallScheduled || s == StatusFirstApptScheduled || s == StatusSecondApptScheduled
}

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrLeadNameRequired   = errors.New("full name is required")
	ErrLeadPhoneRequired  = errors.New("phone is required")
	ErrInvalidLeadStatus  = errors.New("invalid lead status")
	ErrTransitionNotValid = errors.New("status transition not allowed")
)

type Lead struct {
	ID              int64      `json:"id"`
	OwnerUserID     int64      `json:"ownerUserId"`
	TeamID          int64      `json:"teamId"`
	FullName        string     `json:"fullName"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email,omitempty"`
	CurrentStatus   LeadStatus `json:"currentStatus"`
	StatusUpdatedAt time.Time  `json:"statusUpdatedAt"`
	LastActivityAt  *time.Time `json:"lastActivityAt,omitempty"`
	Tags            []string   `json:"tags"`
	Note            string     `json:"note,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// NewLead builds a cold lead owned by the given user.
func NewLead(ownerID, teamID int64, fullName, phone, email string, now time.Time) (*Lead, error) {
	l := &Lead{
		OwnerUserID:     ownerID,
		TeamID:          teamID,
		FullName:        strings.TrimSpace(fullName),
		Phone:           strings.TrimSpace(phone),
		Email:           strings.TrimSpace(email),
		CurrentStatus:   StatusNewCold,
		StatusUpdatedAt: now,
		Tags:            []string{},
		CreatedAt:       now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lead) Validate() error {
	if l.FullName == "" {
		return ErrLeadNameRequired
	}
	if l.Phone == "" {
		return ErrLeadPhoneRequired
	}
	if !l.CurrentStatus.IsValid() {
		return ErrInvalidLeadStatus
	}
	return nil
}

// StatusMeta is the free-form payload stored with a status change.
type StatusMeta map[string]string

const (
	MetaScheduledFor = "scheduled_for"
	MetaLocation     = "location"
)

type LeadStatusHistory struct {
	ID              int64       `json:"id"`
	LeadID          int64       `json:"leadId"`
	ChangedByUserID int64       `json:"changedByUserId"`
	FromStatus      *LeadStatus `json:"fromStatus,omitempty"`
	ToStatus        LeadStatus  `json:"toStatus"`
	ChangedAt       time.Time   `json:"changedAt"`
	Reason          string      `json:"reason,omitempty"`
	Meta            StatusMeta  `json:"meta,omitempty"`
}

// CalendarEntry is a scheduled call or appointment derived from status history.
type CalendarEntry struct {
	LeadID       int64      `json:"leadId"`
	Title        string     `json:"title"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	Status       LeadStatus `json:"status"`
	OwnerUserID  int64      `json:"ownerUserId"`
	TeamID       int64      `json:"teamId"`
	Location     string     `json:"location,omitempty"`
}

// LeadScope restricts lead queries to what an actor may see.
type LeadScope struct {
	OwnerUserID *int64
	TeamID      *int64
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, scope LeadScope) ([]*Lead, error)
	ListCreated(ctx context.Context, scope LeadScope, from, to time.Time) ([]*Lead, error)
	UpdateNote(ctx context.Context, id int64, note string) error
	SaveStatus(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, id int64) error
}

type StatusHistoryRepositoryInterface interface {
	Create(ctx context.Context, h *LeadStatusHistory) error
	ListScheduled(ctx context.Context, scope LeadScope, leadID *int64, since time.Time) ([]CalendarEntry, error)
	ListForLeads(ctx context.Context, leadIDs []int64, from, to time.Time) ([]*LeadStatusHistory, error)
}
