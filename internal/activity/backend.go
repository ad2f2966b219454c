package activity

import (
	"context"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

// Backend is the set of writes the recorder needs. It is served over HTTP by
// the API client and in-process by the usecase layer.
type Backend interface {
	CreateLead(ctx context.Context, in LeadInput) (*entity.Lead, error)
	CreateCall(ctx context.Context, in CallInput) (*entity.CallEvent, error)
	CreateAppointment(ctx context.Context, in AppointmentInput) (*entity.AppointmentEvent, error)
	CreateClosing(ctx context.Context, in ClosingInput) (*entity.ClosingEvent, error)
	UpdateLeadStatus(ctx context.Context, leadID int64, in StatusInput) (*entity.Lead, error)
}

// CalendarSource lists scheduled entries for one lead.
type CalendarSource interface {
	LeadCalendar(ctx context.Context, leadID int64) ([]entity.CalendarEntry, error)
}

type LeadInput struct {
	FullName string   `json:"fullName" validate:"required,max=200"`
	Phone    string   `json:"phone" validate:"required,max=50"`
	Email    string   `json:"email,omitempty" validate:"omitempty,max=255,email"`
	Tags     []string `json:"tags,omitempty"`
	Note     string   `json:"note,omitempty" validate:"max=1000"`
}

type CallInput struct {
	LeadID     *int64             `json:"leadId,omitempty"`
	Outcome    entity.CallOutcome `json:"outcome" validate:"required"`
	ContactRef string             `json:"contactRef,omitempty" validate:"max=255"`
	Notes      string             `json:"notes,omitempty" validate:"max=1000"`
	Datetime   *time.Time         `json:"datetime,omitempty"`
	NextCallAt *time.Time         `json:"nextCallAt,omitempty"`
}

type AppointmentInput struct {
	LeadID   *int64                   `json:"leadId,omitempty"`
	Type     entity.AppointmentType   `json:"type" validate:"required"`
	Result   entity.AppointmentResult `json:"result" validate:"required"`
	Datetime *time.Time               `json:"datetime,omitempty"`
	Location string                   `json:"location,omitempty" validate:"max=255"`
	Notes    string                   `json:"notes,omitempty" validate:"max=1000"`
}

type ClosingInput struct {
	LeadID          *int64               `json:"leadId,omitempty"`
	Result          entity.ClosingResult `json:"result,omitempty"`
	Units           float64              `json:"units" validate:"gte=0"`
	ProductCategory string               `json:"productCategory,omitempty" validate:"max=100"`
	Notes           string               `json:"notes,omitempty" validate:"max=1000"`
	Datetime        *time.Time           `json:"datetime,omitempty"`
}

type StatusInput struct {
	ToStatus entity.LeadStatus `json:"toStatus" validate:"required"`
	Reason   string            `json:"reason,omitempty" validate:"max=100"`
	Meta     entity.StatusMeta `json:"meta,omitempty"`
}
