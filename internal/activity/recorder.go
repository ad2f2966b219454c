package activity

import (
	"context"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// CelebrationDelay is how long the success message of a won closing stays up.
const CelebrationDelay = 1500 * time.Millisecond

const stepFollowUpAppointment = "follow_up_appointment"

// Result describes what Submit wrote.
type Result struct {
	LeadID      int64                    `json:"leadId"`
	CreatedLead *entity.Lead             `json:"createdLead,omitempty"`
	Call        *entity.CallEvent        `json:"call,omitempty"`
	Appointment *entity.AppointmentEvent `json:"appointment,omitempty"`
	Closing     *entity.ClosingEvent     `json:"closing,omitempty"`
	Lead        *entity.Lead             `json:"lead,omitempty"`

	// Partial is set when the primary record was saved but a best-effort
	// follow-up was not.
	Partial      bool   `json:"partial"`
	FollowUpNote string `json:"followUpNote,omitempty"`

	NextDraft  *Draft        `json:"nextDraft,omitempty"`
	Celebrate  bool          `json:"celebrate"`
	CloseAfter time.Duration `json:"closeAfter,omitempty"`
}

type Recorder struct {
	Backend Backend
	Log     logger.Logger
	Now     func() time.Time
}

func NewRecorder(b Backend, log logger.Logger) *Recorder {
	return &Recorder{Backend: b, Log: log, Now: time.Now}
}

// Submit validates d and performs its writes. Validation errors are returned
// before the backend is touched.
func (r *Recorder) Submit(ctx context.Context, d Draft) (*Result, error) {
	if err := Validate(d, r.Now()); err != nil {
		return nil, err
	}

	res := &Result{}
	priorStatus := entity.StatusNewCold
	if d.Lead != nil {
		res.LeadID = d.Lead.ID
		priorStatus = d.Lead.Status
	}
	leadID := func() *int64 { id := res.LeadID; return &id }

	s := newSaga(r.Log)

	if d.Lead == nil {
		s.add("create_lead", func(ctx context.Context) error {
			lead, err := r.Backend.CreateLead(ctx, LeadInput{
				FullName: strings.TrimSpace(d.NewLead.FullName),
				Phone:    strings.TrimSpace(d.NewLead.Phone),
				Email:    strings.TrimSpace(d.NewLead.Email),
			})
			if err != nil {
				return err
			}
			res.CreatedLead = lead
			res.LeadID = lead.ID
			return nil
		})
	}

	switch d.Kind {
	case lifecycle.ActionCall:
		r.planCall(s, d, priorStatus, res, leadID)
	case lifecycle.ActionAppointment:
		s.add("create_appointment", func(ctx context.Context) error {
			in := AppointmentInput{
				LeadID:   leadID(),
				Type:     EffectiveAppointmentType(d),
				Result:   d.Appointment.Result,
				Datetime: d.Appointment.Datetime,
				Location: EncodeLocation(d.Appointment.Mode, d.Appointment.Location),
				Notes:    d.Appointment.Notes,
			}
			ev, err := r.Backend.CreateAppointment(ctx, in)
			res.Appointment = ev
			return err
		})
	case lifecycle.ActionClosing:
		s.add("create_closing", func(ctx context.Context) error {
			units := d.Closing.Units
			if d.Closing.Result == entity.ClosingNoSale {
				units = 0
			}
			ev, err := r.Backend.CreateClosing(ctx, ClosingInput{
				LeadID:          leadID(),
				Result:          d.Closing.Result,
				Units:           units,
				ProductCategory: d.Closing.ProductCategory,
				Notes:           d.Closing.Notes,
			})
			res.Closing = ev
			return err
		})
	}

	skipped, err := s.execute(ctx)
	if err != nil {
		return res, err
	}
	if ferr, ok := skipped[stepFollowUpAppointment]; ok {
		res.Partial = true
		res.FollowUpNote = ferr.Error()
	}

	res.NextDraft = FollowUp(d, res.LeadID)
	if res.Closing != nil && res.Closing.Result == entity.ClosingWon && res.Closing.Units > 0 {
		res.Celebrate = true
		res.CloseAfter = CelebrationDelay
	}
	return res, nil
}

func (r *Recorder) planCall(s *saga, d Draft, priorStatus entity.LeadStatus, res *Result, leadID func() *int64) {
	outcome := d.Call.Outcome

	s.add("create_call", func(ctx context.Context) error {
		in := CallInput{
			LeadID:     leadID(),
			Outcome:    outcome.Normalized(),
			ContactRef: d.Call.ContactRef,
			Notes:      d.Call.Notes,
		}
		if entity.CallOutcome(outcome).NeedsCallback() {
			in.NextCallAt = d.Call.NextCallAt
		}
		ev, err := r.Backend.CreateCall(ctx, in)
		res.Call = ev
		return err
	})

	switch outcome {
	case CallOutcome(entity.CallDeclined):
		s.add("mark_lost", func(ctx context.Context) error {
			lead, err := r.Backend.UpdateLeadStatus(ctx, res.LeadID, StatusInput{
				ToStatus: entity.StatusClosedLost,
				Reason:   "call_declined",
			})
			res.Lead = lead
			return err
		})
	case OutcomeAnsweredAppt:
		apptType := lifecycle.PreferredAppointmentType(priorStatus)
		s.addBestEffort(stepFollowUpAppointment, func(ctx context.Context) error {
			ev, err := r.Backend.CreateAppointment(ctx, AppointmentInput{
				LeadID:   leadID(),
				Type:     apptType,
				Result:   entity.AppointmentSet,
				Datetime: d.Call.AppointmentAt,
				Location: EncodeLocation(d.Call.AppointmentMode, d.Call.AppointmentLocation),
			})
			res.Appointment = ev
			return err
		})
	}
}

// LoadPrefill fetches the calendar of the selected lead and applies
// PrefillFromCalendar. Cancelling ctx abandons the fetch and leaves d as is.
func LoadPrefill(ctx context.Context, src CalendarSource, d Draft) (Draft, error) {
	if d.Lead == nil || d.Kind != lifecycle.ActionAppointment {
		return d, nil
	}
	entries, err := src.LeadCalendar(ctx, d.Lead.ID)
	if err != nil {
		return d, err
	}
	return PrefillFromCalendar(d, entries), nil
}
