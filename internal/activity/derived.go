package activity

import (
	"sort"
	"strings"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

// Field names a form input.
type Field string

const (
	FieldLead                Field = "lead"
	FieldNewLeadName         Field = "fullName"
	FieldNewLeadPhone        Field = "phone"
	FieldNewLeadEmail        Field = "email"
	FieldOutcome             Field = "outcome"
	FieldContactRef          Field = "contactRef"
	FieldNextCallAt          Field = "nextCallAt"
	FieldAppointmentAt       Field = "appointmentAt"
	FieldAppointmentType     Field = "type"
	FieldAppointmentResult   Field = "result"
	FieldAppointmentDatetime Field = "datetime"
	FieldMode                Field = "mode"
	FieldLocation            Field = "location"
	FieldClosingResult       Field = "closingResult"
	FieldUnits               Field = "units"
	FieldProductCategory     Field = "productCategory"
	FieldNotes               Field = "notes"
)

// RequiredCallFields is the outcome-dependent requirement set of the call form.
func RequiredCallFields(o CallOutcome) []Field {
	switch {
	case o == OutcomeAnsweredAppt:
		return []Field{FieldAppointmentAt}
	case entity.CallOutcome(o).NeedsCallback():
		return []Field{FieldNextCallAt}
	}
	return nil
}

func AppointmentTypeLocked(d Draft) bool {
	return d.Lead != nil
}

// EffectiveAppointmentType is the type that will be written: inferred from the
// lead status when a lead is selected, otherwise the form value.
func EffectiveAppointmentType(d Draft) entity.AppointmentType {
	if d.Lead != nil {
		return lifecycle.PreferredAppointmentType(d.Lead.Status)
	}
	if d.Appointment.Type == "" {
		return entity.AppointmentFirst
	}
	return d.Appointment.Type
}

// ShowLocation reports whether the free text location input is offered.
func ShowLocation(m AppointmentMode) bool {
	return m == ModeInPerson
}

func UnitsDisabled(d Draft) bool {
	return d.Closing.Result == entity.ClosingNoSale
}

// NeedsNewLead reports whether the form must collect a new lead inline.
func NeedsNewLead(d Draft) bool {
	return d.Lead == nil && lifecycle.CanCreateNewLead(d.Kind, EffectiveAppointmentType(d))
}

// VisibleFields lists the inputs the form shows for the current state.
func VisibleFields(d Draft) []Field {
	var out []Field
	if d.Lead == nil {
		out = append(out, FieldLead)
		if NeedsNewLead(d) {
			out = append(out, FieldNewLeadName, FieldNewLeadPhone, FieldNewLeadEmail)
		}
	}

	switch d.Kind {
	case lifecycle.ActionCall:
		out = append(out, FieldOutcome, FieldContactRef)
		out = append(out, RequiredCallFields(d.Call.Outcome)...)
		if d.Call.Outcome == OutcomeAnsweredAppt {
			out = append(out, FieldMode)
			if ShowLocation(d.Call.AppointmentMode) {
				out = append(out, FieldLocation)
			}
		}
	case lifecycle.ActionAppointment:
		out = append(out, FieldAppointmentType, FieldAppointmentResult, FieldAppointmentDatetime, FieldMode)
		if ShowLocation(d.Appointment.Mode) {
			out = append(out, FieldLocation)
		}
	case lifecycle.ActionClosing:
		out = append(out, FieldClosingResult, FieldProductCategory)
		if !UnitsDisabled(d) {
			out = append(out, FieldUnits)
		}
	}
	return append(out, FieldNotes)
}

// EncodeLocation stores mode and detail in one string, e.g. "online" or
// "in_person: Hauptplatz 1".
func EncodeLocation(mode AppointmentMode, detail string) string {
	detail = strings.TrimSpace(detail)
	if !ShowLocation(mode) {
		detail = ""
	}
	switch {
	case mode == "" && detail == "":
		return ""
	case mode == "":
		return detail
	case detail == "":
		return string(mode)
	}
	return string(mode) + ": " + detail
}

// DecodeLocation reverses EncodeLocation. Strings without a known mode prefix
// come back as detail only.
func DecodeLocation(s string) (AppointmentMode, string) {
	for _, m := range []AppointmentMode{ModeInPerson, ModeOnline} {
		if s == string(m) {
			return m, ""
		}
		if rest, ok := strings.CutPrefix(s, string(m)+":"); ok {
			return m, strings.TrimSpace(rest)
		}
	}
	return "", s
}

// PrefillFromCalendar fills an empty appointment datetime and place from the
// latest calendar entry when the selected lead already has that appointment
// scheduled. It returns d unchanged otherwise.
func PrefillFromCalendar(d Draft, entries []entity.CalendarEntry) Draft {
	if d.Kind != lifecycle.ActionAppointment || d.Lead == nil || d.Appointment.Datetime != nil {
		return d
	}

	want := entity.StatusFirstApptScheduled
	if EffectiveAppointmentType(d) == entity.AppointmentSecond {
		want = entity.StatusSecondApptScheduled
	}
	if d.Lead.Status != want {
		return d
	}

	var matches []entity.CalendarEntry
	for _, e := range entries {
		if e.LeadID == d.Lead.ID && e.Status == want {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return d
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ScheduledFor.After(matches[j].ScheduledFor)
	})

	at := matches[0].ScheduledFor
	d.Appointment.Datetime = &at
	if mode, detail := DecodeLocation(matches[0].Location); mode != "" {
		d.Appointment.Mode = mode
		d.Appointment.Location = detail
	}
	return d
}
