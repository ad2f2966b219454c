package activity

import (
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

const (
	maxNotes    = 1000
	maxName     = 200
	maxPhone    = 50
	maxLocation = 255
)

// Validate checks d against the rules of its activity kind. It returns
// entity.ValidationErrors so callers can show messages next to fields.
func Validate(d Draft, now time.Time) error {
	var errs entity.ValidationErrors

	switch d.Kind {
	case lifecycle.ActionCall, lifecycle.ActionAppointment, lifecycle.ActionClosing:
	default:
		errs.Add("kind", "Bitte eine Aktivität auswählen")
		return errs
	}

	validateLead(d, &errs)

	switch d.Kind {
	case lifecycle.ActionCall:
		validateCall(d.Call, now, &errs)
	case lifecycle.ActionAppointment:
		validateAppointment(d.Appointment, now, &errs)
	case lifecycle.ActionClosing:
		validateClosing(d.Closing, &errs)
	}

	return errs.Err()
}

func validateLead(d Draft, errs *entity.ValidationErrors) {
	if d.Lead != nil {
		if d.Lead.ID <= 0 {
			errs.Add(string(FieldLead), "Lead ist ungültig")
			return
		}
		if !lifecycle.Can(d.Kind, d.Lead.Status) {
			errs.Add(string(FieldLead), "Für diesen Lead-Status ist die Aktivität nicht möglich")
		}
		return
	}

	if !NeedsNewLead(d) {
		errs.Add(string(FieldLead), "Bitte einen bestehenden Lead auswählen")
		return
	}

	name := strings.TrimSpace(d.NewLead.FullName)
	phone := strings.TrimSpace(d.NewLead.Phone)
	switch {
	case name == "":
		errs.Add(string(FieldNewLeadName), "Name ist erforderlich")
	case len(name) > maxName:
		errs.Add(string(FieldNewLeadName), "Name ist zu lang")
	}
	switch {
	case phone == "":
		errs.Add(string(FieldNewLeadPhone), "Telefonnummer ist erforderlich")
	case len(phone) > maxPhone:
		errs.Add(string(FieldNewLeadPhone), "Telefonnummer ist zu lang")
	}
}

func validateCall(c CallForm, now time.Time, errs *entity.ValidationErrors) {
	if !c.Outcome.IsValid() {
		errs.Add(string(FieldOutcome), "Bitte ein Ergebnis auswählen")
		return
	}
	for _, f := range RequiredCallFields(c.Outcome) {
		switch f {
		case FieldNextCallAt:
			requireFuture(c.NextCallAt, now, FieldNextCallAt, "Rückrufdatum", errs)
		case FieldAppointmentAt:
			requireFuture(c.AppointmentAt, now, FieldAppointmentAt, "Termin-Datum", errs)
		}
	}
	if len(c.Notes) > maxNotes {
		errs.Add(string(FieldNotes), "Notizen sind zu lang")
	}
	if len(EncodeLocation(c.AppointmentMode, c.AppointmentLocation)) > maxLocation {
		errs.Add(string(FieldLocation), "Ort ist zu lang")
	}
}

func validateAppointment(a AppointmentForm, now time.Time, errs *entity.ValidationErrors) {
	if !a.Result.IsValid() {
		errs.Add(string(FieldAppointmentResult), "Bitte ein Ergebnis auswählen")
	}
	if a.Type != "" && !a.Type.IsValid() {
		errs.Add(string(FieldAppointmentType), "Termin-Typ ist ungültig")
	}
	if a.Result == entity.AppointmentSet {
		requireFuture(a.Datetime, now, FieldAppointmentDatetime, "Termin-Datum", errs)
	}
	if a.Mode != "" && a.Mode != ModeInPerson && a.Mode != ModeOnline {
		errs.Add(string(FieldMode), "Terminart ist ungültig")
	}
	if len(EncodeLocation(a.Mode, a.Location)) > maxLocation {
		errs.Add(string(FieldLocation), "Ort ist zu lang")
	}
	if len(a.Notes) > maxNotes {
		errs.Add(string(FieldNotes), "Notizen sind zu lang")
	}
}

func validateClosing(c ClosingForm, errs *entity.ValidationErrors) {
	if !c.Result.IsValid() {
		errs.Add(string(FieldClosingResult), "Bitte ein Ergebnis auswählen")
	}
	if c.Units < 0 {
		errs.Add(string(FieldUnits), "Units müssen >= 0 sein")
	}
	if len(c.ProductCategory) > 100 {
		errs.Add(string(FieldProductCategory), "Produktkategorie ist zu lang")
	}
	if len(c.Notes) > maxNotes {
		errs.Add(string(FieldNotes), "Notizen sind zu lang")
	}
}

func requireFuture(t *time.Time, now time.Time, field Field, label string, errs *entity.ValidationErrors) {
	if t == nil || t.IsZero() {
		errs.Add(string(field), label+" ist erforderlich")
		return
	}
	if t.Before(now) {
		errs.Add(string(field), label+" darf nicht in der Vergangenheit liegen")
	}
}
