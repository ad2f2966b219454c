package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

func TestFollowUpAfterFirstAppointmentResetsForm(t *testing.T) {
	at := fixedNow.Add(-time.Hour)
	d := NewDraft(lifecycle.ActionAppointment)
	d = Reduce(d, SelectLead{Lead: LeadRef{ID: 77, Status: entity.StatusFirstApptScheduled}})
	d = Reduce(d, SetAppointmentResult{Result: entity.AppointmentCompleted})
	d = Reduce(d, SetAppointmentDatetime{At: &at})
	d = Reduce(d, SetAppointmentNotes{Notes: "Unterlagen besprochen"})

	next := FollowUp(d, 77)
	require.NotNil(t, next)
	assert.Equal(t, lifecycle.ActionAppointment, next.Kind)
	assert.Equal(t, entity.AppointmentSecond, next.Appointment.Type)
	assert.Equal(t, entity.AppointmentSet, next.Appointment.Result)
	assert.Nil(t, next.Appointment.Datetime)
	assert.Empty(t, next.Appointment.Notes)
	assert.Equal(t, int64(77), next.Lead.ID)
	assert.True(t, AppointmentTypeLocked(*next))
}

func TestFollowUpAfterSecondAppointmentOpensClosing(t *testing.T) {
	d := NewDraft(lifecycle.ActionAppointment)
	d = Reduce(d, SelectLead{Lead: LeadRef{ID: 3, Status: entity.StatusSecondApptScheduled}})
	d = Reduce(d, SetAppointmentResult{Result: entity.AppointmentCompleted})

	next := FollowUp(d, 3)
	require.NotNil(t, next)
	assert.Equal(t, lifecycle.ActionClosing, next.Kind)
	assert.Equal(t, entity.StatusSecondApptCompleted, next.Lead.Status)
	assert.Equal(t, entity.ClosingWon, next.Closing.Result)
}

func TestFollowUpNoneForOtherResults(t *testing.T) {
	d := NewDraft(lifecycle.ActionAppointment)
	d = Reduce(d, SetAppointmentResult{Result: entity.AppointmentNoShow})
	assert.Nil(t, FollowUp(d, 1))
	assert.Nil(t, FollowUp(NewDraft(lifecycle.ActionCall), 1))
}

func TestReduceDoesNotTouchInput(t *testing.T) {
	d := NewDraft(lifecycle.ActionClosing)
	d2 := Reduce(d, SetUnits{Units: 4})

	assert.Equal(t, float64(0), d.Closing.Units)
	assert.Equal(t, float64(4), d2.Closing.Units)
}

func TestAppointmentTypeLockedByLead(t *testing.T) {
	d := NewDraft(lifecycle.ActionAppointment)
	d = Reduce(d, SelectLead{Lead: LeadRef{ID: 1, Status: entity.StatusFirstApptCompleted}})
	assert.Equal(t, entity.AppointmentSecond, d.Appointment.Type)

	d = Reduce(d, SetAppointmentType{Type: entity.AppointmentFirst})
	assert.Equal(t, entity.AppointmentSecond, d.Appointment.Type)

	d = Reduce(d, ClearLead{})
	d = Reduce(d, SetAppointmentType{Type: entity.AppointmentSecond})
	assert.Equal(t, entity.AppointmentSecond, d.Appointment.Type)
}

func TestSwitchingOutcomeDropsStaleTimestamps(t *testing.T) {
	at := fixedNow.Add(time.Hour)
	d := NewDraft(lifecycle.ActionCall)
	d = Reduce(d, SetCallOutcome{Outcome: CallOutcome(entity.CallNoAnswer)})
	d = Reduce(d, SetNextCallAt{At: &at})
	d = Reduce(d, SetCallOutcome{Outcome: CallOutcome(entity.CallAnswered)})

	assert.Nil(t, d.Call.NextCallAt)
}

func TestVisibleFields(t *testing.T) {
	d := NewDraft(lifecycle.ActionCall)
	d = Reduce(d, SetCallOutcome{Outcome: CallOutcome(entity.CallBusy)})
	assert.Contains(t, VisibleFields(d), FieldNextCallAt)
	assert.Contains(t, VisibleFields(d), FieldNewLeadName)

	d = Reduce(d, SelectLead{Lead: LeadRef{ID: 1, Status: entity.StatusNewCold}})
	assert.NotContains(t, VisibleFields(d), FieldNewLeadName)

	c := NewDraft(lifecycle.ActionClosing)
	assert.Contains(t, VisibleFields(c), FieldUnits)
	c = Reduce(c, SetClosingResult{Result: entity.ClosingNoSale})
	assert.NotContains(t, VisibleFields(c), FieldUnits)

	a := NewDraft(lifecycle.ActionAppointment)
	a = Reduce(a, SetAppointmentPlace{Mode: ModeOnline, Location: "Zoom"})
	assert.NotContains(t, VisibleFields(a), FieldLocation)
	assert.Empty(t, a.Appointment.Location)
}

func TestLocationEncoding(t *testing.T) {
	assert.Equal(t, "in_person: Hauptplatz 1", EncodeLocation(ModeInPerson, " Hauptplatz 1 "))
	assert.Equal(t, "online", EncodeLocation(ModeOnline, "ignored"))
	assert.Equal(t, "", EncodeLocation("", ""))

	mode, detail := DecodeLocation("in_person: Hauptplatz 1")
	assert.Equal(t, ModeInPerson, mode)
	assert.Equal(t, "Hauptplatz 1", detail)

	mode, detail = DecodeLocation("Telefonisch")
	assert.Equal(t, AppointmentMode(""), mode)
	assert.Equal(t, "Telefonisch", detail)
}

func TestDraftIsSerializable(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	d := NewDraft(lifecycle.ActionAppointment)
	d = Reduce(d, SelectLead{Lead: LeadRef{ID: 4, Status: entity.StatusContactEstablished}})
	d = Reduce(d, SetAppointmentDatetime{At: &at})

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var back Draft
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d.Lead, back.Lead)
	assert.True(t, at.Equal(*back.Appointment.Datetime))
}
