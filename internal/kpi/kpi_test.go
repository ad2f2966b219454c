package kpi

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

func TestFromCounts(t *testing.T) {
	k := FromCounts(entity.ActivityCounts{
		CallsMade: 20, CallsAnswered: 5, FirstAppointmentsSet: 2,
		SecondAppointmentsSet: 1, Closings: 2, UnitsTotal: 21,
	})

	assert.InDelta(t, 0.25, k.PickupRate, 1e-9)
	assert.InDelta(t, 0.4, k.FirstApptRate, 1e-9)
	assert.InDelta(t, 0.5, k.SecondApptRate, 1e-9)
	assert.InDelta(t, 10.5, k.AvgUnitsPerClosing, 1e-9)
}

func TestFromCountsZeroDenominators(t *testing.T) {
	k := FromCounts(entity.ActivityCounts{})
	assert.Zero(t, k.PickupRate)
	assert.Zero(t, k.FirstApptRate)
	assert.Zero(t, k.SecondApptRate)
	assert.Zero(t, k.AvgUnitsPerClosing)
}

func TestTeamRecomputesRatesFromTotals(t *testing.T) {
	members := []*entity.User{
		{ID: 1, FirstName: "Anna", LastName: "Berger"},
		{ID: 2, FirstName: "Ben", LastName: "Gruber"},
		{ID: 3, FirstName: "Idle", LastName: "User"},
	}
	counts := map[int64]entity.ActivityCounts{
		1: {CallsMade: 10, CallsAnswered: 1},
		2: {CallsMade: 30, CallsAnswered: 9},
	}

	team := Team("Wien", members, counts)
	require.Len(t, team.Members, 3)
	assert.Equal(t, 40, team.Aggregated.CallsMade)
	// 10/40, not the mean of 0.1 and 0.3
	assert.InDelta(t, 0.25, team.Aggregated.PickupRate, 1e-9)
	assert.Zero(t, team.Members[2].KPIs.CallsMade)
}

func TestClassify(t *testing.T) {
	cfg := &entity.KPIConfig{WarnThreshold: f64(0.2), GoodThreshold: f64(0.3)}

	assert.Equal(t, SeveritySuccess, Classify(0.3, cfg))
	assert.Equal(t, SeverityWarning, Classify(0.2, cfg))
	assert.Equal(t, SeverityWarning, Classify(0.25, cfg))
	assert.Equal(t, SeverityDanger, Classify(0.19, cfg))
	assert.Equal(t, SeverityDefault, Classify(0.19, &entity.KPIConfig{}))
	assert.Equal(t, SeverityDefault, Classify(1, nil))
	assert.Equal(t, SeverityDanger, Classify(1, &entity.KPIConfig{GoodThreshold: f64(2)}))
}

func TestGermanFormatting(t *testing.T) {
	assert.Equal(t, "25,0 %", German.Percent(0.25))
	assert.Equal(t, "1.234.567", German.Count(1234567))
	assert.Equal(t, "12,50", German.Units(12.5))
}

func TestCardsRespectVisibilityAndOrder(t *testing.T) {
	cfgs := Defaults()
	k := FromCounts(entity.ActivityCounts{CallsMade: 10, CallsAnswered: 4})

	cards := Cards(k, cfgs, entity.RoleStarter, nil)
	require.Len(t, cards, 10)
	assert.Equal(t, "calls_made", cards[0].Name)
	assert.Equal(t, "Pickup-Rate", cards[2].Label)
	assert.Equal(t, SeveritySuccess, cards[2].Severity)
	assert.Equal(t, "40,0 %", cards[2].Display)
	assert.Equal(t, SeverityDefault, cards[0].Severity)

	cfgs[0].VisibilityRoles = []entity.UserRole{entity.RoleAdmin}
	assert.Len(t, Cards(k, cfgs, entity.RoleStarter, nil), 9)
}

func TestResolvePeriods(t *testing.T) {
	// Thursday
	now := time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

	r, err := Resolve(PeriodToday, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), r.Start)

	r, err = Resolve(PeriodWeek, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, OpenEnd, r.End)

	r, err = Resolve(PeriodMonth, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), r.Start)

	sunday := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	r, err = Resolve(PeriodWeek, nil, nil, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), r.Start)

	s := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	e := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	r, err = Resolve(PeriodCustom, &s, &e, now)
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))

	_, err = Resolve(PeriodCustom, &s, nil, now)
	assert.ErrorIs(t, err, ErrCustomNeedsBounds)
	_, err = Resolve(PeriodCustom, &e, &s, now)
	assert.ErrorIs(t, err, ErrInvertedRange)
	_, err = Resolve("year", nil, nil, now)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestFunnel(t *testing.T) {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	r := Range{Start: start, End: OpenEnd}
	created := start.Add(2 * time.Hour)

	leads := []*entity.Lead{
		{ID: 1, CreatedAt: created},
		{ID: 2, CreatedAt: created},
		{ID: 3, CreatedAt: start.Add(-time.Hour)},
	}
	h := func(lead int64, to entity.LeadStatus, after time.Duration, reason string) *entity.LeadStatusHistory {
		return &entity.LeadStatusHistory{LeadID: lead, ToStatus: to, ChangedAt: created.Add(after), Reason: reason}
	}
	history := []*entity.LeadStatusHistory{
		h(1, entity.StatusNewCold, 0, "created"),
		h(1, entity.StatusContactEstablished, 4*time.Hour, "call_answered"),
		h(1, entity.StatusFirstApptScheduled, 10*time.Hour, "first_appt_scheduled"),
		h(2, entity.StatusNewCold, 0, "created"),
		h(2, entity.StatusClosedLost, 2*time.Hour, "wrong_number"),
		h(3, entity.StatusContactEstablished, time.Hour, "call_answered"),
	}

	f := Funnel(leads, history, r)

	assert.Equal(t, 2, f.LeadsCreated)
	assert.Equal(t, 2, f.StatusCounts["new_cold"])
	assert.Equal(t, 1, f.StatusCounts["contact_established"])
	assert.InDelta(t, 0.5, f.Conversions["contactRate"], 1e-9)
	assert.InDelta(t, 1.0, f.Conversions["firstApptRate"], 1e-9)
	assert.InDelta(t, 0.5, f.DropOffs["callDeclineRate"], 1e-9)
	assert.InDelta(t, 4.0, f.TimeMetrics["avgTimeToFirstContactHours"], 1e-9)
	assert.InDelta(t, 10.0, f.TimeMetrics["avgTimeToFirstApptHours"], 1e-9)
	assert.InDelta(t, 3.0, f.TimeMetrics["avg_time_in_status_new_coldHours"], 1e-9)
}

func TestFunnelEmpty(t *testing.T) {
	f := Funnel(nil, nil, Range{Start: time.Now(), End: OpenEnd})
	assert.Zero(t, f.LeadsCreated)
	assert.Empty(t, f.StatusCounts)
}

func TestWriteTeamXLSX(t *testing.T) {
	team := Team("Wien", []*entity.User{{ID: 1, FirstName: "Anna", LastName: "Berger"}},
		map[int64]entity.ActivityCounts{1: {CallsMade: 4, CallsAnswered: 2}})

	var buf bytes.Buffer
	require.NoError(t, WriteTeamXLSX(&buf, team))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(teamSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Vorname", rows[0][0])
	assert.Equal(t, "Anna", rows[1][0])
	assert.Equal(t, "Gesamt", rows[2][0])
	assert.Equal(t, "4", rows[1][2])
}
