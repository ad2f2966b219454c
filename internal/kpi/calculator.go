// Package kpi derives rates from raw activity counts and prepares them for
// display: threshold severity, German number formatting and XLSX export.
package kpi

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

type UserKPIs struct {
	CallsMade             int     `json:"callsMade"`
	CallsAnswered         int     `json:"callsAnswered"`
	PickupRate            float64 `json:"pickupRate"`
	FirstAppointmentsSet  int     `json:"firstAppointmentsSet"`
	FirstApptRate         float64 `json:"firstApptRate"`
	SecondAppointmentsSet int     `json:"secondAppointmentsSet"`
	SecondApptRate        float64 `json:"secondApptRate"`
	Closings              int     `json:"closings"`
	UnitsTotal            float64 `json:"unitsTotal"`
	AvgUnitsPerClosing    float64 `json:"avgUnitsPerClosing"`
}

type MemberKPIs struct {
	UserID    int64    `json:"userId"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	KPIs      UserKPIs `json:"kpis"`
}

type TeamKPIs struct {
	TeamName   string       `json:"teamName"`
	Aggregated UserKPIs     `json:"aggregated"`
	Members    []MemberKPIs `json:"members"`
}

func rate(n, d float64) float64 {
	if d <= 0 {
		return 0
	}
	return n / d
}

// FromCounts computes every rate of c. Empty denominators give 0.
func FromCounts(c entity.ActivityCounts) UserKPIs {
	return UserKPIs{
		CallsMade:             c.CallsMade,
		CallsAnswered:         c.CallsAnswered,
		PickupRate:            rate(float64(c.CallsAnswered), float64(c.CallsMade)),
		FirstAppointmentsSet:  c.FirstAppointmentsSet,
		FirstApptRate:         rate(float64(c.FirstAppointmentsSet), float64(c.CallsAnswered)),
		SecondAppointmentsSet: c.SecondAppointmentsSet,
		SecondApptRate:        rate(float64(c.SecondAppointmentsSet), float64(c.FirstAppointmentsSet)),
		Closings:              c.Closings,
		UnitsTotal:            c.UnitsTotal,
		AvgUnitsPerClosing:    rate(c.UnitsTotal, float64(c.Closings)),
	}
}

func (k UserKPIs) counts() entity.ActivityCounts {
	return entity.ActivityCounts{
		CallsMade:             k.CallsMade,
		CallsAnswered:         k.CallsAnswered,
		FirstAppointmentsSet:  k.FirstAppointmentsSet,
		SecondAppointmentsSet: k.SecondAppointmentsSet,
		Closings:              k.Closings,
		UnitsTotal:            k.UnitsTotal,
	}
}

// Aggregate sums the counts of all entries and recomputes the rates from the
// totals, so a team rate is never an average of member rates.
func Aggregate(all ...UserKPIs) UserKPIs {
	var total entity.ActivityCounts
	for _, k := range all {
		c := k.counts()
		total.CallsMade += c.CallsMade
		total.CallsAnswered += c.CallsAnswered
		total.FirstAppointmentsSet += c.FirstAppointmentsSet
		total.SecondAppointmentsSet += c.SecondAppointmentsSet
		total.Closings += c.Closings
		total.UnitsTotal += c.UnitsTotal
	}
	return FromCounts(total)
}

// Team builds member rows for users from their counts. Users without any
// activity get zero rows.
func Team(name string, members []*entity.User, counts map[int64]entity.ActivityCounts) TeamKPIs {
	out := TeamKPIs{TeamName: name, Members: make([]MemberKPIs, 0, len(members))}
	all := make([]UserKPIs, 0, len(members))
	for _, u := range members {
		k := FromCounts(counts[u.ID])
		all = append(all, k)
		out.Members = append(out.Members, MemberKPIs{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			KPIs:      k,
		})
	}
	out.Aggregated = Aggregate(all...)
	return out
}

// Value looks up a KPI by its configuration name.
func (k UserKPIs) Value(name string) (float64, bool) {
	switch name {
	case "calls_made":
		return float64(k.CallsMade), true
	case "calls_answered":
		return float64(k.CallsAnswered), true
	case "pickup_rate":
		return k.PickupRate, true
	case "first_appointments_set":
		return float64(k.FirstAppointmentsSet), true
	case "first_appt_rate":
		return k.FirstApptRate, true
	case "second_appointments_set":
		return float64(k.SecondAppointmentsSet), true
	case "second_appt_rate":
		return k.SecondApptRate, true
	case "closings":
		return float64(k.Closings), true
	case "units_total":
		return k.UnitsTotal, true
	case "avg_units_per_closing":
		return k.AvgUnitsPerClosing, true
	}
	return 0, false
}
