package kpi

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

// ValueKind says how a KPI is displayed.
type ValueKind string

const (
	KindCount   ValueKind = "count"
	KindPercent ValueKind = "percent"
	KindUnits   ValueKind = "units"
	KindPanel   ValueKind = "panel"
)

var kinds = map[string]ValueKind{
	"calls_made":              KindCount,
	"calls_answered":          KindCount,
	"pickup_rate":             KindPercent,
	"first_appointments_set":  KindCount,
	"first_appt_rate":         KindPercent,
	"second_appointments_set": KindCount,
	"second_appt_rate":        KindPercent,
	"closings":                KindCount,
	"units_total":             KindUnits,
	"avg_units_per_closing":   KindUnits,
	"journey_kpis_panel":      KindPanel,
}

func KindOf(name string) ValueKind {
	if k, ok := kinds[name]; ok {
		return k
	}
	return KindCount
}

func f64(v float64) *float64 { return &v }

var allRoles = []entity.UserRole{entity.RoleStarter, entity.RoleTeamleiter, entity.RoleAdmin}

// Defaults returns a fresh copy of the built-in KPI configuration.
func Defaults() []*entity.KPIConfig {
	return []*entity.KPIConfig{
		{Name: "calls_made", Label: "Anrufe getätigt", Description: "Summe der outbound Calls im Zeitraum", Formula: "COUNT(CallEvent)", VisibilityRoles: allRoles},
		{Name: "calls_answered", Label: "Anrufe angenommen", Description: "Erfolgreich angenommene Gespräche", Formula: "COUNT(CallEvent WHERE outcome = answered)", VisibilityRoles: allRoles},
		{Name: "pickup_rate", Label: "Pickup-Rate", Description: "Anteil angenommener Calls", Formula: "calls_answered / calls_made", WarnThreshold: f64(0.2), GoodThreshold: f64(0.3), VisibilityRoles: allRoles},
		{Name: "first_appointments_set", Label: "Ersttermine", Description: "Gesetzte Ersttermine", Formula: "COUNT(Appointment WHERE type=first & result=set)", VisibilityRoles: allRoles},
		{Name: "first_appt_rate", Label: "Ersttermin-Rate", Description: "Ersttermine / angenommene Calls", Formula: "first_appointments_set / calls_answered", WarnThreshold: f64(0.1), GoodThreshold: f64(0.15), VisibilityRoles: allRoles},
		{Name: "second_appointments_set", Label: "Zweittermine", Description: "Gesetzte Zweittermine", Formula: "COUNT(Appointment WHERE type=second & result=set)", VisibilityRoles: allRoles},
		{Name: "second_appt_rate", Label: "Zweittermin-Rate", Description: "Zweittermine / Ersttermine", Formula: "second_appointments_set / first_appointments_set", WarnThreshold: f64(0.1), GoodThreshold: f64(0.15), VisibilityRoles: allRoles},
		{Name: "closings", Label: "Abschlüsse", Description: "Anzahl erfolgreicher Abschlüsse", Formula: "COUNT(ClosingEvent)", VisibilityRoles: allRoles},
		{Name: "units_total", Label: "Units gesamt", Description: "Summe der eingereichten Units", Formula: "SUM(units)", VisibilityRoles: allRoles},
		{Name: "avg_units_per_closing", Label: "Ø Units pro Abschluss", Description: "Units / Abschlüsse", Formula: "units_total / closings", WarnThreshold: f64(8), GoodThreshold: f64(12), VisibilityRoles: allRoles},
		{Name: "journey_kpis_panel", Label: "Journey-KPIs", Description: "Funnel-Ansicht im Dashboard", VisibilityRoles: []entity.UserRole{}},
	}
}
