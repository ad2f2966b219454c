package lifecycle

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

var statusLabels = map[entity.LeadStatus]string{
	entity.StatusNewCold:             "Neu (kalt)",
	entity.StatusCallScheduled:       "Anruf geplant",
	entity.StatusContactEstablished:  "Kontakt hergestellt",
	entity.StatusFirstApptPending:    "Ersttermin offen",
	entity.StatusFirstApptScheduled:  "Ersttermin geplant",
	entity.StatusFirstApptCompleted:  "Ersttermin durchgeführt",
	entity.StatusSecondApptScheduled: "Zweittermin geplant",
	entity.StatusSecondApptCompleted: "Zweittermin durchgeführt",
	entity.StatusClosedWon:           "Abschluss (Won)",
	entity.StatusClosedLost:          "Verloren (Lost)",
}

// Label returns the German display label, or the raw value if unknown.
func Label(s entity.LeadStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

var actionLabels = map[Action]string{
	ActionCall:        "Anruf",
	ActionAppointment: "Termin",
	ActionClosing:     "Abschluss",
}

func ActionLabel(a Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return "Keine"
}

// ActionRank orders next actions for sorting: call, appointment, closing, none.
func ActionRank(a Action) int {
	switch a {
	case ActionCall:
		return 1
	case ActionAppointment:
		return 2
	case ActionClosing:
		return 3
	}
	return 4
}
