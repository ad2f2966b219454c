package kpi

import "github.com/xavierca1/pipeline-dashboard/internal/entity"

// Card is one rendered KPI tile.
type Card struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Value    float64   `json:"value"`
	Display  string    `json:"display"`
	Kind     ValueKind `json:"kind"`
	Severity Severity  `json:"severity"`
}

// Cards renders the KPIs of k that role may see, in configuration order.
// Configurations without a matching value are skipped.
func Cards(k UserKPIs, configs []*entity.KPIConfig, role entity.UserRole, f *Formatter) []Card {
	if f == nil {
		f = German
	}
	cards := make([]Card, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.VisibleTo(role) {
			continue
		}
		v, ok := k.Value(cfg.Name)
		if !ok {
			continue
		}
		cards = append(cards, Card{
			Name:     cfg.Name,
			Label:    cfg.Label,
			Value:    v,
			Display:  Display(cfg.Name, v, f),
			Kind:     KindOf(cfg.Name),
			Severity: Classify(v, cfg),
		})
	}
	return cards
}

// Display formats v according to the kind of the named KPI.
func Display(name string, v float64, f *Formatter) string {
	switch KindOf(name) {
	case KindPercent:
		return f.Percent(v)
	case KindUnits:
		return f.Units(v)
	}
	return f.Count(int(v))
}
