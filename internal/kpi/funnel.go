package kpi

import (
	"sort"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

// FunnelKPIs describes how leads created in a period moved through the pipeline.
type FunnelKPIs struct {
	LeadsCreated int                `json:"leadsCreated"`
	StatusCounts map[string]int     `json:"statusCounts"`
	Conversions  map[string]float64 `json:"conversions"`
	DropOffs     map[string]float64 `json:"dropOffs"`
	TimeMetrics  map[string]float64 `json:"timeMetrics"`
}

func emptyFunnel() FunnelKPIs {
	return FunnelKPIs{
		StatusCounts: map[string]int{},
		Conversions:  map[string]float64{},
		DropOffs:     map[string]float64{},
		TimeMetrics:  map[string]float64{},
	}
}

// Funnel computes journey KPIs for leads created inside r, using the history
// rows of those leads that fall inside r.
func Funnel(leads []*entity.Lead, history []*entity.LeadStatusHistory, r Range) FunnelKPIs {
	inPeriod := make(map[int64]*entity.Lead)
	for _, l := range leads {
		if r.Contains(l.CreatedAt) {
			inPeriod[l.ID] = l
		}
	}
	if len(inPeriod) == 0 {
		return emptyFunnel()
	}

	var rows []*entity.LeadStatusHistory
	for _, h := range history {
		if _, ok := inPeriod[h.LeadID]; ok && r.Contains(h.ChangedAt) {
			rows = append(rows, h)
		}
	}

	statusLeads := map[entity.LeadStatus]map[int64]struct{}{}
	reasonLeads := map[string]map[int64]struct{}{}
	for _, h := range rows {
		addDistinct(statusLeads, h.ToStatus, h.LeadID)
		if h.Reason != "" {
			addDistinct(reasonLeads, h.Reason, h.LeadID)
		}
	}

	out := emptyFunnel()
	out.LeadsCreated = len(inPeriod)
	for s, ids := range statusLeads {
		out.StatusCounts[string(s)] = len(ids)
	}

	count := func(s entity.LeadStatus) float64 { return float64(len(statusLeads[s])) }
	reason := func(rs ...string) float64 {
		n := 0
		for _, r := range rs {
			n += len(reasonLeads[r])
		}
		return float64(n)
	}

	out.Conversions = map[string]float64{
		"contactRate":        rate(count(entity.StatusContactEstablished), float64(out.LeadsCreated)),
		"firstApptRate":      rate(count(entity.StatusFirstApptScheduled), count(entity.StatusContactEstablished)),
		"firstApptShowRate":  rate(count(entity.StatusFirstApptCompleted), count(entity.StatusFirstApptScheduled)),
		"secondApptRate":     rate(count(entity.StatusSecondApptScheduled), count(entity.StatusFirstApptCompleted)),
		"secondApptShowRate": rate(count(entity.StatusSecondApptCompleted), count(entity.StatusSecondApptScheduled)),
		"closingRate":        rate(count(entity.StatusClosedWon), count(entity.StatusSecondApptCompleted)),
	}

	out.DropOffs = map[string]float64{
		"callDeclineRate":       rate(reason("wrong_number", "call_declined"), count(entity.StatusNewCold)),
		"firstApptDeclineRate":  rate(reason("first_appt_declined"), count(entity.StatusFirstApptScheduled)),
		"secondApptDeclineRate": rate(reason("second_appt_declined"), count(entity.StatusSecondApptScheduled)),
		"noShowRateFirst":       rate(reason("no_show_first"), count(entity.StatusFirstApptScheduled)),
		"noShowRateSecond":      rate(reason("no_show_second"), count(entity.StatusSecondApptScheduled)),
		"rescheduleRateFirst":   rate(reason("rescheduled_first"), count(entity.StatusFirstApptScheduled)),
		"rescheduleRateSecond":  rate(reason("rescheduled_second"), count(entity.StatusSecondApptScheduled)),
	}

	out.TimeMetrics = timeMetrics(inPeriod, rows)
	return out
}

func addDistinct[K comparable](m map[K]map[int64]struct{}, key K, id int64) {
	if m[key] == nil {
		m[key] = map[int64]struct{}{}
	}
	m[key][id] = struct{}{}
}

func timeMetrics(leads map[int64]*entity.Lead, rows []*entity.LeadStatusHistory) map[string]float64 {
	byLead := map[int64][]*entity.LeadStatusHistory{}
	for _, h := range rows {
		byLead[h.LeadID] = append(byLead[h.LeadID], h)
	}

	var toContact, toFirst, toSecond, toClosing []float64
	inStatus := map[string][]float64{}

	for id, lead := range leads {
		hist := byLead[id]
		if len(hist) == 0 {
			continue
		}
		sort.SliceStable(hist, func(i, j int) bool { return hist[i].ChangedAt.Before(hist[j].ChangedAt) })

		reached := map[entity.LeadStatus]*entity.LeadStatusHistory{}
		for _, h := range hist {
			if _, seen := reached[h.ToStatus]; !seen {
				reached[h.ToStatus] = h
			}
		}
		hoursSince := func(from, to entity.LeadStatus, fromCreated bool, dst *[]float64) {
			end, ok := reached[to]
			if !ok {
				return
			}
			start := lead.CreatedAt
			if !fromCreated {
				begin, ok := reached[from]
				if !ok {
					return
				}
				start = begin.ChangedAt
			}
			if end.ChangedAt.Before(start) {
				return
			}
			*dst = append(*dst, end.ChangedAt.Sub(start).Hours())
		}

		hoursSince("", entity.StatusContactEstablished, true, &toContact)
		hoursSince("", entity.StatusFirstApptScheduled, true, &toFirst)
		hoursSince(entity.StatusFirstApptCompleted, entity.StatusSecondApptScheduled, false, &toSecond)
		hoursSince(entity.StatusSecondApptCompleted, entity.StatusClosedWon, false, &toClosing)

		for i := 0; i+1 < len(hist); i++ {
			d := hist[i+1].ChangedAt.Sub(hist[i].ChangedAt)
			if d < 0 {
				continue
			}
			key := "avg_time_in_status_" + string(hist[i].ToStatus) + "Hours"
			inStatus[key] = append(inStatus[key], d.Hours())
		}
	}

	out := map[string]float64{
		"avgTimeToFirstContactHours": mean(toContact),
		"avgTimeToFirstApptHours":    mean(toFirst),
		"avgTimeToSecondApptHours":   mean(toSecond),
		"avgTimeToClosingHours":      mean(toClosing),
	}
	for k, v := range inStatus {
		out[k] = mean(v)
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
