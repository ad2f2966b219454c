package views

import (
	"sort"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
)

type View string

const (
	ViewAll     View = ""
	ViewActive  View = "active"
	ViewArchive View = "archive"
)

type LeadSortKey string

const (
	SortByName           LeadSortKey = "name"
	SortByStatus         LeadSortKey = "status"
	SortByNextAction     LeadSortKey = "nextAction"
	SortByCreatedAt      LeadSortKey = "createdAt"
	SortByLastActivityAt LeadSortKey = "lastActivityAt"
)

type LeadQuery struct {
	Search  string            `json:"search"`
	Status  entity.LeadStatus `json:"status"`
	View    View              `json:"view"`
	SortKey LeadSortKey       `json:"sortKey"`
	Desc    bool              `json:"desc"`
}

// Leads filters and sorts leads. The archive view shows closed leads, the
// active view everything else. Status sorting compares the German labels,
// not pipeline order. Sorting is stable; an empty SortKey keeps input order.
func Leads(leads []*entity.Lead, q LeadQuery) []*entity.Lead {
	needle := fold(q.Search)
	out := make([]*entity.Lead, 0, len(leads))
	for _, l := range leads {
		if l == nil {
			continue
		}
		switch q.View {
		case ViewActive:
			if l.CurrentStatus.IsClosed() {
				continue
			}
		case ViewArchive:
			if !l.CurrentStatus.IsClosed() {
				continue
			}
		}
		if q.Status != "" && l.CurrentStatus != q.Status {
			continue
		}
		if !matches(needle, l.FullName, l.Phone, l.Email, l.Note) {
			continue
		}
		out = append(out, l)
	}

	cmp := leadComparator(q.SortKey)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func leadComparator(key LeadSortKey) func(a, b *entity.Lead) int {
	switch key {
	case SortByName:
		c := newCollator()
		return func(a, b *entity.Lead) int { return c.CompareString(a.FullName, b.FullName) }
	case SortByStatus:
		c := newCollator()
		return func(a, b *entity.Lead) int {
			return c.CompareString(lifecycle.Label(a.CurrentStatus), lifecycle.Label(b.CurrentStatus))
		}
	case SortByNextAction:
		return func(a, b *entity.Lead) int {
			return lifecycle.ActionRank(lifecycle.NextAction(a.CurrentStatus)) -
				lifecycle.ActionRank(lifecycle.NextAction(b.CurrentStatus))
		}
	case SortByCreatedAt:
		return func(a, b *entity.Lead) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	case SortByLastActivityAt:
		return func(a, b *entity.Lead) int { return compareTime(deref(a.LastActivityAt), deref(b.LastActivityAt)) }
	}
	return nil
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

// deref maps a missing timestamp to the zero time, which sorts oldest.
func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
