package kpi

import (
	"errors"
	"time"
)

type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

var (
	ErrUnknownPeriod     = errors.New("unknown period")
	ErrCustomNeedsBounds = errors.New("start und end sind für custom erforderlich")
	ErrInvertedRange     = errors.New("start liegt nach end")
)

// OpenEnd stands in for "no upper bound".
var OpenEnd = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Range is a closed time interval in UTC.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Resolve turns a period name into a range relative to now. Custom periods
// use whole days: start at 00:00, end at the last instant of the end day.
func Resolve(p Period, start, end *time.Time, now time.Time) (Range, error) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodToday:
		return Range{Start: midnight, End: OpenEnd}, nil
	case PeriodWeek, "":
		sinceMonday := (int(midnight.Weekday()) + 6) % 7
		return Range{Start: midnight.AddDate(0, 0, -sinceMonday), End: OpenEnd}, nil
	case PeriodMonth:
		return Range{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), End: OpenEnd}, nil
	case PeriodCustom:
		if start == nil || end == nil {
			return Range{}, ErrCustomNeedsBounds
		}
		s := start.UTC()
		e := end.UTC()
		r := Range{
			Start: time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC),
			End:   time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 999999000, time.UTC),
		}
		if r.End.Before(r.Start) {
			return Range{}, ErrInvertedRange
		}
		return r, nil
	}
	return Range{}, ErrUnknownPeriod
}
