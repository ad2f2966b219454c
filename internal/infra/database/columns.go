package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamps are stored as fixed-width UTC text so that string comparison
// orders them correctly on both drivers.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// timeCol scans a text timestamp into *time.Time.
type timeCol struct{ dst *time.Time }

func (c timeCol) Scan(v any) error {
	switch x := v.(type) {
	case string:
		t, err := parseTime(x)
		if err != nil {
			return err
		}
		*c.dst = t
	case []byte:
		return c.Scan(string(x))
	case time.Time:
		*c.dst = x.UTC()
	case nil:
		*c.dst = time.Time{}
	default:
		return fmt.Errorf("cannot scan %T into time", v)
	}
	return nil
}

// nullTimeCol scans a nullable text timestamp into **time.Time.
type nullTimeCol struct{ dst **time.Time }

func (c nullTimeCol) Scan(v any) error {
	if v == nil {
		*c.dst = nil
		return nil
	}
	var t time.Time
	if err := (timeCol{dst: &t}).Scan(v); err != nil {
		return err
	}
	*c.dst = &t
	return nil
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// jsonCol scans a JSON text column into dst. NULL and empty text leave dst
// untouched.
type jsonCol struct{ dst any }

func (c jsonCol) Scan(v any) error {
	var raw []byte
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(x)
	case []byte:
		raw = x
	default:
		return fmt.Errorf("cannot scan %T into json", v)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, c.dst)
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
