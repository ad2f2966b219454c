package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type EventRepository struct {
	DB *Conn
}

func NewEventRepository(db *Conn) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) CreateCall(ctx context.Context, e *entity.CallEvent) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO call_events (user_id, lead_id, datetime, contact_ref, outcome, notes, next_call_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.UserID, nullInt64(e.LeadID), formatTime(e.Datetime), e.ContactRef, string(e.Outcome), e.Notes,
		formatNullTime(e.NextCallAt),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create call event: %w", err)
	}
	return nil
}

func (r *EventRepository) CreateAppointment(ctx context.Context, e *entity.AppointmentEvent) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO appointment_events (user_id, lead_id, type, datetime, result, location, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.UserID, nullInt64(e.LeadID), string(e.Type), formatTime(e.Datetime), string(e.Result), e.Location, e.Notes,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create appointment event: %w", err)
	}
	return nil
}

func (r *EventRepository) CreateClosing(ctx context.Context, e *entity.ClosingEvent) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO closing_events (user_id, lead_id, datetime, result, units, product_category, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.UserID, nullInt64(e.LeadID), formatTime(e.Datetime), string(e.Result), e.Units, e.ProductCategory, e.Notes,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create closing event: %w", err)
	}
	return nil
}

var eventTables = map[entity.EventType]string{
	entity.EventCall:        "call_events",
	entity.EventAppointment: "appointment_events",
	entity.EventClosing:     "closing_events",
}

// Delete removes one event and returns its notes for the audit trail.
func (r *EventRepository) Delete(ctx context.Context, eventType entity.EventType, id int64) (string, error) {
	table, ok := eventTables[eventType]
	if !ok {
		return "", entity.ErrEventNotFound
	}

	var notes string
	err := r.DB.QueryRowContext(ctx, `DELETE FROM `+table+` WHERE id = ? RETURNING notes`, id).Scan(&notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", entity.ErrEventNotFound
		}
		return "", fmt.Errorf("delete %s event: %w", eventType, err)
	}
	return notes, nil
}

// Recent merges the newest events of all three kinds for one user.
func (r *EventRepository) Recent(ctx context.Context, userID int64, limit int) ([]entity.RecentEvent, error) {
	title := cases.Title(language.Und)
	var out []entity.RecentEvent

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, datetime, outcome, contact_ref, notes FROM call_events
		WHERE user_id = ? ORDER BY datetime DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent calls: %w", err)
	}
	for rows.Next() {
		e := entity.RecentEvent{Type: entity.EventCall}
		var outcome string
		if err := rows.Scan(&e.ID, timeCol{&e.Datetime}, &outcome, &e.Meta, &e.Notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan call: %w", err)
		}
		e.Title = "Anruf • " + title.String(strings.ReplaceAll(outcome, "_", " "))
		out = append(out, e)
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT id, datetime, type, result, location, notes FROM appointment_events
		WHERE user_id = ? ORDER BY datetime DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent appointments: %w", err)
	}
	for rows.Next() {
		e := entity.RecentEvent{Type: entity.EventAppointment}
		var typ, result, location string
		if err := rows.Scan(&e.ID, timeCol{&e.Datetime}, &typ, &result, &location, &e.Notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		e.Title = "Termin • " + typ
		parts := []string{"Status: " + result}
		if location != "" {
			parts = append(parts, location)
		}
		e.Meta = strings.Join(parts, " • ")
		out = append(out, e)
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT id, datetime, units, notes FROM closing_events
		WHERE user_id = ? ORDER BY datetime DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent closings: %w", err)
	}
	for rows.Next() {
		e := entity.RecentEvent{Type: entity.EventClosing, Title: "Abschluss"}
		var units float64
		if err := rows.Scan(&e.ID, timeCol{&e.Datetime}, &units, &e.Notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan closing: %w", err)
		}
		e.Meta = fmt.Sprintf("%.2f Units", units)
		out = append(out, e)
	}
	rows.Close()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Datetime.After(out[j].Datetime) })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []entity.RecentEvent{}
	}
	return out, nil
}

// CountsByUser returns raw activity totals per user for events dated
// inside [from, to]. Users without events are absent from the map.
func (r *EventRepository) CountsByUser(ctx context.Context, userIDs []int64, from, to time.Time) (map[int64]entity.ActivityCounts, error) {
	out := make(map[int64]entity.ActivityCounts, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(userIDs)+2)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, formatTime(from), formatTime(to))
	filter := `user_id IN (` + inClause(len(userIDs)) + `) AND datetime >= ? AND datetime <= ?`

	update := func(id int64, fn func(*entity.ActivityCounts)) {
		c := out[id]
		fn(&c)
		out[id] = c
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, COUNT(*), COALESCE(SUM(CASE WHEN outcome = 'answered' THEN 1 ELSE 0 END), 0)
		FROM call_events WHERE `+filter+` GROUP BY user_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("count calls: %w", err)
	}
	for rows.Next() {
		var id int64
		var made, answered int
		if err := rows.Scan(&id, &made, &answered); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan call counts: %w", err)
		}
		update(id, func(c *entity.ActivityCounts) { c.CallsMade, c.CallsAnswered = made, answered })
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT user_id,
			COALESCE(SUM(CASE WHEN type = 'first' AND result = 'set' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'second' AND result = 'set' THEN 1 ELSE 0 END), 0)
		FROM appointment_events WHERE `+filter+` GROUP BY user_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	for rows.Next() {
		var id int64
		var first, second int
		if err := rows.Scan(&id, &first, &second); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan appointment counts: %w", err)
		}
		update(id, func(c *entity.ActivityCounts) { c.FirstAppointmentsSet, c.SecondAppointmentsSet = first, second })
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT user_id, COUNT(*), COALESCE(SUM(units), 0)
		FROM closing_events WHERE `+filter+` GROUP BY user_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("count closings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var closings int
		var units float64
		if err := rows.Scan(&id, &closings, &units); err != nil {
			return nil, fmt.Errorf("scan closing counts: %w", err)
		}
		update(id, func(c *entity.ActivityCounts) { c.Closings, c.UnitsTotal = closings, units })
	}
	return out, rows.Err()
}
