package database

import (
	"context"
	"fmt"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type StatusHistoryRepository struct {
	DB *Conn
}

func NewStatusHistoryRepository(db *Conn) *StatusHistoryRepository {
	return &StatusHistoryRepository{DB: db}
}

func (r *StatusHistoryRepository) Create(ctx context.Context, h *entity.LeadStatusHistory) error {
	var from any
	if h.FromStatus != nil {
		from = string(*h.FromStatus)
	}
	meta := h.Meta
	if meta == nil {
		meta = entity.StatusMeta{}
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO lead_status_history (lead_id, changed_by_user_id, from_status, to_status, changed_at, reason, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, h.LeadID, h.ChangedByUserID, from, string(h.ToStatus), formatTime(h.ChangedAt), h.Reason, toJSON(meta),
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("create status history: %w", err)
	}
	return nil
}

// ListScheduled returns calendar entries for scheduling history rows changed
// since the given time, newest first. Rows without a parseable scheduled_for
// are skipped.
func (r *StatusHistoryRepository) ListScheduled(ctx context.Context, scope entity.LeadScope, leadID *int64, since time.Time) ([]entity.CalendarEntry, error) {
	where, args := scopeWhere(scope, "l.")
	query := `
		SELECT h.lead_id, l.full_name, h.to_status, h.meta, l.owner_user_id, l.team_id
		FROM lead_status_history h
		JOIN leads l ON l.id = h.lead_id
		WHERE ` + where + `
		  AND h.to_status IN (?, ?, ?)
		  AND h.changed_at >= ?`
	args = append(args,
		string(entity.StatusCallScheduled),
		string(entity.StatusFirstApptScheduled),
		string(entity.StatusSecondApptScheduled),
		formatTime(since),
	)
	if leadID != nil {
		query += ` AND h.lead_id = ?`
		args = append(args, *leadID)
	}
	query += ` ORDER BY h.changed_at DESC, h.id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}
	defer rows.Close()

	entries := []entity.CalendarEntry{}
	for rows.Next() {
		var (
			e    entity.CalendarEntry
			name string
			meta entity.StatusMeta
		)
		if err := rows.Scan(&e.LeadID, &name, &e.Status, jsonCol{&meta}, &e.OwnerUserID, &e.TeamID); err != nil {
			return nil, fmt.Errorf("scan calendar entry: %w", err)
		}
		raw := meta[entity.MetaScheduledFor]
		if raw == "" {
			continue
		}
		at, err := parseTime(raw)
		if err != nil {
			continue
		}
		e.Title = "Lead " + name
		e.ScheduledFor = at
		e.Location = meta[entity.MetaLocation]
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListForLeads returns the history of the given leads within [from, to],
// oldest first.
func (r *StatusHistoryRepository) ListForLeads(ctx context.Context, leadIDs []int64, from, to time.Time) ([]*entity.LeadStatusHistory, error) {
	if len(leadIDs) == 0 {
		return []*entity.LeadStatusHistory{}, nil
	}
	args := make([]any, 0, len(leadIDs)+2)
	for _, id := range leadIDs {
		args = append(args, id)
	}
	args = append(args, formatTime(from), formatTime(to))

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, changed_by_user_id, from_status, to_status, changed_at, reason, meta
		FROM lead_status_history
		WHERE lead_id IN (`+inClause(len(leadIDs))+`)
		  AND changed_at >= ? AND changed_at <= ?
		ORDER BY changed_at ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []*entity.LeadStatusHistory{}
	for rows.Next() {
		h := &entity.LeadStatusHistory{}
		var from *string
		if err := rows.Scan(&h.ID, &h.LeadID, &h.ChangedByUserID, &from, &h.ToStatus,
			timeCol{&h.ChangedAt}, &h.Reason, jsonCol{&h.Meta}); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if from != nil {
			s := entity.LeadStatus(*from)
			h.FromStatus = &s
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
