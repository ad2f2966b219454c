package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type AuditRepository struct {
	DB *Conn
}

func NewAuditRepository(db *Conn) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) Create(ctx context.Context, l *entity.AuditLog) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO audit_logs (actor_user_id, action, object_type, object_id, diff, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, nullInt64(l.ActorUserID), string(l.Action), l.ObjectType, nullInt64(l.ObjectID), l.Diff, l.Context,
		formatTime(l.CreatedAt),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first. A zero Limit means 100.
func (r *AuditRepository) List(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditLog, error) {
	var (
		clauses = []string{"1 = 1"}
		args    []any
	)
	if filter.Action != nil {
		clauses = append(clauses, "action = ?")
		args = append(args, string(*filter.Action))
	}
	if filter.UserID != nil {
		clauses = append(clauses, "actor_user_id = ?")
		args = append(args, *filter.UserID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, max(filter.Skip, 0))

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, actor_user_id, action, object_type, object_id, diff, context, created_at
		FROM audit_logs WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	out := []*entity.AuditLog{}
	for rows.Next() {
		l := &entity.AuditLog{}
		if err := rows.Scan(&l.ID, &l.ActorUserID, &l.Action, &l.ObjectType, &l.ObjectID, &l.Diff, &l.Context,
			timeCol{&l.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete audit logs: %w", err)
	}
	return res.RowsAffected()
}
