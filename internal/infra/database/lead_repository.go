package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type LeadRepository struct {
	DB *Conn
}

func NewLeadRepository(db *Conn) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, owner_user_id, team_id, full_name, phone, email, current_status,
	status_updated_at, last_activity_at, tags, note, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	l := &entity.Lead{Tags: []string{}}
	err := row.Scan(
		&l.ID, &l.OwnerUserID, &l.TeamID, &l.FullName, &l.Phone, &l.Email, &l.CurrentStatus,
		timeCol{&l.StatusUpdatedAt}, nullTimeCol{&l.LastActivityAt}, jsonCol{&l.Tags}, &l.Note,
		timeCol{&l.CreatedAt},
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LeadRepository) Create(ctx context.Context, l *entity.Lead) error {
	query := `
		INSERT INTO leads (owner_user_id, team_id, full_name, phone, email, current_status,
			status_updated_at, last_activity_at, tags, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	if l.Tags == nil {
		l.Tags = []string{}
	}
	err := r.DB.QueryRowContext(ctx, query,
		l.OwnerUserID, l.TeamID, l.FullName, l.Phone, l.Email, string(l.CurrentStatus),
		formatTime(l.StatusUpdatedAt), formatNullTime(l.LastActivityAt), toJSON(l.Tags), l.Note,
		formatTime(l.CreatedAt),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return l, nil
}

func scopeWhere(scope entity.LeadScope, alias string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if scope.OwnerUserID != nil {
		clauses = append(clauses, alias+"owner_user_id = ?")
		args = append(args, *scope.OwnerUserID)
	}
	if scope.TeamID != nil {
		clauses = append(clauses, alias+"team_id = ?")
		args = append(args, *scope.TeamID)
	}
	if len(clauses) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(clauses, " AND "), args
}

func (r *LeadRepository) list(ctx context.Context, where string, args []any) ([]*entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE `+where+` ORDER BY status_updated_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := []*entity.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// List returns the leads visible in scope, most recently moved first.
func (r *LeadRepository) List(ctx context.Context, scope entity.LeadScope) ([]*entity.Lead, error) {
	where, args := scopeWhere(scope, "")
	return r.list(ctx, where, args)
}

func (r *LeadRepository) ListCreated(ctx context.Context, scope entity.LeadScope, from, to time.Time) ([]*entity.Lead, error) {
	where, args := scopeWhere(scope, "")
	where += " AND created_at >= ? AND created_at <= ?"
	args = append(args, formatTime(from), formatTime(to))
	return r.list(ctx, where, args)
}

func (r *LeadRepository) UpdateNote(ctx context.Context, id int64, note string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET note = ? WHERE id = ?`, note, id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

// SaveStatus persists the status fields and last activity of l.
func (r *LeadRepository) SaveStatus(ctx context.Context, l *entity.Lead) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET current_status = ?, status_updated_at = ?, last_activity_at = ? WHERE id = ?`,
		string(l.CurrentStatus), formatTime(l.StatusUpdatedAt), formatNullTime(l.LastActivityAt), l.ID)
	if err != nil {
		return fmt.Errorf("save lead status: %w", err)
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return expectOne(res, entity.ErrLeadNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
