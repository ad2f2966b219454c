package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type TeamRepository struct {
	DB *Conn
}

func NewTeamRepository(db *Conn) *TeamRepository {
	return &TeamRepository{DB: db}
}

const teamColumns = `id, name, lead_user_id, created_at`

func scanTeam(row rowScanner) (*entity.Team, error) {
	t := &entity.Team{}
	if err := row.Scan(&t.ID, &t.Name, &t.LeadUserID, timeCol{&t.CreatedAt}); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TeamRepository) Create(ctx context.Context, t *entity.Team) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO teams (name, lead_user_id, created_at) VALUES (?, ?, ?) RETURNING id`,
		t.Name, nullInt64(t.LeadUserID), formatTime(t.CreatedAt),
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrTeamNameTaken
		}
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (r *TeamRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Team, error) {
	t, err := scanTeam(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrTeamNotFound
		}
		return nil, fmt.Errorf("find team: %w", err)
	}
	return t, nil
}

func (r *TeamRepository) FindByID(ctx context.Context, id int64) (*entity.Team, error) {
	return r.findOne(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ?`, id)
}

// First returns the oldest team.
func (r *TeamRepository) First(ctx context.Context) (*entity.Team, error) {
	return r.findOne(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY id ASC LIMIT 1`)
}

// FindByLeadUser returns the team led by userID.
func (r *TeamRepository) FindByLeadUser(ctx context.Context, userID int64) (*entity.Team, error) {
	return r.findOne(ctx, `SELECT `+teamColumns+` FROM teams WHERE lead_user_id = ? ORDER BY id ASC LIMIT 1`, userID)
}

func (r *TeamRepository) List(ctx context.Context) ([]*entity.Team, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []*entity.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Update(ctx context.Context, t *entity.Team) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE teams SET name = ?, lead_user_id = ? WHERE id = ?`,
		t.Name, nullInt64(t.LeadUserID), t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrTeamNameTaken
		}
		return fmt.Errorf("update team: %w", err)
	}
	return expectOne(res, entity.ErrTeamNotFound)
}

func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return expectOne(res, entity.ErrTeamNotFound)
}
