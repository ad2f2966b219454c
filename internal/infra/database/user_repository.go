package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type UserRepository struct {
	DB *Conn
}

func NewUserRepository(db *Conn) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone_number, employee_id,
	start_date, privacy_consent_at, terms_accepted_at, role, status, team_id, approved_by_id,
	approved_at, admin_notes, created_at, updated_at`

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.EmployeeID,
		nullTimeCol{&u.StartDate}, nullTimeCol{&u.PrivacyConsentAt}, nullTimeCol{&u.TermsAcceptedAt},
		&u.Role, &u.Status, &u.TeamID, &u.ApprovedByID,
		nullTimeCol{&u.ApprovedAt}, &u.AdminNotes, timeCol{&u.CreatedAt}, timeCol{&u.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, phone_number, employee_id,
			start_date, privacy_consent_at, terms_accepted_at, role, status, team_id, approved_by_id,
			approved_at, admin_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber, u.EmployeeID,
		formatNullTime(u.StartDate), formatNullTime(u.PrivacyConsentAt), formatNullTime(u.TermsAcceptedAt),
		string(u.Role), string(u.Status), nullInt64(u.TeamID), nullInt64(u.ApprovedByID),
		formatNullTime(u.ApprovedAt), u.AdminNotes, formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail matches case-insensitively; emails are stored lowercased.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) List(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error) {
	var (
		clauses = []string{"1 = 1"}
		args    []any
	)
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Role != nil {
		clauses = append(clauses, "role = ?")
		args = append(args, string(*filter.Role))
	}
	if filter.TeamID != nil {
		clauses = append(clauses, "team_id = ?")
		args = append(args, *filter.TeamID)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+strings.Join(clauses, " AND ")+` ORDER BY created_at DESC, id DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET email = ?, password_hash = ?, first_name = ?, last_name = ?, phone_number = ?,
			employee_id = ?, start_date = ?, role = ?, status = ?, team_id = ?, approved_by_id = ?,
			approved_at = ?, admin_notes = ?, updated_at = ?
		WHERE id = ?
	`,
		strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		u.EmployeeID, formatNullTime(u.StartDate), string(u.Role), string(u.Status), nullInt64(u.TeamID),
		nullInt64(u.ApprovedByID), formatNullTime(u.ApprovedAt), u.AdminNotes, formatTime(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(res, entity.ErrUserNotFound)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res, entity.ErrUserNotFound)
}
