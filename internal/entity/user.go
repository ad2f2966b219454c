package entity

import (
	"context"
	"errors"
	"strings"
	"time"
)

type UserRole string

const (
	RoleStarter    UserRole = "starter"
	RoleTeamleiter UserRole = "teamleiter"
	RoleAdmin      UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	return r == RoleStarter || r == RoleTeamleiter || r == RoleAdmin
}

type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserLocked   UserStatus = "locked"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserPending, UserActive, UserInactive, UserLocked:
		return true
	}
	return false
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameTaken      = errors.New("team name already exists")
)

type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	PhoneNumber      string     `json:"phoneNumber,omitempty"`
	EmployeeID       string     `json:"employeeId,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	PrivacyConsentAt *time.Time `json:"privacyConsentAt,omitempty"`
	TermsAcceptedAt  *time.Time `json:"termsAcceptedAt,omitempty"`
	Role             UserRole   `json:"role"`
	Status           UserStatus `json:"status"`
	TeamID           *int64     `json:"teamId,omitempty"`
	ApprovedByID     *int64     `json:"approvedById,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	AdminNotes       string     `json:"adminNotes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Team struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	LeadUserID *int64    `json:"leadUserId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Status *UserStatus
	Role   *UserRole
	TeamID *int64
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

type TeamRepositoryInterface interface {
	Create(ctx context.Context, t *Team) error
	FindByID(ctx context.Context, id int64) (*Team, error)
	First(ctx context.Context) (*Team, error)
	FindByLeadUser(ctx context.Context, userID int64) (*Team, error)
	List(ctx context.Context) ([]*Team, error)
	Update(ctx context.Context, t *Team) error
	Delete(ctx context.Context, id int64) error
}
