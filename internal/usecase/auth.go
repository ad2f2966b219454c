package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

const (
	msgBadCredentials   = "Ungültige E-Mail oder Passwort"
	msgPendingAccount   = "Ihr Account wartet noch auf Freigabe durch einen Administrator"
	msgLockedAccount    = "Ihr Account wurde gesperrt. Bitte kontaktieren Sie einen Administrator"
	msgInactiveAccount  = "Ihr Account ist deaktiviert"
	msgNotAuthenticated = "Nicht authentifiziert"
	msgSessionExpired   = "Sitzung abgelaufen"
	msgRegistered       = "Registrierung erfolgreich. Ein Administrator muss Ihren Account freischalten."
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	User         *entity.User
	SessionToken string
	CSRFToken    string
}

type RegisterInput struct {
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	PhoneNumber    string `json:"phoneNumber" validate:"max=50"`
	PrivacyConsent bool   `json:"privacyConsent"`
	TermsAccepted  bool   `json:"termsAccepted"`
}

type RegisterResult struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type AuthUseCase struct {
	Users      entity.UserRepositoryInterface
	Audit      entity.AuditRepositoryInterface
	Sessions   *auth.SessionManager
	Publisher  Publisher
	BcryptCost int
	Log        logger.Logger
	Now        func() time.Time
}

func NewAuthUseCase(users entity.UserRepositoryInterface, audit entity.AuditRepositoryInterface, sessions *auth.SessionManager, pub Publisher, bcryptCost int, log logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		Users: users, Audit: audit, Sessions: sessions, Publisher: pub,
		BcryptCost: bcryptCost, Log: log, Now: time.Now,
	}
}

func (uc *AuthUseCase) auditor() auditor {
	return auditor{repo: uc.Audit, log: uc.Log, now: uc.Now}
}

func statusError(s entity.UserStatus) error {
	switch s {
	case entity.UserPending:
		return unauthorized(msgPendingAccount)
	case entity.UserLocked:
		return unauthorized(msgLockedAccount)
	case entity.UserInactive:
		return unauthorized(msgInactiveAccount)
	}
	return nil
}

// Login checks the credentials and issues a session and a CSRF token.
// Every failure is audited as login_failed.
func (uc *AuthUseCase) Login(ctx context.Context, in LoginInput, ip string) (*LoginResult, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	fail := func(err error) (*LoginResult, error) {
		uc.auditor().record(ctx, auditEntry{
			Action:  entity.AuditLoginFailed,
			Context: map[string]any{"email": email, "ip": ip},
		})
		return nil, err
	}

	u, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrUserNotFound) {
		return fail(unauthorized(msgBadCredentials))
	}
	if err != nil {
		return nil, technical("load user", err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return fail(unauthorized(msgBadCredentials))
	}
	if err := statusError(u.Status); err != nil {
		return fail(err)
	}

	session, err := uc.Sessions.IssueSession(u)
	if err != nil {
		return nil, technical("issue session", err)
	}
	csrf, err := uc.Sessions.IssueCSRF(u.ID)
	if err != nil {
		return nil, technical("issue csrf token", err)
	}

	uc.auditor().record(ctx, auditEntry{
		Actor: &u.ID, Action: entity.AuditLogin, Context: map[string]any{"ip": ip},
	})
	return &LoginResult{User: u, SessionToken: session, CSRFToken: csrf}, nil
}

// Logout revokes the session token if it is still valid. Invalid tokens are
// ignored so logout always succeeds.
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := uc.Sessions.VerifySession(ctx, token)
	if err != nil {
		return nil
	}
	if err := uc.Sessions.Revoke(ctx, claims); err != nil {
		return technical("revoke session", err)
	}
	id := claims.UserID()
	uc.auditor().record(ctx, auditEntry{Actor: &id, Action: entity.AuditLogout})
	return nil
}

// Authenticate resolves a session token to an active user.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, *auth.Claims, error) {
	if token == "" {
		return nil, nil, unauthorized(msgNotAuthenticated)
	}
	claims, err := uc.Sessions.VerifySession(ctx, token)
	if err != nil {
		return nil, nil, unauthorized(msgSessionExpired)
	}
	u, err := uc.Users.FindByID(ctx, claims.UserID())
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, nil, unauthorized(msgUserNotFound)
	}
	if err != nil {
		return nil, nil, technical("load user", err)
	}
	if err := statusError(u.Status); err != nil {
		return nil, nil, err
	}
	return u, claims, nil
}

// Register creates a pending starter account and notifies the admins.
func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput, ip string) (*RegisterResult, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.PrivacyConsent {
		return nil, invalid("Die Datenschutzerklärung muss akzeptiert werden")
	}
	if !in.TermsAccepted {
		return nil, invalid("Die Nutzungsbedingungen müssen akzeptiert werden")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := uc.Users.FindByEmail(ctx, email); err == nil {
		return nil, invalid(msgEmailRegistered)
	} else if !errors.Is(err, entity.ErrUserNotFound) {
		return nil, technical("check email", err)
	}

	hash, err := auth.HashPassword(in.Password, uc.BcryptCost)
	if err != nil {
		return nil, technical("hash password", err)
	}
	now := uc.Now().UTC()
	u := &entity.User{
		Email:            email,
		PasswordHash:     hash,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		PhoneNumber:      NormalizePhone(in.PhoneNumber),
		PrivacyConsentAt: &now,
		TermsAcceptedAt:  &now,
		Role:             entity.RoleStarter,
		Status:           entity.UserPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.Users.Create(ctx, u); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, invalid(msgEmailRegistered)
		}
		return nil, technical("create user", err)
	}

	uc.auditor().record(ctx, auditEntry{
		Actor: &u.ID, Action: entity.AuditCreate, ObjectType: "User", ObjectID: &u.ID,
		Context: map[string]any{"registration": true, "ip": ip},
	})
	publish(ctx, uc.Publisher, uc.Log, queue.NewMessage(queue.KindRegistrationPending, u.ID, now))
	return &RegisterResult{Message: msgRegistered, UserID: u.ID}, nil
}

func publish(ctx context.Context, p Publisher, log logger.Logger, msg queue.Message) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, msg); err != nil {
		log.Warn("notification not published", "kind", msg.Kind, "user_id", msg.UserID, "error", err)
	}
}
