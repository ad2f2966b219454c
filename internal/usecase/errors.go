package usecase

import (
	"errors"
	"fmt"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError is a rule violation the caller can act on. Message is shown to
// the user as is.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// AsDomainError unwraps err to a DomainError if it is one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

// TechnicalError wraps infrastructure failures. Its message never reaches
// the client.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func invalid(msg string) error      { return &DomainError{Code: CodeValidation, Message: msg} }
func notFound(msg string) error     { return &DomainError{Code: CodeNotFound, Message: msg} }
func forbidden(msg string) error    { return &DomainError{Code: CodeForbidden, Message: msg} }
func unauthorized(msg string) error { return &DomainError{Code: CodeUnauthorized, Message: msg} }

func technical(op string, err error) error {
	return &TechnicalError{Code: CodeInternal, Message: op, Err: err}
}

const (
	msgNoAccess       = "Kein Zugriff"
	msgLeadNotFound   = "Lead nicht gefunden"
	msgUserNotFound   = "Benutzer nicht gefunden"
	msgTeamNotFound   = "Team nicht gefunden"
	msgNoTeam         = "Kein Team gefunden"
	msgEventNotFound  = "Event nicht gefunden"
	msgNoPermission   = "Keine Berechtigung für diese Aktion"
	msgKPINotFound    = "KPI nicht gefunden"
	msgLeadClosed     = "Lead ist bereits abgeschlossen"
	msgUserHasNoTeam  = "User hat kein Team"
	msgScheduledFor   = "scheduled_for ist für diesen Status erforderlich"
	msgForeignMember  = "Keine Berechtigung für diesen Benutzer"
	msgNotPending     = "Benutzer ist nicht im Status 'Ausstehend'"
	msgSelfDelete     = "Eigenen Account kann nicht gelöscht werden"
	msgEmailTaken     = "E-Mail-Adresse bereits vergeben"
	msgEmailRegistered = "Diese E-Mail-Adresse ist bereits registriert"
)
