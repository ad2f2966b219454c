package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
)

// Cache stores JSON responses under group-prefixed keys.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	InvalidateGroup(ctx context.Context, group string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Mailer sends the notification mails.
type Mailer interface {
	SendClosingWon(to string, data ClosingWonMail) error
	SendRegistrationPending(to string, data RegistrationMail) error
	SendAccountApproved(to string, data AccountApprovedMail) error
}

type ClosingWonMail struct {
	RecipientName string
	StarterName   string
	LeadName      string
	Units         float64
	OccurredAt    time.Time
}

type RegistrationMail struct {
	RecipientName string
	UserName      string
	UserEmail     string
}

type AccountApprovedMail struct {
	RecipientName string
	Role          string
}

const (
	groupKPIs  = "kpis"
	groupLeads = "leads"
)
